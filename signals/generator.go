package signals

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketmind/marketmind/market"
)

// Signal directions.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
	DirectionHold = "hold"
)

// Window sizes for the indicator math.
const (
	smaWindow    = 14 // candles
	lookbackDays = 14
)

// Signal is one trading signal derived from recent price action.
type Signal struct {
	ID          string          `json:"id"`
	TokenID     string          `json:"token_id"`
	Direction   string          `json:"direction"`
	Confidence  decimal.Decimal `json:"confidence"` // 0..1
	Price       decimal.Decimal `json:"price"`
	SMA         decimal.Decimal `json:"sma"`
	Momentum    decimal.Decimal `json:"momentum"` // percent over the lookback
	Reason      string          `json:"reason"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Generator derives signals from CoinGecko candle data. Indicator math runs
// on decimals so repeated aggregation doesn't accumulate float drift.
type Generator struct {
	Market *market.Client
	Logger *log.Logger
}

func NewGenerator(marketClient *market.Client) *Generator {
	return &Generator{Market: marketClient}
}

func (g *Generator) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.Default()
}

// Generate fetches recent candles for the token and computes a signal.
// Returns (nil, nil) when the token id does not exist.
func (g *Generator) Generate(ctx context.Context, tokenID string) (*Signal, error) {
	candles, err := g.Market.OHLC(ctx, tokenID, "usd", lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", tokenID, err)
	}
	if candles == nil {
		return nil, nil
	}

	closes := make([]decimal.Decimal, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, decimal.NewFromFloat(c.Close))
	}

	signal, err := ComputeSignal(tokenID, closes)
	if err != nil {
		return nil, err
	}
	return signal, nil
}

// ComputeSignal derives a signal from a close-price series, oldest first.
// The rule set is deliberately simple: price stretched away from its moving
// average together with strong momentum in the same direction.
func ComputeSignal(tokenID string, closes []decimal.Decimal) (*Signal, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("not enough price history for %s: %d points", tokenID, len(closes))
	}

	price := closes[len(closes)-1]
	sma := simpleMovingAverage(closes, smaWindow)
	momentum := momentumPercent(closes)

	two := decimal.NewFromInt(2)
	hundred := decimal.NewFromInt(100)
	upperBand := sma.Mul(hundred.Add(two)).Div(hundred)  // sma * 1.02
	lowerBand := sma.Mul(hundred.Sub(two)).Div(hundred)  // sma * 0.98
	strongMove := decimal.NewFromInt(5)

	signal := &Signal{
		ID:          uuid.NewString(),
		TokenID:     tokenID,
		Price:       price,
		SMA:         sma,
		Momentum:    momentum,
		GeneratedAt: time.Now(),
	}

	switch {
	case price.GreaterThan(upperBand) && momentum.GreaterThan(strongMove):
		signal.Direction = DirectionBuy
		signal.Reason = fmt.Sprintf("price above %d-period SMA with %s%% momentum", smaWindow, momentum.Round(2))
	case price.LessThan(lowerBand) && momentum.LessThan(strongMove.Neg()):
		signal.Direction = DirectionSell
		signal.Reason = fmt.Sprintf("price below %d-period SMA with %s%% momentum", smaWindow, momentum.Round(2))
	default:
		signal.Direction = DirectionHold
		signal.Reason = "no clear trend"
	}

	signal.Confidence = confidence(momentum)
	return signal, nil
}

// simpleMovingAverage averages the last window closes (or all of them when
// the series is shorter).
func simpleMovingAverage(closes []decimal.Decimal, window int) decimal.Decimal {
	if len(closes) < window {
		window = len(closes)
	}
	sum := decimal.Zero
	for _, c := range closes[len(closes)-window:] {
		sum = sum.Add(c)
	}
	return sum.Div(decimal.NewFromInt(int64(window)))
}

// momentumPercent is the percentage change from the first to the last close.
func momentumPercent(closes []decimal.Decimal) decimal.Decimal {
	first := closes[0]
	last := closes[len(closes)-1]
	if first.IsZero() {
		return decimal.Zero
	}
	return last.Sub(first).Div(first).Mul(decimal.NewFromInt(100))
}

// confidence maps momentum magnitude to [0.5, 0.95]: half a point of
// confidence as the floor plus a point per 25% of momentum.
func confidence(momentum decimal.Decimal) decimal.Decimal {
	floor := decimal.NewFromFloat(0.5)
	ceiling := decimal.NewFromFloat(0.95)

	scaled := momentum.Abs().Div(decimal.NewFromInt(25))
	conf := floor.Add(scaled.Mul(decimal.NewFromFloat(0.45)))
	if conf.GreaterThan(ceiling) {
		return ceiling
	}
	return conf
}
