package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketmind/marketmind/market"
	"github.com/marketmind/marketmind/news"
	"github.com/marketmind/marketmind/signals"
	"github.com/marketmind/marketmind/stores"
)

// Toolbox holds the dependencies the tool handlers close over. Build one,
// then register Tools() with a Registry.
type Toolbox struct {
	Market    *market.Client
	News      *news.Client
	Generator *signals.Generator
	Feed      *Feed
	History   *stores.TokenHistory // Optional: records looked-up tokens
	Logger    *log.Logger
}

func (t *Toolbox) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

func marshalResult(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}

// GetTokenPrice returns the current price and 24h stats for one token.
func (t *Toolbox) GetTokenPrice(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}

	coins, err := t.Market.Markets(ctx, "usd", []string{tokenID}, 0, 1)
	if err != nil {
		return "", err
	}
	if len(coins) == 0 {
		return "", fmt.Errorf("token %q not found", tokenID)
	}

	coin := coins[0]
	if t.History != nil {
		t.History.Record(coin.ID, coin.Symbol, coin.Name)
	}

	return marshalResult(map[string]interface{}{
		"token_id":         coin.ID,
		"symbol":           coin.Symbol,
		"name":             coin.Name,
		"price_usd":        coin.CurrentPrice,
		"change_24h_pct":   coin.PriceChangePercentage24h,
		"high_24h":         coin.High24h,
		"low_24h":          coin.Low24h,
		"market_cap":       coin.MarketCap,
		"market_cap_rank":  coin.MarketCapRank,
		"total_volume_24h": coin.TotalVolume,
	})
}

// GetMarketData returns the top coins plus global market statistics.
func (t *Toolbox) GetMarketData(ctx context.Context, args map[string]interface{}) (string, error) {
	limit := intArg(args, "limit", 10)
	if limit > 50 {
		limit = 50
	}

	coins, err := t.Market.Markets(ctx, "usd", nil, 1, limit)
	if err != nil {
		return "", err
	}

	result := map[string]interface{}{"coins": coins}
	if global, err := t.Market.Global(ctx); err == nil {
		result["global"] = global.Data
	} else {
		t.logger().Printf("get_market_data: global stats unavailable: %v", err)
	}
	return marshalResult(result)
}

// SearchTokens looks up tokens by name or symbol.
func (t *Toolbox) SearchTokens(ctx context.Context, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	result, err := t.Market.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return marshalResult(map[string]interface{}{"coins": result.Coins})
}

// GetHistoricalData returns daily candles for a token.
func (t *Toolbox) GetHistoricalData(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}
	days := intArg(args, "days", 14)

	candles, err := t.Market.OHLC(ctx, tokenID, "usd", days)
	if err != nil {
		return "", err
	}
	if candles == nil {
		return "", fmt.Errorf("token %q not found", tokenID)
	}

	type candle struct {
		Time  string  `json:"time"`
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	}
	out := make([]candle, 0, len(candles))
	for _, c := range candles {
		out = append(out, candle{
			Time:  c.Time.Format(time.RFC3339),
			Open:  c.Open,
			High:  c.High,
			Low:   c.Low,
			Close: c.Close,
		})
	}
	return marshalResult(map[string]interface{}{"token_id": tokenID, "days": days, "candles": out})
}

// GetCryptoNews returns recent articles, falling back to sample data when no
// provider responds so the model always has something to summarize.
func (t *Toolbox) GetCryptoNews(ctx context.Context, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query")
	limit := intArg(args, "limit", 5)

	articles, err := t.News.Latest(ctx, query, limit)
	if err != nil {
		t.logger().Printf("get_crypto_news: providers unavailable, using samples: %v", err)
		return marshalResult(map[string]interface{}{
			"articles": news.SampleArticles(),
			"sample":   true,
		})
	}
	return marshalResult(map[string]interface{}{"articles": articles})
}

// AnalyzeTrend summarizes recent price action for a token.
func (t *Toolbox) AnalyzeTrend(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}
	days := intArg(args, "days", 14)

	candles, err := t.Market.OHLC(ctx, tokenID, "usd", days)
	if err != nil {
		return "", err
	}
	if candles == nil {
		return "", fmt.Errorf("token %q not found", tokenID)
	}

	closes := make([]decimal.Decimal, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, decimal.NewFromFloat(c.Close))
	}

	signal, err := signals.ComputeSignal(tokenID, closes)
	if err != nil {
		return "", err
	}
	return marshalResult(map[string]interface{}{
		"token_id":     tokenID,
		"days":         days,
		"trend":        signal.Direction,
		"momentum_pct": signal.Momentum,
		"sma":          signal.SMA,
		"last_price":   signal.Price,
		"summary":      signal.Reason,
	})
}

// GenerateTradingSignal produces a full signal for a token.
func (t *Toolbox) GenerateTradingSignal(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}

	signal, err := t.Generator.Generate(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if signal == nil {
		return "", fmt.Errorf("token %q not found", tokenID)
	}
	return marshalResult(signal)
}

// ConnectWebsocket subscribes the simulated live feed to a token.
func (t *Toolbox) ConnectWebsocket(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}
	if err := t.Feed.Connect(tokenID); err != nil {
		return "", err
	}
	return marshalResult(map[string]interface{}{"status": "connected", "token_id": tokenID})
}

// DisconnectWebsocket unsubscribes the feed from a token.
func (t *Toolbox) DisconnectWebsocket(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}
	if err := t.Feed.Disconnect(tokenID); err != nil {
		return "", err
	}
	return marshalResult(map[string]interface{}{"status": "disconnected", "token_id": tokenID})
}

// GetWebsocketData returns buffered ticks for a connected token.
func (t *Toolbox) GetWebsocketData(ctx context.Context, args map[string]interface{}) (string, error) {
	tokenID := stringArg(args, "token_id")
	if tokenID == "" {
		return "", fmt.Errorf("token_id is required")
	}

	ticks, connected := t.Feed.Data(tokenID)
	if !connected {
		return "", fmt.Errorf("no active connection for %s, call connect_websocket first", tokenID)
	}
	return marshalResult(map[string]interface{}{"token_id": tokenID, "ticks": ticks})
}
