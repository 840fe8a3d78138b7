package tools

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

const (
	feedTickInterval = time.Second
	feedBufferSize   = 50
)

// Tick is one price update from the simulated feed.
type Tick struct {
	Token string    `json:"token"`
	Price float64   `json:"price"`
	Time  time.Time `json:"time"`
}

// Feed simulates live websocket price streams, one per subscribed token.
// Each subscription runs a random walk seeded from the token name so the
// series is stable across runs. The feed is an explicit dependency handed to
// its consumers rather than package state.
type Feed struct {
	mu    sync.Mutex
	conns map[string]*feedConn
}

type feedConn struct {
	token string
	stop  chan struct{}

	mu    sync.Mutex
	ticks []Tick
}

func NewFeed() *Feed {
	return &Feed{
		conns: make(map[string]*feedConn),
	}
}

// Connect starts streaming simulated prices for the token. Connecting an
// already-connected token is a no-op.
func (f *Feed) Connect(token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.conns[token]; exists {
		return nil
	}

	conn := &feedConn{
		token: token,
		stop:  make(chan struct{}),
	}
	f.conns[token] = conn
	go conn.run()
	return nil
}

// Disconnect stops the stream for the token.
func (f *Feed) Disconnect(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, exists := f.conns[token]
	if !exists {
		return fmt.Errorf("no active connection for %s", token)
	}
	close(conn.stop)
	delete(f.conns, token)
	return nil
}

// Data returns the buffered ticks for the token. The second return value is
// false when the token is not connected.
func (f *Feed) Data(token string) ([]Tick, bool) {
	f.mu.Lock()
	conn, exists := f.conns[token]
	f.mu.Unlock()
	if !exists {
		return nil, false
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	out := make([]Tick, len(conn.ticks))
	copy(out, conn.ticks)
	return out, true
}

// Connected lists the currently subscribed tokens.
func (f *Feed) Connected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.conns))
	for token := range f.conns {
		out = append(out, token)
	}
	return out
}

// Close disconnects every stream.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for token, conn := range f.conns {
		close(conn.stop)
		delete(f.conns, token)
	}
}

func (c *feedConn) run() {
	rng := rand.New(rand.NewSource(seedFor(c.token)))
	price := 100 + rng.Float64()*900

	// First tick immediately so Data has something right after Connect.
	c.append(Tick{Token: c.token, Price: price, Time: time.Now()})

	ticker := time.NewTicker(feedTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			// Random walk, +/- 0.5% per tick.
			price *= 1 + (rng.Float64()-0.5)/100
			c.append(Tick{Token: c.token, Price: price, Time: now})
		}
	}
}

func (c *feedConn) append(tick Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks = append(c.ticks, tick)
	if len(c.ticks) > feedBufferSize {
		c.ticks = c.ticks[len(c.ticks)-feedBufferSize:]
	}
}

func seedFor(token string) int64 {
	h := fnv.New64a()
	h.Write([]byte(token))
	return int64(h.Sum64())
}
