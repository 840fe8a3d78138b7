package signals

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher recomputes signals for a fixed token set on a schedule and
// serves the latest batch from memory. Start and Stop bound the lifecycle
// explicitly, no background work happens before Start or after Stop.
type Refresher struct {
	generator *Generator
	tokens    []string
	interval  time.Duration
	logger    *log.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu     sync.RWMutex
	latest map[string]*Signal
}

func NewRefresher(generator *Generator, tokens []string, interval time.Duration, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		generator: generator,
		tokens:    tokens,
		interval:  interval,
		logger:    logger,
		latest:    make(map[string]*Signal),
	}
}

// Start schedules periodic refreshes and kicks off an immediate one so the
// dashboard has data before the first tick.
func (r *Refresher) Start() error {
	if r.cron != nil {
		return fmt.Errorf("refresher already started")
	}

	r.cron = cron.New()
	entryID, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), r.refreshAll)
	if err != nil {
		r.cron = nil
		return fmt.Errorf("failed to schedule signal refresh: %w", err)
	}
	r.entryID = entryID
	r.cron.Start()

	go r.refreshAll()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.cron = nil
}

func (r *Refresher) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, token := range r.tokens {
		signal, err := r.generator.Generate(ctx, token)
		if err != nil {
			r.logger.Printf("signal refresh failed for %s: %v", token, err)
			continue
		}
		if signal == nil {
			r.logger.Printf("signal refresh: unknown token %s", token)
			continue
		}

		r.mu.Lock()
		r.latest[token] = signal
		r.mu.Unlock()
	}
}

// Latest returns the most recent signal per token.
func (r *Refresher) Latest() []Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Signal, 0, len(r.tokens))
	for _, token := range r.tokens {
		if signal, ok := r.latest[token]; ok {
			out = append(out, *signal)
		}
	}
	return out
}

// Get returns the latest signal for one token, nil when none computed yet.
func (r *Refresher) Get(tokenID string) *Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if signal, ok := r.latest[tokenID]; ok {
		cp := *signal
		return &cp
	}
	return nil
}
