package services

import (
	"context"
	"sync"
	"time"

	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// ConversationSweeper periodically evicts idle conversations
type ConversationSweeper struct {
	store    ConversationStore
	maxAge   time.Duration
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewConversationSweeper creates a sweeper that removes sessions idle for maxAge
func NewConversationSweeper(store ConversationStore, maxAge, interval time.Duration, log *logger.Logger) *ConversationSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ConversationSweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   log.WithComponent("sweeper"),
	}
}

// Start launches the sweep loop in the background
func (s *ConversationSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(ctx, s.stopCh, s.done)

	s.logger.Info().
		Dur("max_age", s.maxAge).
		Dur("interval", s.interval).
		Msg("sweeper started")
}

// Stop halts the loop and waits for it to exit
func (s *ConversationSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info().Msg("sweeper stopped")
}

func (s *ConversationSweeper) run(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one eviction pass and returns the number of removed sessions
func (s *ConversationSweeper) Sweep() int {
	start := time.Now()
	removed := s.store.EvictOlderThan(s.maxAge)
	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Int("remaining", s.store.Count()).
			Dur("duration", time.Since(start)).
			Msg("evicted idle conversations")
	}
	return removed
}
