package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ChatExpirer is satisfied by the mentor session service.
type ChatExpirer interface {
	ExpireChats(ctx context.Context) (int, error)
}

// ExpirySweeper periodically closes elapsed chat windows so parties hear
// about it even when nobody touches the session.
type ExpirySweeper struct {
	expirer  ChatExpirer
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewExpirySweeper(expirer ChatExpirer, interval time.Duration, logger zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger.With().Str("component", "expiry_sweeper").Logger(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in the background
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.logger.Info().Dur("interval", s.interval).Msg("Starting expiry sweeper")
	go s.run(ctx)
}

// Stop halts the loop and waits for an in-flight sweep
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	if started {
		<-s.done
	}
}

func (s *ExpirySweeper) run(ctx context.Context) {
	defer close(s.done)

	// first sweep right away so restarts catch up
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info().Msg("Expiry sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info().Msg("Expiry sweeper cancelled")
			return
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireChats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to expire chats")
		return
	}
	if n > 0 {
		s.logger.Info().Int("expired", n).Msg("Closed elapsed chat windows")
	}
}
