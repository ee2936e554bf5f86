package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ledger records admissions per client inside a trailing window
type Ledger interface {
	// Admit drops timestamps at or before now-window, then records now and
	// returns true if fewer than max remain.
	Admit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, error)
}

// Sweeper is implemented by ledgers that need periodic eviction of idle keys
type Sweeper interface {
	Sweep(now time.Time, window time.Duration) int
}

// Limiter is a per-client sliding-window rate limiter
type Limiter struct {
	ledger Ledger
	max    int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLimiter creates a limiter admitting max requests per window
func NewLimiter(ledger Ledger, max int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		ledger: ledger,
		max:    max,
		window: window,
		now:    time.Now,
		logger: logger.Named("ratelimit"),
		stopCh: make(chan struct{}),
	}
}

// Max returns the number of requests admitted per window
func (l *Limiter) Max() int {
	return l.max
}

// Window returns the sliding window length
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Admit reports whether clientID may make another request now. Ledger
// failures admit the request.
func (l *Limiter) Admit(ctx context.Context, clientID string) bool {
	ok, err := l.ledger.Admit(ctx, clientID, l.now(), l.window, l.max)
	if err != nil {
		l.logger.Warn("rate limit ledger unavailable, admitting request",
			zap.String("client", clientID),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// StartSweeper periodically evicts idle clients when the ledger supports it
func (l *Limiter) StartSweeper(interval time.Duration) {
	sweeper, ok := l.ledger.(Sweeper)
	if !ok || interval <= 0 {
		return
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-l.stopCh:
				return
			case <-ticker.C:
				if n := sweeper.Sweep(l.now(), l.window); n > 0 {
					l.logger.Debug("evicted idle clients", zap.Int("count", n))
				}
			}
		}
	}()
}

// Stop stops the sweeper
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	l.wg.Wait()
}
