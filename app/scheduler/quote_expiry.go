// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"log"
	"time"
)

// QuoteExpirer persists the expired status of overdue quotes
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// QuoteExpiryScheduler periodically flips overdue sent quotes to expired.
// Reads already derive the status, so a missed run only delays the stored value.
type QuoteExpiryScheduler struct {
	expirer  QuoteExpirer
	logger   *log.Logger
	interval time.Duration
	timeout  time.Duration
}

func NewQuoteExpiryScheduler(expirer QuoteExpirer, logger *log.Logger, interval time.Duration) *QuoteExpiryScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = log.New(log.Writer(), "quote-expiry: ", log.LstdFlags|log.LUTC)
	}
	return &QuoteExpiryScheduler{
		expirer:  expirer,
		logger:   logger,
		interval: interval,
		timeout:  time.Minute,
	}
}

// Start runs the job once immediately and then on every tick; the returned func stops it
func (s *QuoteExpiryScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (s *QuoteExpiryScheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.logger.Printf("expire overdue quotes failed: %v", err)
		return
	}
	if n > 0 {
		s.logger.Printf("expired %d overdue quotes", n)
	}
}
