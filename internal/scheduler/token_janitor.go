package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/nowen/nowen/internal/logger"
)

// DefaultTokenGCInterval is used when NewTokenJanitor gets a non-positive interval
const DefaultTokenGCInterval = time.Hour

// TokenCleaner deletes expired sessions
type TokenCleaner interface {
	CleanExpiredTokens(ctx context.Context) (int64, error)
}

// TokenJanitor periodically purges expired bearer tokens
type TokenJanitor struct {
	cleaner  TokenCleaner
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTokenJanitor creates a new token janitor
func NewTokenJanitor(cleaner TokenCleaner, log logger.Logger, interval time.Duration) *TokenJanitor {
	if interval <= 0 {
		log.Warn("invalid token GC interval, using default",
			logger.Duration("interval", interval),
			logger.Duration("default", DefaultTokenGCInterval))
		interval = DefaultTokenGCInterval
	}
	return &TokenJanitor{
		cleaner:  cleaner,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a first collection and begins the periodic one
func (tj *TokenJanitor) Start(ctx context.Context) {
	if _, err := tj.Collect(ctx); err != nil {
		tj.logger.Warn("initial token cleanup failed", logger.Error(err))
	}

	ticker := time.NewTicker(tj.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := tj.Collect(ctx); err != nil {
					tj.logger.Error("token cleanup failed", logger.Error(err))
				}
			case <-tj.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the janitor
func (tj *TokenJanitor) Stop() {
	tj.stopOnce.Do(func() { close(tj.stopCh) })
}

// Collect deletes expired tokens once
func (tj *TokenJanitor) Collect(ctx context.Context) (int64, error) {
	n, err := tj.cleaner.CleanExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		tj.logger.Info("expired sessions removed", logger.Int64("count", n))
	} else {
		tj.logger.Debug("no expired sessions")
	}
	return n, nil
}
