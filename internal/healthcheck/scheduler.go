package healthcheck

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/logger"
)

// DefaultWindowSize caps the number of probes in flight.
const DefaultWindowSize = 5

// URLProber is satisfied by *Prober.
type URLProber interface {
	Probe(ctx context.Context, rawURL string) domain.Probe
}

// Scheduler runs a prober over bookmarks in fixed-size windows.
//
// Probes inside a window run concurrently; a window starts only once
// every probe of the previous one has returned. Results keep input order.
type Scheduler struct {
	prober     URLProber
	windowSize int
	logger     logger.Logger
}

// NewScheduler creates a scheduler with DefaultWindowSize.
func NewScheduler(prober URLProber, log logger.Logger) *Scheduler {
	return &Scheduler{
		prober:     prober,
		windowSize: DefaultWindowSize,
		logger:     log,
	}
}

// Run probes every bookmark and returns one result per input, in input order.
func (s *Scheduler) Run(ctx context.Context, bookmarks []domain.Bookmark) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(bookmarks))
	if len(bookmarks) == 0 {
		return results
	}

	start := time.Now()
	windows := 0

	for lo := 0; lo < len(bookmarks); lo += s.windowSize {
		hi := min(lo+s.windowSize, len(bookmarks))
		windows++

		var g errgroup.Group
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				probe := s.prober.Probe(ctx, bookmarks[i].URL)
				results[i] = domain.NewProbeResult(bookmarks[i], probe)
				return nil
			})
		}
		_ = g.Wait() // probes never fail

		s.logger.Debug("health check window finished",
			logger.Int("window", windows),
			logger.Int("size", hi-lo))
	}

	s.logger.Info("health check batch finished",
		logger.Int("bookmarks", len(bookmarks)),
		logger.Int("windows", windows),
		logger.Duration("duration", time.Since(start)))

	return results
}
