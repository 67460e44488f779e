package healthcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/logger"
)

// BookmarkSource resolves the bookmarks a batch runs against.
type BookmarkSource interface {
	ListBookmarks(ctx context.Context) ([]domain.Bookmark, error)
	BookmarksByIDs(ctx context.Context, ids []string) ([]domain.Bookmark, error)
}

// ResultStore keeps the last probe of each bookmark.
type ResultStore interface {
	Save(ctx context.Context, records []domain.HealthRecord) error
	Get(ctx context.Context, ids []string) ([]domain.HealthRecord, error)
}

// Report is the response of a batch check.
type Report struct {
	Results []domain.ProbeResult `json:"results"`
	Summary domain.BatchSummary  `json:"summary"`
}

// Service glues bookmark lookup, the window scheduler and the result cache.
type Service struct {
	source    BookmarkSource
	prober    URLProber
	scheduler *Scheduler
	results   ResultStore
	logger    logger.Logger
	now       func() time.Time
}

// NewService wires a Service. results may be nil to disable caching.
func NewService(source BookmarkSource, prober URLProber, results ResultStore, log logger.Logger) *Service {
	return &Service{
		source:    source,
		prober:    prober,
		scheduler: NewScheduler(prober, log),
		results:   results,
		logger:    log,
		now:       time.Now,
	}
}

// CheckBookmarks probes the bookmarks named by ids, or every bookmark
// when ids is empty. Unknown ids are skipped.
func (s *Service) CheckBookmarks(ctx context.Context, ids []string) (Report, error) {
	bookmarks, err := s.lookup(ctx, ids)
	if err != nil {
		return Report{}, fmt.Errorf("lookup bookmarks: %w", err)
	}

	results := s.scheduler.Run(ctx, bookmarks)
	report := Report{
		Results: results,
		Summary: Summarize(results),
	}

	s.remember(ctx, results)
	return report, nil
}

// CheckURL probes a single URL outside of any bookmark.
func (s *Service) CheckURL(ctx context.Context, rawURL string) domain.Probe {
	return s.prober.Probe(ctx, rawURL)
}

// LastResults returns the cached probe of every current bookmark that has one.
func (s *Service) LastResults(ctx context.Context) ([]domain.HealthRecord, error) {
	if s.results == nil {
		return []domain.HealthRecord{}, nil
	}

	bookmarks, err := s.source.ListBookmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.ID)
	}

	records, err := s.results.Get(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load health results: %w", err)
	}
	return records, nil
}

func (s *Service) lookup(ctx context.Context, ids []string) ([]domain.Bookmark, error) {
	if len(ids) == 0 {
		return s.source.ListBookmarks(ctx)
	}
	return s.source.BookmarksByIDs(ctx, ids)
}

// remember stores results best-effort; a cache failure never fails the batch.
func (s *Service) remember(ctx context.Context, results []domain.ProbeResult) {
	if s.results == nil || len(results) == 0 {
		return
	}

	checkedAt := s.now().UTC()
	records := make([]domain.HealthRecord, len(results))
	for i, r := range results {
		records[i] = domain.HealthRecord{ProbeResult: r, CheckedAt: checkedAt}
	}

	if err := s.results.Save(ctx, records); err != nil {
		s.logger.Warn("failed to cache health results",
			logger.Int("count", len(records)),
			logger.Error(err))
	}
}
