package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/sources/homepage"
)

const (
	// watchDebounce coalesces the burst of events an editor save produces
	watchDebounce = 500 * time.Millisecond

	// DefaultBookmarkSyncInterval is used when NewBookmarkSync gets a non-positive interval
	DefaultBookmarkSyncInterval = 24 * time.Hour
)

// BookmarkWriter is the part of the store the sync writes to
type BookmarkWriter interface {
	EnsureCategory(ctx context.Context, name, icon string) (domain.Category, error)
	UpsertBookmarkByURL(ctx context.Context, b domain.Bookmark) (bool, error)
}

// SyncStats reports the outcome of one sync
type SyncStats struct {
	Categories int `json:"categories"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
}

// SyncStatus is the last known state of the sync, for /infra
type SyncStatus struct {
	File     string    `json:"file"`
	LastSync time.Time `json:"lastSync,omitempty"`
	LastErr  string    `json:"lastError,omitempty"`
	Stats    SyncStats `json:"stats"`
}

// BookmarkSync imports a Homepage bookmarks.yaml into the database
// on start, periodically, on manual trigger and on file changes.
// Imported bookmarks are matched by URL and never deleted.
type BookmarkSync struct {
	loader        *homepage.Loader
	store         BookmarkWriter
	logger        logger.Logger
	interval      time.Duration
	watch         bool
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu     sync.RWMutex
	status SyncStatus
}

// NewBookmarkSync creates a new bookmark sync
func NewBookmarkSync(
	bookmarkFile string,
	store BookmarkWriter,
	log logger.Logger,
	interval time.Duration,
	watch bool,
) *BookmarkSync {
	if interval <= 0 {
		log.Warn("invalid bookmark sync interval, using default",
			logger.Duration("interval", interval),
			logger.Duration("default", DefaultBookmarkSyncInterval))
		interval = DefaultBookmarkSyncInterval
	}
	return &BookmarkSync{
		loader:        homepage.NewLoader(bookmarkFile),
		store:         store,
		logger:        log,
		interval:      interval,
		watch:         watch,
		stopCh:        make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
		status:        SyncStatus{File: bookmarkFile},
	}
}

// Start runs a first sync and begins the background loop.
// A failing first sync is logged; the loop still starts so a later fix
// of the file is picked up.
func (bs *BookmarkSync) Start(ctx context.Context) error {
	if _, err := bs.Sync(ctx); err != nil {
		bs.logger.Warn("initial bookmark sync failed", logger.Error(err))
	}

	var events <-chan fsnotify.Event
	var watcher *fsnotify.Watcher
	if bs.watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		// Watch the directory: editors often replace the file on save
		if err := w.Add(filepath.Dir(bs.loader.Path())); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to watch %s: %w", bs.loader.Path(), err)
		}
		watcher, events = w, w.Events
	}

	go bs.loop(ctx, watcher, events)
	return nil
}

func (bs *BookmarkSync) loop(ctx context.Context, watcher *fsnotify.Watcher, events <-chan fsnotify.Event) {
	ticker := time.NewTicker(bs.interval)
	defer ticker.Stop()

	var watchErrs <-chan error
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
		watchErrs = watcher.Errors
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	target := filepath.Clean(bs.loader.Path())

	for {
		select {
		case <-ticker.C:
			bs.syncAndLog(ctx, "interval")
		case <-bs.manualTrigger:
			bs.logger.Info("manual bookmark sync triggered")
			bs.syncAndLog(ctx, "manual")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce.Reset(watchDebounce)
			}
		case <-debounce.C:
			bs.syncAndLog(ctx, "file change")
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			bs.logger.Warn("bookmark file watcher error", logger.Error(err))
		case <-bs.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (bs *BookmarkSync) syncAndLog(ctx context.Context, reason string) {
	if _, err := bs.Sync(ctx); err != nil {
		bs.logger.Error("failed to sync bookmarks",
			logger.String("reason", reason),
			logger.Error(err))
	}
}

// Trigger asks the loop for a sync without blocking
func (bs *BookmarkSync) Trigger() {
	select {
	case bs.manualTrigger <- struct{}{}:
	default:
	}
}

// Stop stops the sync loop
func (bs *BookmarkSync) Stop() {
	bs.stopOnce.Do(func() { close(bs.stopCh) })
}

// Status returns the last sync outcome
func (bs *BookmarkSync) Status() SyncStatus {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.status
}

// Sync loads the file and upserts its categories and bookmarks
func (bs *BookmarkSync) Sync(ctx context.Context) (SyncStats, error) {
	stats, err := bs.sync(ctx)

	bs.mu.Lock()
	bs.status.LastSync = time.Now()
	bs.status.LastErr = ""
	if err != nil {
		bs.status.LastErr = err.Error()
	} else {
		bs.status.Stats = stats
	}
	bs.mu.Unlock()

	return stats, err
}

func (bs *BookmarkSync) sync(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	config, err := bs.loader.Load()
	if err != nil {
		return stats, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	groups, err := homepage.MapBookmarks(config)
	if err != nil {
		return stats, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	var errs []error
	for _, g := range groups {
		var categoryID *string
		if g.Category != "" {
			cat, err := bs.store.EnsureCategory(ctx, g.Category, "")
			if err != nil {
				errs = append(errs, fmt.Errorf("category %q: %w", g.Category, err))
				continue
			}
			categoryID = &cat.ID
			stats.Categories++
		}

		for _, b := range g.Bookmarks {
			b.Category = categoryID
			created, err := bs.store.UpsertBookmarkByURL(ctx, b)
			if err != nil {
				errs = append(errs, fmt.Errorf("bookmark %s: %w", b.URL, err))
				continue
			}
			if created {
				stats.Created++
			} else {
				stats.Updated++
			}
		}
	}

	fields := []logger.Field{
		logger.String("file", bs.loader.Path()),
		logger.Int("categories", stats.Categories),
		logger.Int("created", stats.Created),
		logger.Int("updated", stats.Updated),
		logger.Int("failed", len(errs)),
	}
	if len(errs) > 0 {
		bs.logger.Warn("synced bookmarks from file with failures", fields...)
	} else {
		bs.logger.Info("synced bookmarks from file", fields...)
	}

	return stats, errors.Join(errs...)
}
