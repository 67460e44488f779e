package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nowen/nowen/internal/domain"
)

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Categories int `json:"categories"`
	Bookmarks  int `json:"bookmarks"`
	Settings   int `json:"settings"`
	Quotes     int `json:"quotes"`
}

// userTables are wiped by FactoryReset and Import(replace), children first.
var userTables = []string{"bookmarks", "categories", "quotes", "settings"}

// Export returns everything a user owns. Admin accounts are not included.
func (s *Store) Export(ctx context.Context) (domain.Snapshot, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	bookmarks, err := s.ListBookmarks(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	quotes, err := s.ListQuotes(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Version:    domain.SnapshotVersion,
		ExportedAt: s.now().UTC(),
		Categories: categories,
		Bookmarks:  bookmarks,
		Settings:   settings,
		Quotes:     quotes,
	}, nil
}

// Import writes snap in one transaction. With replace, existing user data
// is wiped first; otherwise rows are merged by id. Bookmarks pointing at a
// category that does not exist after the import become uncategorised.
func (s *Store) Import(ctx context.Context, snap domain.Snapshot, replace bool) (ImportStats, error) {
	var stats ImportStats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if replace {
			if err := wipe(ctx, tx); err != nil {
				return err
			}
		}

		for _, c := range snap.Categories {
			if _, err := s.insertCategory(ctx, tx, c); err != nil {
				return err
			}
			stats.Categories++
		}

		known, err := categoryIDs(ctx, tx)
		if err != nil {
			return err
		}
		for _, b := range snap.Bookmarks {
			if b.Category != nil && !known[*b.Category] {
				b.Category = nil
			}
			if _, err := s.insertBookmark(ctx, tx, b); err != nil {
				return err
			}
			stats.Bookmarks++
		}

		if err := s.putSettings(ctx, tx, snap.Settings); err != nil {
			return err
		}
		stats.Settings = len(snap.Settings)

		for _, q := range snap.Quotes {
			if _, err := s.insertQuote(ctx, tx, q); err != nil {
				return err
			}
			stats.Quotes++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}
	return stats, nil
}

// FactoryReset deletes every bookmark, category, quote and setting.
func (s *Store) FactoryReset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return wipe(ctx, tx)
	})
}

func wipe(ctx context.Context, tx *sql.Tx) error {
	for _, table := range userTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	return nil
}

func categoryIDs(ctx context.Context, q querier) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("list category ids: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}
