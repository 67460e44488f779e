package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSettings returns every stored setting.
func (s *Store) GetSettings(ctx context.Context) (map[string]string, error) {
	return getSettings(ctx, s.db)
}

func getSettings(ctx context.Context, q querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return out, nil
}

// UpdateSettings upserts values and returns the full settings map.
func (s *Store) UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	var out map[string]string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.putSettings(ctx, tx, values); err != nil {
			return err
		}
		var err error
		out, err = getSettings(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) putSettings(ctx context.Context, q querier, values map[string]string) error {
	now := s.timestamp()
	for k, v := range values {
		_, err := q.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now)
		if err != nil {
			return fmt.Errorf("put setting %s: %w", k, err)
		}
	}
	return nil
}
