package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nowen/nowen/internal/domain"
)

func scanQuote(row scanner) (domain.Quote, error) {
	var (
		q       domain.Quote
		created string
	)
	if err := row.Scan(&q.ID, &q.Content, &q.Author, &created); err != nil {
		return domain.Quote{}, err
	}
	q.CreatedAt = parseTime(created)
	return q, nil
}

// ListQuotes returns every quote, oldest first.
func (s *Store) ListQuotes(ctx context.Context) ([]domain.Quote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, author, created_at FROM quotes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	out := []domain.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return out, nil
}

// RandomQuote picks one quote, or ErrNotFound when there are none.
func (s *Store) RandomQuote(ctx context.Context) (domain.Quote, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, author, created_at FROM quotes ORDER BY RANDOM() LIMIT 1`)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quote{}, ErrNotFound
	}
	if err != nil {
		return domain.Quote{}, fmt.Errorf("random quote: %w", err)
	}
	return q, nil
}

// CreateQuote stores a new quote.
func (s *Store) CreateQuote(ctx context.Context, content, author string) (domain.Quote, error) {
	return s.insertQuote(ctx, s.db, domain.Quote{Content: content, Author: author})
}

func (s *Store) insertQuote(ctx context.Context, db querier, q domain.Quote) (domain.Quote, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now().UTC()
	}
	_, err := db.ExecContext(ctx, `INSERT INTO quotes (id, content, author, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, author = excluded.author`,
		q.ID, q.Content, q.Author, formatTime(q.CreatedAt))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	return q, nil
}

// DeleteQuote removes a quote or returns ErrNotFound.
func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	return mustAffect(res)
}
