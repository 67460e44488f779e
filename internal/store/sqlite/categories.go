package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nowen/nowen/internal/domain"
)

const categoryColumns = `id, name, icon, color, order_index, created_at, updated_at`

// CategoryPatch is a partial update; nil fields are left untouched.
type CategoryPatch struct {
	Name  *string
	Icon  *string
	Color *string
}

func scanCategory(row scanner) (domain.Category, error) {
	var (
		c       domain.Category
		created string
		updated string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.OrderIndex, &created, &updated); err != nil {
		return domain.Category{}, err
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

// ListCategories returns every category in display order.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY order_index, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// GetCategory returns one category or ErrNotFound.
func (s *Store) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return getCategory(ctx, s.db, `id = ?`, id)
}

// FindCategoryByName returns the category named name or ErrNotFound.
func (s *Store) FindCategoryByName(ctx context.Context, name string) (domain.Category, error) {
	return getCategory(ctx, s.db, `name = ?`, name)
}

func getCategory(ctx context.Context, q querier, where string, arg string) (domain.Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE `+where+` ORDER BY order_index LIMIT 1`, arg)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, ErrNotFound
	}
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory stores c at the end of the display order.
func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		next, err := nextOrder(ctx, tx, "categories")
		if err != nil {
			return err
		}
		c.OrderIndex = next
		c, err = s.insertCategory(ctx, tx, c)
		return err
	})
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

// EnsureCategory returns the category named name, creating it when missing.
func (s *Store) EnsureCategory(ctx context.Context, name, icon string) (domain.Category, error) {
	c, err := s.FindCategoryByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Category{}, err
	}
	return s.CreateCategory(ctx, domain.Category{Name: name, Icon: icon})
}

func (s *Store) insertCategory(ctx context.Context, q querier, c domain.Category) (domain.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := q.ExecContext(ctx, `INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, icon = excluded.icon, color = excluded.color,
			order_index = excluded.order_index, updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Icon, c.Color, c.OrderIndex, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// UpdateCategory applies p to the category id and returns the result.
func (s *Store) UpdateCategory(ctx context.Context, id string, p CategoryPatch) (domain.Category, error) {
	var out domain.Category
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getCategory(ctx, tx, `id = ?`, id)
		if err != nil {
			return err
		}
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Icon != nil {
			c.Icon = *p.Icon
		}
		if p.Color != nil {
			c.Color = *p.Color
		}
		out, err = s.insertCategory(ctx, tx, c)
		return err
	})
	if err != nil {
		return domain.Category{}, err
	}
	return out, nil
}

// DeleteCategory removes a category; its bookmarks become uncategorised.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return mustAffect(res)
}

// ReorderCategories sets order_index to each id's position in ids.
func (s *Store) ReorderCategories(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "categories", ids)
}
