package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nowen/nowen/internal/domain"
)

const bookmarkColumns = `id, title, url, description, tags, favicon, icon, icon_url,
	category_id, order_index, is_pinned, is_read_later, is_read, created_at, updated_at`

// BookmarkFilter narrows ListBookmarksFiltered. Zero value means no filter.
type BookmarkFilter struct {
	CategoryID string
	Pinned     *bool
	ReadLater  *bool
}

// BookmarkPatch is a partial update; nil fields are left untouched.
type BookmarkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Tags        *[]string
	Favicon     *string
	Icon        *string
	IconURL     *string

	// SetCategory applies Category, which may be nil to uncategorise.
	SetCategory bool
	Category    *string

	IsPinned    *bool
	IsReadLater *bool
	IsRead      *bool
}

func scanBookmark(row scanner) (domain.Bookmark, error) {
	var (
		b        domain.Bookmark
		tags     string
		category sql.NullString
		created  string
		updated  string
	)
	err := row.Scan(&b.ID, &b.Title, &b.URL, &b.Description, &tags, &b.Favicon, &b.Icon, &b.IconURL,
		&category, &b.OrderIndex, &b.IsPinned, &b.IsReadLater, &b.IsRead, &created, &updated)
	if err != nil {
		return domain.Bookmark{}, err
	}

	b.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &b.Tags); err != nil {
			return domain.Bookmark{}, fmt.Errorf("decode tags of %s: %w", b.ID, err)
		}
	}
	if category.Valid {
		c := category.String
		b.Category = &c
	}
	b.CreatedAt = parseTime(created)
	b.UpdatedAt = parseTime(updated)
	return b, nil
}

func collectBookmarks(rows *sql.Rows) ([]domain.Bookmark, error) {
	defer rows.Close()

	out := []domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

// ListBookmarks returns every bookmark in display order.
func (s *Store) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	return s.ListBookmarksFiltered(ctx, BookmarkFilter{})
}

// ListBookmarksFiltered returns the bookmarks matching f in display order.
func (s *Store) ListBookmarksFiltered(ctx context.Context, f BookmarkFilter) ([]domain.Bookmark, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Pinned != nil {
		where = append(where, "is_pinned = ?")
		args = append(args, *f.Pinned)
	}
	if f.ReadLater != nil {
		where = append(where, "is_read_later = ?")
		args = append(args, *f.ReadLater)
	}

	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return collectBookmarks(rows)
}

// BookmarksByIDs returns the bookmarks whose id is in ids, in display
// order. Unknown ids are ignored.
func (s *Store) BookmarksByIDs(ctx context.Context, ids []string) ([]domain.Bookmark, error) {
	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id IN (` +
		placeholders(len(ids)) + `) ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("bookmarks by ids: %w", err)
	}
	return collectBookmarks(rows)
}

// GetBookmark returns one bookmark or ErrNotFound.
func (s *Store) GetBookmark(ctx context.Context, id string) (domain.Bookmark, error) {
	return getBookmark(ctx, s.db, id)
}

func getBookmark(ctx context.Context, q querier, id string) (domain.Bookmark, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id)
	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bookmark{}, ErrNotFound
	}
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("get bookmark %s: %w", id, err)
	}
	return b, nil
}

// CreateBookmark stores b at the end of the display order. A missing ID
// is generated; timestamps are set by the store.
func (s *Store) CreateBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		next, err := nextOrder(ctx, tx, "bookmarks")
		if err != nil {
			return err
		}
		b.OrderIndex = next
		b, err = s.insertBookmark(ctx, tx, b)
		return err
	})
	if err != nil {
		return domain.Bookmark{}, err
	}
	return b, nil
}

func (s *Store) insertBookmark(ctx context.Context, q querier, b domain.Bookmark) (domain.Bookmark, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	now := s.now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	tags, err := encodeTags(b.Tags)
	if err != nil {
		return domain.Bookmark{}, err
	}

	_, err = q.ExecContext(ctx, `INSERT INTO bookmarks (`+bookmarkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, url = excluded.url, description = excluded.description,
			tags = excluded.tags, favicon = excluded.favicon, icon = excluded.icon,
			icon_url = excluded.icon_url, category_id = excluded.category_id,
			order_index = excluded.order_index, is_pinned = excluded.is_pinned,
			is_read_later = excluded.is_read_later, is_read = excluded.is_read,
			updated_at = excluded.updated_at`,
		b.ID, b.Title, b.URL, b.Description, tags, b.Favicon, b.Icon, b.IconURL,
		b.Category, b.OrderIndex, b.IsPinned, b.IsReadLater, b.IsRead,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("insert bookmark: %w", err)
	}
	return b, nil
}

// UpdateBookmark applies p to the bookmark id and returns the result.
func (s *Store) UpdateBookmark(ctx context.Context, id string, p BookmarkPatch) (domain.Bookmark, error) {
	var out domain.Bookmark
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBookmark(ctx, tx, id)
		if err != nil {
			return err
		}
		applyBookmarkPatch(&b, p)
		out, err = s.insertBookmark(ctx, tx, b)
		return err
	})
	if err != nil {
		return domain.Bookmark{}, err
	}
	return out, nil
}

func applyBookmarkPatch(b *domain.Bookmark, p BookmarkPatch) {
	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	setString(&b.Title, p.Title)
	setString(&b.URL, p.URL)
	setString(&b.Description, p.Description)
	setString(&b.Favicon, p.Favicon)
	setString(&b.Icon, p.Icon)
	setString(&b.IconURL, p.IconURL)
	if p.Tags != nil {
		b.Tags = *p.Tags
	}
	if p.SetCategory {
		b.Category = p.Category
	}
	setBool(&b.IsPinned, p.IsPinned)
	setBool(&b.IsReadLater, p.IsReadLater)
	setBool(&b.IsRead, p.IsRead)
}

// DeleteBookmark removes a bookmark or returns ErrNotFound.
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark %s: %w", id, err)
	}
	return mustAffect(res)
}

// ReorderBookmarks sets order_index to each id's position in ids.
// Unknown ids are skipped.
func (s *Store) ReorderBookmarks(ctx context.Context, ids []string) error {
	return s.reorder(ctx, "bookmarks", ids)
}

// FindBookmarkByURL returns the first bookmark pointing at rawURL.
func (s *Store) FindBookmarkByURL(ctx context.Context, rawURL string) (domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE url = ? ORDER BY order_index LIMIT 1`, rawURL)
	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bookmark{}, ErrNotFound
	}
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("find bookmark by url: %w", err)
	}
	return b, nil
}

// UpsertBookmarkByURL inserts b, or refreshes the title, description,
// icon and category of the bookmark already pointing at b.URL.
// It reports whether a new row was created.
func (s *Store) UpsertBookmarkByURL(ctx context.Context, b domain.Bookmark) (bool, error) {
	existing, err := s.FindBookmarkByURL(ctx, b.URL)
	switch {
	case errors.Is(err, ErrNotFound):
		if _, err := s.CreateBookmark(ctx, b); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	desc := b.Description
	icon := b.Icon
	patch := BookmarkPatch{
		Title:       &b.Title,
		Description: &desc,
		Icon:        &icon,
		SetCategory: b.Category != nil,
		Category:    b.Category,
	}
	if _, err := s.UpdateBookmark(ctx, existing.ID, patch); err != nil {
		return false, err
	}
	return false, nil
}

// nextOrder returns the order_index following the last row of table.
func nextOrder(ctx context.Context, q querier, table string) (int, error) {
	var next int
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(order_index), -1) + 1 FROM `+table).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next order of %s: %w", table, err)
	}
	return next, nil
}

func (s *Store) reorder(ctx context.Context, table string, ids []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.timestamp()
		for i, id := range ids {
			_, err := tx.ExecContext(ctx,
				`UPDATE `+table+` SET order_index = ?, updated_at = ? WHERE id = ?`, i, now, id)
			if err != nil {
				return fmt.Errorf("reorder %s: %w", table, err)
			}
		}
		return nil
	})
}
