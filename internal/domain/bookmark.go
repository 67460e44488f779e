package domain

import "time"

// Bookmark represents a link saved on the dashboard.
//
// Bookmarks are owned by the persistence layer; everything else
// (health checks, search, exports) works on read snapshots.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is an opaque unique identifier (UUID for bookmarks created here).
	ID string `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Title is the display name.
	// Example: "Docker Hub"
	Title string `json:"title"`

	// URL is the absolute URL the bookmark points to.
	// Example: https://hub.docker.com/
	URL string `json:"url"`

	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`

	// ─────────────────────────────
	// Display hints (pass-through, never interpreted server-side)
	// ─────────────────────────────

	Favicon string `json:"favicon,omitempty"`
	Icon    string `json:"icon,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`

	// ─────────────────────────────
	// Organisation
	// ─────────────────────────────

	// Category references a Category ID, nil when uncategorised.
	Category *string `json:"category"`

	// OrderIndex is the stored display order (ascending).
	OrderIndex int `json:"orderIndex"`

	IsPinned    bool `json:"isPinned"`
	IsReadLater bool `json:"isReadLater"`
	IsRead      bool `json:"isRead"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category groups bookmarks on the dashboard.
type Category struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon,omitempty"`
	Color      string    `json:"color,omitempty"`
	OrderIndex int       `json:"orderIndex"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Quote is a line shown in the dashboard's quote widget.
type Quote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the full user dataset, used by export/import.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Categories []Category        `json:"categories"`
	Bookmarks  []Bookmark        `json:"bookmarks"`
	Settings   map[string]string `json:"settings"`
	Quotes     []Quote           `json:"quotes"`
}

// SnapshotVersion is the current export format version.
const SnapshotVersion = 1
