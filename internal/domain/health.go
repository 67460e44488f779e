package domain

import "time"

// Status is the outcome class of a single probe.
type Status string

const (
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusTimeout  Status = "timeout"
	StatusRedirect Status = "redirect"
)

// Statuses lists every Status value in a stable order.
var Statuses = []Status{StatusOK, StatusError, StatusTimeout, StatusRedirect}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusError, StatusTimeout, StatusRedirect:
		return true
	}
	return false
}

// Probe is the raw outcome of probing one URL.
type Probe struct {
	Status       Status `json:"status"`
	StatusCode   int    `json:"statusCode,omitempty"`
	ResponseTime int64  `json:"responseTime"` // milliseconds, wall clock, >= 0
	Error        string `json:"error,omitempty"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
}

// ProbeResult is a Probe merged with the bookmark it was run for.
type ProbeResult struct {
	BookmarkID string `json:"bookmarkId"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Favicon    string `json:"favicon,omitempty"`
	Icon       string `json:"icon,omitempty"`
	IconURL    string `json:"iconUrl,omitempty"`
	Probe
}

// NewProbeResult copies the pass-through fields of b next to p.
func NewProbeResult(b Bookmark, p Probe) ProbeResult {
	return ProbeResult{
		BookmarkID: b.ID,
		URL:        b.URL,
		Title:      b.Title,
		Favicon:    b.Favicon,
		Icon:       b.Icon,
		IconURL:    b.IconURL,
		Probe:      p,
	}
}

// BatchSummary aggregates a list of ProbeResults.
type BatchSummary struct {
	Total               int   `json:"total"`
	OK                  int   `json:"ok"`
	Error               int   `json:"error"`
	Timeout             int   `json:"timeout"`
	Redirect            int   `json:"redirect"`
	AverageResponseTime int64 `json:"averageResponseTime"`
}

// HealthRecord is the last known probe for a bookmark.
type HealthRecord struct {
	ProbeResult
	CheckedAt time.Time `json:"checkedAt"`
}
