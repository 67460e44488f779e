// Package metadata fetches a page and extracts what the dashboard needs
// to prefill a bookmark: title, description and favicon.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nowen/nowen/internal/utils"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 2 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// Metadata is what Fetch extracts from a page.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Favicon     string `json:"favicon"`
}

// Fetcher downloads pages and parses them with goquery.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher with the given timeout (10s when zero).
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch GETs rawURL (following redirects) and extracts its metadata.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Metadata, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return Metadata{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return Metadata{}, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	// Relative links resolve against the final URL after redirects
	base := resp.Request.URL
	return Parse(io.LimitReader(resp.Body, maxBodyBytes), base)
}

// Parse extracts metadata from an HTML document served at base.
func Parse(r io.Reader, base *url.URL) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse html: %w", err)
	}

	md := Metadata{
		Title: firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			doc.Find("title").First().Text(),
			base.Hostname(),
		),
		Description: firstNonEmpty(
			metaContent(doc, `meta[name="description"]`),
			metaContent(doc, `meta[property="og:description"]`),
		),
	}

	icon := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		for _, token := range strings.Fields(rel) {
			if token == "icon" {
				icon = strings.TrimSpace(s.AttrOr("href", ""))
				return icon == ""
			}
		}
		return true
	})
	md.Favicon = resolveIcon(base, icon)

	return md, nil
}

func parseTarget(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	return doc.Find(selector).First().AttrOr("content", "")
}

func resolveIcon(base *url.URL, href string) string {
	if href == "" {
		href = "/favicon.ico"
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
