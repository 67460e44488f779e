package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://example.com/docs/page")

	tests := []struct {
		name string
		html string
		want Metadata
	}{
		{
			name: "title and description",
			html: `<html><head><title> Example Docs </title>
				<meta name="description" content="All the docs">
				<link rel="shortcut icon" href="/static/fav.png"></head></html>`,
			want: Metadata{Title: "Example Docs", Description: "All the docs", Favicon: "https://example.com/static/fav.png"},
		},
		{
			name: "open graph wins for title",
			html: `<html><head><title>Plain</title>
				<meta property="og:title" content="Rich Title">
				<meta property="og:description" content="OG desc"></head></html>`,
			want: Metadata{Title: "Rich Title", Description: "OG desc", Favicon: "https://example.com/favicon.ico"},
		},
		{
			name: "relative icon",
			html: `<html><head><link rel="icon" href="icon.svg"></head></html>`,
			want: Metadata{Title: "example.com", Favicon: "https://example.com/docs/icon.svg"},
		},
		{
			name: "apple touch icon ignored",
			html: `<html><head><link rel="apple-touch-icon" href="/apple.png"></head></html>`,
			want: Metadata{Title: "example.com", Favicon: "https://example.com/favicon.ico"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.html), base)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new/", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<title>Moved Here</title><link rel="icon" href="f.ico">`))
	}))
	defer srv.Close()

	got, err := NewFetcher(time.Second).Fetch(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Title != "Moved Here" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Favicon != srv.URL+"/new/f.ico" {
		t.Errorf("Favicon = %q, want resolved against the final URL", got.Favicon)
	}
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)

	for _, raw := range []string{"", "ftp://example.com", "/relative", "http://"} {
		if _, err := f.Fetch(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Fetch(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}

	if _, err := f.Fetch(context.Background(), srv.URL); err == nil || errors.Is(err, ErrInvalidURL) {
		t.Errorf("Fetch() of a 404 page error = %v", err)
	}
}
