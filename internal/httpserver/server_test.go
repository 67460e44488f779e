package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/nowen/nowen/internal/auth"
	"github.com/nowen/nowen/internal/database"
	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/healthcheck"
	"github.com/nowen/nowen/internal/httpserver/deps"
	"github.com/nowen/nowen/internal/index"
	"github.com/nowen/nowen/internal/logger"
	"github.com/nowen/nowen/internal/metadata"
	"github.com/nowen/nowen/internal/store/sqlite"
)

const (
	testAdmin    = "admin"
	testPassword = "correct-horse"
)

type testEnv struct {
	t       *testing.T
	store   *sqlite.Store
	auth    *auth.Service
	cache   *index.HealthIndex
	handler http.Handler
	token   string
}

func newTestEnv(t *testing.T, opts ...func(*deps.Deps)) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(filepath.Join(t.TempDir(), "nowen.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.FromZap(zaptest.NewLogger(t))
	store := sqlite.New(db)
	authSvc := auth.NewService(db, time.Hour, log)
	if _, err := authSvc.EnsureAdmin(ctx, testAdmin, testPassword); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	sess, err := authSvc.Login(ctx, testAdmin, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	cache := index.NewHealthIndex()
	prober := healthcheck.NewProber(healthcheck.WithTimeout(2 * time.Second))

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		Version:         "test",
		TimeNow:         time.Now,
		CORSOrigins:     []string{"*"},
		RequestTimeout:  5 * time.Second,
		LoginRatePerMin: 60,
		LoginBurst:      20,
		Store:           store,
		Auth:            authSvc,
		Health:          healthcheck.NewService(store, prober, cache, log),
		Metadata:        metadata.NewFetcher(2 * time.Second),
		HealthCache:     "memory",
	}
	for _, opt := range opts {
		opt(&d)
	}

	return &testEnv{
		t:       t,
		store:   store,
		auth:    authSvc,
		cache:   cache,
		handler: NewRouter(d),
		token:   sess.Token,
	}
}

// do sends a request; an empty token sends no Authorization header.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addBookmark(title, url string) domain.Bookmark {
	e.t.Helper()
	b, err := e.store.CreateBookmark(context.Background(), domain.Bookmark{Title: title, URL: url})
	if err != nil {
		e.t.Fatalf("create bookmark: %v", err)
	}
	return b
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

// upstream serves the URLs probed by the health-check tests.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/ok")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func closedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", "", "")
	expectStatus(t, rec, http.StatusOK)

	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["service"] != "nowen" || body["version"] != "test" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/readyz", "", "")
	expectStatus(t, rec, http.StatusOK)
	if body := decode[map[string]any](t, rec); body["ready"] != true {
		t.Fatalf("ready = %v", body["ready"])
	}
}

type infraBody struct {
	Mode       string `json:"mode"`
	Components map[string]struct {
		OK        bool   `json:"ok"`
		Mode      string `json:"mode"`
		Bookmarks *int   `json:"bookmarks"`
	} `json:"components"`
}

func TestInfra(t *testing.T) {
	env := newTestEnv(t)
	env.addBookmark("a", "https://a.example")

	rec := env.do(http.MethodGet, "/infra", "", "")
	expectStatus(t, rec, http.StatusOK)

	body := decode[infraBody](t, rec)

	if body.Mode != "operational" {
		t.Errorf("mode = %q, want operational", body.Mode)
	}
	db := body.Components["database"]
	if !db.OK || db.Bookmarks == nil || *db.Bookmarks != 1 {
		t.Errorf("database component = %+v", db)
	}
	if got := body.Components["health_cache"].Mode; got != "memory" {
		t.Errorf("health_cache mode = %q, want memory", got)
	}
	if got := body.Components["bookmark_sync"].Mode; got != "disabled" {
		t.Errorf("bookmark_sync mode = %q, want disabled", got)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/nope", "", "")
	expectStatus(t, rec, http.StatusNotFound)
	if body := decode[map[string]string](t, rec); body["error"] != "not found" {
		t.Fatalf("body = %v", body)
	}
}

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"unknown token", "Bearer deadbeef"},
		{"wrong scheme", "Basic " + env.token},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/health-check", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			expectStatus(t, rec, http.StatusUnauthorized)
			if body := decode[map[string]string](t, rec); body["error"] != "unauthorized" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestAuthGate_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	// expiry is stored with second precision, so a 1ns TTL is expired on issue
	short := auth.NewService(env.store.DB(), time.Nanosecond, logger.NewNop())
	sess, err := short.Login(context.Background(), testAdmin, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rec := env.do(http.MethodGet, "/api/auth/verify", "", sess.Token)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestHealthCheck_AllBookmarks(t *testing.T) {
	env := newTestEnv(t)
	srv := upstream(t)

	ok := env.addBookmark("OK", srv.URL+"/ok")
	moved := env.addBookmark("Moved", srv.URL+"/moved")
	broken := env.addBookmark("Broken", srv.URL+"/broken")
	down := env.addBookmark("Down", closedURL(t))

	for _, body := range []string{"", `{}`, `{"bookmarkIds":[]}`, `{"bookmarkIds":null}`, `{"bookmarkIds":"x"}`, `{"bookmarkIds":[1,2]}`} {
		t.Run("body="+body, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/health-check", body, env.token)
			expectStatus(t, rec, http.StatusOK)

			report := decode[healthcheck.Report](t, rec)
			if len(report.Results) != 4 {
				t.Fatalf("results = %d, want 4", len(report.Results))
			}

			want := []struct {
				id     string
				status domain.Status
			}{
				{ok.ID, domain.StatusOK},
				{moved.ID, domain.StatusRedirect},
				{broken.ID, domain.StatusError},
				{down.ID, domain.StatusError},
			}
			for i, w := range want {
				got := report.Results[i]
				if got.BookmarkID != w.id || got.Status != w.status {
					t.Errorf("result %d = {%s %s}, want {%s %s}", i, got.BookmarkID, got.Status, w.id, w.status)
				}
			}

			if got := report.Results[1].RedirectURL; got != "/ok" {
				t.Errorf("redirectUrl = %q, want /ok", got)
			}
			if got := report.Results[2].StatusCode; got != http.StatusInternalServerError {
				t.Errorf("statusCode = %d, want 500", got)
			}
			if got := report.Results[3].Error; got != "connection failed" {
				t.Errorf("error = %q, want connection failed", got)
			}

			s := report.Summary
			if s.Total != 4 || s.OK != 1 || s.Redirect != 1 || s.Error != 2 || s.Timeout != 0 {
				t.Errorf("summary = %+v", s)
			}
		})
	}
}

func TestHealthCheck_ByIDs(t *testing.T) {
	env := newTestEnv(t)
	srv := upstream(t)

	env.addBookmark("A", srv.URL+"/ok")
	b := env.addBookmark("B", srv.URL+"/broken")

	rec := env.do(http.MethodPost, "/api/health-check", `{"bookmarkIds":["`+b.ID+`","missing"]}`, env.token)
	expectStatus(t, rec, http.StatusOK)

	report := decode[healthcheck.Report](t, rec)
	if len(report.Results) != 1 || report.Results[0].BookmarkID != b.ID {
		t.Fatalf("results = %+v, want only %s", report.Results, b.ID)
	}
	if report.Summary.Total != 1 || report.Summary.Error != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
}

func TestHealthCheck_NoBookmarks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/health-check", `{}`, env.token)
	expectStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); !strings.Contains(got, `"results":[]`) {
		t.Fatalf("body = %s, want empty results array", got)
	}
}

func TestHealthCheck_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/health-check", `{"bookmarkIds":`, env.token)
	expectStatus(t, rec, http.StatusInternalServerError)
	if body := decode[map[string]string](t, rec); body["error"] == "" {
		t.Fatalf("missing error message: %v", body)
	}
}

func TestHealthCheckSingle(t *testing.T) {
	env := newTestEnv(t)
	srv := upstream(t)

	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantStatus domain.Status
	}{
		{"missing url", `{}`, http.StatusBadRequest, ""},
		{"blank url", `{"url":"   "}`, http.StatusBadRequest, ""},
		{"empty body", "", http.StatusBadRequest, ""},
		{"ok", `{"url":"` + srv.URL + `/ok"}`, http.StatusOK, domain.StatusOK},
		{"redirect", `{"url":"` + srv.URL + `/moved"}`, http.StatusOK, domain.StatusRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/health-check/single", tt.body, env.token)
			expectStatus(t, rec, tt.wantCode)

			body := decode[map[string]any](t, rec)
			if tt.wantCode != http.StatusOK {
				if body["error"] != "URL is required" {
					t.Fatalf("error = %v", body["error"])
				}
				return
			}
			if body["status"] != string(tt.wantStatus) {
				t.Fatalf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			if _, ok := body["bookmarkId"]; ok {
				t.Fatal("single probe must not carry bookmark fields")
			}
			if _, ok := body["responseTime"]; !ok {
				t.Fatal("missing responseTime")
			}
		})
	}
}

func TestHealthCheckLast(t *testing.T) {
	env := newTestEnv(t)
	srv := upstream(t)
	b := env.addBookmark("A", srv.URL+"/ok")

	rec := env.do(http.MethodGet, "/api/health-check/last", "", env.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string][]domain.HealthRecord](t, rec)["results"]; len(got) != 0 {
		t.Fatalf("results before any check = %d, want 0", len(got))
	}

	expectStatus(t, env.do(http.MethodPost, "/api/health-check", "", env.token), http.StatusOK)

	rec = env.do(http.MethodGet, "/api/health-check/last", "", env.token)
	expectStatus(t, rec, http.StatusOK)
	got := decode[map[string][]domain.HealthRecord](t, rec)["results"]
	if len(got) != 1 || got[0].BookmarkID != b.ID || got[0].Status != domain.StatusOK {
		t.Fatalf("results = %+v", got)
	}
	if got[0].CheckedAt.IsZero() {
		t.Fatal("checkedAt not set")
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"nope"}`, "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(http.MethodPost, "/api/auth/login", `{"username":"admin"}`, "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"`+testPassword+`"}`, "")
	expectStatus(t, rec, http.StatusOK)
	sess := decode[map[string]any](t, rec)
	token, _ := sess["token"].(string)
	if token == "" || sess["username"] != testAdmin || sess["expiresAt"] == nil {
		t.Fatalf("session = %v", sess)
	}

	rec = env.do(http.MethodGet, "/api/auth/verify", "", token)
	expectStatus(t, rec, http.StatusOK)
	if body := decode[map[string]any](t, rec); body["valid"] != true || body["username"] != testAdmin {
		t.Fatalf("verify = %v", body)
	}

	expectStatus(t, env.do(http.MethodPost, "/api/auth/logout", "", token), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodGet, "/api/auth/verify", "", token), http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/change-password",
		`{"currentPassword":"wrong","newPassword":"another-one"}`, env.token)
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(http.MethodPost, "/api/auth/change-password",
		`{"currentPassword":"`+testPassword+`","newPassword":"short"}`, env.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(http.MethodPost, "/api/auth/change-password",
		`{"currentPassword":"`+testPassword+`","newPassword":"another-one"}`, env.token)
	expectStatus(t, rec, http.StatusNoContent)

	// the session used for the change survives
	expectStatus(t, env.do(http.MethodGet, "/api/auth/verify", "", env.token), http.StatusOK)

	rec = env.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"another-one"}`, "")
	expectStatus(t, rec, http.StatusOK)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, func(d *deps.Deps) {
		d.LoginBurst = 2
		d.LoginRatePerMin = 1
	})

	body := `{"username":"admin","password":"nope"}`
	expectStatus(t, env.do(http.MethodPost, "/api/auth/login", body, ""), http.StatusUnauthorized)
	expectStatus(t, env.do(http.MethodPost, "/api/auth/login", body, ""), http.StatusUnauthorized)

	rec := env.do(http.MethodPost, "/api/auth/login", body, "")
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}

	// other routes are not throttled
	expectStatus(t, env.do(http.MethodGet, "/api/auth/verify", "", env.token), http.StatusOK)
}

func TestBookmarksCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/bookmarks", `{"title":"Go","url":"https://go.dev"}`, "")
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(http.MethodPost, "/api/bookmarks", `{"title":"Go","url":"not a url"}`, env.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(http.MethodPost, "/api/bookmarks", `{"url":"https://go.dev"}`, env.token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(http.MethodPost, "/api/bookmarks", `{"title":"Go","url":"https://go.dev","tags":["lang"]}`, env.token)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[domain.Bookmark](t, rec)
	if created.ID == "" || created.Title != "Go" || len(created.Tags) != 1 {
		t.Fatalf("created = %+v", created)
	}

	rec = env.do(http.MethodGet, "/api/bookmarks", "", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]domain.Bookmark](t, rec); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	rec = env.do(http.MethodGet, "/api/bookmarks/"+created.ID, "", "")
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(http.MethodPatch, "/api/bookmarks/"+created.ID, `{"title":"Golang","isPinned":true}`, env.token)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[domain.Bookmark](t, rec)
	if updated.Title != "Golang" || !updated.IsPinned || updated.URL != "https://go.dev" {
		t.Fatalf("updated = %+v", updated)
	}

	rec = env.do(http.MethodGet, "/api/bookmarks?pinned=true", "", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]domain.Bookmark](t, rec); len(list) != 1 {
		t.Fatalf("pinned list = %d, want 1", len(list))
	}
	expectStatus(t, env.do(http.MethodGet, "/api/bookmarks?pinned=maybe", "", ""), http.StatusBadRequest)

	rec = env.do(http.MethodPatch, "/api/bookmarks/"+created.ID, `{"category":"missing"}`, env.token)
	expectStatus(t, rec, http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPatch, "/api/bookmarks/nope", `{"title":"x"}`, env.token), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodDelete, "/api/bookmarks/"+created.ID, "", env.token), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodDelete, "/api/bookmarks/"+created.ID, "", env.token), http.StatusNotFound)
}

func TestBookmarksSearchAndReorder(t *testing.T) {
	env := newTestEnv(t)
	a := env.addBookmark("Grafana", "https://grafana.example")
	b := env.addBookmark("Jellyfin", "https://jellyfin.example")

	rec := env.do(http.MethodGet, "/api/bookmarks?q=jelly", "", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]domain.Bookmark](t, rec); len(list) == 0 || list[0].ID != b.ID {
		t.Fatalf("search = %+v, want %s first", list, b.ID)
	}

	expectStatus(t, env.do(http.MethodPut, "/api/bookmarks/reorder", `{"ids":[]}`, env.token), http.StatusBadRequest)
	rec = env.do(http.MethodPut, "/api/bookmarks/reorder", `{"ids":["`+b.ID+`","`+a.ID+`"]}`, env.token)
	expectStatus(t, rec, http.StatusNoContent)

	rec = env.do(http.MethodGet, "/api/bookmarks", "", "")
	list := decode[[]domain.Bookmark](t, rec)
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("order after reorder = %+v", list)
	}
}

func TestCategoriesAndBookmarkCategory(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(http.MethodPost, "/api/categories", `{"name":"  "}`, env.token), http.StatusBadRequest)

	rec := env.do(http.MethodPost, "/api/categories", `{"name":"Media","icon":"film"}`, env.token)
	expectStatus(t, rec, http.StatusCreated)
	cat := decode[domain.Category](t, rec)

	rec = env.do(http.MethodPost, "/api/bookmarks",
		`{"title":"Plex","url":"https://plex.example","category":"`+cat.ID+`"}`, env.token)
	expectStatus(t, rec, http.StatusCreated)
	b := decode[domain.Bookmark](t, rec)
	if b.Category == nil || *b.Category != cat.ID {
		t.Fatalf("category = %v, want %s", b.Category, cat.ID)
	}

	rec = env.do(http.MethodGet, "/api/bookmarks?category="+cat.ID, "", "")
	if list := decode[[]domain.Bookmark](t, rec); len(list) != 1 {
		t.Fatalf("filtered = %d, want 1", len(list))
	}

	// absent category leaves it untouched, null clears it
	rec = env.do(http.MethodPatch, "/api/bookmarks/"+b.ID, `{"title":"Plex!"}`, env.token)
	if got := decode[domain.Bookmark](t, rec); got.Category == nil {
		t.Fatal("category cleared by a patch that did not mention it")
	}
	rec = env.do(http.MethodPatch, "/api/bookmarks/"+b.ID, `{"category":null}`, env.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[domain.Bookmark](t, rec); got.Category != nil {
		t.Fatalf("category = %v, want nil", *got.Category)
	}

	rec = env.do(http.MethodPatch, "/api/categories/"+cat.ID, `{"name":"Movies"}`, env.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[domain.Category](t, rec); got.Name != "Movies" || got.Icon != "film" {
		t.Fatalf("category = %+v", got)
	}

	rec = env.do(http.MethodGet, "/api/categories", "", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]domain.Category](t, rec); len(list) != 1 {
		t.Fatalf("categories = %d, want 1", len(list))
	}

	expectStatus(t, env.do(http.MethodDelete, "/api/categories/"+cat.ID, "", env.token), http.StatusNoContent)
	expectStatus(t, env.do(http.MethodDelete, "/api/categories/"+cat.ID, "", env.token), http.StatusNotFound)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/settings", "", "")
	expectStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
		t.Fatalf("settings = %s, want {}", got)
	}

	expectStatus(t, env.do(http.MethodPut, "/api/settings", `{"theme":"dark"}`, ""), http.StatusUnauthorized)
	expectStatus(t, env.do(http.MethodPut, "/api/settings", `{"theme":1}`, env.token), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPut, "/api/settings", `{"theme":"dark"}`, env.token), http.StatusOK)
	rec = env.do(http.MethodPut, "/api/settings", `{"lang":"fr"}`, env.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]string](t, rec); got["theme"] != "dark" || got["lang"] != "fr" {
		t.Fatalf("settings = %v", got)
	}
}

func TestQuotes(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.do(http.MethodGet, "/api/quotes/random", "", ""), http.StatusNotFound)
	expectStatus(t, env.do(http.MethodPost, "/api/quotes", `{"content":" "}`, env.token), http.StatusBadRequest)

	rec := env.do(http.MethodPost, "/api/quotes", `{"content":"Stay hungry","author":"Jobs"}`, env.token)
	expectStatus(t, rec, http.StatusCreated)
	q := decode[domain.Quote](t, rec)

	rec = env.do(http.MethodGet, "/api/quotes/random", "", "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[domain.Quote](t, rec); got.ID != q.ID {
		t.Fatalf("random = %+v", got)
	}

	expectStatus(t, env.do(http.MethodDelete, "/api/quotes/"+q.ID, "", env.token), http.StatusNoContent)
	rec = env.do(http.MethodGet, "/api/quotes", "", "")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("quotes = %s, want []", got)
	}
}

func TestDataExportImport(t *testing.T) {
	env := newTestEnv(t)
	env.addBookmark("A", "https://a.example")

	expectStatus(t, env.do(http.MethodGet, "/api/data/export", "", ""), http.StatusUnauthorized)

	rec := env.do(http.MethodGet, "/api/data/export", "", env.token)
	expectStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	backup := rec.Body.String()
	snap := decode[domain.Snapshot](t, rec)
	if snap.Version != domain.SnapshotVersion || len(snap.Bookmarks) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}

	expectStatus(t, env.do(http.MethodPost, "/api/data/import?mode=bogus", backup, env.token), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/api/data/import", `{"version":99}`, env.token), http.StatusBadRequest)

	expectStatus(t, env.do(http.MethodPost, "/api/data/factory-reset", "", env.token), http.StatusNoContent)
	rec = env.do(http.MethodGet, "/api/bookmarks", "", "")
	if list := decode[[]domain.Bookmark](t, rec); len(list) != 0 {
		t.Fatalf("bookmarks after reset = %d", len(list))
	}

	rec = env.do(http.MethodPost, "/api/data/import?mode=replace", backup, env.token)
	expectStatus(t, rec, http.StatusOK)
	if stats := decode[sqlite.ImportStats](t, rec); stats.Bookmarks != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	// admin accounts survive a reset
	expectStatus(t, env.do(http.MethodGet, "/api/auth/verify", "", env.token), http.StatusOK)
}

func TestSyncBookmarks_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(http.MethodPost, "/api/bookmarks/sync", "", env.token), http.StatusNotFound)
}

func TestMetadata(t *testing.T) {
	env := newTestEnv(t)
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><title>Hello</title><meta name="description" content="World"></head></html>`)
	}))
	t.Cleanup(page.Close)

	expectStatus(t, env.do(http.MethodPost, "/api/metadata", `{"url":""}`, env.token), http.StatusBadRequest)
	expectStatus(t, env.do(http.MethodPost, "/api/metadata", `{"url":"ftp://x"}`, env.token), http.StatusBadRequest)

	rec := env.do(http.MethodPost, "/api/metadata", `{"url":"`+page.URL+`"}`, env.token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[metadata.Metadata](t, rec); got.Title != "Hello" || got.Description != "World" {
		t.Fatalf("metadata = %+v", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/bookmarks", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	// answered by the CORS layer, before the auth gate
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatal("Allow-Origin missing")
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("Max-Age = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Fatalf("Allow-Headers = %q", got)
	}
}
