package healthcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/nowen/nowen/internal/domain"
	"github.com/nowen/nowen/internal/utils"
)

const (
	// DefaultTimeout is the budget of each individual request (HEAD, and GET on retry).
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent looks like a desktop browser; some hosts reject bare clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	acceptAny  = "*/*"
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	msgConnectionFailed = "connection failed"
)

// Prober checks the reachability of a single URL.
//
// It sends HEAD first and falls back to one GET when the server answers
// 403 or 405. Redirects are reported, never followed.
type Prober struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-request budget. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header. Empty values are ignored.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithTransport replaces the HTTP transport (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Prober) {
		if rt != nil {
			p.client.Transport = rt
		}
	}
}

// NewProber builds a Prober with redirect-following disabled.
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Surface 3xx to the caller
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client.Transport == nil {
		p.client.Transport = newTransport(p.timeout)
	}
	return p
}

func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 0,
		}).DialContext,
		TLSHandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DisableKeepAlives: true,
	}
}

// Timeout returns the per-request budget.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// reply is what we keep from a response; the body is never read.
type reply struct {
	status   int
	location string
}

// Probe runs the HEAD/GET policy against rawURL. It never fails: every
// outcome, including transport errors, is encoded in the returned Probe.
// ResponseTime covers both requests when the GET fallback runs.
func (p *Prober) Probe(ctx context.Context, rawURL string) domain.Probe {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	res, err := p.do(ctx, http.MethodHead, rawURL, acceptAny)
	if err != nil {
		return p.failure(err, elapsed())
	}
	if isRedirect(res.status) {
		return redirectProbe(res, elapsed())
	}

	// Some servers refuse HEAD; retry once with a fresh budget.
	if res.status == http.StatusMethodNotAllowed || res.status == http.StatusForbidden {
		res, err = p.do(ctx, http.MethodGet, rawURL, acceptHTML)
		if err != nil {
			return p.failure(err, elapsed())
		}
		if isRedirect(res.status) {
			return redirectProbe(res, elapsed())
		}
	}

	return statusProbe(res.status, elapsed())
}

// do issues one request under its own timeout.
func (p *Prober) do(ctx context.Context, method, rawURL, accept string) (reply, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, http.NoBody)
	if err != nil {
		return reply{}, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := p.client.Do(req)
	if err != nil {
		return reply{}, err
	}
	defer utils.Close(resp.Body)

	return reply{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
	}, nil
}

func (p *Prober) failure(err error, responseTime int64) domain.Probe {
	if isTimeout(err) {
		return domain.Probe{
			Status:       domain.StatusTimeout,
			ResponseTime: responseTime,
			Error:        fmt.Sprintf("request timed out (%s)", p.timeout),
		}
	}
	return domain.Probe{
		Status:       domain.StatusError,
		ResponseTime: responseTime,
		Error:        errorMessage(err),
	}
}

func redirectProbe(res reply, responseTime int64) domain.Probe {
	return domain.Probe{
		Status:       domain.StatusRedirect,
		StatusCode:   res.status,
		ResponseTime: responseTime,
		RedirectURL:  res.location,
	}
}

func statusProbe(code int, responseTime int64) domain.Probe {
	status := domain.StatusError
	if code >= 200 && code < 300 {
		status = domain.StatusOK
	}
	return domain.Probe{
		Status:       status,
		StatusCode:   code,
		ResponseTime: responseTime,
	}
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// errorMessage strips the `Head "https://...":` prefix added by net/http.
func errorMessage(err error) string {
	if err == nil {
		return msgConnectionFailed
	}
	msg := err.Error()
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		msg = ue.Err.Error()
	}
	if msg == "" {
		return msgConnectionFailed
	}
	return msg
}
