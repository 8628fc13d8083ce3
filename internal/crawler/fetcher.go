package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher issues HTTP GETs with per-host pacing and retry with
// exponential backoff. Failures never escape it: a page that cannot be
// fetched is simply reported as absent, and the crawl moves on.
type Fetcher struct {
	// client performs the actual requests. It must follow redirects.
	client *http.Client

	// limiters paces requests per host. Each host gets its own token,
	// so distinct hosts never delay each other.
	limiters map[string]*rate.Limiter
	mu       sync.Mutex

	// spacing is the minimum time between two requests to one host.
	spacing time.Duration

	// maxAttempts bounds the retry loop on transport failures.
	maxAttempts int

	// backoff computes the delay before retrying a failed attempt.
	// Overridable so tests are not wall-clock bound.
	backoff func(attempt int) time.Duration

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64

	// headers are extra headers added to every request.
	headers map[string]string

	// checkRobots gates fetches on the host's robots.txt when true.
	// The robots file is fetched once per host and cached; a missing or
	// unreadable robots.txt allows everything.
	checkRobots bool
	robots      map[string]*robotstxt.RobotsData
}

// Response is a fetched page. Body holds the response decoded to UTF-8.
type Response struct {
	// StatusCode is the final HTTP status after redirects.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, decoded to UTF-8 and capped at the
	// fetcher's size limit.
	Body []byte

	// FinalURL is the URL after redirects.
	FinalURL string
}

// IsHTML reports whether the response is worth parsing: a 2xx status
// with an HTML content type. Anything else means "nothing to extract
// here", not an error.
func (r *Response) IsHTML() bool {
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		return false
	}
	return strings.Contains(r.ContentType, "text/html")
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithSpacing sets the minimum interval between requests to one host.
func WithSpacing(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.spacing = d
	}
}

// WithMaxAttempts sets how many times a failing request is attempted.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the number of response bytes read per page.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithHeaders adds extra headers to every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithRobotsCheck enables the robots.txt politeness gate.
func WithRobotsCheck(enabled bool) FetcherOption {
	return func(f *Fetcher) {
		f.checkRobots = enabled
	}
}

// WithBackoff overrides the retry backoff schedule.
func WithBackoff(backoff func(attempt int) time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.backoff = backoff
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
//
// Design decision: The client is injected rather than built here so the
// caller controls timeouts, proxies, and redirect policy, and tests can
// point the fetcher at httptest servers.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		limiters:    make(map[string]*rate.Limiter),
		robots:      make(map[string]*robotstxt.RobotsData),
		spacing:     time.Second,
		maxAttempts: 3,
		userAgent:   "FormTesterBot/1.0 (Contact Form Testing Tool)",
		maxBodySize: 5 * 1024 * 1024,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves one URL. It returns nil when the page could not be
// fetched after all attempts; the only error it returns is the context's,
// so a cancelled crawl stops instead of spinning through retries.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil
	}

	if f.checkRobots && !f.allowedByRobots(ctx, u) {
		return nil, nil
	}

	if err := f.waitForHost(ctx, u.Host); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		resp, err := f.doRequest(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == f.maxAttempts-1 {
			break
		}

		// Backoff is measured from the failed attempt, not from the
		// start of the fetch.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.backoff(attempt)):
		}
	}

	return nil, nil
}

// waitForHost blocks until the per-host spacing allows a new request.
func (f *Fetcher) waitForHost(ctx context.Context, host string) error {
	f.mu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(f.spacing), 1)
		f.limiters[host] = limiter
	}
	f.mu.Unlock()

	return limiter.Wait(ctx)
}

// doRequest performs a single GET attempt.
func (f *Fetcher) doRequest(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	// Decode to UTF-8 so downstream keyword matching sees one encoding.
	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodySize), contentType)
	if err != nil {
		reader = io.LimitReader(resp.Body, f.maxBodySize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		FinalURL:    finalURL,
	}, nil
}

// allowedByRobots checks the host's robots.txt, fetching and caching it
// on first use. Absent or unreadable robots data allows the URL.
func (f *Fetcher) allowedByRobots(ctx context.Context, u *url.URL) bool {
	f.mu.Lock()
	robots, cached := f.robots[u.Host]
	f.mu.Unlock()

	if !cached {
		robots = f.fetchRobots(ctx, u)
		f.mu.Lock()
		f.robots[u.Host] = robots
		f.mu.Unlock()
	}

	if robots == nil {
		return true
	}
	return robots.TestAgent(u.Path, f.userAgent)
}

// fetchRobots retrieves and parses a host's robots.txt. Returns nil
// (allow everything) on any failure.
func (f *Fetcher) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return robots
}
