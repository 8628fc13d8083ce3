package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// Submission errors.
var (
	// ErrFillField is returned when a classified field cannot be filled.
	ErrFillField = errors.New("failed to fill form field")

	// ErrNoSubmitControl is returned when no clickable submit control
	// is found on the page.
	ErrNoSubmitControl = errors.New("no submit control found")
)

// TestData maps field roles to the values typed into them.
type TestData map[model.Role]string

// DefaultTestData returns the standard submission values.
func DefaultTestData() TestData {
	return TestData{
		model.RoleName:    "Test User",
		model.RoleEmail:   "test@example.com",
		model.RoleSubject: "Test Contact Form Submission",
		model.RoleMessage: "This is an automated test message from the form-tester tool.",
		model.RolePhone:   "+1-555-123-4567",
		model.RoleCompany: "Test Company Inc.",
	}
}

// fallbackSubmitSelectors are tried in order when a form has no named
// submit button.
var fallbackSubmitSelectors = []string{
	`button[type="submit"]`,
	`input[type="submit"]`,
	`form button`,
}

// Submitter fills and submits contact forms in a headless Chrome
// instance. One Submitter owns one browser allocator; Close releases it.
//
// Design decision: The allocator is created lazily on first use rather
// than in the constructor. Domains whose forms are all skipped (captcha,
// honeypot) then never pay the browser startup cost.
type Submitter struct {
	testData    TestData
	evidenceDir string
	timeout     time.Duration
	settleDelay time.Duration
	userAgent   string
	headers     map[string]string
	logger      *slog.Logger

	// now is overridable so evidence file names are deterministic in tests.
	now func() time.Time

	allocOnce   sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithTestData overrides the values typed into form fields.
func WithTestData(data TestData) Option {
	return func(s *Submitter) {
		s.testData = data
	}
}

// WithEvidenceDir enables before/after screenshots under dir.
func WithEvidenceDir(dir string) Option {
	return func(s *Submitter) {
		s.evidenceDir = dir
	}
}

// WithTimeout bounds one submission end to end.
func WithTimeout(d time.Duration) Option {
	return func(s *Submitter) {
		s.timeout = d
	}
}

// WithSettleDelay sets how long to wait after clicking submit before
// reading the resulting page.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Submitter) {
		s.settleDelay = d
	}
}

// WithUserAgent sets the browser user agent.
func WithUserAgent(ua string) Option {
	return func(s *Submitter) {
		s.userAgent = ua
	}
}

// WithHeaders adds extra HTTP headers to every browser request.
func WithHeaders(headers map[string]string) Option {
	return func(s *Submitter) {
		s.headers = headers
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// New creates a Submitter.
func New(opts ...Option) *Submitter {
	s := &Submitter{
		testData:    DefaultTestData(),
		timeout:     60 * time.Second,
		settleDelay: 3 * time.Second,
		userAgent:   "FormTesterBot/1.0 (Contact Form Testing Tool)",
		logger:      slog.Default(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// allocator returns the shared browser allocator, starting it on first use.
func (s *Submitter) allocator() context.Context {
	s.allocOnce.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(s.userAgent),
			chromedp.WindowSize(1280, 720),
		)
		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return s.allocCtx
}

// Close shuts down the browser allocator if it was started.
func (s *Submitter) Close() {
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Submit fills the form's classified fields, clicks submit, and returns
// the post-submission page snapshot plus the evidence path, if any.
//
// Fill failures and a missing submit control return wrapped sentinel
// errors so the caller can map them to the right reason code. Navigation
// and protocol failures come back as-is.
func (s *Submitter) Submit(ctx context.Context, form *model.FormData) (*model.PageSnapshot, string, error) {
	taskCtx, cancel := chromedp.NewContext(s.allocator())
	defer cancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, s.timeout)
	defer timeoutCancel()

	// Honor the caller's cancellation on top of our own timeout.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-taskCtx.Done():
		}
	}()

	navigate := []chromedp.Action{
		chromedp.Navigate(form.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if len(s.headers) > 0 {
		extra := make(network.Headers, len(s.headers))
		for k, v := range s.headers {
			extra[k] = v
		}
		navigate = append([]chromedp.Action{
			network.Enable(),
			network.SetExtraHTTPHeaders(extra),
		}, navigate...)
	}

	if err := chromedp.Run(taskCtx, navigate...); err != nil {
		return nil, "", fmt.Errorf("failed to open form page %s: %w", form.URL, err)
	}

	for role, field := range form.Fields {
		value := s.testData[role]
		if value == "" {
			continue
		}

		selector := fieldSelector(field)
		if selector == "" {
			continue
		}

		if err := chromedp.Run(taskCtx, chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
			return nil, "", fmt.Errorf("%w: %s (%s): %v", ErrFillField, role, selector, err)
		}
	}

	base := s.evidenceBase(form.URL)
	evidencePath := ""
	if s.evidenceDir != "" {
		if path, err := s.screenshot(taskCtx, base+"_before.png"); err != nil {
			s.logger.Warn("before screenshot failed", "url", form.URL, "error", err)
		} else {
			evidencePath = path
		}
	}

	if err := s.clickSubmit(taskCtx, form.SubmitButton); err != nil {
		return nil, evidencePath, err
	}

	if err := chromedp.Run(taskCtx,
		chromedp.Sleep(s.settleDelay),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, evidencePath, fmt.Errorf("page did not settle after submit: %w", err)
	}

	if s.evidenceDir != "" {
		if path, err := s.screenshot(taskCtx, base+"_after.png"); err != nil {
			s.logger.Warn("after screenshot failed", "url", form.URL, "error", err)
		} else {
			evidencePath = path
		}
	}

	var finalURL, content string
	if err := chromedp.Run(taskCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &content, chromedp.ByQuery),
	); err != nil {
		return nil, evidencePath, fmt.Errorf("failed to capture result page: %w", err)
	}

	return &model.PageSnapshot{Content: content, URL: finalURL}, evidencePath, nil
}

// clickSubmit clicks the form's submit control: the named button when
// known, otherwise the first matching fallback selector.
func (s *Submitter) clickSubmit(ctx context.Context, submitButton string) error {
	candidates := fallbackSubmitSelectors
	if submitButton != "" {
		candidates = append([]string{fmt.Sprintf(`[name=%q]`, submitButton)}, candidates...)
	}

	for _, selector := range candidates {
		clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return ErrNoSubmitControl
}

// screenshot captures a full-page screenshot into the evidence directory.
func (s *Submitter) screenshot(ctx context.Context, name string) (string, error) {
	if err := os.MkdirAll(s.evidenceDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create evidence directory: %w", err)
	}

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	path := filepath.Join(s.evidenceDir, name)
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	return path, nil
}

// evidenceBase builds the per-submission evidence file prefix from the
// form's host and the current time: dots become underscores so the name
// is safe on every filesystem.
func (s *Submitter) evidenceBase(formURL string) string {
	host := "unknown"
	if u, err := url.Parse(formURL); err == nil && u.Host != "" {
		host = strings.ReplaceAll(u.Host, ".", "_")
		host = strings.ReplaceAll(host, ":", "_")
	}
	return host + "_" + s.now().Format("20060102_150405")
}

// fieldSelector builds a CSS selector for one form field, preferring the
// name attribute and falling back to the id.
func fieldSelector(field model.RawField) string {
	if field.Name != "" {
		return fmt.Sprintf(`[name=%q]`, field.Name)
	}
	if field.ID != "" {
		return "#" + field.ID
	}
	return ""
}
