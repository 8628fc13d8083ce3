package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// defaultContactPaths are the conventional contact-page paths seeded
// into the frontier at crawl start. They enter as predefined entries and
// are therefore attempted regardless of the dynamic-page budget.
var defaultContactPaths = []string{
	"/contact",
	"/contacto",
	"/contact-us",
	"/kontakt",
	"/about",
}

// Crawler drives the per-domain crawl: it owns the frontier, the
// visited-set, and the dynamic-page budget, and runs fetch → extract →
// classify → detect on every page.
//
// A Crawler instance is safe to reuse across domains because all
// per-domain state lives in the DomainTask; the crawler itself only
// holds configuration and stateless collaborators. One domain is always
// processed by a single logical worker, so the task needs no locking.
type Crawler struct {
	fetcher   *Fetcher
	extractor *Extractor

	// maxDynamicPages caps how many link-discovered pages are visited
	// per domain. Predefined contact paths are exempt.
	maxDynamicPages int

	// contactPaths are the predefined paths seeded per domain.
	contactPaths []string

	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDynamicPages sets the per-domain dynamic-page budget.
func WithMaxDynamicPages(n int) Option {
	return func(c *Crawler) {
		c.maxDynamicPages = n
	}
}

// WithContactPaths overrides the predefined contact-page paths.
func WithContactPaths(paths []string) Option {
	return func(c *Crawler) {
		c.contactPaths = paths
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler.
func New(fetcher *Fetcher, extractor *Extractor, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:         fetcher,
		extractor:       extractor,
		maxDynamicPages: 10,
		contactPaths:    defaultContactPaths,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NormalizeDomain turns a bare domain into a full URL, defaulting to
// https when no scheme is present.
func NormalizeDomain(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return domain
	}
	return "https://" + domain
}

// Crawl explores one domain and returns its discovered forms and emails.
//
// The frontier is seeded with the normalized base URL and the predefined
// contact paths. The loop pops entries FIFO, skips visited URLs, applies
// the dynamic-page budget to dynamic entries only, and front-inserts
// newly discovered contact-like links. It terminates when the frontier
// empties; there is no separate global page cap, so predefined paths and
// contact-prioritized chains stay reachable after the dynamic budget is
// spent.
//
// Fetch failures and non-HTML responses skip the page silently. The only
// error returned is the context's.
func (c *Crawler) Crawl(ctx context.Context, task *model.DomainTask) (*model.CrawlResult, error) {
	baseURL := NormalizeDomain(task.Domain)
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		c.logger.Warn("invalid domain, skipping crawl", "domain", task.Domain)
		return model.NewCrawlResult(task), nil
	}

	queue := newFrontier()
	queue.pushBack(Canonicalize(base), Predefined)
	for _, path := range c.contactPaths {
		seeded := *base
		seeded.Path = path
		seeded.RawQuery = ""
		queue.pushBack(Canonicalize(&seeded), Predefined)
	}

	dynamicVisited := 0

	for queue.len() > 0 {
		select {
		case <-ctx.Done():
			return model.NewCrawlResult(task), ctx.Err()
		default:
		}

		entry, ok := queue.pop()
		if !ok {
			break
		}

		if task.Visited[entry.url] {
			continue
		}

		// Dynamic entries respect the page budget; predefined entries
		// are always attempted. A budget-skipped URL does not count as
		// visited.
		if entry.provenance == Dynamic && dynamicVisited >= c.maxDynamicPages {
			continue
		}

		task.Visited[entry.url] = true
		if entry.provenance == Dynamic {
			dynamicVisited++
		}

		c.logger.Debug("crawling", "url", entry.url, "domain", task.Domain)

		resp, err := c.fetcher.Fetch(ctx, entry.url)
		if err != nil {
			return model.NewCrawlResult(task), err
		}
		if resp == nil || !resp.IsHTML() {
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			// Unparseable markup is treated like non-content.
			continue
		}

		rawHTML := string(resp.Body)

		forms := c.extractor.ExtractForms(doc, entry.url, rawHTML)
		task.Forms = append(task.Forms, forms...)

		for _, email := range c.extractor.ExtractEmails(doc, rawHTML) {
			task.Emails[email] = true
		}

		// Relative hrefs resolve against the page they appear on, so
		// /docs/ linking help.html yields /docs/help.html. The domain
		// base is only a fallback for unparseable or off-host finals.
		pageBase := base
		if u, err := url.Parse(resp.FinalURL); err == nil && strings.EqualFold(u.Host, base.Host) {
			pageBase = u
		}

		for _, link := range ExtractLinks(doc, pageBase) {
			if task.Visited[link] {
				continue
			}
			if IsContactLike(link) {
				queue.pushFront(link, Dynamic)
			} else {
				queue.pushBack(link, Dynamic)
			}
		}
	}

	c.logger.Debug("crawl exhausted",
		"domain", task.Domain,
		"visited", len(task.Visited),
		"forms", len(task.Forms),
		"emails", len(task.Emails),
	)

	return model.NewCrawlResult(task), nil
}
