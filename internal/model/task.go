package model

import "sort"

// DomainTask is one unit of crawl work: a target domain, an optional
// pre-supplied contact email, and the state accumulated while crawling it.
//
// A task is created once per domain, mutated only by the crawler driving
// that domain, and discarded after the domain's result set is returned.
// There is no cross-domain shared state, so independent tasks may be
// processed in parallel without synchronization.
type DomainTask struct {
	// Domain is the target domain, with or without a scheme.
	Domain string

	// TargetEmail is an optional pre-supplied contact address used by
	// the email fallback when no usable form is found.
	TargetEmail string

	// Visited holds canonicalized URLs already attempted. Membership
	// only; order is irrelevant.
	Visited map[string]bool

	// Forms accumulates discovered contact forms in discovery order.
	Forms []*FormData

	// Emails accumulates discovered email addresses, lowercased.
	Emails map[string]bool
}

// NewDomainTask creates a DomainTask for the given domain.
func NewDomainTask(domain, targetEmail string) *DomainTask {
	return &DomainTask{
		Domain:      domain,
		TargetEmail: targetEmail,
		Visited:     make(map[string]bool),
		Emails:      make(map[string]bool),
	}
}

// CrawlResult is the outcome of crawling one domain. After Crawl returns
// it is owned solely by the caller; the crawler holds no post-return state.
type CrawlResult struct {
	// Forms are the contact forms discovered, in discovery order.
	Forms []*FormData `json:"forms"`

	// Emails are the discovered email addresses, sorted for stable output.
	Emails []string `json:"emails"`
}

// NewCrawlResult builds a CrawlResult from the state accumulated in a task.
func NewCrawlResult(task *DomainTask) *CrawlResult {
	emails := make([]string, 0, len(task.Emails))
	for email := range task.Emails {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	return &CrawlResult{
		Forms:  task.Forms,
		Emails: emails,
	}
}
