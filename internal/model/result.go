package model

import "time"

// PageSnapshot is the rendered page state after a submit attempt,
// supplied by the browser-automation engine: the final page content and
// the URL the browser ended up on.
type PageSnapshot struct {
	// Content is the rendered HTML of the page.
	Content string

	// URL is the final URL after any post-submit redirects.
	URL string
}

// SubmissionOutcome is the judgment for one submission attempt, produced
// from a single page snapshot. It is never retried internally; retry
// policy belongs to the caller.
type SubmissionOutcome struct {
	// Success reports whether the submission is judged to have gone through.
	Success bool `json:"success"`

	// Reason explains the judgment, e.g. which marker decided it.
	Reason string `json:"reason"`
}

// ResultEntry is one logged action for a domain: a form submission, a
// skip, or an email fallback attempt. Entries are persisted to the
// results database and exported to CSV.
type ResultEntry struct {
	// Timestamp is when the action completed.
	Timestamp time.Time `json:"timestamp"`

	// Domain is the domain the action belongs to.
	Domain string `json:"domain"`

	// Action identifies what was attempted: FORM_SUBMIT, FORM_SKIP,
	// EMAIL, or PROCESS.
	Action string `json:"action"`

	// Status is the coarse outcome: SUCCESS, FAILED, or SKIPPED.
	Status string `json:"status"`

	// Code is the machine-readable reason code.
	Code ReasonCode `json:"reason_code"`

	// Details carries free-form context, e.g. the form URL.
	Details string `json:"details,omitempty"`

	// EvidencePath points at captured evidence (screenshots), if any.
	EvidencePath string `json:"evidence_path,omitempty"`
}

// Action values recorded in result entries.
const (
	ActionFormSubmit = "FORM_SUBMIT"
	ActionFormSkip   = "FORM_SKIP"
	ActionEmail      = "EMAIL"
	ActionProcess    = "PROCESS"
)

// Status values recorded in result entries.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusSkipped = "SKIPPED"
)

// DomainReport accumulates everything produced while processing one
// domain. Pipeline steps receive it and append their findings, mirroring
// how each step contributes to a shared report.
type DomainReport struct {
	// Task is the crawl task for this domain.
	Task *DomainTask

	// Result is the crawl result, populated by the crawl step.
	Result *CrawlResult

	// Entries are the logged actions for this domain.
	Entries []ResultEntry

	// StartedAt and FinishedAt bound the processing time.
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewDomainReport creates a report for the given task.
func NewDomainReport(task *DomainTask) *DomainReport {
	return &DomainReport{
		Task:      task,
		StartedAt: time.Now(),
	}
}

// AddEntry appends a result entry, stamping it with the current time and
// the report's domain.
func (r *DomainReport) AddEntry(action, status string, code ReasonCode, details, evidencePath string) {
	r.Entries = append(r.Entries, ResultEntry{
		Timestamp:    time.Now(),
		Domain:       r.Task.Domain,
		Action:       action,
		Status:       status,
		Code:         code,
		Details:      details,
		EvidencePath: evidencePath,
	})
}
