package report

import (
	"time"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// Summary aggregates the reports of one run for rendering.
type Summary struct {
	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Reports are the per-domain reports, in input order.
	Reports []*model.DomainReport `json:"reports"`
}

// NewSummary creates a Summary over the given reports.
func NewSummary(reports []*model.DomainReport, startedAt, finishedAt time.Time) *Summary {
	return &Summary{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Reports:    reports,
	}
}

// Entries returns all result entries across domains, flattened in
// domain order.
func (s *Summary) Entries() []model.ResultEntry {
	entries := make([]model.ResultEntry, 0)
	for _, r := range s.Reports {
		entries = append(entries, r.Entries...)
	}
	return entries
}

// CountByStatus returns the number of entries with the given status.
func (s *Summary) CountByStatus(status string) int {
	count := 0
	for _, entry := range s.Entries() {
		if entry.Status == status {
			count++
		}
	}
	return count
}

// CountByAction returns the number of entries with the given action and
// status.
func (s *Summary) CountByAction(action, status string) int {
	count := 0
	for _, entry := range s.Entries() {
		if entry.Action == action && entry.Status == status {
			count++
		}
	}
	return count
}

// CountByCode returns per-reason-code entry counts.
func (s *Summary) CountByCode() map[model.ReasonCode]int {
	counts := make(map[model.ReasonCode]int)
	for _, entry := range s.Entries() {
		counts[entry.Code]++
	}
	return counts
}

// Duration returns the wall-clock length of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
