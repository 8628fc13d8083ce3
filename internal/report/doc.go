// Package report renders run results in multiple output formats:
// CSV for spreadsheets and follow-up tooling, Markdown for sharing a
// run summary, JSON for programmatic consumption, and a plain-text
// summary for the terminal.
//
// All writers consume the same Summary value so a run can emit several
// formats from one result set.
package report
