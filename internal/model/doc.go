// Package model defines the core data structures shared across form-tester:
// crawl tasks, form field roles, detected contact forms, crawl results, and
// submission outcomes.
package model
