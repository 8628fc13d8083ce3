// Package tasks loads the domain work list that drives a run.
//
// The input is a small CSV file: one domain per row with an optional
// contact email in the second column. Comment lines starting with '#'
// and blank lines are ignored, so the file doubles as a hand-maintained
// checklist.
package tasks
