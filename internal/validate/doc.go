// Package validate classifies the page state after a form submission
// attempt as success or failure using multilingual content heuristics.
// It is purely a content classifier and is independent of how the
// submission was performed.
package validate
