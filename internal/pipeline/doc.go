// Package pipeline provides a framework for executing processing steps in
// sequence for each target domain.
//
// The pipeline pattern is used to take a domain through multiple stages:
// crawling for contact forms and email addresses, submitting discovered
// forms through a real browser, and falling back to direct email when no
// form submission succeeded. Each stage is implemented as a Step that
// receives the domain's report and appends its findings.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running domains
// 4. It enables potential parallelization of independent steps in the future
//
// The pipeline supports both individual domains and batch processing with
// concurrency control using errgroup.
package pipeline
