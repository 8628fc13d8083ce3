package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-entry action log in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full action log.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the summary as plain text.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString("Contact Form Run Summary\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&sb, "Domains processed: %d\n", len(summary.Reports))
	fmt.Fprintf(&sb, "Duration:          %s\n\n", summary.Duration().Round(1e9))

	submitted := summary.CountByAction(model.ActionFormSubmit, model.StatusSuccess)
	emailed := summary.CountByAction(model.ActionEmail, model.StatusSuccess)
	failed := summary.CountByStatus(model.StatusFailed)
	skipped := summary.CountByStatus(model.StatusSkipped)

	fmt.Fprintf(&sb, "Forms submitted:   %d\n", submitted)
	fmt.Fprintf(&sb, "Emails sent:       %d\n", emailed)
	fmt.Fprintf(&sb, "Failed:            %d\n", failed)
	fmt.Fprintf(&sb, "Skipped:           %d\n\n", skipped)

	counts := summary.CountByCode()
	if len(counts) > 0 {
		sb.WriteString("By reason:\n")
		for _, code := range model.ReasonCodes() {
			if n, ok := counts[code]; ok {
				fmt.Fprintf(&sb, "  %-26s %d\n", code, n)
			}
		}
		sb.WriteString("\n")
	}

	if w.verbose {
		sb.WriteString("Action log:\n")
		for _, entry := range summary.Entries() {
			fmt.Fprintf(&sb, "  [%s] %-24s %-12s %-8s %s\n",
				entry.Timestamp.Format("15:04:05"),
				entry.Domain,
				entry.Action,
				entry.Status,
				entry.Code,
			)
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}
