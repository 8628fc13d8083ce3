package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// MarkdownWriter outputs a run summary in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the run summary as Markdown.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOutcomes(md, summary)
	w.writeReasonBreakdown(md, summary)
	w.writeDomains(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the run metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Contact Form Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().Round(1e9).String()},
			{"Domains", strconv.Itoa(len(summary.Reports))},
		},
	})
	md.PlainText("")
}

// writeOutcomes writes the outcome summary with a pie chart and an alert.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, summary *Summary) {
	md.H2("Outcomes")
	md.PlainText("")

	submitted := summary.CountByAction(model.ActionFormSubmit, model.StatusSuccess)
	emailed := summary.CountByAction(model.ActionEmail, model.StatusSuccess)
	failed := summary.CountByStatus(model.StatusFailed)
	skipped := summary.CountByStatus(model.StatusSkipped)

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Forms submitted", strconv.Itoa(submitted)},
			{"📧 Emails sent", strconv.Itoa(emailed)},
			{"❌ Failed", strconv.Itoa(failed)},
			{"⏭️ Skipped", strconv.Itoa(skipped)},
		},
	})
	md.PlainText("")

	if submitted+emailed+failed+skipped > 0 {
		w.writePieChart(md, submitted, emailed, failed, skipped)
	}

	switch {
	case submitted+emailed == 0 && failed > 0:
		md.Warningf("No domain was reached: %d action(s) failed.", failed)
	case failed > 0:
		md.Notef("%d action(s) failed; see the breakdown below.", failed)
	default:
		md.Tip("All attempted actions completed without failures.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, submitted, emailed, failed, skipped int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if submitted > 0 {
		chart.LabelAndIntValue("Forms submitted", uint64(submitted))
	}
	if emailed > 0 {
		chart.LabelAndIntValue("Emails sent", uint64(emailed))
	}
	if failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(failed))
	}
	if skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(skipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeReasonBreakdown writes per-reason-code counts.
func (w *MarkdownWriter) writeReasonBreakdown(md *markdown.Markdown, summary *Summary) {
	counts := summary.CountByCode()
	if len(counts) == 0 {
		return
	}

	md.H2("Reason Breakdown")
	md.PlainText("")

	rows := make([][]string, 0, len(counts))
	for _, code := range model.ReasonCodes() {
		if n, ok := counts[code]; ok {
			rows = append(rows, []string{
				"`" + string(code) + "`",
				code.Description(),
				strconv.Itoa(n),
			})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Code", "Description", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDomains writes one row per domain with its final disposition.
func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, summary *Summary) {
	md.H2("Domains")
	md.PlainText("")

	if len(summary.Reports) == 0 {
		md.PlainText("No domains processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Reports))
	for _, r := range summary.Reports {
		action, status, code := "-", "-", "-"
		if len(r.Entries) > 0 {
			last := r.Entries[len(r.Entries)-1]
			action = last.Action
			status = last.Status
			code = string(last.Code)
		}

		forms := 0
		emails := 0
		if r.Result != nil {
			forms = len(r.Result.Forms)
			emails = len(r.Result.Emails)
		}

		rows = append(rows, []string{
			"`" + r.Task.Domain + "`",
			strconv.Itoa(forms),
			strconv.Itoa(emails),
			action,
			status,
			code,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Forms", "Emails", "Last Action", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}
