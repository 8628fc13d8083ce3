package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

func sampleSummary() *Summary {
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	taskA := model.NewDomainTask("a.com", "")
	reportA := model.NewDomainReport(taskA)
	reportA.Result = &model.CrawlResult{
		Forms:  []*model.FormData{{URL: "https://a.com/contact"}},
		Emails: []string{"info@a.com"},
	}
	reportA.AddEntry(model.ActionFormSubmit, model.StatusSuccess, model.ReasonFormSubmitted, "https://a.com/contact", "/tmp/a-after.png")

	taskB := model.NewDomainTask("b.com", "owner@b.com")
	reportB := model.NewDomainReport(taskB)
	reportB.Result = &model.CrawlResult{}
	reportB.AddEntry(model.ActionFormSkip, model.StatusSkipped, model.ReasonHasReCAPTCHA, "https://b.com/contact", "")
	reportB.AddEntry(model.ActionEmail, model.StatusSuccess, model.ReasonEmailSent, "owner@b.com", "")

	taskC := model.NewDomainTask("c.com", "")
	reportC := model.NewDomainReport(taskC)
	reportC.Result = &model.CrawlResult{}
	reportC.AddEntry(model.ActionProcess, model.StatusFailed, model.ReasonNoFormFound, "", "")

	return NewSummary(
		[]*model.DomainReport{reportA, reportB, reportC},
		start,
		start.Add(90*time.Second),
	)
}

// TestSummaryCounts tests aggregation helpers.
func TestSummaryCounts(t *testing.T) {
	t.Parallel()

	s := sampleSummary()

	if got := len(s.Entries()); got != 4 {
		t.Errorf("Entries() length = %d, want 4", got)
	}
	if got := s.CountByStatus(model.StatusSuccess); got != 2 {
		t.Errorf("success count = %d, want 2", got)
	}
	if got := s.CountByStatus(model.StatusFailed); got != 1 {
		t.Errorf("failed count = %d, want 1", got)
	}
	if got := s.CountByAction(model.ActionFormSubmit, model.StatusSuccess); got != 1 {
		t.Errorf("submitted count = %d, want 1", got)
	}
	if got := s.CountByCode()[model.ReasonHasReCAPTCHA]; got != 1 {
		t.Errorf("recaptcha count = %d, want 1", got)
	}
	if got := s.Duration(); got != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got)
	}
}

// TestCSVWriter tests the CSV layout and content.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewCSVWriter(&buf).Write(sampleSummary())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 5 { // header + 4 entries
		t.Fatalf("expected 5 rows, got %d", len(records))
	}

	header := strings.Join(records[0], ",")
	want := "timestamp,domain,action,status,reason_code,reason_description,details,evidence_path"
	if header != want {
		t.Errorf("header = %q, want %q", header, want)
	}

	first := records[1]
	if first[1] != "a.com" {
		t.Errorf("domain = %q", first[1])
	}
	if first[4] != string(model.ReasonFormSubmitted) {
		t.Errorf("reason_code = %q", first[4])
	}
	if first[5] != model.ReasonFormSubmitted.Description() {
		t.Errorf("reason_description = %q", first[5])
	}
	if first[7] != "/tmp/a-after.png" {
		t.Errorf("evidence_path = %q", first[7])
	}
}

// TestMarkdownWriter tests the Markdown summary structure.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"# Contact Form Run Report",
		"## Outcomes",
		"## Reason Breakdown",
		"## Domains",
		"`a.com`",
		"`b.com`",
		"`c.com`",
		"HAS_RECAPTCHA",
		"mermaid",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

// TestMarkdownWriterEmpty tests the no-domains case.
func TestMarkdownWriterEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	summary := NewSummary(nil, time.Now(), time.Now())

	if _, err := NewMarkdownWriter(&buf).Write(summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No domains processed.") {
		t.Error("empty summary should say so")
	}
}

// TestSimpleWriter tests the plain-text summary.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(sampleSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Domains processed: 3") {
			t.Errorf("missing domain count: %s", output)
		}
		if !strings.Contains(output, "Forms submitted:   1") {
			t.Errorf("missing submitted count: %s", output)
		}
		if strings.Contains(output, "Action log:") {
			t.Error("action log should require verbose")
		}
	})

	t.Run("verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(sampleSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Action log:") {
			t.Error("verbose output should include the action log")
		}
		if !strings.Contains(output, "b.com") {
			t.Error("action log should list domains")
		}
	})
}

// TestJSONWriter tests JSON validity and content.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Reports) != 3 {
		t.Errorf("decoded %d reports, want 3", len(decoded.Reports))
	}
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewCSVWriter(&b))

	if _, err := mw.Write(sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("both writers should receive output")
	}
}
