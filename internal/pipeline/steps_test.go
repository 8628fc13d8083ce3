package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/selvaggiesteban/form-tester/internal/mailer"
	"github.com/selvaggiesteban/form-tester/internal/model"
	"github.com/selvaggiesteban/form-tester/internal/submit"
)

// fakeCrawler returns a canned crawl result.
type fakeCrawler struct {
	result *model.CrawlResult
	err    error
}

func (f *fakeCrawler) Crawl(_ context.Context, _ *model.DomainTask) (*model.CrawlResult, error) {
	return f.result, f.err
}

// fakeSubmitter returns canned submission results per form URL.
type fakeSubmitter struct {
	snapshot *model.PageSnapshot
	evidence string
	err      error
	calls    int
}

func (f *fakeSubmitter) Submit(_ context.Context, _ *model.FormData) (*model.PageSnapshot, string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.evidence, f.err
	}
	return f.snapshot, f.evidence, nil
}

// fakeValidator returns a fixed judgment.
type fakeValidator struct {
	outcome model.SubmissionOutcome
}

func (f *fakeValidator) Validate(_ model.PageSnapshot) model.SubmissionOutcome {
	return f.outcome
}

// fakeSender records sent messages and returns a canned error.
type fakeSender struct {
	err  error
	sent []mailer.Message
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

// fakeStore is an in-memory suppression list.
type fakeStore struct {
	suppressed map[string]bool
	added      []string
}

func (f *fakeStore) IsSuppressed(_ context.Context, email string) (bool, error) {
	return f.suppressed[email], nil
}

func (f *fakeStore) AddSuppression(_ context.Context, email, _ string) error {
	f.added = append(f.added, email)
	return nil
}

func contactForm(url string) *model.FormData {
	return &model.FormData{
		URL: url,
		Fields: map[model.Role]model.RawField{
			model.RoleEmail:   {Name: "email"},
			model.RoleMessage: {Name: "message"},
		},
		SubmitButton: "send",
	}
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("stores crawl result on report", func(t *testing.T) {
		t.Parallel()

		result := &model.CrawlResult{
			Forms:  []*model.FormData{contactForm("https://example.com/contact")},
			Emails: []string{"info@example.com"},
		}
		step := NewCrawlStep(&fakeCrawler{result: result}, WithCrawlLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if report.Result != result {
			t.Error("report.Result was not set to the crawl result")
		}
		if len(report.Entries) != 0 {
			t.Errorf("len(Entries) = %d, want 0", len(report.Entries))
		}
	})

	t.Run("records NO_FORM_FOUND when nothing actionable", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeCrawler{result: &model.CrawlResult{}}, WithCrawlLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(report.Entries) != 1 {
			t.Fatalf("len(Entries) = %d, want 1", len(report.Entries))
		}
		entry := report.Entries[0]
		if entry.Code != model.ReasonNoFormFound {
			t.Errorf("Code = %q, want %q", entry.Code, model.ReasonNoFormFound)
		}
		if entry.Action != model.ActionProcess || entry.Status != model.StatusFailed {
			t.Errorf("Action/Status = %q/%q, want %q/%q",
				entry.Action, entry.Status, model.ActionProcess, model.StatusFailed)
		}
	})

	t.Run("target email counts as actionable", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeCrawler{result: &model.CrawlResult{}}, WithCrawlLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", "contact@example.com"))
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(report.Entries) != 0 {
			t.Errorf("len(Entries) = %d, want 0", len(report.Entries))
		}
	})

	t.Run("records network error and propagates it", func(t *testing.T) {
		t.Parallel()

		crawlErr := errors.New("connection refused")
		step := NewCrawlStep(&fakeCrawler{err: crawlErr}, WithCrawlLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		if err := step.Do(context.Background(), report); !errors.Is(err, crawlErr) {
			t.Fatalf("Do() error = %v, want %v", err, crawlErr)
		}

		if len(report.Entries) != 1 {
			t.Fatalf("len(Entries) = %d, want 1", len(report.Entries))
		}
		if got := report.Entries[0].Code; got != model.ReasonNetworkError {
			t.Errorf("Code = %q, want %q", got, model.ReasonNetworkError)
		}
	})

	t.Run("records timeout on deadline", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeCrawler{err: context.DeadlineExceeded}, WithCrawlLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		if err := step.Do(context.Background(), report); err == nil {
			t.Fatal("Do() error = nil, want deadline error")
		}

		if got := report.Entries[0].Code; got != model.ReasonTimeout {
			t.Errorf("Code = %q, want %q", got, model.ReasonTimeout)
		}
	})
}

func TestFormStep(t *testing.T) {
	t.Parallel()

	t.Run("skips reCAPTCHA form", func(t *testing.T) {
		t.Parallel()

		form := contactForm("https://example.com/contact")
		form.HasCaptcha = true
		form.CaptchaKind = model.CaptchaReCAPTCHA

		submitter := &fakeSubmitter{}
		step := NewFormStep(submitter, &fakeValidator{}, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{form}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if submitter.calls != 0 {
			t.Errorf("Submit called %d times, want 0", submitter.calls)
		}
		entry := report.Entries[0]
		if entry.Code != model.ReasonHasReCAPTCHA {
			t.Errorf("Code = %q, want %q", entry.Code, model.ReasonHasReCAPTCHA)
		}
		if entry.Action != model.ActionFormSkip || entry.Status != model.StatusSkipped {
			t.Errorf("Action/Status = %q/%q, want %q/%q",
				entry.Action, entry.Status, model.ActionFormSkip, model.StatusSkipped)
		}
	})

	t.Run("skips hCAPTCHA form with its own code", func(t *testing.T) {
		t.Parallel()

		form := contactForm("https://example.com/contact")
		form.HasCaptcha = true
		form.CaptchaKind = model.CaptchaHCaptcha

		step := NewFormStep(&fakeSubmitter{}, &fakeValidator{}, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{form}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if got := report.Entries[0].Code; got != model.ReasonHasHCaptcha {
			t.Errorf("Code = %q, want %q", got, model.ReasonHasHCaptcha)
		}
	})

	t.Run("skips generic challenge without a vendor code", func(t *testing.T) {
		t.Parallel()

		form := contactForm("https://example.com/contact")
		form.HasCaptcha = true
		form.CaptchaKind = model.CaptchaNone

		submitter := &fakeSubmitter{}
		step := NewFormStep(submitter, &fakeValidator{}, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{form}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if submitter.calls != 0 {
			t.Errorf("Submit called %d times, want 0", submitter.calls)
		}
		if got := report.Entries[0].Code; got != model.ReasonHasCaptcha {
			t.Errorf("Code = %q, want %q", got, model.ReasonHasCaptcha)
		}
	})

	t.Run("skips honeypot form", func(t *testing.T) {
		t.Parallel()

		form := contactForm("https://example.com/contact")
		form.HasHoneypot = true

		step := NewFormStep(&fakeSubmitter{}, &fakeValidator{}, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{form}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if got := report.Entries[0].Code; got != model.ReasonHoneypotDetected {
			t.Errorf("Code = %q, want %q", got, model.ReasonHoneypotDetected)
		}
	})

	t.Run("records success with evidence", func(t *testing.T) {
		t.Parallel()

		submitter := &fakeSubmitter{
			snapshot: &model.PageSnapshot{Content: "<p>Thank you!</p>", URL: "https://example.com/thanks"},
			evidence: "evidence/example_com_20260829_120000_after.png",
		}
		validator := &fakeValidator{outcome: model.SubmissionOutcome{Success: true, Reason: "success marker found"}}
		step := NewFormStep(submitter, validator, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{contactForm("https://example.com/contact")}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		entry := report.Entries[0]
		if entry.Code != model.ReasonFormSubmitted {
			t.Errorf("Code = %q, want %q", entry.Code, model.ReasonFormSubmitted)
		}
		if entry.Status != model.StatusSuccess {
			t.Errorf("Status = %q, want %q", entry.Status, model.StatusSuccess)
		}
		if entry.EvidencePath != submitter.evidence {
			t.Errorf("EvidencePath = %q, want %q", entry.EvidencePath, submitter.evidence)
		}
	})

	t.Run("records rejection when validator says no", func(t *testing.T) {
		t.Parallel()

		submitter := &fakeSubmitter{snapshot: &model.PageSnapshot{Content: "<form></form>"}}
		validator := &fakeValidator{outcome: model.SubmissionOutcome{Success: false, Reason: "form still present"}}
		step := NewFormStep(submitter, validator, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{contactForm("https://example.com/contact")}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if got := report.Entries[0].Code; got != model.ReasonFormRejected {
			t.Errorf("Code = %q, want %q", got, model.ReasonFormRejected)
		}
	})

	t.Run("maps fill errors to FORM_FILL_ERROR", func(t *testing.T) {
		t.Parallel()

		for _, sentinel := range []error{submit.ErrFillField, submit.ErrNoSubmitControl} {
			submitter := &fakeSubmitter{err: sentinel}
			step := NewFormStep(submitter, &fakeValidator{}, WithFormLogger(discardLogger()))

			report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
			report.Result = &model.CrawlResult{Forms: []*model.FormData{contactForm("https://example.com/contact")}}

			if err := step.Do(context.Background(), report); err != nil {
				t.Fatalf("Do() error = %v, want nil", err)
			}

			if got := report.Entries[0].Code; got != model.ReasonFormFillError {
				t.Errorf("Code for %v = %q, want %q", sentinel, got, model.ReasonFormFillError)
			}
		}
	})

	t.Run("maps other submission errors to NETWORK_ERROR", func(t *testing.T) {
		t.Parallel()

		submitter := &fakeSubmitter{err: errors.New("net::ERR_CONNECTION_REFUSED")}
		step := NewFormStep(submitter, &fakeValidator{}, WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{contactForm("https://example.com/contact")}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if got := report.Entries[0].Code; got != model.ReasonNetworkError {
			t.Errorf("Code = %q, want %q", got, model.ReasonNetworkError)
		}
	})

	t.Run("skipSubmit leaves forms untouched", func(t *testing.T) {
		t.Parallel()

		submitter := &fakeSubmitter{}
		step := NewFormStep(submitter, &fakeValidator{},
			WithSkipSubmit(true), WithFormLogger(discardLogger()))

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{contactForm("https://example.com/contact")}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if submitter.calls != 0 {
			t.Errorf("Submit called %d times, want 0", submitter.calls)
		}
		if len(report.Entries) != 0 {
			t.Errorf("len(Entries) = %d, want 0", len(report.Entries))
		}
	})

	t.Run("nil crawl result is a no-op", func(t *testing.T) {
		t.Parallel()

		step := NewFormStep(&fakeSubmitter{}, &fakeValidator{}, WithFormLogger(discardLogger()))
		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}
	})

	t.Run("processes every form", func(t *testing.T) {
		t.Parallel()

		submitter := &fakeSubmitter{snapshot: &model.PageSnapshot{Content: "thank you"}}
		validator := &fakeValidator{outcome: model.SubmissionOutcome{Success: true, Reason: "ok"}}
		step := NewFormStep(submitter, validator, WithFormLogger(discardLogger()))

		honeypot := contactForm("https://example.com/other")
		honeypot.HasHoneypot = true

		report := model.NewDomainReport(model.NewDomainTask("example.com", ""))
		report.Result = &model.CrawlResult{Forms: []*model.FormData{
			contactForm("https://example.com/contact"),
			honeypot,
		}}

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if submitter.calls != 1 {
			t.Errorf("Submit called %d times, want 1", submitter.calls)
		}
		if len(report.Entries) != 2 {
			t.Errorf("len(Entries) = %d, want 2", len(report.Entries))
		}
	})
}

func TestEmailFallbackStep(t *testing.T) {
	t.Parallel()

	newReport := func(targetEmail string, discovered ...string) *model.DomainReport {
		report := model.NewDomainReport(model.NewDomainTask("example.com", targetEmail))
		report.Result = &model.CrawlResult{Emails: discovered}
		return report
	}

	t.Run("does nothing after a successful submit", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		step := NewEmailFallbackStep(sender, &fakeStore{}, WithEmailLogger(discardLogger()))

		report := newReport("contact@example.com")
		report.AddEntry(model.ActionFormSubmit, model.StatusSuccess, model.ReasonFormSubmitted, "", "")

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}
		if len(sender.sent) != 0 {
			t.Errorf("sent %d messages, want 0", len(sender.sent))
		}
	})

	t.Run("prefers the pre-supplied address", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		step := NewEmailFallbackStep(sender, &fakeStore{}, WithEmailLogger(discardLogger()))

		report := newReport("contact@example.com", "info@example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(sender.sent) != 1 || sender.sent[0].To != "contact@example.com" {
			t.Fatalf("sent = %+v, want one message to contact@example.com", sender.sent)
		}
		entry := report.Entries[0]
		if entry.Code != model.ReasonEmailSent || entry.Status != model.StatusSuccess {
			t.Errorf("Code/Status = %q/%q, want %q/%q",
				entry.Code, entry.Status, model.ReasonEmailSent, model.StatusSuccess)
		}
	})

	t.Run("falls back to first discovered address", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		step := NewEmailFallbackStep(sender, &fakeStore{}, WithEmailLogger(discardLogger()))

		report := newReport("", "info@example.com", "sales@example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(sender.sent) != 1 || sender.sent[0].To != "info@example.com" {
			t.Fatalf("sent = %+v, want one message to info@example.com", sender.sent)
		}
	})

	t.Run("does nothing without a recipient", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		step := NewEmailFallbackStep(sender, &fakeStore{}, WithEmailLogger(discardLogger()))

		report := newReport("")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}
		if len(sender.sent) != 0 || len(report.Entries) != 0 {
			t.Errorf("sent = %d, entries = %d, want 0 and 0", len(sender.sent), len(report.Entries))
		}
	})

	t.Run("skips suppressed recipients", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		store := &fakeStore{suppressed: map[string]bool{"dead@example.com": true}}
		step := NewEmailFallbackStep(sender, store, WithEmailLogger(discardLogger()))

		report := newReport("dead@example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(sender.sent) != 0 {
			t.Errorf("sent %d messages, want 0", len(sender.sent))
		}
		entry := report.Entries[0]
		if entry.Code != model.ReasonSuppressed || entry.Status != model.StatusSkipped {
			t.Errorf("Code/Status = %q/%q, want %q/%q",
				entry.Code, entry.Status, model.ReasonSuppressed, model.StatusSkipped)
		}
	})

	t.Run("hard bounce suppresses the address", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{err: mailer.ErrHardBounce}
		store := &fakeStore{}
		step := NewEmailFallbackStep(sender, store, WithEmailLogger(discardLogger()))

		report := newReport("gone@example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(store.added) != 1 || store.added[0] != "gone@example.com" {
			t.Errorf("suppressions added = %v, want [gone@example.com]", store.added)
		}
		if got := report.Entries[0].Code; got != model.ReasonHardBounce {
			t.Errorf("Code = %q, want %q", got, model.ReasonHardBounce)
		}
	})

	t.Run("SMTP errors are recorded", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{err: errors.New("451 temporary failure")}
		step := NewEmailFallbackStep(sender, &fakeStore{}, WithEmailLogger(discardLogger()))

		report := newReport("contact@example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if got := report.Entries[0].Code; got != model.ReasonSMTPError {
			t.Errorf("Code = %q, want %q", got, model.ReasonSMTPError)
		}
	})

	t.Run("unconfigured SMTP is silent", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{err: mailer.ErrNotConfigured}
		step := NewEmailFallbackStep(sender, &fakeStore{}, WithEmailLogger(discardLogger()))

		report := newReport("contact@example.com")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("Do() error = %v, want nil", err)
		}

		if len(report.Entries) != 0 {
			t.Errorf("len(Entries) = %d, want 0", len(report.Entries))
		}
	})
}
