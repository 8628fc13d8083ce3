package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/selvaggiesteban/form-tester/internal/mailer"
	"github.com/selvaggiesteban/form-tester/internal/model"
	"github.com/selvaggiesteban/form-tester/internal/submit"
)

// DomainCrawler discovers contact forms and email addresses for a domain.
// *crawler.Crawler satisfies this interface.
type DomainCrawler interface {
	Crawl(ctx context.Context, task *model.DomainTask) (*model.CrawlResult, error)
}

// FormSubmitter fills and submits a contact form through a browser and
// returns the resulting page snapshot plus an evidence path.
// *submit.Submitter satisfies this interface.
type FormSubmitter interface {
	Submit(ctx context.Context, form *model.FormData) (*model.PageSnapshot, string, error)
}

// OutcomeValidator judges whether a submission went through based on the
// post-submission page. *validate.Validator satisfies this interface.
type OutcomeValidator interface {
	Validate(snapshot model.PageSnapshot) model.SubmissionOutcome
}

// EmailSender delivers a message over SMTP. *mailer.Mailer satisfies
// this interface.
type EmailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// SuppressionStore checks and records suppressed recipient addresses.
// *database.ResultDB satisfies this interface.
type SuppressionStore interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
	AddSuppression(ctx context.Context, email, reason string) error
}

// CrawlStep discovers contact forms and email addresses on the target
// domain. It is the foundation for all later steps: form submission only
// operates on forms found here, and the email fallback only knows about
// addresses collected here.
type CrawlStep struct {
	// crawler performs the bounded frontier crawl.
	crawler DomainCrawler

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawl step backed by the given crawler.
func NewCrawlStep(c DomainCrawler, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler: c,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step's name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls the domain and stores the result on the report.
//
// A domain where nothing actionable was found (no forms, no discovered
// addresses, and no pre-supplied contact address) is recorded as
// NO_FORM_FOUND so it shows up in the results instead of silently
// producing an empty report.
func (s *CrawlStep) Do(ctx context.Context, report *model.DomainReport) error {
	result, err := s.crawler.Crawl(ctx, report.Task)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			report.AddEntry(model.ActionProcess, model.StatusFailed, model.ReasonTimeout, err.Error(), "")
		} else {
			report.AddEntry(model.ActionProcess, model.StatusFailed, model.ReasonNetworkError, err.Error(), "")
		}
		return err
	}

	report.Result = result

	s.logger.Info("crawl complete",
		"domain", report.Task.Domain,
		"forms", len(result.Forms),
		"emails", len(result.Emails),
	)

	if len(result.Forms) == 0 && len(result.Emails) == 0 && report.Task.TargetEmail == "" {
		report.AddEntry(model.ActionProcess, model.StatusFailed, model.ReasonNoFormFound, "", "")
	}

	return nil
}

// FormStep submits each discovered contact form and validates the
// outcome. Forms protected by a CAPTCHA or carrying a honeypot field are
// skipped and recorded with the matching reason code; everything else is
// driven through the browser and judged from the post-submission page.
type FormStep struct {
	// submitter drives the browser.
	submitter FormSubmitter

	// validator judges the post-submission page.
	validator OutcomeValidator

	// skipSubmit disables actual submission for this domain. Forms are
	// still discovered and counted, but never filled or sent.
	skipSubmit bool

	// logger for structured logging.
	logger *slog.Logger
}

// FormStepOption configures a FormStep.
type FormStepOption func(*FormStep)

// WithSkipSubmit disables form submission while keeping discovery.
func WithSkipSubmit(skip bool) FormStepOption {
	return func(s *FormStep) {
		s.skipSubmit = skip
	}
}

// WithFormLogger sets a custom logger for the form step.
func WithFormLogger(logger *slog.Logger) FormStepOption {
	return func(s *FormStep) {
		s.logger = logger
	}
}

// NewFormStep creates a new form submission step.
func NewFormStep(submitter FormSubmitter, validator OutcomeValidator, opts ...FormStepOption) *FormStep {
	s := &FormStep{
		submitter: submitter,
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step's name.
func (s *FormStep) Name() string {
	return "form-submit"
}

// Do processes every discovered form in order. Per-form failures are
// recorded in the report and never abort the step: one broken form must
// not prevent trying the next, nor the email fallback afterwards.
func (s *FormStep) Do(ctx context.Context, report *model.DomainReport) error {
	if report.Result == nil || len(report.Result.Forms) == 0 {
		return nil
	}

	if s.skipSubmit {
		s.logger.Info("form submission disabled for this domain",
			"domain", report.Task.Domain,
			"forms", len(report.Result.Forms),
		)
		return nil
	}

	for _, form := range report.Result.Forms {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if form.HasCaptcha {
			// Markers without a recognizable vendor get the generic
			// code rather than a vendor claim.
			code := model.ReasonHasCaptcha
			switch form.CaptchaKind {
			case model.CaptchaReCAPTCHA:
				code = model.ReasonHasReCAPTCHA
			case model.CaptchaHCaptcha:
				code = model.ReasonHasHCaptcha
			}
			report.AddEntry(model.ActionFormSkip, model.StatusSkipped, code, form.URL, "")
			continue
		}

		if form.HasHoneypot {
			report.AddEntry(model.ActionFormSkip, model.StatusSkipped, model.ReasonHoneypotDetected, form.URL, "")
			continue
		}

		snapshot, evidence, err := s.submitter.Submit(ctx, form)
		if err != nil {
			s.recordSubmitError(report, form, evidence, err)
			continue
		}

		outcome := s.validator.Validate(*snapshot)
		if outcome.Success {
			report.AddEntry(model.ActionFormSubmit, model.StatusSuccess, model.ReasonFormSubmitted,
				fmt.Sprintf("%s (%s)", form.URL, outcome.Reason), evidence)
		} else {
			report.AddEntry(model.ActionFormSubmit, model.StatusFailed, model.ReasonFormRejected,
				fmt.Sprintf("%s (%s)", form.URL, outcome.Reason), evidence)
		}
	}

	return nil
}

// recordSubmitError maps a submission error to the right reason code.
func (s *FormStep) recordSubmitError(report *model.DomainReport, form *model.FormData, evidence string, err error) {
	s.logger.Warn("form submission failed",
		"domain", report.Task.Domain,
		"url", form.URL,
		"error", err,
	)

	switch {
	case errors.Is(err, submit.ErrFillField), errors.Is(err, submit.ErrNoSubmitControl):
		report.AddEntry(model.ActionFormSubmit, model.StatusFailed, model.ReasonFormFillError,
			fmt.Sprintf("%s: %v", form.URL, err), evidence)
	case errors.Is(err, context.DeadlineExceeded):
		report.AddEntry(model.ActionFormSubmit, model.StatusFailed, model.ReasonTimeout,
			fmt.Sprintf("%s: %v", form.URL, err), evidence)
	default:
		report.AddEntry(model.ActionFormSubmit, model.StatusFailed, model.ReasonNetworkError,
			fmt.Sprintf("%s: %v", form.URL, err), evidence)
	}
}

// EmailFallbackStep sends a direct email when no form submission
// succeeded for the domain. The recipient is the task's pre-supplied
// address when present, otherwise the first address discovered during
// the crawl.
//
// Design decision: The fallback checks the suppression list BEFORE
// dialing because:
// 1. A hard-bounced address will bounce again; retrying wastes sends
// 2. Repeated sends to dead addresses damage the sender's reputation
// 3. The check is a local database lookup, far cheaper than an SMTP dial
type EmailFallbackStep struct {
	// sender delivers the message.
	sender EmailSender

	// store is consulted for suppressed addresses and updated on a
	// hard bounce.
	store SuppressionStore

	// subject and body of the fallback message.
	subject string
	body    string

	// logger for structured logging.
	logger *slog.Logger
}

// EmailFallbackOption configures an EmailFallbackStep.
type EmailFallbackOption func(*EmailFallbackStep)

// WithMessage overrides the default subject and body of the fallback email.
func WithMessage(subject, body string) EmailFallbackOption {
	return func(s *EmailFallbackStep) {
		s.subject = subject
		s.body = body
	}
}

// WithEmailLogger sets a custom logger for the email fallback step.
func WithEmailLogger(logger *slog.Logger) EmailFallbackOption {
	return func(s *EmailFallbackStep) {
		s.logger = logger
	}
}

// NewEmailFallbackStep creates a new email fallback step. The default
// subject and body match the data used to fill forms, so a recipient
// sees the same test message either way.
func NewEmailFallbackStep(sender EmailSender, store SuppressionStore, opts ...EmailFallbackOption) *EmailFallbackStep {
	data := submit.DefaultTestData()
	s := &EmailFallbackStep{
		sender:  sender,
		store:   store,
		subject: data[model.RoleSubject],
		body:    data[model.RoleMessage],
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step's name.
func (s *EmailFallbackStep) Name() string {
	return "email-fallback"
}

// Do sends the fallback email if the domain still needs one.
// It does nothing when a form was already submitted successfully or
// when no recipient address is known.
func (s *EmailFallbackStep) Do(ctx context.Context, report *model.DomainReport) error {
	if hasSuccessfulSubmit(report) {
		return nil
	}

	recipient := report.Task.TargetEmail
	if recipient == "" && report.Result != nil && len(report.Result.Emails) > 0 {
		recipient = report.Result.Emails[0]
	}
	if recipient == "" {
		return nil
	}

	suppressed, err := s.store.IsSuppressed(ctx, recipient)
	if err != nil {
		return fmt.Errorf("check suppression list: %w", err)
	}
	if suppressed {
		report.AddEntry(model.ActionEmail, model.StatusSkipped, model.ReasonSuppressed, recipient, "")
		return nil
	}

	err = s.sender.Send(ctx, mailer.Message{
		To:      recipient,
		Subject: s.subject,
		Body:    s.body,
	})
	switch {
	case err == nil:
		report.AddEntry(model.ActionEmail, model.StatusSuccess, model.ReasonEmailSent, recipient, "")
	case errors.Is(err, mailer.ErrNotConfigured):
		s.logger.Debug("email fallback skipped, SMTP not configured",
			"domain", report.Task.Domain,
		)
	case errors.Is(err, mailer.ErrHardBounce):
		if addErr := s.store.AddSuppression(ctx, recipient, "hard_bounce"); addErr != nil {
			s.logger.Error("failed to record suppression",
				"email", recipient,
				"error", addErr,
			)
		}
		report.AddEntry(model.ActionEmail, model.StatusFailed, model.ReasonHardBounce, recipient, "")
	default:
		report.AddEntry(model.ActionEmail, model.StatusFailed, model.ReasonSMTPError,
			fmt.Sprintf("%s: %v", recipient, err), "")
	}

	return nil
}

// hasSuccessfulSubmit reports whether the domain already has a
// successfully submitted form.
func hasSuccessfulSubmit(report *model.DomainReport) bool {
	for _, entry := range report.Entries {
		if entry.Action == model.ActionFormSubmit && entry.Status == model.StatusSuccess {
			return true
		}
	}
	return false
}
