package validate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/selvaggiesteban/form-tester/internal/model"
)

// Marker sets driving the outcome classification. All matching is done
// on a lowercased copy of the page content.
var (
	// successMarkers indicate a confirmed submission, including common
	// form-framework success classes.
	successMarkers = []string{
		"thank you",
		"thanks for",
		"gracias",
		"message sent",
		"mensaje enviado",
		"your message has been",
		"hemos recibido",
		"successfully sent",
		"enviado correctamente",
		"merci",
		"message envoy",
		"grazie",
		"messaggio inviato",
		"wpcf7-mail-sent-ok",
		"elementor-message-success",
		"nf-response-msg",
		"form-success",
		"alert-success",
	}

	// errorMarkers indicate an explicit technical failure.
	errorMarkers = []string{
		"internal server error",
		"failed to send",
		"could not send",
		"error al enviar",
		"no se pudo enviar",
		"spam detected",
		"spam detectado",
		"something went wrong",
		"wpcf7-validation-errors",
		"try again later",
	}

	// validationMarkers indicate field-validation messages. These are
	// often left in the markup after a successful submit, so on their
	// own they are only meaningful together with form presence.
	validationMarkers = []string{
		"required",
		"please fill",
		"obligatorio",
		"este campo",
		"is required",
		"campo requerido",
		"champ requis",
		"campo obbligatorio",
	}

	// urlSuccessTokens are path fragments of conventional thank-you or
	// confirmation pages reached by a post-submit redirect.
	urlSuccessTokens = []string{
		"thank",
		"thankyou",
		"thank-you",
		"gracias",
		"merci",
		"success",
		"confirmation",
		"confirmacion",
		"enviado",
	}
)

// Failure reasons for the ambiguous cases.
const (
	reasonFormStillPresent = "no confirmation, form still present"
	reasonNoConfirmation   = "no confirmation detected"
	reasonValidationStale  = "validation message present but form gone, treating as submitted"
	reasonURLConfirmation  = "post-submit URL indicates confirmation page"
)

// Validator judges post-submission page snapshots.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate classifies a post-submit page snapshot.
//
// The decision order is deliberate and must not be reordered:
//
//  1. An explicit error marker with no success marker fails.
//  2. A field-validation marker with neither error nor success marker,
//     on a page where the form is gone, passes: the validation message
//     is likely stale and the submission probably went through.
//  3. Any success marker passes.
//  4. With no markers at all, a thank-you token in the final URL passes;
//     otherwise a still-present form fails as unconfirmed, and a page
//     without the form fails as the conservative default.
//
// The ordering encodes a bias toward treating ambiguous-but-form-gone
// states differently from ambiguous-but-form-present states.
func (v *Validator) Validate(snapshot model.PageSnapshot) model.SubmissionOutcome {
	content := strings.ToLower(snapshot.Content)

	successMatch := firstMatch(content, successMarkers)
	errorMatch := firstMatch(content, errorMarkers)
	validationMatch := firstMatch(content, validationMarkers)
	formPresent := hasFormElement(snapshot.Content)

	// 1. Explicit technical error without any success signal.
	if errorMatch != "" && successMatch == "" {
		return model.SubmissionOutcome{Success: false, Reason: "error marker: " + errorMatch}
	}

	// 2. Validation message alone, and the form is no longer rendered.
	if validationMatch != "" && errorMatch == "" && successMatch == "" && !formPresent {
		return model.SubmissionOutcome{Success: true, Reason: reasonValidationStale}
	}

	// 3. Any success marker.
	if successMatch != "" {
		return model.SubmissionOutcome{Success: true, Reason: "success marker: " + successMatch}
	}

	// 4. No markers at all: fall back to the URL, then to form presence.
	lowerURL := strings.ToLower(snapshot.URL)
	for _, token := range urlSuccessTokens {
		if strings.Contains(lowerURL, token) {
			return model.SubmissionOutcome{Success: true, Reason: reasonURLConfirmation}
		}
	}
	if formPresent {
		return model.SubmissionOutcome{Success: false, Reason: reasonFormStillPresent}
	}
	return model.SubmissionOutcome{Success: false, Reason: reasonNoConfirmation}
}

// firstMatch returns the first marker contained in the content, or "".
func firstMatch(content string, markers []string) string {
	for _, marker := range markers {
		if strings.Contains(content, marker) {
			return marker
		}
	}
	return ""
}

// hasFormElement reports whether the content still renders a form
// element. The parse is best effort: goquery tolerates malformed markup,
// and an unparseable snapshot is treated as having no form.
func hasFormElement(content string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return false
	}
	return doc.Find("form").Length() > 0
}
