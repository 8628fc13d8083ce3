package model

// CaptchaKind identifies the CAPTCHA implementation detected on a page.
type CaptchaKind string

// Known CAPTCHA kinds.
const (
	CaptchaNone      CaptchaKind = "none"
	CaptchaReCAPTCHA CaptchaKind = "reCAPTCHA"
	CaptchaHCaptcha  CaptchaKind = "hCAPTCHA"
)

// FormData is a candidate contact form discovered during a crawl.
//
// A FormData exists only if its field map satisfies the contact-form
// acceptance predicate: an email field plus a message or name field.
// Forms missing this combination are discarded during extraction, never
// retained with a partial map.
type FormData struct {
	// URL is the page the form was found on.
	URL string `json:"url"`

	// Markup is the raw outer HTML of the form element, retained as
	// submission evidence.
	Markup string `json:"-"`

	// Fields maps each assigned role to its field descriptor. Roles are
	// unique per form; when two fields classify to the same role, the
	// last one seen wins.
	Fields map[Role]RawField `json:"fields"`

	// SubmitButton is the name or id of the form's submit control,
	// empty when none was identified.
	SubmitButton string `json:"submit_button,omitempty"`

	// HasCaptcha reports whether an anti-bot challenge was detected on
	// the page containing the form.
	HasCaptcha bool `json:"has_captcha"`

	// CaptchaKind is the detected CAPTCHA implementation.
	CaptchaKind CaptchaKind `json:"captcha_kind"`

	// HasHoneypot reports whether the form contains a spam-trap field.
	HasHoneypot bool `json:"has_honeypot"`
}

// IsContactForm reports whether a role→field map satisfies the
// contact-form acceptance predicate: email AND (message OR name).
func IsContactForm(fields map[Role]RawField) bool {
	if _, ok := fields[RoleEmail]; !ok {
		return false
	}
	if _, ok := fields[RoleMessage]; ok {
		return true
	}
	_, ok := fields[RoleName]
	return ok
}
