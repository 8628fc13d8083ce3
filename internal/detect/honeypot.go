package detect

import "strings"

// Control is one non-submit form control as seen by the honeypot
// detector: just enough of the markup to judge visibility and intent.
type Control struct {
	// Type is the input type attribute.
	Type string

	// Name is the name attribute.
	Name string

	// Style is the inline style attribute.
	Style string
}

// spammableTerms are field names a spam bot would be tempted to fill.
// A hidden field carrying one of these is suspicious but not conclusive.
var spammableTerms = []string{"email", "name", "phone", "url", "website", "company"}

// trapMarkers are explicit hints that a field exists to trap bots.
var trapMarkers = []string{"trap", "honeypot", "bot", "spam", "sneaky", "_chk", "check", "verify", "validation"}

// Detector flags CAPTCHA and honeypot measures. The marker lists are
// fixed at construction so tests can substitute smaller sets.
type Detector struct {
	captchaMarkers []string
	spammable      []string
	trapMarkers    []string
}

// Option configures a Detector.
type Option func(*Detector)

// WithCaptchaMarkers overrides the CAPTCHA marker list.
func WithCaptchaMarkers(markers []string) Option {
	return func(d *Detector) {
		d.captchaMarkers = markers
	}
}

// New creates a Detector with the default marker lists.
func New(opts ...Option) *Detector {
	d := &Detector{
		captchaMarkers: defaultCaptchaMarkers,
		spammable:      spammableTerms,
		trapMarkers:    trapMarkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasHoneypot reports whether a form's non-submit controls indicate a
// spam trap. The decision has three tiers, evaluated in order:
//
//  1. Any strong indicator (a hidden control whose name combines a
//     spammable term with an explicit trap marker) makes the form a
//     honeypot regardless of its other fields.
//  2. Otherwise, if at least one visible control exists the form is not
//     a honeypot. Legitimate forms routinely carry hidden anti-CSRF or
//     tracking fields.
//  3. Otherwise the form has controls but no visible input surface at
//     all, which only a trap form does.
//
// A form with no non-submit controls is not a honeypot; there is nothing
// to trap with.
func (d *Detector) HasHoneypot(controls []Control) bool {
	if len(controls) == 0 {
		return false
	}

	visible := 0
	strong := false

	for _, control := range controls {
		if !isHidden(control) {
			visible++
			continue
		}
		if d.isStrongIndicator(control) {
			strong = true
		}
	}

	if strong {
		return true
	}
	if visible > 0 {
		return false
	}
	return true
}

// isStrongIndicator reports whether a hidden control's name combines a
// plausible-but-spammable term with an explicit trap marker.
func (d *Detector) isStrongIndicator(control Control) bool {
	name := strings.ToLower(control.Name)
	return containsAny(name, d.spammable) && containsAny(name, d.trapMarkers)
}

// isHidden reports whether a control is invisible to a human visitor:
// type=hidden, a not-displayed/not-visible style declaration, or
// off-screen positioning via negative left/top offsets.
func isHidden(control Control) bool {
	if strings.EqualFold(control.Type, "hidden") {
		return true
	}

	// Normalize the style so "display: none" and "display:none" match.
	style := strings.ReplaceAll(strings.ToLower(control.Style), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return true
	}
	if strings.Contains(style, "left:-") || strings.Contains(style, "top:-") {
		return true
	}
	return false
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
