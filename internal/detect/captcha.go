package detect

import (
	"strings"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// defaultCaptchaMarkers are the substrings that indicate a CAPTCHA
// somewhere in the page markup. Matching is case-insensitive.
var defaultCaptchaMarkers = []string{
	"recaptcha",
	"g-recaptcha",
	"hcaptcha",
	"h-captcha",
	"data-sitekey",
	"captcha",
}

// HasCaptcha reports whether the raw HTML contains any CAPTCHA marker.
func (d *Detector) HasCaptcha(rawHTML string) bool {
	lower := strings.ToLower(rawHTML)
	for _, marker := range d.captchaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// CaptchaKind identifies which CAPTCHA implementation the markup uses.
//
// reCAPTCHA is checked before hCAPTCHA: when both vendor markers coexist
// with a generic "captcha" marker, the reCAPTCHA judgment wins. A page
// that only carries a generic marker reports CaptchaNone for the kind
// even though HasCaptcha is true.
func (d *Detector) CaptchaKind(rawHTML string) model.CaptchaKind {
	lower := strings.ToLower(rawHTML)
	if strings.Contains(lower, "recaptcha") {
		return model.CaptchaReCAPTCHA
	}
	if strings.Contains(lower, "hcaptcha") || strings.Contains(lower, "h-captcha") {
		return model.CaptchaHCaptcha
	}
	return model.CaptchaNone
}
