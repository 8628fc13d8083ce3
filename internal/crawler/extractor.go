package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/selvaggiesteban/form-tester/internal/classify"
	"github.com/selvaggiesteban/form-tester/internal/detect"
	"github.com/selvaggiesteban/form-tester/internal/model"
)

// contactKeywords mark URLs or anchor texts that likely lead to a
// contact surface. The orchestrator front-inserts matching links into
// the frontier so they are crawled before ordinary pages.
var contactKeywords = []string{
	"contact", "contacto", "contactez", "contatti", "kontakt",
	"help", "ayuda", "support", "soporte", "aide",
	"about", "nosotros", "quienes-somos", "chi-siamo", "a-propos",
	"reach-us", "get-in-touch", "impressum",
}

// IsContactLike reports whether a URL or anchor text suggests a contact
// page. Matching is a case-insensitive substring scan over a fixed
// multilingual keyword set.
func IsContactLike(urlOrText string) bool {
	lower := strings.ToLower(urlOrText)
	for _, keyword := range contactKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// schemes and pseudo-links that never lead to a crawlable page.
var skipPrefixes = []string{"javascript:", "mailto:", "tel:", "data:"}

// ExtractLinks returns the crawlable outbound links of a page as
// canonicalized absolute URLs, in document order with duplicates removed.
//
// Rules, in priority order: fragment-only anchors and javascript/mailto/
// tel targets are rejected; absolute URLs survive only when their host
// equals the base host; protocol-relative URLs inherit the base scheme;
// relative paths resolve against the base URL. Every kept URL is
// re-serialized as scheme://host/path[?query] so links differing only by
// fragment collapse to one frontier entry.
func ExtractLinks(doc *goquery.Document, base *url.URL) []string {
	links := make([]string, 0)
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(lower, prefix) {
				return
			}
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)

		// Same-domain filter: external hosts are dropped.
		if !strings.EqualFold(resolved.Host, base.Host) {
			return
		}

		canonical := Canonicalize(resolved)
		if canonical == "" || seen[canonical] {
			return
		}
		seen[canonical] = true
		links = append(links, canonical)
	})

	return links
}

// Canonicalize re-serializes a URL as scheme://host/path[?query],
// dropping the fragment and any user info. An empty path becomes "/" so
// the site root has exactly one canonical form.
func Canonicalize(u *url.URL) string {
	if u.Host == "" {
		return ""
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	canonical := url.URL{
		Scheme:   strings.ToLower(u.Scheme),
		Host:     strings.ToLower(u.Host),
		Path:     path,
		RawQuery: u.RawQuery,
	}
	if canonical.Scheme == "" {
		canonical.Scheme = "https"
	}
	return canonical.String()
}

// CanonicalizeString parses and canonicalizes a raw URL, returning ""
// when it cannot be parsed.
func CanonicalizeString(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return Canonicalize(u)
}

// Extractor turns parsed pages into typed contact forms and discovered
// email addresses. It owns the classifier and detector so a single
// extraction pass yields fully classified, captcha- and honeypot-flagged
// forms.
type Extractor struct {
	classifier *classify.Classifier
	detector   *detect.Detector
}

// NewExtractor creates an Extractor.
func NewExtractor(classifier *classify.Classifier, detector *detect.Detector) *Extractor {
	return &Extractor{classifier: classifier, detector: detector}
}

// submit-ish input types excluded from classification.
func isSubmitType(inputType string) bool {
	switch strings.ToLower(inputType) {
	case "submit", "button", "image", "reset":
		return true
	}
	return false
}

// ExtractForms returns the contact forms on a page. Forms that fail the
// acceptance predicate (email plus message or name) are discarded
// entirely rather than kept with partial field maps.
func (e *Extractor) ExtractForms(doc *goquery.Document, pageURL, rawHTML string) []*model.FormData {
	labels := labelIndex(doc)
	forms := make([]*model.FormData, 0)

	doc.Find("form").Each(func(_ int, formSel *goquery.Selection) {
		fields := make(map[model.Role]model.RawField)
		controls := make([]detect.Control, 0)
		submitButton := ""

		formSel.Find("input, textarea, select").Each(func(_ int, sel *goquery.Selection) {
			field := rawFieldFromSelection(sel, labels)

			if isSubmitType(field.Type) {
				if strings.EqualFold(field.Type, "submit") && submitButton == "" {
					if field.Name != "" {
						submitButton = field.Name
					} else {
						submitButton = field.ID
					}
				}
				return
			}

			// Every non-submit control feeds the honeypot decision,
			// hidden ones included.
			controls = append(controls, detect.Control{
				Type:  field.Type,
				Name:  field.Name,
				Style: field.Style,
			})

			if strings.EqualFold(field.Type, "hidden") {
				return
			}

			classified := e.classifier.ClassifyField(field)
			if classified.Role == model.RoleNone {
				return
			}
			// Roles are unique per form; the last field seen wins.
			fields[classified.Role] = field
		})

		if !model.IsContactForm(fields) {
			return
		}

		markup, err := goquery.OuterHtml(formSel)
		if err != nil {
			markup = ""
		}

		form := &model.FormData{
			URL:          pageURL,
			Markup:       markup,
			Fields:       fields,
			SubmitButton: submitButton,
			HasHoneypot:  e.detector.HasHoneypot(controls),
		}

		// CAPTCHA widgets often live outside the form element, so the
		// check runs over the whole page markup.
		if e.detector.HasCaptcha(rawHTML) {
			form.HasCaptcha = true
			form.CaptchaKind = e.detector.CaptchaKind(rawHTML)
		} else {
			form.CaptchaKind = model.CaptchaNone
		}

		forms = append(forms, form)
	})

	return forms
}

// rawFieldFromSelection builds a RawField from one form control node.
func rawFieldFromSelection(sel *goquery.Selection, labels map[string]string) model.RawField {
	field := model.RawField{
		Name:        sel.AttrOr("name", ""),
		ID:          sel.AttrOr("id", ""),
		Placeholder: sel.AttrOr("placeholder", ""),
		Style:       sel.AttrOr("style", ""),
		Type:        sel.AttrOr("type", ""),
	}

	// textarea and select carry no type attribute; use the element name.
	if field.Type == "" {
		switch goquery.NodeName(sel) {
		case "textarea":
			field.Type = "textarea"
		case "select":
			field.Type = "select"
		default:
			field.Type = "text"
		}
	}

	// Label lookup by for=id first, then for=name.
	if field.ID != "" {
		field.Label = labels[field.ID]
	}
	if field.Label == "" && field.Name != "" {
		field.Label = labels[field.Name]
	}

	return field
}

// labelIndex maps label "for" targets to their text.
func labelIndex(doc *goquery.Document) map[string]string {
	labels := make(map[string]string)
	doc.Find("label[for]").Each(func(_ int, sel *goquery.Selection) {
		target, _ := sel.Attr("for")
		if target == "" {
			return
		}
		if _, exists := labels[target]; !exists {
			labels[target] = strings.TrimSpace(sel.Text())
		}
	})
	return labels
}

// emailRegex is deliberately permissive: false positives are filtered by
// validation, and strict RFC parsing would miss real-world addresses.
var emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// strictEmailRegex validates full candidate addresses.
var strictEmailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ExtractEmails returns the page's email addresses, lowercased and
// deduplicated: mailto link targets first, then regex matches over the
// raw markup.
func (e *Extractor) ExtractEmails(doc *goquery.Document, rawHTML string) []string {
	seen := make(map[string]bool)
	emails := make([]string, 0)

	add := func(candidate string) {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" || seen[candidate] || !strictEmailRegex.MatchString(candidate) {
			return
		}
		seen[candidate] = true
		emails = append(emails, candidate)
	}

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		address := strings.TrimPrefix(href, "mailto:")
		// Strip ?subject=... and friends.
		if idx := strings.IndexByte(address, '?'); idx >= 0 {
			address = address[:idx]
		}
		add(address)
	})

	for _, match := range emailRegex.FindAllString(rawHTML, -1) {
		add(match)
	}

	return emails
}
