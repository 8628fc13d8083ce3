package classify

import (
	"strings"

	"github.com/selvaggiesteban/form-tester/internal/model"
)

// TableEntry associates one role with its keyword list. Entries are
// evaluated in slice order, so the order encodes the tie-break priority
// when a field matches more than one role.
type TableEntry struct {
	// Role is the role assigned when any keyword matches.
	Role model.Role

	// Keywords are matched as lowercase substrings of the field's
	// concatenated attributes.
	Keywords []string
}

// Tables is the full keyword configuration for a Classifier.
//
// Design decision: The tables are an explicit value passed in at
// construction rather than package-level globals. Tests substitute
// smaller tables without touching shared state, and alternate keyword
// sets can be loaded from configuration later without code changes.
type Tables struct {
	// Entries is the ordered per-role keyword table.
	Entries []TableEntry
}

// DefaultTables returns the built-in multilingual keyword tables.
//
// The entry order is fixed and significant: name → email → subject →
// message → phone → company. A field whose attributes match several
// tables takes the first matching role.
func DefaultTables() Tables {
	return Tables{
		Entries: []TableEntry{
			{
				Role: model.RoleName,
				Keywords: []string{
					"name", "nombre", "fullname", "full_name", "your_name",
					"contact_name", "prenom", "apellido", "cognome", "nome",
				},
			},
			{
				Role: model.RoleEmail,
				Keywords: []string{
					"email", "correo", "e-mail", "mail", "email_address",
					"your_email", "courriel", "posta",
				},
			},
			{
				Role: model.RoleSubject,
				Keywords: []string{
					"subject", "asunto", "topic", "title", "sujet", "objet",
					"oggetto",
				},
			},
			{
				Role: model.RoleMessage,
				Keywords: []string{
					"message", "mensaje", "comments", "comment", "body",
					"content", "your_message", "consulta", "messaggio",
					"commentaire", "inquiry",
				},
			},
			{
				Role: model.RolePhone,
				Keywords: []string{
					"phone", "telefono", "tel", "telephone", "mobile", "cell",
					"celular", "movil", "portable",
				},
			},
			{
				Role: model.RoleCompany,
				Keywords: []string{
					"company", "empresa", "organization", "organisation",
					"business", "firma", "societe", "azienda", "entreprise",
				},
			},
		},
	}
}

// Fallback keyword sets, applied in order when no table entry matches.
// These catch fields whose attributes hint at a role without using any
// of the table keywords verbatim.
var (
	fallbackEmail   = []string{"email", "correo", "e-mail"}
	fallbackSubject = []string{"asunto", "subject", "tema", "motivo"}
	fallbackPhone   = []string{"phone", "telefono", "tel", "mobile", "celular"}
)

// Classifier assigns semantic roles to form fields.
type Classifier struct {
	tables Tables
}

// New creates a Classifier using the given keyword tables.
func New(tables Tables) *Classifier {
	return &Classifier{tables: tables}
}

// NewDefault creates a Classifier with the built-in tables.
func NewDefault() *Classifier {
	return New(DefaultTables())
}

// Classify maps a field's attributes to a role.
//
// It lowercases and concatenates the four attributes into one search
// string, scans the keyword tables in priority order, and falls back to
// the email → subject → phone heuristic chain when no table entry
// matches. The result depends only on the four inputs.
func (c *Classifier) Classify(name, id, placeholder, label string) model.Role {
	search := strings.ToLower(name + " " + id + " " + placeholder + " " + label)

	for _, entry := range c.tables.Entries {
		for _, keyword := range entry.Keywords {
			if strings.Contains(search, keyword) {
				return entry.Role
			}
		}
	}

	// Fallback heuristics, in documented order.
	if containsAny(search, fallbackEmail) {
		return model.RoleEmail
	}
	if containsAny(search, fallbackSubject) {
		return model.RoleSubject
	}
	if containsAny(search, fallbackPhone) {
		return model.RolePhone
	}

	return model.RoleNone
}

// ClassifyField classifies a raw field and returns it with its role.
func (c *Classifier) ClassifyField(field model.RawField) model.ClassifiedField {
	return model.ClassifiedField{
		RawField: field,
		Role:     c.Classify(field.Name, field.ID, field.Placeholder, field.Label),
	}
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
