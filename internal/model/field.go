package model

// Role is the semantic meaning assigned to a form field.
// The classifier maps raw field attributes to exactly one role.
type Role string

// Known field roles. RoleNone indicates that no role could be assigned.
const (
	RoleName    Role = "name"
	RoleEmail   Role = "email"
	RoleSubject Role = "subject"
	RoleMessage Role = "message"
	RolePhone   Role = "phone"
	RoleCompany Role = "company"
	RoleNone    Role = "none"
)

// RawField is one form control as it appears in the markup, before any
// semantic classification. It is produced and consumed within a single
// form-extraction pass.
type RawField struct {
	// Type is the input type attribute (text, email, hidden, ...).
	// For textarea and select elements the element name is used.
	Type string

	// Name is the name attribute.
	Name string

	// ID is the id attribute.
	ID string

	// Placeholder is the placeholder attribute.
	Placeholder string

	// Label is the text of the associated <label> element, looked up
	// by for=id or for=name.
	Label string

	// Style is the inline style attribute. Only the honeypot detector
	// inspects it; the classifier ignores it.
	Style string
}

// ClassifiedField is a RawField with its assigned semantic role.
//
// The classification is idempotent and pure: identical input attributes
// always yield the same role.
type ClassifiedField struct {
	RawField

	// Role is the semantic role assigned by the classifier.
	Role Role
}
