package model

// Kind selects how a raw token is canonicalized
type Kind string

const (
	KindText       Kind = "text"       // Trimmed, normalized, case-sensitive text
	KindPercentage Kind = "percentage" // Fixed-point, one decimal digit
	KindInteger    Kind = "integer"    // Digits only, thousands separators dropped
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindPercentage, KindInteger:
		return true
	}
	return false
}

// NotFoundText is how an absent value is displayed
const NotFoundText = "NOT FOUND"

// Value is the canonical, comparable form of an extracted token.
// Two values are equal iff their Canonical strings are equal.
type Value struct {
	Kind      Kind   `json:"kind,omitempty"`
	Raw       string `json:"raw,omitempty"`       // Token as written in the document
	Canonical string `json:"canonical,omitempty"` // Normalized form used for equality
	Found     bool   `json:"found"`
	Problem   string `json:"problem,omitempty"` // Set when the token could not be canonicalized
}

// NotFound is the sentinel for a value that could not be located
var NotFound = Value{}

// Comparable reports whether the value can take part in an equality check
func (v Value) Comparable() bool {
	return v.Found && v.Problem == ""
}

// Display returns the value as it should appear in a report
func (v Value) Display() string {
	if !v.Found {
		return NotFoundText
	}
	if v.Raw != "" {
		return v.Raw
	}
	if v.Kind == KindPercentage {
		return v.Canonical + "%"
	}
	return v.Canonical
}
