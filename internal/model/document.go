package model

// Side identifies which of the two documents a token came from
type Side string

const (
	SideReference Side = "reference" // e.g. the results webpage
	SideCandidate Side = "candidate" // e.g. the manuscript
)

// Sides lists both sides in report order
var Sides = []Side{SideReference, SideCandidate}

// Valid reports whether s is a known side
func (s Side) Valid() bool {
	return s == SideReference || s == SideCandidate
}

// Other returns the opposite side
func (s Side) Other() Side {
	if s == SideReference {
		return SideCandidate
	}
	return SideReference
}

// Document is the immutable raw text of one side.
// Documents are loaded once and never mutated.
type Document struct {
	Side   Side   `json:"side"`
	Source string `json:"source,omitempty"` // Path or URL the text was loaded from
	Text   string `json:"-"`
	Digest uint64 `json:"digest,omitempty"` // Content fingerprint, set by the loader
}

// NewDocument wraps raw text for one side
func NewDocument(side Side, source, text string) Document {
	return Document{Side: side, Source: source, Text: text}
}
