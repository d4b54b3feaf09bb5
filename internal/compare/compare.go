// Package compare decides whether two canonical values state the same fact.
package compare

import (
	"fmt"

	"github.com/ppiankov/docparity/internal/model"
)

// Comparator compares claims read from the two documents
type Comparator struct {
	labels model.Labels
}

// NewComparator creates a comparator that labels observations with the document names
func NewComparator(labels model.Labels) *Comparator {
	return &Comparator{labels: labels}
}

// Compare produces exactly one verdict for a claim.
// A value that was not found (or could not be canonicalized) makes the verdict
// indeterminate; otherwise the claim matches iff the canonical strings are equal.
func (c *Comparator) Compare(claim model.Claim) model.Verdict {
	verdict := model.Verdict{
		Section:     claim.Section,
		Description: claim.Description,
		Scope:       model.ScopeCrossDocument,
		Left:        model.Observation{Label: c.labels.For(model.SideReference), Value: claim.A},
		Right:       model.Observation{Label: c.labels.For(model.SideCandidate), Value: claim.B},
	}

	if reason := c.undecidable(claim); reason != "" {
		verdict.Outcome = model.OutcomeIndeterminate
		verdict.Reason = reason
		return verdict
	}

	if Equal(claim.A, claim.B) {
		verdict.Outcome = model.OutcomeMatch
	} else {
		verdict.Outcome = model.OutcomeMismatch
	}
	return verdict
}

func (c *Comparator) undecidable(claim model.Claim) string {
	for _, side := range model.Sides {
		v := claim.A
		if side == model.SideCandidate {
			v = claim.B
		}
		if reason := Undecidable(c.labels.For(side), v); reason != "" {
			return reason
		}
	}
	return ""
}

// Undecidable explains why a value cannot take part in a comparison, or returns ""
func Undecidable(label string, v model.Value) string {
	if !v.Found {
		return fmt.Sprintf("%s value not found", label)
	}
	if v.Problem != "" {
		return fmt.Sprintf("%s value unreadable: %s", label, v.Problem)
	}
	return ""
}

// Equal reports whether two comparable values carry the same canonical form
func Equal(a, b model.Value) bool {
	return a.Comparable() && b.Comparable() && a.Canonical == b.Canonical
}
