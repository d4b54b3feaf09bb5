package model

// Outcome is the result of a single comparison
type Outcome string

const (
	OutcomeMatch         Outcome = "match"
	OutcomeMismatch      Outcome = "mismatch"
	OutcomeIndeterminate Outcome = "indeterminate" // At least one value could not be located
)

// Scope tells who disagrees with whom
type Scope string

const (
	ScopeCrossDocument   Scope = "cross_document"   // The documents disagree with each other
	ScopeSelfConsistency Scope = "self_consistency" // A document disagrees with itself
)

// Observation is one labelled side of a verdict
type Observation struct {
	Label string `json:"label"`
	Value Value  `json:"value"`
}

// Verdict records the outcome of exactly one claim or law evaluation
type Verdict struct {
	Section     string      `json:"section"`
	Description string      `json:"description"`
	Outcome     Outcome     `json:"outcome"`
	Scope       Scope       `json:"scope"`
	Subject     string      `json:"subject,omitempty"` // Document label for self-consistency verdicts
	Left        Observation `json:"left"`
	Right       Observation `json:"right"`
	Reason      string      `json:"reason,omitempty"` // Why an indeterminate verdict could not be decided
}

// ScopeText describes the scope for humans
func (v Verdict) ScopeText() string {
	if v.Scope == ScopeSelfConsistency {
		if v.Subject != "" {
			return v.Subject + " disagrees with itself"
		}
		return "document disagrees with itself"
	}
	return "documents disagree with each other"
}
