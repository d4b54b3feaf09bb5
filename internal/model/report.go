package model

// Report is the finalized outcome of one reconciliation run.
// Failed never depends on Notes.
type Report struct {
	ReferenceLabel string `json:"reference_label"`
	CandidateLabel string `json:"candidate_label"`

	Matches        []Verdict `json:"matches"`
	Mismatches     []Verdict `json:"mismatches"`
	Indeterminates []Verdict `json:"indeterminates"`
	Notes          []string  `json:"notes"`

	MatchCount         int  `json:"match_count"`
	MismatchCount      int  `json:"mismatch_count"`
	IndeterminateCount int  `json:"indeterminate_count"`
	Failed             bool `json:"failed"`
}

// Total returns the number of verdicts in the report
func (r *Report) Total() int {
	return r.MatchCount + r.MismatchCount + r.IndeterminateCount
}

// Passed reports whether the report carries a success signal
func (r *Report) Passed() bool {
	return !r.Failed
}
