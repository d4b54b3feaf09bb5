// Package report collects verdicts into a final report and renders it.
package report

import (
	"sync"

	"github.com/ppiankov/docparity/internal/model"
)

// Aggregator collects verdicts and notes into a report.
// It is safe for concurrent use, but callers that need a reproducible order
// must accumulate sequentially.
type Aggregator struct {
	mu                  sync.Mutex
	report              model.Report
	failOnIndeterminate bool
}

// NewAggregator creates an aggregator for one reconciliation run
func NewAggregator(labels model.Labels, failOnIndeterminate bool) *Aggregator {
	return &Aggregator{
		report: model.Report{
			ReferenceLabel: labels.For(model.SideReference),
			CandidateLabel: labels.For(model.SideCandidate),
		},
		failOnIndeterminate: failOnIndeterminate,
	}
}

// Accumulate files a verdict under its outcome
func (a *Aggregator) Accumulate(v model.Verdict) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch v.Outcome {
	case model.OutcomeMatch:
		a.report.Matches = append(a.report.Matches, v)
	case model.OutcomeMismatch:
		a.report.Mismatches = append(a.report.Mismatches, v)
	default:
		a.report.Indeterminates = append(a.report.Indeterminates, v)
	}
}

// AddNote records informational text that never affects the outcome
func (a *Aggregator) AddNote(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.report.Notes = append(a.report.Notes, text)
}

// Finalize computes counts and the failure flag.
// The report fails iff there is a mismatch, or an indeterminate verdict when
// the aggregator was created with failOnIndeterminate.
func (a *Aggregator) Finalize() *model.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := a.report
	r.Matches = nonNil(r.Matches)
	r.Mismatches = nonNil(r.Mismatches)
	r.Indeterminates = nonNil(r.Indeterminates)
	if r.Notes == nil {
		r.Notes = []string{}
	} else {
		r.Notes = append([]string(nil), r.Notes...)
	}

	r.MatchCount = len(r.Matches)
	r.MismatchCount = len(r.Mismatches)
	r.IndeterminateCount = len(r.Indeterminates)
	r.Failed = r.MismatchCount > 0 || (a.failOnIndeterminate && r.IndeterminateCount > 0)

	return &r
}

func nonNil(verdicts []model.Verdict) []model.Verdict {
	return append([]model.Verdict{}, verdicts...)
}
