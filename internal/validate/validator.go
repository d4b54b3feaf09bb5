package validate

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ppiankov/docparity/internal/canon"
	"github.com/ppiankov/docparity/internal/compare"
	"github.com/ppiankov/docparity/internal/model"
)

// Source supplies canonical values extracted from the documents
type Source interface {
	// Field returns one entity field of a table, or model.NotFound
	Field(side model.Side, table, entity, field string) model.Value

	// Probe returns the value of a named probe, or model.NotFound
	Probe(side model.Side, name string) model.Value
}

// Validator re-derives computed fields from the counts they come from
type Validator struct {
	canon      *canon.Canonicalizer
	labels     model.Labels
	entitySets map[string][]string
}

// NewValidator creates a validator for one claim set
func NewValidator(c *canon.Canonicalizer, labels model.Labels, entitySets map[string][]string) *Validator {
	return &Validator{
		canon:      c,
		labels:     labels,
		entitySets: entitySets,
	}
}

// Binding is one evaluation of a law: the side and entity its operands default to
type Binding struct {
	Side   model.Side
	Entity string
}

// Bindings expands a law into its evaluations, entity by entity, side by side
func (v *Validator) Bindings(law model.Law) []Binding {
	sides := law.Sides
	if len(sides) == 0 {
		sides = []model.Side{law.Side}
	}

	entities := []string{""}
	switch {
	case law.Entities != "":
		entities = v.entitySets[law.Entities]
	case law.Entity != "":
		entities = []string{law.Entity}
	}

	bindings := make([]Binding, 0, len(sides)*len(entities))
	for _, entity := range entities {
		for _, side := range sides {
			bindings = append(bindings, Binding{Side: side, Entity: entity})
		}
	}
	return bindings
}

// Validate evaluates a law once per binding
func (v *Validator) Validate(section string, law model.Law, src Source) []model.Verdict {
	bindings := v.Bindings(law)
	verdicts := make([]model.Verdict, 0, len(bindings))
	for _, b := range bindings {
		verdicts = append(verdicts, v.Evaluate(section, law, b, src))
	}
	return verdicts
}

// Evaluate produces exactly one verdict for one binding of a law.
// Missing operands make it indeterminate; a law is never skipped.
func (v *Validator) Evaluate(section string, law model.Law, b Binding, src Source) model.Verdict {
	e := &evaluation{
		Validator: v,
		law:       law,
		binding:   b,
		src:       src,
		sides:     make(map[model.Side]bool),
	}

	sideLabel := ""
	if b.Side != "" {
		sideLabel = v.labels.For(b.Side)
	}

	verdict := model.Verdict{
		Section:     section,
		Description: model.Describe(law.Description, b.Entity, "", sideLabel),
	}

	var reported, derived term
	switch law.Kind {
	case model.LawRatio:
		reported, derived = e.ratio()
	case model.LawSum:
		reported, derived = e.sum()
	case model.LawSubtraction:
		reported, derived = e.subtraction()
	case model.LawEquality:
		reported, derived = e.resolve(law.Reported, "reported"), e.resolve(law.Expected, "expected")
	default:
		reported = absent("reported", "")
		derived = absent("derived", fmt.Sprintf("unknown law kind %q", law.Kind))
	}

	verdict.Left = reported.obs
	verdict.Right = derived.obs
	verdict.Scope, verdict.Subject = e.scope()

	switch {
	case reported.reason != "":
		verdict.Outcome = model.OutcomeIndeterminate
		verdict.Reason = reported.reason
	case derived.reason != "":
		verdict.Outcome = model.OutcomeIndeterminate
		verdict.Reason = derived.reason
	case compare.Equal(reported.obs.Value, derived.obs.Value):
		verdict.Outcome = model.OutcomeMatch
	default:
		verdict.Outcome = model.OutcomeMismatch
	}

	return verdict
}

// term is a resolved operand
type term struct {
	obs    model.Observation
	num    *big.Rat // nil for text values
	source string   // Label of the document the operand came from; empty for literals
	reason string   // Set when the operand could not be resolved
}

func absent(label, reason string) term {
	return term{obs: model.Observation{Label: label, Value: model.NotFound}, reason: reason}
}

type evaluation struct {
	*Validator
	law     model.Law
	binding Binding
	src     Source
	sides   map[model.Side]bool
}

// ratio: reported == round(sum(counts) / denominator * 100, 1)
func (e *evaluation) ratio() (term, term) {
	reported := e.resolve(e.law.Reported, "reported")
	if e.law.Denominator <= 0 {
		return reported, absent("computed", "ratio law has no denominator")
	}
	if e.law.Counts == nil {
		return reported, absent("computed", "counts operand not declared")
	}

	counts := *e.law.Counts
	counts.Denominator = e.law.Denominator
	return reported, e.resolve(&counts, "counts")
}

// sum: parts of a partition add up to the total
func (e *evaluation) sum() (term, term) {
	var total term
	if e.law.Total != nil {
		total = e.literal(strconv.Itoa(*e.law.Total))
	} else {
		total = e.resolve(e.law.Reported, "total")
	}

	parts := e.resolve(e.law.Parts, "parts")
	if parts.reason == "" && e.law.Parts != nil && len(e.law.Parts.Fields) == 1 {
		// A single part is still a computed sum for display purposes
		parts.obs.Label = "computed from " + parts.source
	}
	return total, parts
}

// subtraction: reported == round(minuend - subtrahend, 1)
func (e *evaluation) subtraction() (term, term) {
	reported := e.resolve(e.law.Reported, "reported")

	minuend := e.resolve(e.law.Minuend, "minuend")
	if minuend.reason != "" {
		return reported, absent("computed", minuend.reason)
	}
	subtrahend := e.resolve(e.law.Subtrahend, "subtrahend")
	if subtrahend.reason != "" {
		return reported, absent("computed", subtrahend.reason)
	}
	if minuend.num == nil || subtrahend.num == nil {
		return reported, absent("computed", "subtraction operands are not numeric")
	}

	diff := new(big.Rat).Sub(minuend.num, subtrahend.num)

	var value model.Value
	if minuend.obs.Value.Kind == model.KindInteger && subtrahend.obs.Value.Kind == model.KindInteger {
		value = e.canon.Integer(diff.Num())
	} else {
		value = e.canon.Percentage(diff)
	}

	source := minuend.source
	if source != subtrahend.source {
		source = ""
	}
	return reported, e.computed(source, value)
}

// resolve reads one operand from the documents, a probe or a literal
func (e *evaluation) resolve(op *model.Operand, role string) term {
	if op == nil {
		return absent(role, role+" operand not declared")
	}
	if op.Value != "" {
		return e.literal(op.Value)
	}

	side := e.side(op)
	e.sides[side] = true
	label := e.labels.For(side)

	entity := op.Entity
	if entity == "" {
		entity = e.binding.Entity
	}

	if op.Probe != "" {
		value := e.src.Probe(side, op.Probe)
		if reason := unusable(label, op.Probe, value); reason != "" {
			return term{obs: model.Observation{Label: label, Value: value}, source: label, reason: reason}
		}
		return e.observed(label, value, op)
	}

	if op.Table == "" || len(op.Fields) == 0 {
		return absent(role, role+" operand names no table fields")
	}

	if len(op.Fields) == 1 {
		value := e.src.Field(side, op.Table, entity, op.Fields[0])
		if reason := unusable(label, address(op.Table, op.Fields[0], entity), value); reason != "" {
			return term{obs: model.Observation{Label: label, Value: value}, source: label, reason: reason}
		}
		return e.observed(label, value, op)
	}

	total := new(big.Rat)
	integral := true
	for _, field := range op.Fields {
		what := address(op.Table, field, entity)
		value := e.src.Field(side, op.Table, entity, field)
		if reason := unusable(label, what, value); reason != "" {
			return absent("computed from "+label, reason)
		}
		x, ok := number(value)
		if !ok {
			return absent("computed from "+label, fmt.Sprintf("%s %s is not numeric", label, what))
		}
		total.Add(total, x)
		integral = integral && value.Kind == model.KindInteger
	}

	if op.Denominator > 0 {
		return e.computed(label, e.canon.Percentage(canon.Percent(total, big.NewRat(int64(op.Denominator), 1))))
	}
	if integral {
		return e.computed(label, e.canon.Integer(total.Num()))
	}
	return e.computed(label, e.canon.Percentage(total))
}

// observed wraps a single value read from a document, applying a denominator if any
func (e *evaluation) observed(label string, value model.Value, op *model.Operand) term {
	x, ok := number(value)
	if op.Denominator > 0 {
		if !ok {
			return absent("computed from "+label, fmt.Sprintf("%s value %q is not numeric", label, value.Display()))
		}
		return e.computed(label, e.canon.Percentage(canon.Percent(x, big.NewRat(int64(op.Denominator), 1))))
	}

	t := term{obs: model.Observation{Label: label, Value: value}, source: label}
	if ok {
		t.num = x
	}
	return t
}

// computed wraps a derived value; its number is the rounded canonical form
func (e *evaluation) computed(source string, value model.Value) term {
	label := "computed"
	if source != "" {
		label = "computed from " + source
	}
	t := term{obs: model.Observation{Label: label, Value: value}, source: source}
	t.num, _ = number(value)
	return t
}

// literal states a constant operand
func (e *evaluation) literal(raw string) term {
	kind := model.KindPercentage
	if _, err := canon.ParseInteger(raw); err == nil {
		kind = model.KindInteger
	}

	value := e.canon.Canonicalize(raw, kind)
	if value.Problem != "" {
		return term{obs: model.Observation{Label: "stated", Value: value}, reason: "literal operand unreadable: " + value.Problem}
	}

	t := term{obs: model.Observation{Label: "stated", Value: value}}
	t.num, _ = number(value)
	return t
}

// side picks the operand's document: its own, then the binding's, then the law's
func (e *evaluation) side(op *model.Operand) model.Side {
	for _, s := range []model.Side{op.Side, e.binding.Side, e.law.Side} {
		if s != "" {
			return s
		}
	}
	return model.SideReference
}

// scope is self-consistency iff every document operand came from one side
func (e *evaluation) scope() (model.Scope, string) {
	if len(e.sides) > 1 {
		return model.ScopeCrossDocument, ""
	}
	for side := range e.sides {
		return model.ScopeSelfConsistency, e.labels.For(side)
	}
	return model.ScopeSelfConsistency, ""
}

func unusable(label, what string, v model.Value) string {
	if !v.Found {
		return fmt.Sprintf("%s %s not found", label, what)
	}
	if v.Problem != "" {
		return fmt.Sprintf("%s %s unreadable: %s", label, what, v.Problem)
	}
	return ""
}

func address(table, field, entity string) string {
	if entity == "" {
		return table + "." + field
	}
	return fmt.Sprintf("%s.%s of %s", table, field, entity)
}

// number reads the canonical form of a numeric value
func number(v model.Value) (*big.Rat, bool) {
	if !v.Comparable() || v.Kind == model.KindText || v.Kind == "" {
		return nil, false
	}
	return new(big.Rat).SetString(v.Canonical)
}
