package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/docparity/internal/canon"
	"github.com/ppiankov/docparity/internal/model"
)

var labels = model.Labels{Reference: "Website", Candidate: "Paper"}

type cell struct {
	side                  model.Side
	table, entity, field string
}

// fakeSource canonicalizes raw tokens on lookup
type fakeSource struct {
	canon  *canon.Canonicalizer
	fields map[cell]string
	kinds  map[string]model.Kind // field name -> kind
	probes map[string]model.Value
}

func newSource(c *canon.Canonicalizer) *fakeSource {
	return &fakeSource{
		canon:  c,
		fields: make(map[cell]string),
		kinds: map[string]model.Kind{
			"Q1": model.KindInteger, "Q2": model.KindInteger,
			"Q3": model.KindInteger, "Q4": model.KindInteger,
		},
		probes: make(map[string]model.Value),
	}
}

func (s *fakeSource) set(side model.Side, table, entity string, values map[string]string) {
	for field, raw := range values {
		s.fields[cell{side, table, entity, field}] = raw
	}
}

func (s *fakeSource) Field(side model.Side, table, entity, field string) model.Value {
	raw, ok := s.fields[cell{side, table, entity, field}]
	if !ok {
		return model.NotFound
	}
	kind, ok := s.kinds[field]
	if !ok {
		kind = model.KindPercentage
	}
	return s.canon.Canonicalize(raw, kind)
}

func (s *fakeSource) Probe(side model.Side, name string) model.Value {
	v, ok := s.probes[string(side)+"/"+name]
	if !ok {
		return model.NotFound
	}
	return v
}

const trae = "TRAE (GPT-5)"

func traeQuadrants(c *canon.Canonicalizer) *fakeSource {
	src := newSource(c)
	src.set(model.SideCandidate, "quadrants_vllm", trae, map[string]string{"Q1": "7", "Q2": "27", "Q3": "3", "Q4": "2"})
	src.set(model.SideCandidate, "true_success", trae, map[string]string{"vllm": `17.9\%`})
	src.set(model.SideCandidate, "hard_vs_true_vllm", trae, map[string]string{"hard": "25.6", "true": "17.9", "gap": "7.7"})
	src.set(model.SideReference, "understanding", trae, map[string]string{"correct_target": "87.2%", "true_success": "17.9%", "gap": "<strong>69.3%</strong>"})
	return src
}

func newValidator(c *canon.Canonicalizer) *Validator {
	return NewValidator(c, labels, map[string][]string{"agents": {"Claude Code", trae}})
}

func TestValidator_RatioLaw(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	law := model.Law{
		Kind:        model.LawRatio,
		Description: "True% = Q1/39 for {entity}",
		Side:        model.SideCandidate,
		Entity:      trae,
		Counts:      &model.Operand{Table: "quadrants_vllm", Fields: []string{"Q1"}},
		Denominator: 39,
		Reported:    &model.Operand{Table: "true_success", Fields: []string{"vllm"}},
	}

	verdicts := v.Validate("QUADRANT CONSISTENCY", law, traeQuadrants(c))
	require.Len(t, verdicts, 1)

	got := verdicts[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome)
	assert.Equal(t, "True% = Q1/39 for TRAE (GPT-5)", got.Description)
	assert.Equal(t, "17.9", got.Right.Value.Canonical)
	assert.Equal(t, "computed from Paper", got.Right.Label)
	assert.Equal(t, model.ScopeSelfConsistency, got.Scope)
	assert.Equal(t, "Paper", got.Subject)
}

func TestValidator_RatioOverSeveralCounts(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	law := model.Law{
		Kind:        model.LawRatio,
		Side:        model.SideCandidate,
		Entity:      trae,
		Counts:      &model.Operand{Table: "quadrants_vllm", Fields: []string{"Q1", "Q3"}},
		Denominator: 39,
		Reported:    &model.Operand{Table: "hard_vs_true_vllm", Fields: []string{"hard"}},
	}

	got := v.Validate("HARD", law, traeQuadrants(c))[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome, "10/39 = 25.64 rounds to 25.6")
}

func TestValidator_SumLaw(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	total := 39
	law := model.Law{
		Kind:   model.LawSum,
		Side:   model.SideCandidate,
		Entity: trae,
		Parts:  &model.Operand{Table: "quadrants_vllm", Fields: []string{"Q1", "Q2", "Q3", "Q4"}},
		Total:  &total,
	}

	got := v.Validate("SUMS", law, traeQuadrants(c))[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome)
	assert.Equal(t, "39", got.Right.Value.Canonical)
	assert.Equal(t, "stated", got.Left.Label)

	total = 40
	got = v.Validate("SUMS", law, traeQuadrants(c))[0]
	assert.Equal(t, model.OutcomeMismatch, got.Outcome)
	assert.Equal(t, "40", got.Left.Value.Display())
	assert.Equal(t, "39", got.Right.Value.Display())
}

func TestValidator_SubtractionLaw(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	law := model.Law{
		Kind:        model.LawSubtraction,
		Description: "Bottleneck gap for {entity}",
		Side:        model.SideReference,
		Entity:      trae,
		Minuend:     &model.Operand{Table: "understanding", Fields: []string{"correct_target"}},
		Subtrahend:  &model.Operand{Table: "understanding", Fields: []string{"true_success"}},
		Reported:    &model.Operand{Table: "understanding", Fields: []string{"gap"}},
	}

	src := traeQuadrants(c)
	got := v.Validate("KEY CLAIMS", law, src)[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome)
	assert.Equal(t, "69.3", got.Right.Value.Canonical)
	assert.Equal(t, "Website", got.Subject)

	// A stated 69.2 is off by one tenth
	src.set(model.SideReference, "understanding", trae, map[string]string{"gap": "69.2%"})
	got = v.Validate("KEY CLAIMS", law, src)[0]
	assert.Equal(t, model.OutcomeMismatch, got.Outcome)
	assert.Equal(t, "69.2%", got.Left.Value.Display())
	assert.Equal(t, "69.3%", got.Right.Value.Display())
	assert.Equal(t, "Website disagrees with itself", got.ScopeText())
}

func TestValidator_EqualityAcrossDocuments(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	// Website correct-target rate against (Q1+Q2)/39 from the paper
	law := model.Law{
		Kind:     model.LawEquality,
		Entity:   trae,
		Expected: &model.Operand{Side: model.SideCandidate, Table: "quadrants_vllm", Fields: []string{"Q1", "Q2"}, Denominator: 39},
		Reported: &model.Operand{Side: model.SideReference, Table: "understanding", Fields: []string{"correct_target"}},
	}

	got := v.Validate("UNDERSTANDING", law, traeQuadrants(c))[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome)
	assert.Equal(t, model.ScopeCrossDocument, got.Scope)
	assert.Equal(t, "Website", got.Left.Label)
	assert.Equal(t, "computed from Paper", got.Right.Label)
	assert.Equal(t, "87.2%", got.Right.Value.Display())
}

func TestValidator_SubtractionOfDerivedOperand(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	// 87.2 (derived, rounded) - 17.9 = 69.3
	law := model.Law{
		Kind:       model.LawSubtraction,
		Entity:     trae,
		Minuend:    &model.Operand{Side: model.SideCandidate, Table: "quadrants_vllm", Fields: []string{"Q1", "Q2"}, Denominator: 39},
		Subtrahend: &model.Operand{Side: model.SideCandidate, Table: "true_success", Fields: []string{"vllm"}},
		Reported:   &model.Operand{Side: model.SideReference, Table: "understanding", Fields: []string{"gap"}},
	}

	got := v.Validate("UNDERSTANDING", law, traeQuadrants(c))[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome)
	assert.Equal(t, model.ScopeCrossDocument, got.Scope)
}

func TestValidator_RoundingBoundary(t *testing.T) {
	law := model.Law{
		Kind:        model.LawRatio,
		Side:        model.SideCandidate,
		Entity:      "x",
		Counts:      &model.Operand{Table: "t", Fields: []string{"Q1"}},
		Denominator: 16,
		Reported:    &model.Operand{Table: "t", Fields: []string{"rate"}},
	}

	tests := []struct {
		mode     canon.Rounding
		reported string
		want     model.Outcome
	}{
		{canon.HalfUp, "6.3%", model.OutcomeMatch},
		{canon.HalfUp, "6.2%", model.OutcomeMismatch},
		{canon.HalfEven, "6.2%", model.OutcomeMatch},
		{canon.HalfEven, "6.3%", model.OutcomeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String()+"/"+tt.reported, func(t *testing.T) {
			c := canon.New(tt.mode)
			src := newSource(c)
			src.set(model.SideCandidate, "t", "x", map[string]string{"Q1": "1", "rate": tt.reported})

			got := newValidator(c).Validate("ROUNDING", law, src)[0]
			assert.Equal(t, tt.want, got.Outcome)
		})
	}
}

func TestValidator_MissingOperandIsIndeterminate(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	law := model.Law{
		Kind:        model.LawRatio,
		Side:        model.SideCandidate,
		Entity:      "Claude Code",
		Counts:      &model.Operand{Table: "quadrants_vllm", Fields: []string{"Q1"}},
		Denominator: 39,
		Reported:    &model.Operand{Table: "true_success", Fields: []string{"vllm"}},
	}

	got := v.Validate("QUADRANT CONSISTENCY", law, traeQuadrants(c))[0]
	assert.Equal(t, model.OutcomeIndeterminate, got.Outcome)
	assert.Equal(t, "Paper true_success.vllm of Claude Code not found", got.Reason)
	assert.Equal(t, model.NotFoundText, got.Left.Value.Display())
}

func TestValidator_MissingDeclarations(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)
	src := traeQuadrants(c)

	tests := []struct {
		name string
		law  model.Law
	}{
		{"no denominator", model.Law{Kind: model.LawRatio, Counts: &model.Operand{Table: "t", Fields: []string{"Q1"}}, Reported: &model.Operand{Value: "1"}}},
		{"no counts", model.Law{Kind: model.LawRatio, Denominator: 2, Reported: &model.Operand{Value: "1"}}},
		{"no parts", model.Law{Kind: model.LawSum, Reported: &model.Operand{Value: "1"}}},
		{"no minuend", model.Law{Kind: model.LawSubtraction, Subtrahend: &model.Operand{Value: "1"}, Reported: &model.Operand{Value: "1"}}},
		{"unknown kind", model.Law{Kind: "product"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdicts := v.Validate("S", tt.law, src)
			require.Len(t, verdicts, 1, "every law yields exactly one verdict")
			assert.Equal(t, model.OutcomeIndeterminate, verdicts[0].Outcome)
			assert.NotEmpty(t, verdicts[0].Reason)
		})
	}
}

func TestValidator_ProbeOperands(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	src := newSource(c)
	src.probes["reference/vllm_tasks"] = c.Canonicalize("39", model.KindInteger)
	src.probes["reference/sglang_tasks"] = c.Canonicalize("15", model.KindInteger)
	src.probes["reference/total_tasks"] = c.Canonicalize("54", model.KindInteger)

	law := model.Law{
		Kind:     model.LawEquality,
		Side:     model.SideReference,
		Expected: &model.Operand{Probe: "total_tasks"},
		Reported: &model.Operand{Value: "54"},
	}

	got := v.Validate("TASK COUNTS", law, src)[0]
	assert.Equal(t, model.OutcomeMatch, got.Outcome)

	law.Expected = &model.Operand{Probe: "missing"}
	got = v.Validate("TASK COUNTS", law, src)[0]
	assert.Equal(t, model.OutcomeIndeterminate, got.Outcome)
	assert.Equal(t, "Website missing not found", got.Reason)
}

func TestValidator_Bindings(t *testing.T) {
	v := newValidator(canon.New(canon.DefaultRounding))

	bindings := v.Bindings(model.Law{
		Entities: "agents",
		Sides:    []model.Side{model.SideReference, model.SideCandidate},
	})

	want := []Binding{
		{Side: model.SideReference, Entity: "Claude Code"},
		{Side: model.SideCandidate, Entity: "Claude Code"},
		{Side: model.SideReference, Entity: trae},
		{Side: model.SideCandidate, Entity: trae},
	}
	assert.Equal(t, want, bindings)

	assert.Len(t, v.Bindings(model.Law{}), 1)
	assert.Empty(t, v.Bindings(model.Law{Entities: "unknown"}))
}

func TestValidator_SideInDescription(t *testing.T) {
	c := canon.New(canon.DefaultRounding)
	v := newValidator(c)

	law := model.Law{
		Kind:        model.LawEquality,
		Description: "{side}: {entity} gap",
		Sides:       []model.Side{model.SideReference},
		Entity:      trae,
		Expected:    &model.Operand{Value: "1"},
		Reported:    &model.Operand{Value: "1"},
	}

	got := v.Validate("S", law, newSource(c))[0]
	assert.Equal(t, "Website: TRAE (GPT-5) gap", got.Description)
	assert.Equal(t, model.OutcomeMatch, got.Outcome)
}
