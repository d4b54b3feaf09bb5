package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/docparity/internal/model"
)

func sampleReport() *model.Report {
	agg := NewAggregator(labels, false)
	match := verdict(model.OutcomeMatch, "Total tasks")
	match.Right.Value = match.Left.Value
	agg.Accumulate(match)
	agg.Accumulate(verdict(model.OutcomeMismatch, "vLLM tasks"))

	missing := verdict(model.OutcomeIndeterminate, "Codex CLI | SGLang")
	missing.Right.Value = model.NotFound
	missing.Reason = "Paper value not found"
	agg.Accumulate(missing)

	self := verdict(model.OutcomeMismatch, "Gap for TRAE (GPT-5)")
	self.Scope = model.ScopeSelfConsistency
	self.Subject = "Website"
	self.Right.Label = "computed from Website"
	agg.Accumulate(self)

	agg.AddNote("Commit hashes are listed in the appendix")
	return agg.Finalize()
}

func TestRenderText_SectionOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).RenderText(&buf, sampleReport()))
	out := buf.String()

	order := []string{"MATCHES (1)", "MISMATCHES (2)", "INDETERMINATE (1)", "NOTES (1)", "SUMMARY", "RESULT: FAILED"}
	last := -1
	for _, heading := range order {
		idx := strings.Index(out, heading)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", heading, out)
		assert.Greater(t, idx, last, "%q out of order", heading)
		last = idx
	}
}

func TestRenderText_MismatchShowsBothValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).RenderText(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "[MISMATCH] TASK COUNTS: vLLM tasks")
	assert.Contains(t, out, "Website: 54")
	assert.Contains(t, out, "Paper:   45")
	assert.Contains(t, out, "(documents disagree with each other)")
	assert.Contains(t, out, "(Website disagrees with itself)")
	assert.Contains(t, out, "NOT FOUND")
	assert.Contains(t, out, "(Paper value not found)")
	assert.Contains(t, out, "[OK] TASK COUNTS: Total tasks = 54")
}

func TestRenderText_HideMatches(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).RenderText(&buf, sampleReport()))

	assert.Contains(t, buf.String(), "MATCHES (1)")
	assert.NotContains(t, buf.String(), "[OK]")
}

func TestRenderText_Passed(t *testing.T) {
	agg := NewAggregator(labels, false)
	agg.Accumulate(verdict(model.OutcomeIndeterminate, "x"))

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).RenderText(&buf, agg.Finalize()))
	assert.Contains(t, buf.String(), "RESULT: PASSED")
}

func TestRender_Idempotent(t *testing.T) {
	for _, format := range []string{"text", "json", "markdown"} {
		t.Run(format, func(t *testing.T) {
			var first, second bytes.Buffer
			r := NewRenderer(true)
			require.NoError(t, r.Render(&first, sampleReport(), format))
			require.NoError(t, r.Render(&second, sampleReport(), format))
			assert.Equal(t, first.Bytes(), second.Bytes())
		})
	}
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).RenderJSON(&buf, sampleReport()))

	var decoded model.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.MismatchCount)
	assert.True(t, decoded.Failed)
	assert.Equal(t, "Paper value not found", decoded.Indeterminates[0].Reason)
}

func TestRenderMarkdown_EscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).RenderMarkdown(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "# Website vs Paper reconciliation")
	assert.Contains(t, out, "**Result:** FAILED")
	assert.Contains(t, out, `Codex CLI \| SGLang`)
	assert.Contains(t, out, "## Notes")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := NewRenderer(true).Render(&bytes.Buffer{}, sampleReport(), "xml")
	assert.Error(t, err)
}
