package extract

import (
	"testing"

	"github.com/ppiankov/docparity/internal/model"
)

var agents = []string{"Claude Code", "Codex CLI", "TRAE (Sonnet)", "TRAE (GPT-5)"}

func trueSuccessSchema() Schema {
	return Schema{
		Columns: []Column{
			{Name: "model", Kind: model.KindText},
			{Name: "vllm", Kind: model.KindPercentage},
			{Name: "sglang", Kind: model.KindPercentage},
		},
		Entities: agents,
	}
}

func TestMarkupDialect_BasicTable(t *testing.T) {
	html := `
	<h2>Can Agents Optimize GPU Inference Code?</h2>
	<table>
	<thead><tr><th>Agent</th><th>Model</th><th>vLLM</th><th>SGLang</th></tr></thead>
	<tbody>
	<tr><td>Claude Code</td><td>Claude Sonnet 4.5</td><td><strong>23.1%</strong></td><td>26.7%</td></tr>
	<tr>
		<td><strong>TRAE (GPT-5)</strong></td>
		<td>GPT-5</td>
		<td>17.9%</td>
		<td><strong>13.3%</strong></td>
	</tr>
	</tbody>
	</table>`

	out := NewMarkupDialect().Extract(Whole(html), trueSuccessSchema())

	if len(out.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d: %v", len(out.Records), out.Records)
	}

	if got, _ := out.Lookup("Claude Code", "vllm"); got != "23.1%" {
		t.Errorf("Expected emphasis stripped from '23.1%%', got %q", got)
	}
	if got, _ := out.Lookup("TRAE (GPT-5)", "sglang"); got != "13.3%" {
		t.Errorf("Expected 13.3%%, got %q", got)
	}
	if got, _ := out.Lookup("TRAE (GPT-5)", "model"); got != "GPT-5" {
		t.Errorf("Expected model GPT-5, got %q", got)
	}

	if len(out.Order) != 2 || out.Order[0] != "Claude Code" || out.Order[1] != "TRAE (GPT-5)" {
		t.Errorf("Expected document order, got %v", out.Order)
	}
}

func TestMarkupDialect_SkipsWrongArity(t *testing.T) {
	html := `<table>
	<tr><td>Claude Code</td><td>23.1%</td></tr>
	<tr><td>Codex CLI</td><td>GPT-5</td><td>15.4%</td><td>20.0%</td></tr>
	</table>`

	out := NewMarkupDialect().Extract(Whole(html), trueSuccessSchema())

	if _, ok := out.Records["Claude Code"]; ok {
		t.Error("Expected short row to be skipped")
	}
	if _, ok := out.Records["Codex CLI"]; !ok {
		t.Error("Expected well-formed row to be extracted")
	}
	if out.Skipped != 1 {
		t.Errorf("Expected 1 skipped row, got %d", out.Skipped)
	}
}

func TestMarkupDialect_SkipsNonNumericCells(t *testing.T) {
	html := `<table>
	<tr><td>Claude Code</td><td>Claude Sonnet 4.5</td><td>n/a</td><td>26.7%</td></tr>
	</table>`

	out := NewMarkupDialect().Extract(Whole(html), trueSuccessSchema())

	if len(out.Records) != 0 {
		t.Errorf("Expected row with non-numeric percentage to be skipped, got %v", out.Records)
	}
}

func TestMarkupDialect_WhitelistFiltersHeader(t *testing.T) {
	html := `<table><tr><th>Agent</th><th>Model</th><th>1%</th><th>2%</th></tr></table>`

	out := NewMarkupDialect().Extract(Whole(html), trueSuccessSchema())
	if len(out.Records) != 0 {
		t.Errorf("Expected header to be filtered by whitelist, got %v", out.Records)
	}
}

func TestMarkupDialect_UnlistedRowsNotCounted(t *testing.T) {
	html := `<table>
	<tr><th>Agent</th><th>vLLM</th></tr>
	<tr><td>Average</td><td>19.2%</td><td>23.3%</td><td>extra</td><td>cell</td></tr>
	<tr><td>Claude Code</td><td>Claude Sonnet 4.5</td><td>23.1%</td><td>26.7%</td></tr>
	<tr><td>Codex CLI</td><td>15.4%</td></tr>
	</table>`

	out := NewMarkupDialect().Extract(Whole(html), trueSuccessSchema())

	if out.Rows != 2 {
		t.Errorf("Expected 2 whitelisted rows, got %d", out.Rows)
	}
	if out.Skipped != 1 {
		t.Errorf("Expected only the short Codex CLI row skipped, got %d", out.Skipped)
	}
	if _, ok := out.Records["Claude Code"]; !ok {
		t.Error("Expected Claude Code to be extracted")
	}
}

func TestMarkupDialect_NoWhitelistKeepsAllKeys(t *testing.T) {
	html := `<table>
	<tr><td>MiniMax-M2.1</td><td>75</td></tr>
	<tr><td>GLM-4.7</td><td>400</td></tr>
	</table>`

	schema := Schema{Columns: []Column{{Name: "steps", Kind: model.KindInteger}}}
	out := NewMarkupDialect().Extract(Whole(html), schema)

	if len(out.Records) != 2 {
		t.Errorf("Expected 2 records without whitelist, got %d", len(out.Records))
	}
}

func TestMarkupDialect_FirstDuplicateWins(t *testing.T) {
	html := `<table>
	<tr><td>GLM-4.7</td><td>400</td></tr>
	<tr><td>GLM-4.7</td><td>401</td></tr>
	</table>`

	schema := Schema{Columns: []Column{{Name: "steps", Kind: model.KindInteger}}}
	out := NewMarkupDialect().Extract(Whole(html), schema)

	if got, _ := out.Lookup("GLM-4.7", "steps"); got != "400" {
		t.Errorf("Expected first row to win, got %q", got)
	}
	if out.Skipped != 1 {
		t.Errorf("Expected duplicate to be counted as skipped, got %d", out.Skipped)
	}
}

func TestMarkupDialect_FragmentCutMidTable(t *testing.T) {
	// Regions cut by anchors rarely end on a closing tag
	html := `<h4>vLLM</h4><table><tr><td>Claude Code</td><td>GPT</td><td>1.0%</td><td>2.0%</td></tr><tr><td>Codex CLI</td><td>GPT-5</td><td>3.0%</td><td>4.0%`

	out := NewMarkupDialect().Extract(Whole(html), trueSuccessSchema())
	if len(out.Records) != 2 {
		t.Errorf("Expected unclosed trailing row to be flushed, got %v", out.Records)
	}
}

func TestMarkupDialect_RegionNotFound(t *testing.T) {
	out := NewMarkupDialect().Extract(Region{}, trueSuccessSchema())
	if len(out.Records) != 0 || out.Rows != 0 {
		t.Errorf("Expected nothing from a missing region, got %+v", out)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	registry := NewRegistry()

	if d := registry.Find("paper/example_paper.tex"); d.Name() != "macro" {
		t.Errorf("Expected macro dialect for .tex, got %s", d.Name())
	}
	if d := registry.Find("site/index.html"); d.Name() != "markup" {
		t.Errorf("Expected markup dialect for .html, got %s", d.Name())
	}
	if d := registry.Find("notes.txt"); d.Name() != "markup" {
		t.Errorf("Expected markup fallback, got %s", d.Name())
	}
	if d := registry.Find("https://example.org/index.HTML?v=2"); d.Name() != "markup" {
		t.Errorf("Expected query string to be ignored, got %s", d.Name())
	}

	d, err := registry.Resolve("macro", "index.html")
	if err != nil || d.Name() != "macro" {
		t.Errorf("Expected explicit name to win, got %v, %v", d, err)
	}

	if _, err := registry.Resolve("markdown", ""); err == nil {
		t.Error("Expected unknown dialect error")
	}
}
