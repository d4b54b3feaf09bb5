package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ppiankov/docparity/internal/model"
)

const rule = "----------------------------------------------------------------------"

// Renderer writes a finalized report in one of the supported formats.
// Output depends only on the report, so unchanged inputs render byte-identically.
type Renderer struct {
	showMatches bool
}

// NewRenderer creates a renderer. With showMatches false, the text and markdown
// formats list only the count of matching claims.
func NewRenderer(showMatches bool) *Renderer {
	return &Renderer{showMatches: showMatches}
}

// Render writes the report in the named format: text, json or markdown
func (r *Renderer) Render(w io.Writer, report *model.Report, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		return r.RenderText(w, report)
	case "json":
		return r.RenderJSON(w, report)
	case "markdown", "md":
		return r.RenderMarkdown(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// RenderText writes matches, mismatches, indeterminate claims, notes and the summary, in that order
func (r *Renderer) RenderText(w io.Writer, report *model.Report) error {
	var b strings.Builder

	title := fmt.Sprintf("%s vs %s reconciliation", report.ReferenceLabel, report.CandidateLabel)
	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", strings.Repeat("=", len(rule)), title, strings.Repeat("=", len(rule)))

	fmt.Fprintf(&b, "MATCHES (%d)\n%s\n", report.MatchCount, rule)
	if r.showMatches {
		for _, v := range report.Matches {
			fmt.Fprintf(&b, "  [OK] %s: %s = %s\n", v.Section, v.Description, v.Left.Value.Display())
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "MISMATCHES (%d)\n%s\n", report.MismatchCount, rule)
	for _, v := range report.Mismatches {
		fmt.Fprintf(&b, "  [MISMATCH] %s: %s\n", v.Section, v.Description)
		writeObservations(&b, v)
		fmt.Fprintf(&b, "      (%s)\n", v.ScopeText())
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "INDETERMINATE (%d)\n%s\n", report.IndeterminateCount, rule)
	for _, v := range report.Indeterminates {
		fmt.Fprintf(&b, "  [?] %s: %s\n", v.Section, v.Description)
		writeObservations(&b, v)
		if v.Reason != "" {
			fmt.Fprintf(&b, "      (%s)\n", v.Reason)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "NOTES (%d)\n%s\n", len(report.Notes), rule)
	for _, note := range report.Notes {
		fmt.Fprintf(&b, "  - %s\n", note)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "SUMMARY\n%s\n", rule)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if err := r.renderSummary(w, report); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	_, err := fmt.Fprintf(w, "\nRESULT: %s\n", verdictWord(report))
	return err
}

func writeObservations(b *strings.Builder, v model.Verdict) {
	width := len(v.Left.Label)
	if len(v.Right.Label) > width {
		width = len(v.Right.Label)
	}
	fmt.Fprintf(b, "      %-*s %s\n", width+1, v.Left.Label+":", v.Left.Value.Display())
	fmt.Fprintf(b, "      %-*s %s\n", width+1, v.Right.Label+":", v.Right.Value.Display())
}

// renderSummary draws the count table
func (r *Renderer) renderSummary(w io.Writer, report *model.Report) error {
	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{PerColumn: []tw.Align{tw.AlignLeft, tw.AlignRight}}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	table.Header("Outcome", "Count")

	rows := [][]any{
		{"Matches", strconv.Itoa(report.MatchCount)},
		{"Mismatches", strconv.Itoa(report.MismatchCount)},
		{"Indeterminate", strconv.Itoa(report.IndeterminateCount)},
		{"Notes", strconv.Itoa(len(report.Notes))},
		{"Total", strconv.Itoa(report.Total())},
	}
	for _, row := range rows {
		if err := table.Append(row...); err != nil {
			return err
		}
	}

	return table.Render()
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s vs %s reconciliation\n\n", report.ReferenceLabel, report.CandidateLabel)
	fmt.Fprintf(&b, "**Result:** %s\n\n", verdictWord(report))

	b.WriteString("| Outcome | Count |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Matches | %d |\n", report.MatchCount)
	fmt.Fprintf(&b, "| Mismatches | %d |\n", report.MismatchCount)
	fmt.Fprintf(&b, "| Indeterminate | %d |\n", report.IndeterminateCount)
	fmt.Fprintf(&b, "| Total | %d |\n\n", report.Total())

	if report.MismatchCount > 0 {
		b.WriteString("## Mismatches\n\n")
		writeVerdictTable(&b, report.Mismatches, false)
	}

	if report.IndeterminateCount > 0 {
		b.WriteString("## Indeterminate\n\n")
		writeVerdictTable(&b, report.Indeterminates, true)
	}

	if r.showMatches && report.MatchCount > 0 {
		b.WriteString("## Matches\n\n")
		b.WriteString("| Section | Claim | Value |\n|---|---|---|\n")
		for _, v := range report.Matches {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(v.Section), cell(v.Description), cell(v.Left.Value.Display()))
		}
		b.WriteString("\n")
	}

	if len(report.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, note := range report.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeVerdictTable(b *strings.Builder, verdicts []model.Verdict, withReason bool) {
	if withReason {
		b.WriteString("| Section | Claim | Left | Right | Reason |\n|---|---|---|---|---|\n")
	} else {
		b.WriteString("| Section | Claim | Left | Right | Scope |\n|---|---|---|---|---|\n")
	}

	for _, v := range verdicts {
		last := v.ScopeText()
		if withReason {
			last = v.Reason
		}
		fmt.Fprintf(b, "| %s | %s | %s: %s | %s: %s | %s |\n",
			cell(v.Section), cell(v.Description),
			cell(v.Left.Label), cell(v.Left.Value.Display()),
			cell(v.Right.Label), cell(v.Right.Value.Display()),
			cell(last))
	}
	b.WriteString("\n")
}

// cell escapes pipes so values never break a Markdown table
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func verdictWord(report *model.Report) string {
	if report.Failed {
		return "FAILED"
	}
	return "PASSED"
}
