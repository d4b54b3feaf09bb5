package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/docparity/internal/canon"
)

var (
	// Table furniture that can share a line with cells
	ruleCommand = regexp.MustCompile(`\\(?:begin\{[^}]*\}(?:\{[^}]*\})?|end\{[^}]*\}|hline|toprule|midrule|bottomrule|addlinespace|cline\{[^}]*\}|cmidrule(?:\([^)]*\))?\{[^}]*\}|rowcolor(?:\[[^\]]*\])?\{[^}]*\}|cellcolor(?:\[[^\]]*\])?\{[^}]*\})`)
)

// MacroDialect reads LaTeX tabular rows. Rows end at \\, cells are split on
// unescaped &, and a row belongs to the table only when one of its cells is a
// whitelisted entity name followed by at least as many cells as the schema.
type MacroDialect struct{}

// NewMacroDialect creates the LaTeX tabular dialect
func NewMacroDialect() *MacroDialect {
	return &MacroDialect{}
}

// Name returns the dialect name
func (d *MacroDialect) Name() string {
	return "macro"
}

// CanHandle checks for TeX sources
func (d *MacroDialect) CanHandle(path string) bool {
	return hasExtension(path, ".tex", ".ltx", ".latex")
}

// Extract finds whitelisted entity keys and reads the cells that follow them
func (d *MacroDialect) Extract(region Region, schema Schema) Extraction {
	out := newExtraction()
	allowed := schema.whitelist()
	if !region.Found || allowed == nil {
		return out
	}

	for _, line := range strings.Split(stripComments(region.Text), `\\`) {
		cells := splitCells(line)
		if len(cells) < 2 {
			continue
		}

		keyAt := -1
		for i, c := range cells {
			if allowed[c] {
				keyAt = i
				break
			}
		}
		if keyAt < 0 {
			continue
		}

		out.Rows++
		values := cells[keyAt+1:]
		if len(values) < schema.Arity() {
			out.Skipped++
			continue
		}

		out.add(cells[keyAt], values[:schema.Arity()], schema)
	}

	return out
}

// stripComments removes % comments, keeping escaped \%
func stripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for j := 0; j < len(line); j++ {
			if line[j] == '%' && (j == 0 || line[j-1] != '\\') {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// splitCells splits a tabular row on unescaped & and cleans each cell
func splitCells(line string) []string {
	var cells []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] == '&' && (i == 0 || line[i-1] != '\\') {
			cells = append(cells, cleanCell(line[start:i]))
			start = i + 1
		}
	}
	return append(cells, cleanCell(line[start:]))
}

func cleanCell(cell string) string {
	return canon.Undecorate(ruleCommand.ReplaceAllString(cell, " "))
}
