package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkupDialect reads HTML tables: one record per <tr>, one cell per <td>/<th>.
// Cell text drops all inline markup, so emphasis never reaches the entity key.
type MarkupDialect struct{}

// NewMarkupDialect creates the HTML table dialect
func NewMarkupDialect() *MarkupDialect {
	return &MarkupDialect{}
}

// Name returns the dialect name
func (d *MarkupDialect) Name() string {
	return "markup"
}

// CanHandle checks for HTML documents
func (d *MarkupDialect) CanHandle(path string) bool {
	return hasExtension(path, ".html", ".htm", ".xhtml")
}

// Extract maps the first cell of every row to the remaining cells
func (d *MarkupDialect) Extract(region Region, schema Schema) Extraction {
	out := newExtraction()
	if !region.Found {
		return out
	}

	allowed := schema.whitelist()
	for _, row := range tableRows(region.Text) {
		// Rows outside the whitelist, headers included, are not candidates
		if allowed != nil && !allowed[row[0]] {
			continue
		}

		out.Rows++
		if len(row)-1 != schema.Arity() || row[0] == "" {
			out.Skipped++
			continue
		}

		out.add(row[0], row[1:], schema)
	}

	return out
}

// tableRows tokenizes an HTML fragment into rows of cell text.
// Fragments may start or end mid-table; unclosed rows are flushed at EOF.
func tableRows(fragment string) [][]string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var (
		rows  [][]string
		row   []string
		cell  *strings.Builder
		inRow bool
	)

	flushCell := func() {
		if cell != nil {
			row = append(row, strings.Join(strings.Fields(cell.String()), " "))
			cell = nil
		}
	}
	flushRow := func() {
		flushCell()
		if inRow && len(row) > 0 {
			rows = append(rows, row)
		}
		row = nil
		inRow = false
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			flushRow()
			return rows

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Tr:
				flushRow()
				inRow = true
			case atom.Td, atom.Th:
				flushCell()
				inRow = true
				cell = &strings.Builder{}
			case atom.Br:
				if cell != nil {
					cell.WriteByte(' ')
				}
			case atom.Table:
				flushRow()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Td, atom.Th:
				flushCell()
			case atom.Tr, atom.Table, atom.Thead, atom.Tbody, atom.Tfoot:
				flushRow()
			}

		case html.TextToken:
			if cell != nil {
				cell.Write(z.Text())
			}
		}
	}
}
