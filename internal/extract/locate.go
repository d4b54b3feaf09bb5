package extract

import (
	"strings"

	"github.com/ppiankov/docparity/internal/model"
)

// Region is the part of a document scoped to one claim group.
// A region that was not found resolves every claim inside it as indeterminate.
type Region struct {
	Text  string
	Found bool
}

// Whole returns a region spanning the entire text
func Whole(text string) Region {
	return Region{Text: text, Found: true}
}

// Locate bounds text from the first occurrence of start up to the first
// occurrence of end after it. A missing end runs to the end of text; a
// missing start yields a region that is not found. An empty start keeps
// the beginning of text.
func Locate(text, start, end string) Region {
	from := 0
	if start != "" {
		from = strings.Index(text, start)
		if from < 0 {
			return Region{}
		}
	}

	rest := text[from:]
	if end != "" {
		if to := strings.Index(rest[len(start):], end); to >= 0 {
			rest = rest[:len(start)+to]
		}
	}

	return Region{Text: rest, Found: true}
}

// Narrow applies a chain of bounds, each inside the previous region
func Narrow(region Region, bounds ...model.Bound) Region {
	for _, b := range bounds {
		if !region.Found {
			return region
		}
		region = Locate(region.Text, b.Start, b.End)
	}
	return region
}
