package canon

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	markupTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	// \textbf{x}, \emph{x} and friends; applied until nothing changes for nesting
	styleMacro = regexp.MustCompile(`\\(?:textbf|textit|textsl|texttt|textrm|textsc|emph|underline|mathbf|mathrm|text)\{([^{}]*)\}`)
	braces     = regexp.MustCompile(`^\{([^{}]*)\}$`)
)

// Undecorate strips emphasis markup, macro decoration and stray whitespace
func Undecorate(s string) string {
	s = markupTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)

	for {
		next := styleMacro.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}

	s = strings.TrimSpace(s)
	if m := braces.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	s = strings.NewReplacer(`\%`, "%", `\&`, "&", `\_`, "_", `\#`, "#", "\u00a0", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
