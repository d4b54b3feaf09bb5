package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/docparity/internal/model"
)

// FindProbe looks for a single stated value in a region.
// A pattern wins over phrases and yields its first capture group; a phrase
// match yields the side's value (or stated). A rule with neither states its
// value unconditionally.
func FindProbe(region Region, rule model.ProbeSide, stated string) (string, bool, error) {
	if !region.Found {
		return "", false, nil
	}

	value := stated
	if rule.Value != "" {
		value = rule.Value
	}

	if rule.Pattern != "" {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return "", false, fmt.Errorf("compile pattern %q: %w", rule.Pattern, err)
		}
		m := re.FindStringSubmatch(region.Text)
		if m == nil {
			return "", false, nil
		}
		if len(m) > 1 {
			return m[1], true, nil
		}
		return m[0], true, nil
	}

	if len(rule.Phrases) == 0 {
		return value, value != "", nil
	}

	for _, phrase := range rule.Phrases {
		if strings.Contains(region.Text, phrase) {
			return value, true, nil
		}
	}
	return "", false, nil
}
