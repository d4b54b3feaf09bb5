// Package canon normalizes raw document tokens into values that compare equal
// across documents regardless of incidental formatting.
package canon

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/docparity/internal/model"
)

// ErrUnparseable is returned when a token does not have the shape its kind requires
var ErrUnparseable = errors.New("unparseable value")

var (
	decimalShape = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	integerShape = regexp.MustCompile(`^[+-]?\d+$`)
)

// Canonicalizer turns raw tokens into canonical values
type Canonicalizer struct {
	rounding Rounding
}

// New creates a canonicalizer using the given rounding mode
func New(rounding Rounding) *Canonicalizer {
	return &Canonicalizer{rounding: rounding}
}

// Rounding returns the mode used for percentages
func (c *Canonicalizer) Rounding() Rounding {
	return c.rounding
}

// Canonicalize normalizes a raw token found in a document.
// Tokens that cannot be parsed keep their raw text and carry a Problem.
func (c *Canonicalizer) Canonicalize(raw string, kind model.Kind) model.Value {
	value := model.Value{
		Kind:  kind,
		Raw:   strings.TrimSpace(raw),
		Found: true,
	}

	switch kind {
	case model.KindPercentage:
		x, err := ParseDecimal(raw)
		if err != nil {
			value.Problem = err.Error()
			return value
		}
		value.Canonical = FormatFixed(x, 1, c.rounding)
	case model.KindInteger:
		n, err := ParseInteger(raw)
		if err != nil {
			value.Problem = err.Error()
			return value
		}
		value.Canonical = n.String()
	default:
		value.Kind = model.KindText
		value.Canonical = norm.NFC.String(Undecorate(raw))
	}

	return value
}

// Percentage wraps a computed percentage as a canonical value
func (c *Canonicalizer) Percentage(x *big.Rat) model.Value {
	return model.Value{
		Kind:      model.KindPercentage,
		Canonical: FormatFixed(x, 1, c.rounding),
		Found:     true,
	}
}

// Integer wraps a computed count as a canonical value
func (c *Canonicalizer) Integer(n *big.Int) model.Value {
	return model.Value{
		Kind:      model.KindInteger,
		Canonical: n.String(),
		Found:     true,
	}
}

// ParseDecimal parses a percentage or plain decimal token exactly.
// A trailing percent marker (escaped or not) and thousands separators are ignored.
func ParseDecimal(raw string) (*big.Rat, error) {
	s := Undecorate(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", "")

	if !decimalShape.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a decimal", ErrUnparseable, raw)
	}

	x, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal", ErrUnparseable, raw)
	}
	return x, nil
}

// ParseInteger parses a count, discarding thousands separators
func ParseInteger(raw string) (*big.Int, error) {
	s := strings.ReplaceAll(Undecorate(raw), ",", "")
	s = strings.ReplaceAll(s, " ", "")

	if !integerShape.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrUnparseable, raw)
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrUnparseable, raw)
	}
	return n, nil
}
