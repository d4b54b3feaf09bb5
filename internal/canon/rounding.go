package canon

import (
	"fmt"
	"math/big"
	"strings"
)

// Rounding selects how a value exactly halfway between two representable
// decimals is resolved.
type Rounding int

const (
	// HalfUp rounds ties away from zero (6.25 -> 6.3)
	HalfUp Rounding = iota
	// HalfEven rounds ties to the even neighbour (6.25 -> 6.2)
	HalfEven
)

// DefaultRounding is the mode used for canonical percentages and derived laws.
// It matches how authors round percentages by hand.
const DefaultRounding = HalfUp

// String returns the config name of the mode
func (r Rounding) String() string {
	switch r {
	case HalfEven:
		return "half_even"
	default:
		return "half_up"
	}
}

// ParseRounding parses a config name into a Rounding mode
func ParseRounding(name string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "half_up", "halfup", "half-up":
		return HalfUp, nil
	case "half_even", "halfeven", "half-even", "bankers":
		return HalfEven, nil
	}
	return DefaultRounding, fmt.Errorf("unknown rounding mode %q", name)
}

// FormatFixed renders x with exactly digits decimal places
func FormatFixed(x *big.Rat, digits int, mode Rounding) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	num := new(big.Int).Mul(x.Num(), scale)
	negative := num.Sign() < 0
	num.Abs(num)

	den := x.Denom()
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))

	switch new(big.Int).Lsh(r, 1).Cmp(den) {
	case 1:
		q.Add(q, big.NewInt(1))
	case 0:
		if mode == HalfUp || q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
	}

	s := q.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if negative && q.Sign() != 0 {
		s = "-" + s
	}
	return s
}

// Percent returns round(count/denominator*100) as an exact rational
func Percent(count, denominator *big.Rat) *big.Rat {
	if denominator.Sign() == 0 {
		return nil
	}
	ratio := new(big.Rat).Quo(count, denominator)
	return ratio.Mul(ratio, big.NewRat(100, 1))
}
