package notedata

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a rational coordinate along a chart's timeline, measured in
// beats. It is always stored reduced with a positive denominator, so two
// Positions denoting the same point compare equal with ==, and Position is
// usable as a map key. The zero value is beat 0.
//
// math/big.Rat was rejected for this: it is a pointer type with aliasing
// semantics and is not comparable, and chart coordinates never need
// arbitrary precision.
type Position struct {
	num int64
	den int64
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// NewPosition returns the reduced fraction num/den.
func NewPosition(num, den int64) (Position, error) {
	if den == 0 {
		return Position{}, fmt.Errorf("position %d/0: zero denominator", num)
	}
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(num, den); g > 1 {
		num /= g
		den /= g
	}
	return Position{num: num, den: den}, nil
}

// PositionFromInt returns the whole-beat position n.
func PositionFromInt(n int64) Position {
	return Position{num: n, den: 1}
}

// ParsePosition parses "7", "-3" or "3/4" forms.
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		return PositionFromInt(num), nil
	}
	numStr, denStr, ok := strings.Cut(s, "/")
	if !ok {
		return Position{}, fmt.Errorf("%q is not a position literal", s)
	}
	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return Position{}, fmt.Errorf("position %q: bad numerator: %w", s, err)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return Position{}, fmt.Errorf("position %q: bad denominator: %w", s, err)
	}
	return NewPosition(num, den)
}

// Num returns the reduced numerator.
func (p Position) Num() int64 { return p.num }

// Den returns the reduced denominator, always > 0.
func (p Position) Den() int64 {
	if p.den == 0 {
		return 1 // zero value normalizes to 0/1
	}
	return p.den
}

func (p Position) norm() Position {
	if p.den == 0 {
		return Position{num: p.num, den: 1}
	}
	return p
}

// Add returns p + q.
func (p Position) Add(q Position) Position {
	p, q = p.norm(), q.norm()
	r, _ := NewPosition(p.num*q.den+q.num*p.den, p.den*q.den)
	return r
}

// Sub returns p - q.
func (p Position) Sub(q Position) Position {
	return p.Add(q.Neg())
}

// Neg returns -p.
func (p Position) Neg() Position {
	p = p.norm()
	return Position{num: -p.num, den: p.den}
}

// MulInt returns p * n.
func (p Position) MulInt(n int64) Position {
	p = p.norm()
	r, _ := NewPosition(p.num*n, p.den)
	return r
}

// Cmp returns -1, 0 or +1 depending on whether p is less than, equal to, or
// greater than q.
func (p Position) Cmp(q Position) int {
	p, q = p.norm(), q.norm()
	l, r := p.num*q.den, q.num*p.den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// Less reports whether p < q.
func (p Position) Less(q Position) bool { return p.Cmp(q) < 0 }

// Sign returns -1, 0 or +1 for negative, zero and positive positions.
func (p Position) Sign() int {
	switch {
	case p.num < 0:
		return -1
	case p.num > 0:
		return 1
	}
	return 0
}

// String renders "n" for whole beats and "n/d" otherwise.
func (p Position) String() string {
	p = p.norm()
	if p.den == 1 {
		return strconv.FormatInt(p.num, 10)
	}
	return fmt.Sprintf("%d/%d", p.num, p.den)
}
