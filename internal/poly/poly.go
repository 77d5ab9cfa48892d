// Package poly implements complex polynomials with fixed degree and their
// lane-parallel evaluation.
package poly

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agbru/lanefrac/internal/lanes"
)

// ErrEmpty is returned when a polynomial is built from no coefficients.
var ErrEmpty = errors.New("poly: empty coefficient list")

// Polynomial is an immutable complex polynomial. Coefficients are stored in
// ascending degree order: coefficient 0 is the constant term. The degree is
// fixed at construction.
type Polynomial struct {
	coeffs []complex128
}

// New builds a polynomial from ascending-degree coefficients. The slice is
// copied.
func New(coeffs ...complex128) (Polynomial, error) {
	if len(coeffs) == 0 {
		return Polynomial{}, ErrEmpty
	}
	c := make([]complex128, len(coeffs))
	copy(c, coeffs)
	return Polynomial{coeffs: c}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// variables and tests.
func MustNew(coeffs ...complex128) Polynomial {
	p, err := New(coeffs...)
	if err != nil {
		panic(err)
	}
	return p
}

// FromReal builds a polynomial with real coefficients.
func FromReal(coeffs ...float64) (Polynomial, error) {
	c := make([]complex128, len(coeffs))
	for i, v := range coeffs {
		c[i] = complex(v, 0)
	}
	return New(c...)
}

// UnityRoots returns z^n - 1, whose roots are the n-th roots of unity.
func UnityRoots(n int) (Polynomial, error) {
	if n < 1 {
		return Polynomial{}, fmt.Errorf("poly: unity roots degree must be >= 1, got %d", n)
	}
	c := make([]complex128, n+1)
	c[0] = -1
	c[n] = 1
	return Polynomial{coeffs: c}, nil
}

// Parse reads a comma-separated list of ascending-degree coefficients. Each
// entry is anything strconv.ParseComplex accepts, e.g. "-1", "0.5-2i", "3i"
// or "(1+1i)".
func Parse(s string) (Polynomial, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Polynomial{}, ErrEmpty
	}
	fields := strings.Split(s, ",")
	coeffs := make([]complex128, 0, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		c, err := strconv.ParseComplex(f, 128)
		if err != nil {
			return Polynomial{}, fmt.Errorf("poly: coefficient %d %q: %w", i, f, err)
		}
		coeffs = append(coeffs, c)
	}
	return Polynomial{coeffs: coeffs}, nil
}

// Degree returns the degree fixed at construction. Leading zero
// coefficients are counted; the zero value has degree 0.
func (p Polynomial) Degree() int {
	if len(p.coeffs) == 0 {
		return 0
	}
	return len(p.coeffs) - 1
}

// Coefficients returns a copy of the ascending-degree coefficients.
func (p Polynomial) Coefficients() []complex128 {
	out := make([]complex128, len(p.coeffs))
	copy(out, p.coeffs)
	return out
}

// IsZero reports whether p has no coefficients.
func (p Polynomial) IsZero() bool {
	return len(p.coeffs) == 0
}

// Evaluate returns p(x) for every lane using Horner's rule from the highest
// coefficient down, one fused MulAdd per coefficient:
//
//	acc = c[n]
//	acc = x*acc + c[k]   for k = n-1 .. 0
func (p Polynomial) Evaluate(x lanes.C64) lanes.C64 {
	n := len(p.coeffs)
	if n == 0 {
		return lanes.C64{}
	}
	acc := lanes.SplatComplex(p.coeffs[n-1])
	for k := n - 2; k >= 0; k-- {
		acc = x.MulAdd(acc, lanes.SplatComplex(p.coeffs[k]))
	}
	return acc
}

// EvaluateAt returns p(z) for a single value using the same recurrence as
// Evaluate.
func (p Polynomial) EvaluateAt(z complex128) complex128 {
	return p.Evaluate(lanes.SplatComplex(z)).Lane(0)
}

// Derive returns the derivative p'. d[i] = (i+1) * c[i+1]. The derivative of
// a constant is the zero constant.
func (p Polynomial) Derive() Polynomial {
	if len(p.coeffs) <= 1 {
		return Polynomial{coeffs: []complex128{0}}
	}
	d := make([]complex128, len(p.coeffs)-1)
	for i := range d {
		k := float64(i + 1)
		c := p.coeffs[i+1]
		d[i] = complex(real(c)*k, imag(c)*k)
	}
	return Polynomial{coeffs: d}
}

// MarshalText encodes p in the format accepted by Parse.
func (p Polynomial) MarshalText() ([]byte, error) {
	parts := make([]string, len(p.coeffs))
	for i, c := range p.coeffs {
		parts[i] = strconv.FormatComplex(c, 'g', -1, 128)
	}
	return []byte(strings.Join(parts, ",")), nil
}

// UnmarshalText decodes a coefficient list written by MarshalText.
func (p *Polynomial) UnmarshalText(text []byte) error {
	q, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

// String renders p in descending powers of z, e.g. "z^3 - 1".
func (p Polynomial) String() string {
	var b strings.Builder
	for k := len(p.coeffs) - 1; k >= 0; k-- {
		c := p.coeffs[k]
		if c == 0 {
			continue
		}
		neg := imag(c) == 0 && real(c) < 0
		if b.Len() > 0 {
			if neg {
				b.WriteString(" - ")
			} else {
				b.WriteString(" + ")
			}
		} else if neg {
			b.WriteString("-")
		}
		if neg {
			c = complex(-real(c), 0)
		}
		b.WriteString(term(c, k))
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

func term(c complex128, k int) string {
	var coef string
	switch {
	case imag(c) == 0:
		coef = strconv.FormatFloat(real(c), 'g', -1, 64)
	case real(c) == 0:
		coef = strconv.FormatFloat(imag(c), 'g', -1, 64) + "i"
	default:
		coef = strconv.FormatComplex(c, 'g', -1, 128)
	}
	switch {
	case k == 0:
		return coef
	case coef == "1":
		coef = ""
	}
	if k == 1 {
		return coef + "z"
	}
	return coef + "z^" + strconv.Itoa(k)
}
