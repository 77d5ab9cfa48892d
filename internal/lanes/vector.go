// Package lanes provides fixed-width, lane-parallel numeric vectors for the
// fractal kernels. Every vector holds Width independent values that are
// processed together; an operation on one lane never reads another lane.
//
// All types are plain Go arrays, so they are copied by value, live on the
// stack, and never alias. Conditional work is expressed with comparison
// masks and Select, never with a per-lane branch:
//
//	escaped := z.AbsSquared().Ge(SplatF64(4))
//	z = z.Select(z.MulAdd(z, c), escaped)
package lanes

import "math"

// Width is the number of lanes in every vector. Eight float64 lanes fill one
// AVX-512 register, two AVX2 registers or four NEON registers.
const Width = 8

// F64 is a vector of Width float64 lanes.
type F64 [Width]float64

// I64 is a vector of Width int64 lanes.
type I64 [Width]int64

// Mask is the per-lane result of a comparison.
type Mask [Width]bool

// SplatF64 broadcasts v to every lane.
func SplatF64(v float64) F64 {
	var out F64
	for i := range out {
		out[i] = v
	}
	return out
}

// Add returns a + b lane-wise.
func (a F64) Add(b F64) F64 {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

// Sub returns a - b lane-wise.
func (a F64) Sub(b F64) F64 {
	for i := range a {
		a[i] -= b[i]
	}
	return a
}

// Mul returns a * b lane-wise.
func (a F64) Mul(b F64) F64 {
	for i := range a {
		a[i] *= b[i]
	}
	return a
}

// Div returns a / b lane-wise. Division by zero follows IEEE-754.
func (a F64) Div(b F64) F64 {
	for i := range a {
		a[i] /= b[i]
	}
	return a
}

// Neg returns -a lane-wise.
func (a F64) Neg() F64 {
	for i := range a {
		a[i] = -a[i]
	}
	return a
}

// Abs returns |a| lane-wise.
func (a F64) Abs() F64 {
	for i := range a {
		a[i] = math.Abs(a[i])
	}
	return a
}

// Sqrt returns the square root of every lane.
func (a F64) Sqrt() F64 {
	for i := range a {
		a[i] = math.Sqrt(a[i])
	}
	return a
}

// MulAdd returns a*b + c lane-wise with a single rounding per lane.
func (a F64) MulAdd(b, c F64) F64 {
	for i := range a {
		a[i] = math.FMA(a[i], b[i], c[i])
	}
	return a
}

// Lt reports a < b per lane.
func (a F64) Lt(b F64) Mask {
	var m Mask
	for i := range a {
		m[i] = a[i] < b[i]
	}
	return m
}

// Le reports a <= b per lane.
func (a F64) Le(b F64) Mask {
	var m Mask
	for i := range a {
		m[i] = a[i] <= b[i]
	}
	return m
}

// Gt reports a > b per lane.
func (a F64) Gt(b F64) Mask {
	var m Mask
	for i := range a {
		m[i] = a[i] > b[i]
	}
	return m
}

// Ge reports a >= b per lane. NaN lanes compare false.
func (a F64) Ge(b F64) Mask {
	var m Mask
	for i := range a {
		m[i] = a[i] >= b[i]
	}
	return m
}

// IsNaN reports which lanes hold NaN.
func (a F64) IsNaN() Mask {
	var m Mask
	for i := range a {
		m[i] = math.IsNaN(a[i])
	}
	return m
}

// Select returns a's lane where m is set and b's lane otherwise.
func (a F64) Select(b F64, m Mask) F64 {
	for i := range a {
		if !m[i] {
			a[i] = b[i]
		}
	}
	return a
}

// SplatI64 broadcasts v to every lane.
func SplatI64(v int64) I64 {
	var out I64
	for i := range out {
		out[i] = v
	}
	return out
}

// Add returns a + b lane-wise.
func (a I64) Add(b I64) I64 {
	for i := range a {
		a[i] += b[i]
	}
	return a
}

// Select returns a's lane where m is set and b's lane otherwise.
func (a I64) Select(b I64, m Mask) I64 {
	for i := range a {
		if !m[i] {
			a[i] = b[i]
		}
	}
	return a
}

// Max returns the largest lane value.
func (a I64) Max() int64 {
	best := a[0]
	for _, v := range a[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// And returns m & o.
func (m Mask) And(o Mask) Mask {
	for i := range m {
		m[i] = m[i] && o[i]
	}
	return m
}

// Or returns m | o.
func (m Mask) Or(o Mask) Mask {
	for i := range m {
		m[i] = m[i] || o[i]
	}
	return m
}

// Not returns the lane-wise complement of m.
func (m Mask) Not() Mask {
	for i := range m {
		m[i] = !m[i]
	}
	return m
}

// All reports whether every lane is set. This is the horizontal reduction
// behind the Newton convergence gate.
func (m Mask) All() bool {
	for _, b := range m {
		if !b {
			return false
		}
	}
	return true
}

// Any reports whether at least one lane is set.
func (m Mask) Any() bool {
	for _, b := range m {
		if b {
			return true
		}
	}
	return false
}

// Count returns the number of set lanes.
func (m Mask) Count() int {
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}
