package lanes

import "math"

// C64 holds Width complex numbers as two parallel real vectors. Lane i of
// Re and lane i of Im form complex number i.
//
// Multiplication, division and MulAdd are written as explicit fused
// multiply-add chains. The operand order of each chain is part of the
// contract: results are reproducible bit-for-bit across platforms because
// math.FMA rounds once regardless of hardware support.
type C64 struct {
	Re F64
	Im F64
}

// Splat broadcasts the complex scalar re+im·i to every lane.
func Splat(re, im float64) C64 {
	return C64{Re: SplatF64(re), Im: SplatF64(im)}
}

// SplatComplex broadcasts c to every lane.
func SplatComplex(c complex128) C64 {
	return Splat(real(c), imag(c))
}

// Load builds a vector from Width literal complex values.
func Load(values [Width]complex128) C64 {
	var v C64
	for i, c := range values {
		v.Re[i] = real(c)
		v.Im[i] = imag(c)
	}
	return v
}

// LoadSlice builds a vector from the first Width entries of values. A shorter
// slice is padded by repeating its last element; an empty slice yields zero.
func LoadSlice(values []complex128) C64 {
	var v C64
	if len(values) == 0 {
		return v
	}
	last := values[len(values)-1]
	for i := range Width {
		c := last
		if i < len(values) {
			c = values[i]
		}
		v.Re[i] = real(c)
		v.Im[i] = imag(c)
	}
	return v
}

// Lane returns lane i as a complex128.
func (z C64) Lane(i int) complex128 {
	return complex(z.Re[i], z.Im[i])
}

// Complexes returns every lane as a complex128.
func (z C64) Complexes() [Width]complex128 {
	var out [Width]complex128
	for i := range out {
		out[i] = complex(z.Re[i], z.Im[i])
	}
	return out
}

// Add returns z + w.
func (z C64) Add(w C64) C64 {
	return C64{Re: z.Re.Add(w.Re), Im: z.Im.Add(w.Im)}
}

// Sub returns z - w.
func (z C64) Sub(w C64) C64 {
	return C64{Re: z.Re.Sub(w.Re), Im: z.Im.Sub(w.Im)}
}

// Neg returns -z.
func (z C64) Neg() C64 {
	return C64{Re: z.Re.Neg(), Im: z.Im.Neg()}
}

// Mul returns z * w:
//
//	re = fma(z.im, -w.im, z.re*w.re)
//	im = fma(z.im,  w.re, z.re*w.im)
func (z C64) Mul(w C64) C64 {
	var out C64
	for i := range Width {
		out.Re[i] = math.FMA(z.Im[i], -w.Im[i], z.Re[i]*w.Re[i])
		out.Im[i] = math.FMA(z.Im[i], w.Re[i], z.Re[i]*w.Im[i])
	}
	return out
}

// Div returns z / w. A zero divisor lane yields NaN or ±Inf in that lane
// only.
//
//	d  = fma(w.im, w.im, w.re*w.re)
//	re = fma(z.im,  w.im, z.re*w.re) / d
//	im = fma(z.re, -w.im, z.im*w.re) / d
func (z C64) Div(w C64) C64 {
	var out C64
	for i := range Width {
		d := math.FMA(w.Im[i], w.Im[i], w.Re[i]*w.Re[i])
		out.Re[i] = math.FMA(z.Im[i], w.Im[i], z.Re[i]*w.Re[i]) / d
		out.Im[i] = math.FMA(z.Re[i], -w.Im[i], z.Im[i]*w.Re[i]) / d
	}
	return out
}

// MulAdd returns z*a + b:
//
//	re = fma(z.im, -a.im, fma(z.re, a.re, b.re))
//	im = fma(z.re,  a.im, fma(z.im, a.re, b.im))
func (z C64) MulAdd(a, b C64) C64 {
	var out C64
	for i := range Width {
		out.Re[i] = math.FMA(z.Im[i], -a.Im[i], math.FMA(z.Re[i], a.Re[i], b.Re[i]))
		out.Im[i] = math.FMA(z.Re[i], a.Im[i], math.FMA(z.Im[i], a.Re[i], b.Im[i]))
	}
	return out
}

// AddReal returns z + r, where r is a real vector. Real + complex is the
// same operation.
func (z C64) AddReal(r F64) C64 {
	return C64{Re: z.Re.Add(r), Im: z.Im}
}

// SubReal returns z - r.
func (z C64) SubReal(r F64) C64 {
	return C64{Re: z.Re.Sub(r), Im: z.Im}
}

// RealSub returns r - z.
func RealSub(r F64, z C64) C64 {
	return C64{Re: r.Sub(z.Re), Im: z.Im.Neg()}
}

// MulReal returns z * r. Real * complex is the same operation.
func (z C64) MulReal(r F64) C64 {
	return C64{Re: z.Re.Mul(r), Im: z.Im.Mul(r)}
}

// DivReal returns z / r.
func (z C64) DivReal(r F64) C64 {
	return C64{Re: z.Re.Div(r), Im: z.Im.Div(r)}
}

// RealDiv returns r / z.
func RealDiv(r F64, z C64) C64 {
	d := z.AbsSquared()
	return C64{
		Re: r.Mul(z.Re).Div(d),
		Im: r.Neg().Mul(z.Im).Div(d),
	}
}

// AbsSquared returns |z|² per lane, computed as fma(im, im, re*re).
func (z C64) AbsSquared() F64 {
	return z.Im.MulAdd(z.Im, z.Re.Mul(z.Re))
}

// Abs returns |z| per lane.
func (z C64) Abs() F64 {
	return z.AbsSquared().Sqrt()
}

// Select returns z's lane where m is set and other's lane otherwise. Real
// and imaginary parts are chosen under the same mask.
func (z C64) Select(other C64, m Mask) C64 {
	return C64{Re: z.Re.Select(other.Re, m), Im: z.Im.Select(other.Im, m)}
}

// IsNaN reports lanes where either part is NaN.
func (z C64) IsNaN() Mask {
	return z.Re.IsNaN().Or(z.Im.IsNaN())
}
