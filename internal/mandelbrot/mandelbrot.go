// Package mandelbrot implements lane-parallel escape-time iteration of
// z = z² + c.
package mandelbrot

import "github.com/agbru/lanefrac/internal/lanes"

// EscapeRadiusSquared is the bound on |z|² at which a lane is considered to
// have escaped. A lane with |z|² exactly equal to it has escaped.
const EscapeRadiusSquared = 4.0

// Escaped reports the lanes of z that are at or beyond the escape radius.
// NaN lanes compare false and keep iterating.
func Escaped(z lanes.C64) lanes.Mask {
	return z.AbsSquared().Ge(lanes.SplatF64(EscapeRadiusSquared))
}

// Iterate runs exactly iters steps of z = z*z + c on every lane and returns
// the final z together with the per-lane count of steps taken before escape.
//
// Once a lane escapes, its z and its counter stop changing together: the
// returned z is the first iterate at or beyond the escape radius and the
// counter is the number of squarings that led there. Lanes that never escape
// report iters. The loop never exits early for the batch, so the cost does
// not depend on the data.
func Iterate(z, c lanes.C64, iters int) (lanes.C64, lanes.I64) {
	var counter lanes.I64
	zero, one := lanes.SplatI64(0), lanes.SplatI64(1)
	for range iters {
		m := Escaped(z)
		counter = counter.Add(zero.Select(one, m))
		z = z.Select(z.MulAdd(z, c), m)
	}
	return z, counter
}
