// Package render turns frames into images.
package render

import (
	"image"
	"image/color"
	"math"
	"math/cmplx"

	"github.com/agbru/lanefrac/internal/fractal"
)

// FloatToByte clamps x to [0, 1] and scales it to [0, 255], truncating.
// NaN maps to 0.
func FloatToByte(x float64) uint8 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		x = 1
	}
	return uint8(255 * x)
}

// HSVToRGB converts hue (in turns, any real value), saturation and value in
// [0, 1] to an opaque colour.
func HSVToRGB(h, s, v float64) color.RGBA {
	h -= math.Floor(h)
	h6 := h * 6
	sector := int(h6) % 6
	f := h6 - math.Floor(h6)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: FloatToByte(r), G: FloatToByte(g), B: FloatToByte(b), A: 0xff}
}

// EscapeColor colours an escape-time pixel. Pixels that reached maxIters are
// black; others follow a hue ramp on the square root of the normalised
// count so that the many low counts stay distinguishable.
func EscapeColor(count int64, maxIters int) color.RGBA {
	if maxIters <= 0 || count >= int64(maxIters) {
		return color.RGBA{A: 0xff}
	}
	t := math.Sqrt(float64(count) / float64(maxIters))
	return HSVToRGB(0.66+t, 0.85, brightness(t))
}

// brightness keeps escaped pixels from going fully dark.
func brightness(t float64) float64 {
	return 0.35 + 0.65*math.Min(1, math.Max(0, t))
}

// RootColor colours a Newton pixel by the argument of the root it reached,
// shaded by how many steps its batch needed. NaN values are black.
func RootColor(z complex128, steps int64, maxSteps int) color.RGBA {
	if cmplx.IsNaN(z) || cmplx.IsInf(z) {
		return color.RGBA{A: 0xff}
	}
	hue := cmplx.Phase(z)/(2*math.Pi) + 0.5
	v := 1.0
	if maxSteps > 0 {
		v = 1 - 0.6*math.Min(1, float64(steps)/float64(maxSteps))
	}
	return HSVToRGB(hue, 0.75, v)
}

// Colorize maps every pixel of f to a colour.
func Colorize(f *fractal.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.View.Width, f.View.Height))
	maxSteps := int(maxInt64(f.Counts))
	for i := range f.Counts {
		x, y := i%f.View.Width, i/f.View.Width
		var c color.RGBA
		switch f.Kind {
		case fractal.KindRoot:
			c = RootColor(f.Values[i], f.Counts[i], maxSteps)
		default:
			c = EscapeColor(f.Counts[i], f.MaxIters)
		}
		img.SetRGBA(x, y, c)
	}
	return img
}

func maxInt64(v []int64) int64 {
	var m int64
	for _, x := range v {
		m = max(m, x)
	}
	return m
}
