// Package fractal renders escape-time and root-finding fractals over a
// rectangular region of the complex plane.
//
// A Kernel turns a View into a Frame. Each kernel wraps one of the
// lane-parallel cores (mandelbrot, julia, newton) and adds tracing, metrics,
// logging and progress reporting around it. Rows of the view are rendered
// concurrently; within a row, pixels are processed lanes.Width at a time.
package fractal

import (
	"encoding/json"
	"fmt"
	"math"

	apperrors "github.com/agbru/lanefrac/internal/errors"
)

// MaxPixels bounds the size of a single frame.
const MaxPixels = 64 << 20

// View is a rectangular window onto the complex plane sampled on a pixel
// grid. Pixels are square: the vertical extent is Span*Height/Width.
type View struct {
	// Center is the complex value at the middle of the image.
	Center complex128
	// Span is the width of the window along the real axis.
	Span float64
	// Width and Height are the image size in pixels.
	Width  int
	Height int
}

// DefaultView frames the whole Mandelbrot set at 800x600.
func DefaultView() View {
	return View{Center: complex(-0.5, 0), Span: 3.5, Width: 800, Height: 600}
}

// Validate checks that the view describes a non-empty, finite grid.
func (v View) Validate() error {
	if v.Width < 1 {
		return apperrors.NewValidationError("width", "must be at least 1", v.Width)
	}
	if v.Height < 1 {
		return apperrors.NewValidationError("height", "must be at least 1", v.Height)
	}
	if v.ExceedsPixels(MaxPixels) {
		return apperrors.NewValidationError("width*height", fmt.Sprintf("frame too large (max %d pixels)", MaxPixels),
			fmt.Sprintf("%dx%d", v.Width, v.Height))
	}
	if !(v.Span > 0) || math.IsInf(v.Span, 0) {
		return apperrors.NewValidationError("span", "must be a positive finite number", v.Span)
	}
	if math.IsNaN(real(v.Center)) || math.IsNaN(imag(v.Center)) ||
		math.IsInf(real(v.Center), 0) || math.IsInf(imag(v.Center), 0) {
		return apperrors.NewValidationError("center", "must be finite", v.Center)
	}
	return nil
}

// ExceedsPixels reports whether Width*Height is above limit. The product is
// never formed, so sizes whose product overflows int are reported as too
// large. Views with a non-positive side never exceed.
func (v View) ExceedsPixels(limit int) bool {
	if v.Width < 1 || v.Height < 1 {
		return false
	}
	return v.Width > limit/v.Height
}

// Pixels returns Width*Height. Call it only on a validated view.
func (v View) Pixels() int {
	return v.Width * v.Height
}

// Step is the distance between neighbouring pixel centres.
func (v View) Step() float64 {
	return v.Span / float64(v.Width)
}

// Point maps the centre of pixel (px, py) to the complex plane. Row 0 is the
// top of the image, so the imaginary part decreases with py.
func (v View) Point(px, py int) complex128 {
	step := v.Step()
	re := real(v.Center) - v.Span/2 + (float64(px)+0.5)*step
	im := imag(v.Center) + (float64(v.Height)/2-float64(py)-0.5)*step
	return complex(re, im)
}

// Row fills dst with the points of row py and returns it. dst is grown when
// it is shorter than Width.
func (v View) Row(py int, dst []complex128) []complex128 {
	if cap(dst) < v.Width {
		dst = make([]complex128, v.Width)
	}
	dst = dst[:v.Width]
	for px := range dst {
		dst[px] = v.Point(px, py)
	}
	return dst
}

// Area is the area of the window in the complex plane.
func (v View) Area() float64 {
	return v.Span * v.Span * float64(v.Height) / float64(v.Width)
}

// viewJSON is the wire form of View. encoding/json has no complex type, so
// the center is split into its parts.
type viewJSON struct {
	CenterRe float64 `json:"center_re"`
	CenterIm float64 `json:"center_im"`
	Span     float64 `json:"span"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(viewJSON{
		CenterRe: real(v.Center),
		CenterIm: imag(v.Center),
		Span:     v.Span,
		Width:    v.Width,
		Height:   v.Height,
	})
}

func (v *View) UnmarshalJSON(data []byte) error {
	var w viewJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = View{Center: complex(w.CenterRe, w.CenterIm), Span: w.Span, Width: w.Width, Height: w.Height}
	return nil
}
