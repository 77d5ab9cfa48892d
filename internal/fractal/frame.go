package fractal

import (
	"math/cmplx"

	"github.com/RoaringBitmap/roaring/v2"
)

// Kind tells how a frame's per-pixel data should be read.
type Kind uint8

const (
	// KindEscape frames hold escape counts in Counts and the frozen iterate
	// in Values.
	KindEscape Kind = iota + 1
	// KindRoot frames hold the final Newton iterate in Values and the number
	// of steps the pixel's batch took in Counts.
	KindRoot
)

// String returns "escape" or "root".
func (k Kind) String() string {
	switch k {
	case KindEscape:
		return "escape"
	case KindRoot:
		return "root"
	default:
		return "unknown"
	}
}

// Frame is the raw result of a render, one entry per pixel in row-major
// order.
type Frame struct {
	Kernel   string
	Kind     Kind
	View     View
	MaxIters int
	Counts   []int64
	Values   []complex128
	// Batches is the number of lane batches rendered.
	Batches int64
	// Bursts is the total number of Newton bursts over all batches. It is 0
	// for escape frames.
	Bursts int64
	// ConvergedBatches counts batches whose collective convergence gate
	// closed before the budget ran out.
	ConvergedBatches int64
}

// NewFrame allocates the pixel buffers for view.
func NewFrame(kernel string, kind Kind, view View, maxIters int) *Frame {
	n := view.Pixels()
	return &Frame{
		Kernel:   kernel,
		Kind:     kind,
		View:     view,
		MaxIters: maxIters,
		Counts:   make([]int64, n),
		Values:   make([]complex128, n),
	}
}

// Interior returns the set of pixels that never escaped. It is empty for
// root frames.
func (f *Frame) Interior() *roaring.Bitmap {
	bm := roaring.New()
	if f.Kind != KindEscape {
		return bm
	}
	for i, n := range f.Counts {
		if n >= int64(f.MaxIters) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// Diverged returns the set of pixels whose final value is NaN. For root
// frames these are the starting points where the derivative vanished or the
// iteration blew up.
func (f *Frame) Diverged() *roaring.Bitmap {
	bm := roaring.New()
	for i, v := range f.Values {
		if cmplx.IsNaN(v) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// FrameStats summarises a frame.
type FrameStats struct {
	Pixels   int `json:"pixels"`
	Interior int `json:"interior"`
	Escaped  int `json:"escaped"`
	Diverged int `json:"diverged"`

	// MeanEscape is the mean count over escaped pixels.
	MeanEscape float64 `json:"mean_escape"`
	// InteriorArea estimates the area of the set inside the view.
	InteriorArea float64 `json:"interior_area"`
	// MeanBursts is the mean number of Newton bursts per batch.
	MeanBursts float64 `json:"mean_bursts"`
	// ConvergedRatio is the share of batches that converged early.
	ConvergedRatio float64 `json:"converged_ratio"`
}

// Stats computes summary statistics.
func (f *Frame) Stats() FrameStats {
	s := FrameStats{Pixels: len(f.Counts)}
	diverged := f.Diverged()
	s.Diverged = int(diverged.GetCardinality())

	if f.Kind == KindEscape {
		interior := f.Interior()
		s.Interior = int(interior.GetCardinality())
		s.Escaped = s.Pixels - s.Interior

		var sum int64
		for i, n := range f.Counts {
			if !interior.Contains(uint32(i)) {
				sum += n
			}
		}
		if s.Escaped > 0 {
			s.MeanEscape = float64(sum) / float64(s.Escaped)
		}
		if s.Pixels > 0 {
			s.InteriorArea = f.View.Area() * float64(s.Interior) / float64(s.Pixels)
		}
	}

	if f.Batches > 0 {
		s.MeanBursts = float64(f.Bursts) / float64(f.Batches)
		if f.Kind == KindRoot {
			s.ConvergedRatio = float64(f.ConvergedBatches) / float64(f.Batches)
		}
	}
	return s
}
