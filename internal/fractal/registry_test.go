package fractal

import (
	"context"
	"reflect"
	"testing"

	"github.com/agbru/lanefrac/internal/lanes"
)

// stubCore is a trivial coreKernel that leaves every pixel at zero.
type stubCore struct{}

func (stubCore) Name() string { return "stub" }
func (stubCore) Kind() Kind   { return KindEscape }
func (stubCore) prepare(Options) batchFunc {
	return func(lanes.C64) batchResult {
		return batchResult{}
	}
}

func TestDefaultFactory(t *testing.T) {
	t.Parallel()
	factory := NewDefaultFactory()

	t.Run("Builtins", func(t *testing.T) {
		want := []string{"julia", "mandelbrot", "newton"}
		if got := factory.List(); !reflect.DeepEqual(got, want) {
			t.Errorf("List() = %v, want %v", got, want)
		}
	})

	t.Run("RegisterAndHas", func(t *testing.T) {
		if err := factory.Register("stub", func() coreKernel { return stubCore{} }); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !factory.Has("stub") {
			t.Error("factory should have 'stub'")
		}
		if factory.Has("nonexistent") {
			t.Error("factory should not have 'nonexistent'")
		}
		if err := factory.Register("nil", nil); err == nil {
			t.Error("registering a nil creator should fail")
		}
	})

	t.Run("GetIsCached", func(t *testing.T) {
		a, err := factory.Get("mandelbrot")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		b, _ := factory.Get("mandelbrot")
		if a != b {
			t.Error("Get should return the cached instance")
		}
		c, err := factory.Create("mandelbrot")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if a == c {
			t.Error("Create should return a fresh instance")
		}
		if _, err := factory.Get("nonexistent"); err == nil {
			t.Error("Get should fail for an unknown kernel")
		}
		if _, err := factory.Create("nonexistent"); err == nil {
			t.Error("Create should fail for an unknown kernel")
		}
	})

	t.Run("GetAll", func(t *testing.T) {
		all := factory.GetAll()
		for _, name := range []string{"mandelbrot", "julia", "newton"} {
			k, ok := all[name]
			if !ok {
				t.Errorf("GetAll missing %q", name)
				continue
			}
			if k.Name() != name {
				t.Errorf("kernel %q reports name %q", name, k.Name())
			}
		}
	})
}

func TestGlobalFactoryRendersEveryKernel(t *testing.T) {
	t.Parallel()

	view := View{Span: 3, Width: 8, Height: 2}
	for _, name := range GlobalFactory().List() {
		k, err := GlobalFactory().Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		frame, err := k.Render(context.Background(), nil, 0, view, Options{MaxIters: 16})
		if err != nil {
			t.Errorf("%s: render failed: %v", name, err)
			continue
		}
		if frame.Kind != k.Kind() {
			t.Errorf("%s: frame kind %v, kernel kind %v", name, frame.Kind, k.Kind())
		}
	}
}
