package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agbru/lanefrac/internal/fractal"
)

// MockKernel is a fractal.Kernel returning an empty frame of the requested
// view, or Err. With Block set it waits for the context to end.
type MockKernel struct {
	KernelName string
	KernelKind fractal.Kind
	Err        error
	Block      bool

	mu         sync.Mutex
	calls      int
	gotView    fractal.View
	gotOptions fractal.Options
}

func (m *MockKernel) Name() string       { return m.KernelName }
func (m *MockKernel) Kind() fractal.Kind { return m.KernelKind }

func (m *MockKernel) Render(ctx context.Context, progressChan chan<- fractal.ProgressUpdate, index int, view fractal.View, opts fractal.Options) (*fractal.Frame, error) {
	m.mu.Lock()
	m.calls++
	m.gotView, m.gotOptions = view, opts
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if progressChan != nil {
		select {
		case progressChan <- fractal.ProgressUpdate{KernelIndex: index, Value: 1}:
		default:
		}
	}
	return fractal.NewFrame(m.KernelName, m.KernelKind, view, opts.MaxIters), nil
}

// Calls returns how many times Render ran.
func (m *MockKernel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Last returns the view and options of the last Render call.
func (m *MockKernel) Last() (fractal.View, fractal.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gotView, m.gotOptions
}

// TestFactory is a fractal.KernelFactory over a fixed set of kernels.
// Register is not supported.
type TestFactory struct {
	fractal.KernelFactory
	kernels map[string]fractal.Kernel
}

// NewTestFactory serves the given kernels by their names.
func NewTestFactory(kernels ...fractal.Kernel) *TestFactory {
	m := make(map[string]fractal.Kernel, len(kernels))
	for _, k := range kernels {
		m[k.Name()] = k
	}
	return &TestFactory{kernels: m}
}

func (f *TestFactory) Get(name string) (fractal.Kernel, error) {
	k, ok := f.kernels[name]
	if !ok {
		return nil, fmt.Errorf("unknown kernel: %s", name)
	}
	return k, nil
}

func (f *TestFactory) Create(name string) (fractal.Kernel, error) {
	return f.Get(name)
}

func (f *TestFactory) List() []string {
	names := make([]string, 0, len(f.kernels))
	for name := range f.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *TestFactory) GetAll() map[string]fractal.Kernel {
	out := make(map[string]fractal.Kernel, len(f.kernels))
	for name, k := range f.kernels {
		out[name] = k
	}
	return out
}
