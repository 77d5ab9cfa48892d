package fractal

import (
	"fmt"
	"sort"
	"sync"
)

// KernelFactory creates and caches kernels by name.
type KernelFactory interface {
	// Create returns a fresh, uncached kernel.
	Create(name string) (Kernel, error)

	// Get returns the cached kernel for name, creating it on first use.
	Get(name string) (Kernel, error)

	// List returns the registered names in sorted order.
	List() []string

	// Register adds or replaces a kernel type.
	Register(name string, creator func() coreKernel) error

	// GetAll returns every registered kernel.
	GetAll() map[string]Kernel
}

// DefaultFactory is the thread-safe KernelFactory used by the application.
type DefaultFactory struct {
	mu       sync.RWMutex
	creators map[string]func() coreKernel
	kernels  map[string]Kernel
}

// NewDefaultFactory returns a factory with the built-in kernels registered:
//
//   - "mandelbrot": escape time of z² + c from z = 0
//   - "julia": escape time of z² + c from z = pixel, c fixed
//   - "newton": Newton roots of a polynomial
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators: make(map[string]func() coreKernel),
		kernels:  make(map[string]Kernel),
	}

	_ = f.Register("mandelbrot", func() coreKernel { return MandelbrotKernel{} })
	_ = f.Register("julia", func() coreKernel { return JuliaKernel{} })
	_ = f.Register("newton", func() coreKernel { return NewtonKernel{} })

	return f
}

// Register adds a kernel type. Registering an existing name replaces it and
// drops the cached instance.
func (f *DefaultFactory) Register(name string, creator func() coreKernel) error {
	if creator == nil {
		return fmt.Errorf("nil creator for kernel %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
	delete(f.kernels, name)
	return nil
}

// Create builds a new kernel without caching it.
func (f *DefaultFactory) Create(name string) (Kernel, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown kernel: %s", name)
	}
	return NewKernel(creator()), nil
}

// Get returns the cached kernel for name.
func (f *DefaultFactory) Get(name string) (Kernel, error) {
	f.mu.RLock()
	if k, exists := f.kernels[name]; exists {
		f.mu.RUnlock()
		return k, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if k, exists := f.kernels[name]; exists {
		return k, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, fmt.Errorf("unknown kernel: %s", name)
	}
	k := NewKernel(creator())
	f.kernels[name] = k
	return k, nil
}

// List returns the registered kernel names, sorted.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll instantiates any kernel not yet cached and returns a copy of the
// cache.
func (f *DefaultFactory) GetAll() map[string]Kernel {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, creator := range f.creators {
		if _, exists := f.kernels[name]; !exists {
			f.kernels[name] = NewKernel(creator())
		}
	}

	result := make(map[string]Kernel, len(f.kernels))
	for name, k := range f.kernels {
		result[name] = k
	}
	return result
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.creators[name]
	return exists
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}
