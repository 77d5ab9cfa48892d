package fractal

import "sync"

// ProgressObserver receives progress events from a render.
type ProgressObserver interface {
	// Update is called with the kernel index and the fraction of rows done.
	Update(kernelIndex int, progress float64)
}

// ProgressSubject fans progress events out to registered observers. It is
// safe for concurrent use; rows finishing on different goroutines notify
// through the same subject.
type ProgressSubject struct {
	observers []ProgressObserver
	mu        sync.RWMutex
}

// NewProgressSubject creates a subject with no observers.
func NewProgressSubject() *ProgressSubject {
	return &ProgressSubject{
		observers: make([]ProgressObserver, 0),
	}
}

// Register adds an observer. Observers are notified in registration order.
// A nil observer is ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Unregister removes an observer. Unknown observers are ignored.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, o := range s.observers {
		if o == observer {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify sends an update to every observer synchronously.
func (s *ProgressSubject) Notify(kernelIndex int, progress float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, observer := range s.observers {
		observer.Update(kernelIndex, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter binds the subject to one kernel index.
func (s *ProgressSubject) AsProgressReporter(kernelIndex int) ProgressReporter {
	return func(progress float64) {
		s.Notify(kernelIndex, progress)
	}
}
