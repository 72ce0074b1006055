package emotion

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked. A nil DetectFunc finds no faces.
	DetectFunc func(img gocv.Mat) ([]Face, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu     sync.Mutex
	calls  int
	closed int
}

// NewMock returns a Mock that reports the same faces for every frame.
func NewMock(faces ...Face) *Mock {
	return &Mock{
		DetectFunc: func(gocv.Mat) ([]Face, error) {
			return faces, nil
		},
	}
}

// Detect implements Detector.
func (m *Mock) Detect(img gocv.Mat) ([]Face, error) {
	m.mu.Lock()
	m.calls++
	fn := m.DetectFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(img)
}

// Close implements Detector.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed++
	fn := m.CloseFunc
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn()
}

// Calls returns how many times Detect was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed returns how many times Close was invoked.
func (m *Mock) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
