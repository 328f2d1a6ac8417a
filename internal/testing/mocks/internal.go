package mocks

import (
	"context"
	"sync"
	"sync/atomic"
)

// InternalCall records one call to InternalRunner.RunInternal.
type InternalCall struct {
	Name  string
	Args  []string
	Stdin []byte
}

// InternalRunner is a stub for the pipeline's internal-command runner.
type InternalRunner struct {
	// RunFunc is called by RunInternal. If nil, RunInternal returns stdin.
	RunFunc func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

	count int32
	mu    sync.Mutex
	calls []InternalCall
}

// NewInternalRunner creates a stub internal runner.
func NewInternalRunner() *InternalRunner {
	return &InternalRunner{}
}

// WithRunFunc sets the function called by RunInternal.
func (m *InternalRunner) WithRunFunc(fn func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)) *InternalRunner {
	m.RunFunc = fn
	return m
}

// RunInternal records the call and delegates to RunFunc.
func (m *InternalRunner) RunInternal(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	atomic.AddInt32(&m.count, 1)
	m.mu.Lock()
	m.calls = append(m.calls, InternalCall{
		Name:  name,
		Args:  append([]string(nil), args...),
		Stdin: append([]byte(nil), stdin...),
	})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args, stdin)
	}
	return stdin, nil
}

// Count returns the number of times RunInternal was called.
func (m *InternalRunner) Count() int32 {
	return atomic.LoadInt32(&m.count)
}

// Calls returns a copy of the recorded calls in order.
func (m *InternalRunner) Calls() []InternalCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]InternalCall, len(m.calls))
	copy(result, m.calls)
	return result
}
