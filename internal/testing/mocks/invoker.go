// Package mocks provides shared test doubles for cvutie packages.
package mocks

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/cvutie/cvutie/internal/process"
)

// Invoker implements process.Invoker for testing.
// Use NewInvoker() to create instances with a fluent builder API.
type Invoker struct {
	// InvokeFunc is called by Invoke. If nil, Invoke returns a zero-exit
	// result whose stdout echoes the spec's stdin.
	InvokeFunc func(ctx context.Context, spec process.Spec) (*process.Result, error)

	// Invocation tracking (thread-safe)
	count int32
	mu    sync.Mutex
	specs []process.Spec
}

// NewInvoker creates a mock invoker with the default echo behaviour.
func NewInvoker() *Invoker {
	return &Invoker{}
}

// WithInvokeFunc sets the function called by Invoke.
func (m *Invoker) WithInvokeFunc(fn func(ctx context.Context, spec process.Spec) (*process.Result, error)) *Invoker {
	m.InvokeFunc = fn
	return m
}

// WithResult makes every invocation return res and err.
func (m *Invoker) WithResult(res *process.Result, err error) *Invoker {
	m.InvokeFunc = func(context.Context, process.Spec) (*process.Result, error) {
		return res, err
	}
	return m
}

// Invoke implements process.Invoker.
func (m *Invoker) Invoke(ctx context.Context, spec process.Spec) (*process.Result, error) {
	atomic.AddInt32(&m.count, 1)
	m.mu.Lock()
	m.specs = append(m.specs, spec)
	m.mu.Unlock()

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, spec)
	}
	var in []byte
	if spec.Stdin != nil {
		data, err := io.ReadAll(spec.Stdin)
		if err != nil {
			return nil, err
		}
		in = data
	}
	return &process.Result{Stdout: in}, nil
}

// Test inspection methods

// Count returns the number of times Invoke was called.
func (m *Invoker) Count() int32 {
	return atomic.LoadInt32(&m.count)
}

// Specs returns a copy of every spec passed to Invoke, in call order.
func (m *Invoker) Specs() []process.Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]process.Spec, len(m.specs))
	copy(result, m.specs)
	return result
}

// Reset clears invocation tracking state.
func (m *Invoker) Reset() {
	atomic.StoreInt32(&m.count, 0)
	m.mu.Lock()
	m.specs = nil
	m.mu.Unlock()
}
