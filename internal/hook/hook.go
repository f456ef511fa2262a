// Package hook wraps host method slots with before/after interception.
//
// A host exposes the methods a plugin may intercept as Method values. Wrap
// replaces the function held by a slot with a wrapper that runs the hooks
// around the original call. Wrapping the same slot twice is a no-op, so a
// plugin that is activated repeatedly never stacks wrappers.
package hook

import "sync"

// Call describes an intercepted invocation.
type Call[A any] struct {
	Args A
}

// BeforeCall is handed to a Before hook. Calling Override suppresses the
// original method; the hook's return value becomes the call result.
type BeforeCall[A any] struct {
	Call[A]
	overridden bool
}

// Override marks the call as handled by the hook. Only the first call matters.
func (c *BeforeCall[A]) Override() {
	c.overridden = true
}

// Overridden reports whether Override was called.
func (c *BeforeCall[A]) Overridden() bool {
	return c.overridden
}

// Before runs ahead of the original method.
type Before[A, R any] func(c *BeforeCall[A]) R

// After runs once a result is known. Its return value is discarded.
type After[A, R any] func(result R, c *Call[A]) R

// Method is a named, interceptable method slot.
type Method[A, R any] struct {
	name   string
	mu     sync.RWMutex
	fn     func(A) R
	hooked bool
}

// New creates a slot holding fn.
func New[A, R any](name string, fn func(A) R) *Method[A, R] {
	return &Method[A, R]{name: name, fn: fn}
}

// Name returns the slot name.
func (m *Method[A, R]) Name() string {
	return m.name
}

// Hooked reports whether the slot already carries a wrapper.
func (m *Method[A, R]) Hooked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hooked
}

// Call invokes whatever function the slot currently holds.
func (m *Method[A, R]) Call(args A) R {
	m.mu.RLock()
	fn := m.fn
	m.mu.RUnlock()
	return fn(args)
}

// Wrap installs before and after around the slot's current function.
// Either hook may be nil. It returns false when the slot was already wrapped
// and nothing changed.
//
// Panics raised by the original function or by a hook are not recovered.
func Wrap[A, R any](m *Method[A, R], before Before[A, R], after After[A, R]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hooked {
		return false
	}

	origin := m.fn
	m.fn = func(args A) R {
		var ret R
		bc := &BeforeCall[A]{Call: Call[A]{Args: args}}
		if before != nil {
			ret = before(bc)
		}
		if !bc.overridden {
			ret = origin(args)
		}

		if after != nil {
			after(ret, &bc.Call)
		}
		return ret
	}
	m.hooked = true

	return true
}
