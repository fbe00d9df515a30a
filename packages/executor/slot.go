package executor

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNoActiveRequest is returned when cancelling an empty slot.
	ErrNoActiveRequest = errors.New("no active request")

	// Cancellation causes recorded on a handle's context.
	ErrCancelled  = errors.New("request cancelled")
	ErrSuperseded = errors.New("request superseded by a newer request")
	ErrReleased   = errors.New("request finished")
	ErrShutdown   = errors.New("executor shut down")
)

// Handle is the cancellation token of one execution.
type Handle struct {
	seq    uint64
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// Seq is the handle's position in the slot's acquisition order.
func (h *Handle) Seq() uint64 {
	return h.seq
}

// Context is cancelled when the handle is cancelled, superseded or released.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Done is closed once the handle is no longer valid.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Cause reports why the handle was invalidated, or nil while it is valid.
func (h *Handle) Cause() error {
	return context.Cause(h.ctx)
}

// Cancelled reports whether the handle has been invalidated.
func (h *Handle) Cancelled() bool {
	return h.ctx.Err() != nil
}

// Slot holds at most one active Handle. Acquire, Release and CancelCurrent
// share a single critical section.
type Slot struct {
	mu      sync.Mutex
	current *Handle
	seq     uint64
	closed  bool
}

func NewSlot() *Slot {
	return &Slot{}
}

// Acquire cancels the current occupant, if any, and installs a fresh handle
// derived from parent. It never waits for the previous execution to finish.
func (s *Slot) Acquire(parent context.Context) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The previous occupant is invalidated before the new handle exists.
	if s.current != nil {
		s.current.cancel(ErrSuperseded)
		s.current = nil
	}

	ctx, cancel := context.WithCancelCause(parent)
	s.seq++
	h := &Handle{seq: s.seq, ctx: ctx, cancel: cancel}

	if s.closed {
		cancel(ErrShutdown)
		return h
	}

	s.current = h
	return h
}

// Release clears the slot if h still occupies it and reports whether it did.
// h is invalidated either way.
func (s *Slot) Release(h *Handle) bool {
	if h == nil {
		return false
	}

	s.mu.Lock()
	cleared := s.current == h
	if cleared {
		s.current = nil
	}
	s.mu.Unlock()

	h.cancel(ErrReleased)
	return cleared
}

// CancelCurrent cancels and clears the current occupant.
func (s *Slot) CancelCurrent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNoActiveRequest
	}
	s.current.cancel(ErrCancelled)
	s.current = nil
	return nil
}

// Current returns the occupant, or nil when the slot is empty.
func (s *Slot) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slot) Active() bool {
	return s.Current() != nil
}

// Close cancels any outstanding handle. Handles acquired afterwards are
// born cancelled.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.current != nil {
		s.current.cancel(ErrShutdown)
		s.current = nil
	}
}
