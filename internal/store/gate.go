package store

import "context"

// writeGate is the store's mutual-exclusion primitive: at most one
// mutation is applying at any instant.
//
// Built on a capacity-1 channel rather than sync.Mutex so a waiter can
// abandon the wait when its context is cancelled, without affecting
// other waiters or the current holder. The runtime wakes blocked channel
// senders in arrival order, which gives first-come-first-served
// acquisition with no priority scheme.
type writeGate struct {
	slot chan struct{}
}

func newWriteGate() *writeGate {
	return &writeGate{slot: make(chan struct{}, 1)}
}

// Acquire blocks until the gate is free or ctx is cancelled. There is no
// timeout of its own; cancellation is entirely the caller's.
func (g *writeGate) Acquire(ctx context.Context) error {
	// An already-cancelled context must never win the race against a
	// free slot.
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the gate. Must be called exactly once per successful
// Acquire; panics on a release without a matching acquire.
func (g *writeGate) Release() {
	select {
	case <-g.slot:
	default:
		panic("store: release of unheld write gate")
	}
}
