// {{{ Copyright (c) ringcoro authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package ringcoro

import "sync/atomic"

// waiterState tracks a waiter through its three possible outcomes. A
// waiter starts pending; it ends either fired (the wake loop resumed it)
// or cancelled (its owning task went away first). Only a pending waiter
// may transition; the transition is a single atomic compare-and-swap so
// a concurrent cancel and a concurrent wake can never both "win".
type waiterState int32

const (
	waiterPending waiterState = iota
	waiterFired
	waiterCancelled
)

// waiter is the liveness-witnessed reference the ring holds for a
// suspended task, per the package's ownership model: the ring never keeps
// a cancelled task alive, and a dropped task's waiter entry is silently
// skipped rather than dereferenced.
type waiter struct {
	minSize uintptr
	state   atomic.Int32
	done    chan struct{}
}

func newWaiter(minSize uintptr) *waiter {
	return &waiter{minSize: minSize, done: make(chan struct{})}
}

// alive reports whether the waiter is still pending, i.e. whether its
// liveness witness has not yet been invalidated by cancellation or a
// prior fire.
func (w *waiter) alive() bool {
	return waiterState(w.state.Load()) == waiterPending
}

// fire attempts to resolve the waiter as resumed. It returns false if the
// waiter was already cancelled (or already fired), in which case the
// caller must not count it as a wake.
func (w *waiter) fire() bool {
	if !w.state.CompareAndSwap(int32(waiterPending), int32(waiterFired)) {
		return false
	}
	close(w.done)
	return true
}

// cancel attempts to resolve the waiter as cancelled, e.g. because its
// owning task was destroyed before being resumed. It returns false if the
// waiter had already fired, in which case the caller already observed (or
// is about to observe) resumption and must not treat it as a no-op.
func (w *waiter) cancel() bool {
	return w.state.CompareAndSwap(int32(waiterPending), int32(waiterCancelled))
}

// waiterQueue is a FIFO of waiters awaiting a single threshold kind (not
// full, or not empty). Push/pop preserve enqueue order; popFront never
// skips a live head to serve a later, smaller entry (invariant 7).
type waiterQueue struct {
	items []*waiter
}

func (q *waiterQueue) push(w *waiter) {
	q.items = append(q.items, w)
}

func (q *waiterQueue) front() *waiter {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *waiterQueue) popFront() {
	if len(q.items) == 0 {
		return
	}
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil // let the backing array go, rather than grow unbounded
	}
}
