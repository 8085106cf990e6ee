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

import "context"

// RingCoro extends RingCore with two FIFO queues of suspended producers
// and consumers. Committing wakes producers waiting for free space;
// consuming wakes consumers waiting for data. Both wake loops run
// synchronously, inline in Commit/Consume, exactly once per cursor move.
type RingCoro struct {
	*RingCore

	waitingNotFull  waiterQueue
	waitingNotEmpty waiterQueue

	wokenUp        uint64
	wokenUpSkipped uint64
}

// NewRingCoro builds an empty ring and wires its own wake loops as the
// RingCore's cursor-movement hooks.
func NewRingCoro(size, lowWatermark, highWatermark uintptr) (*RingCoro, error) {
	core, err := NewRingCore(size, lowWatermark, highWatermark)
	if err != nil {
		return nil, err
	}
	c := &RingCoro{RingCore: core}
	core.SetHooks(c)
	return c, nil
}

// OnCommit implements Hooks: committing frees space, so it wakes
// producers waiting on ReadyWriteSize.
func (c *RingCoro) OnCommit() {
	c.wake(&c.waitingNotFull, c.ReadyWriteSize)
}

// OnConsume implements Hooks: consuming adds data, so it wakes consumers
// waiting on ReadySize.
func (c *RingCoro) OnConsume() {
	c.wake(&c.waitingNotEmpty, c.ReadySize)
}

// wake implements the protocol from the package design notes: walk the
// front of the queue, skipping and discarding dead (cancelled) waiters,
// resuming every live waiter whose threshold is already met, and
// stopping the instant the head cannot yet proceed — a live head is never
// skipped to serve a later, smaller waiter (invariant 7).
func (c *RingCoro) wake(q *waiterQueue, ready func() uintptr) {
	for {
		w := q.front()
		if w == nil {
			return
		}
		if !w.alive() {
			q.popFront()
			c.wokenUpSkipped++
			continue
		}
		if w.minSize > ready() {
			return
		}
		q.popFront()
		if w.fire() {
			c.wokenUp++
		} else {
			// Cancelled between the alive() check and here; still a skip.
			c.wokenUpSkipped++
		}
	}
}

// WokenUp returns the total number of waiters this ring has resumed.
func (c *RingCoro) WokenUp() uint64 { return c.wokenUp }

// WokenUpSkipped returns the total number of waiters this ring has
// discarded because their owning task was gone by the time their turn
// came up.
func (c *RingCoro) WokenUpSkipped() uint64 { return c.wokenUpSkipped }

// WaitNotFull blocks the calling goroutine until ReadyWriteSize() >=
// minFree, or until ctx is done. This is the three-phase awaitable
// contract from the package's collaborator model realized as a single
// blocking call: the ready check happens before any queue is touched, the
// suspension is the goroutine parking on a channel receive, and the
// resumption is that channel being closed from inside a later Commit.
//
// Cancelling ctx is this package's translation of "the owning task was
// destroyed before resumption": the waiter is marked dead and silently
// dropped by the next wake loop instead of ever being resumed.
func (c *RingCoro) WaitNotFull(ctx context.Context, minFree uintptr) error {
	if c.ReadyWriteSize() >= minFree {
		return nil
	}
	w := newWaiter(minFree)
	c.waitingNotFull.push(w)
	return waitOn(ctx, w)
}

// WaitNotEmpty blocks the calling goroutine until ReadySize() >=
// minReady, or until ctx is done. See WaitNotFull for the suspend/resume
// contract this implements.
func (c *RingCoro) WaitNotEmpty(ctx context.Context, minReady uintptr) error {
	if c.ReadySize() >= minReady {
		return nil
	}
	w := newWaiter(minReady)
	c.waitingNotEmpty.push(w)
	return waitOn(ctx, w)
}

func waitOn(ctx context.Context, w *waiter) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		if !w.cancel() {
			// It fired in the same instant the context was cancelled;
			// honor the resumption rather than report cancellation.
			return nil
		}
		return ctx.Err()
	}
}
