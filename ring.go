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

import (
	"context"
	"sync"
)

// Ring is the public, goroutine-safe entry point. RingCore and RingCoro
// are deliberately lock-free and assume a single logical execution
// context, per the package's non-goals; Ring adds exactly one mutex
// around every public operation, the same shape the teacher library uses
// for its own Ring type, so that real producer and consumer goroutines
// can drive the same instance concurrently.
type Ring struct {
	mutex sync.Mutex
	core  *RingCoro
}

// NewRing builds a ring of at least size bytes, with the given advisory
// low/high watermarks.
func NewRing(size, lowWatermark, highWatermark uintptr) (*Ring, error) {
	core, err := NewRingCoro(size, lowWatermark, highWatermark)
	if err != nil {
		return nil, err
	}
	return &Ring{core: core}, nil
}

// Close releases the ring's underlying OS resources. Any goroutine still
// parked in WaitNotFull/WaitNotEmpty is left blocked; cancel their
// contexts before closing.
func (r *Ring) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.Close()
}

// Capacity returns the ring's actual byte capacity.
func (r *Ring) Capacity() uintptr {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.Capacity()
}

// Empty reports whether the ring currently holds no data.
func (r *Ring) Empty() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.Empty()
}

// ReadySize returns the number of bytes currently available to read.
func (r *Ring) ReadySize() uintptr {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.ReadySize()
}

// ReadyWriteSize returns the number of bytes currently available to write.
func (r *Ring) ReadyWriteSize() uintptr {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.ReadyWriteSize()
}

// BelowLowWatermark reports whether ReadySize is below the configured low
// watermark. Advisory only.
func (r *Ring) BelowLowWatermark() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.BelowLowWatermark()
}

// BelowHighWatermark reports whether ReadySize is below the configured
// high watermark. Advisory only.
func (r *Ring) BelowHighWatermark() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.BelowHighWatermark()
}

// Readable returns a snapshot copy of every currently-filled byte. Unlike
// RingCore.Readable, this returns a copy rather than a live view into the
// mapping, since the view would otherwise be unsafe to use once the
// mutex is released.
func (r *Ring) Readable() []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return cloneBytes(r.core.Readable())
}

// ReadableN is the bounded form of Readable.
func (r *Ring) ReadableN(max uintptr) []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return cloneBytes(r.core.ReadableN(max))
}

// Writable returns a snapshot copy of every currently-free byte. See
// Readable for why this copies rather than aliasing the mapping.
func (r *Ring) Writable() []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return cloneBytes(r.core.Writable())
}

// WritableN is the bounded form of Writable.
func (r *Ring) WritableN(max uintptr) []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return cloneBytes(r.core.WritableN(max))
}

// Commit releases n previously-read bytes back to the free region.
func (r *Ring) Commit(n uintptr) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.Commit(n)
}

// Consume publishes n previously-written bytes into the filled region.
func (r *Ring) Consume(n uintptr) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.Consume(n)
}

// MemcpyIn copies src into the ring and consumes it in one step.
func (r *Ring) MemcpyIn(src []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.MemcpyIn(src)
}

// MemcpyOut copies len(dst) bytes out of the ring and commits them in one
// step.
func (r *Ring) MemcpyOut(dst []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.MemcpyOut(dst)
}

// PeekByteAt returns the byte at logical offset pos within the filled
// region, without consuming anything.
func (r *Ring) PeekByteAt(pos uintptr) (byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.PeekByteAt(pos)
}

// PeekBytes returns a copy of the first n filled bytes, without consuming
// anything.
func (r *Ring) PeekBytes(n uintptr) ([]byte, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	b, err := r.core.PeekBytes(n)
	if err != nil {
		return nil, err
	}
	return cloneBytes(b), nil
}

// PeekI32 reads the first 4 filled bytes as a native-endian int32,
// without consuming anything.
func (r *Ring) PeekI32() (int32, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.PeekI32()
}

// Reset empties the ring. Callers must ensure no goroutine is parked in
// WaitNotFull/WaitNotEmpty when calling this, per RingCore.Reset.
func (r *Ring) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.core.Reset()
}

// WokenUp returns the total number of waiters this ring has resumed.
func (r *Ring) WokenUp() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.WokenUp()
}

// WokenUpSkipped returns the total number of waiters this ring has
// discarded because their context was cancelled before their turn came
// up.
func (r *Ring) WokenUpSkipped() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.core.WokenUpSkipped()
}

// WaitNotFull blocks until the ring has at least minFree free bytes, or
// ctx is done. The ready check and the queue registration both happen
// under the ring's mutex; only the actual parking happens outside it, so
// a concurrent Commit can never be missed between the check and the
// enqueue.
func (r *Ring) WaitNotFull(ctx context.Context, minFree uintptr) error {
	w, done := r.enqueueNotFull(minFree)
	if done {
		return nil
	}
	return waitOn(ctx, w)
}

// WaitNotEmpty blocks until the ring has at least minReady ready bytes,
// or ctx is done. See WaitNotFull for the locking discipline.
func (r *Ring) WaitNotEmpty(ctx context.Context, minReady uintptr) error {
	w, done := r.enqueueNotEmpty(minReady)
	if done {
		return nil
	}
	return waitOn(ctx, w)
}

func (r *Ring) enqueueNotFull(minFree uintptr) (*waiter, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.core.ReadyWriteSize() >= minFree {
		return nil, true
	}
	w := newWaiter(minFree)
	r.core.waitingNotFull.push(w)
	return w, false
}

func (r *Ring) enqueueNotEmpty(minReady uintptr) (*waiter, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.core.ReadySize() >= minReady {
		return nil, true
	}
	w := newWaiter(minReady)
	r.core.waitingNotEmpty.push(w)
	return w, false
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// vim: foldmethod=marker
