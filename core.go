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

import "encoding/binary"

// Hooks lets a wrapper type (RingCoro) observe cursor movement without
// RingCore needing to know anything about waiters. OnCommit runs after
// every successful Commit, OnConsume after every successful Consume, in
// both cases only when n > 0: a zero-length call moves no cursor and runs
// no hook.
type Hooks interface {
	OnCommit()
	OnConsume()
}

type noopHooks struct{}

func (noopHooks) OnCommit()  {}
func (noopHooks) OnConsume() {}

// RingCore is the circular byte queue built on top of a LinearMap: two
// cursors and two sizes that always satisfy filledSize+nonFilledSize ==
// capacity. Every read/write surface it exposes is a single contiguous
// slice, never a split pair, because the underlying LinearMap makes every
// logical window addressable as one range.
//
// RingCore carries no locks and assumes a single logical execution
// context drives it; see the package doc comment.
type RingCore struct {
	mem *LinearMap

	capacity uintptr

	filledStart    uintptr
	filledSize     uintptr
	nonFilledStart uintptr
	nonFilledSize  uintptr

	lowWatermark  uintptr
	highWatermark uintptr

	hooks Hooks
}

// NewRingCore builds a LinearMap of at least size bytes and an empty ring
// over it. Capacity may exceed size once rounded up to the allocation
// granularity. low/highWatermark are stored as-is and never gate any
// operation; they exist purely for BelowLowWatermark/BelowHighWatermark.
func NewRingCore(size, lowWatermark, highWatermark uintptr) (*RingCore, error) {
	mem, err := NewLinearMap(size)
	if err != nil {
		return nil, err
	}
	return &RingCore{
		mem:           mem,
		capacity:      mem.Len(),
		nonFilledSize: mem.Len(),
		lowWatermark:  lowWatermark,
		highWatermark: highWatermark,
		hooks:         noopHooks{},
	}, nil
}

// SetHooks installs the cursor-movement observer. A nil hooks value is
// replaced by a no-op implementation.
func (r *RingCore) SetHooks(h Hooks) {
	if h == nil {
		h = noopHooks{}
	}
	r.hooks = h
}

// Capacity returns the ring's actual byte capacity, rounded up from the
// requested size to the system's allocation granularity.
func (r *RingCore) Capacity() uintptr { return r.capacity }

// Close releases the underlying LinearMap's OS resources.
func (r *RingCore) Close() error { return r.mem.Close() }

// Empty reports whether the filled region is empty.
func (r *RingCore) Empty() bool { return r.filledSize == 0 }

// ReadySize returns the number of bytes currently filled (readable).
func (r *RingCore) ReadySize() uintptr { return r.filledSize }

// ReadyWriteSize returns the number of bytes currently free (writable).
func (r *RingCore) ReadyWriteSize() uintptr { return r.nonFilledSize }

// BelowLowWatermark reports whether ReadySize is below the configured low
// watermark. Advisory only; RingCore never acts on it.
func (r *RingCore) BelowLowWatermark() bool { return r.filledSize < r.lowWatermark }

// BelowHighWatermark reports whether ReadySize is below the configured
// high watermark. Advisory only; RingCore never acts on it.
func (r *RingCore) BelowHighWatermark() bool { return r.filledSize < r.highWatermark }

// Readable returns a contiguous view of every currently-filled byte.
// The slice is only valid until the next Commit.
func (r *RingCore) Readable() []byte { return r.ReadableN(r.filledSize) }

// ReadableN returns a contiguous view of up to max currently-filled
// bytes, truncating if fewer are available. The slice is only valid
// until the next Commit.
func (r *RingCore) ReadableN(max uintptr) []byte {
	n := r.filledSize
	if max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	return r.mem.Slice(r.filledStart, n)
}

// Writable returns a contiguous view of every currently-free byte. The
// slice is only valid until the next Consume.
func (r *RingCore) Writable() []byte { return r.WritableN(r.nonFilledSize) }

// WritableN returns a contiguous view of up to max currently-free bytes,
// truncating if fewer are available. The slice is only valid until the
// next Consume.
func (r *RingCore) WritableN(max uintptr) []byte {
	n := r.nonFilledSize
	if max < n {
		n = max
	}
	if n == 0 {
		return nil
	}
	return r.mem.Slice(r.nonFilledStart, n)
}

// Commit marks the first n bytes of the filled region as free again: the
// reader's "I am done with n bytes". It requires n <= ReadySize. Commit(0)
// is a no-op.
func (r *RingCore) Commit(n uintptr) error {
	if n > r.filledSize {
		return newError(KindPreconditionViolation, "Commit", nil)
	}
	if n == 0 {
		return nil
	}
	r.nonFilledSize += n
	r.filledSize -= n
	r.filledStart = (r.filledStart + n) % r.capacity
	r.hooks.OnCommit()
	return nil
}

// Consume marks the first n bytes of the free region as filled: the
// writer's "I have written n bytes". It requires n <= ReadyWriteSize.
// Consume(0) is a no-op.
func (r *RingCore) Consume(n uintptr) error {
	if n > r.nonFilledSize {
		return newError(KindPreconditionViolation, "Consume", nil)
	}
	if n == 0 {
		return nil
	}
	r.filledSize += n
	r.nonFilledSize -= n
	r.nonFilledStart = (r.nonFilledStart + n) % r.capacity
	r.hooks.OnConsume()
	return nil
}

// MemcpyIn copies all of src into the writable region and consumes it in
// one step. It is always a single contiguous copy, never split, because
// the doubled mapping makes the writable region contiguous regardless of
// where it sits relative to the physical wrap point.
func (r *RingCore) MemcpyIn(src []byte) error {
	n := uintptr(len(src))
	if n > r.nonFilledSize {
		return newError(KindInsufficientSpace, "MemcpyIn", nil)
	}
	copy(r.mem.Slice(r.nonFilledStart, n), src)
	return r.Consume(n)
}

// MemcpyOut copies len(dst) bytes out of the filled region into dst and
// commits them in one step.
func (r *RingCore) MemcpyOut(dst []byte) error {
	n := uintptr(len(dst))
	if n > r.filledSize {
		return newError(KindInsufficientData, "MemcpyOut", nil)
	}
	copy(dst, r.mem.Slice(r.filledStart, n))
	return r.Commit(n)
}

// PeekByteAt returns the byte at logical offset pos within the filled
// region, without consuming anything.
func (r *RingCore) PeekByteAt(pos uintptr) (byte, error) {
	if pos >= r.filledSize {
		return 0, newError(KindInsufficientData, "PeekByteAt", nil)
	}
	return r.mem.Slice(r.filledStart, r.filledSize)[pos], nil
}

// PeekBytes returns a contiguous view of the first n filled bytes,
// without consuming anything. Always contiguous, per invariant 5.
func (r *RingCore) PeekBytes(n uintptr) ([]byte, error) {
	if n > r.filledSize {
		return nil, newError(KindInsufficientData, "PeekBytes", nil)
	}
	return r.mem.Slice(r.filledStart, n), nil
}

// PeekI32 reads the 4 bytes at the start of the filled region as a
// native-endian int32, without consuming anything. It requires at least
// 4 filled bytes.
//
// The original implementation this package is modeled on gated a
// "contiguous fast path" on filledSize+4 < capacity, a condition that was
// backwards (it should have tested whether the 4 bytes crossed the
// physical wrap) and in any case unnecessary: the doubled mapping makes
// every 4-byte window contiguous regardless of wrap position, so there is
// only one path.
func (r *RingCore) PeekI32() (int32, error) {
	b, err := r.PeekBytes(4)
	if err != nil {
		return 0, newError(KindInsufficientData, "PeekI32", nil)
	}
	return int32(binary.NativeEndian.Uint32(b)), nil
}

// Reset empties the ring without touching any waiter queues. Callers
// must quiesce any suspended producer/consumer before calling Reset.
func (r *RingCore) Reset() {
	r.filledStart = 0
	r.filledSize = 0
	r.nonFilledStart = 0
	r.nonFilledSize = r.capacity
}
