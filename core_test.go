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
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkCoreInvariants(t *testing.T, r *RingCore) {
	t.Helper()
	require.Equal(t, r.capacity, r.filledSize+r.nonFilledSize)
	require.Less(t, r.filledStart, r.capacity)
	require.Less(t, r.nonFilledStart, r.capacity)
	require.Equal(t, r.nonFilledStart, (r.filledStart+r.filledSize)%r.capacity)
}

func newTestCore(t *testing.T) *RingCore {
	t.Helper()
	r, err := NewRingCore(64, 16, 32)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRingCoreConstructionRoundsToPage(t *testing.T) {
	r := newTestCore(t)
	assert.True(t, r.Capacity() >= 64)
	assert.Equal(t, uintptr(0), r.Capacity()%pageGranularity())
	assert.True(t, r.Empty())
	assert.Equal(t, uintptr(0), r.ReadySize())
	assert.Equal(t, r.Capacity(), r.ReadyWriteSize())
	checkCoreInvariants(t, r)
}

func TestRingCoreCommitConsumeDuality(t *testing.T) {
	r := newTestCore(t)
	before := *r // shallow copy of the value fields for comparison below

	require.NoError(t, r.Consume(10))
	checkCoreInvariants(t, r)
	require.NoError(t, r.Commit(10))
	checkCoreInvariants(t, r)

	assert.Equal(t, before.filledSize, r.filledSize)
	assert.Equal(t, before.nonFilledSize, r.nonFilledSize)
	assert.Equal(t, (before.filledStart+10)%r.capacity, r.filledStart)
	assert.Equal(t, (before.nonFilledStart+10)%r.capacity, r.nonFilledStart)
}

func TestRingCoreCommitConsumePreconditions(t *testing.T) {
	r := newTestCore(t)

	err := r.Commit(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionViolation))

	err = r.Consume(r.Capacity() + 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionViolation))
}

func TestRingCoreMemcpyRoundTrip(t *testing.T) {
	r := newTestCore(t)
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	require.NoError(t, r.MemcpyIn(in))
	checkCoreInvariants(t, r)
	assert.Equal(t, uintptr(len(in)), r.ReadySize())

	out := make([]byte, len(in))
	require.NoError(t, r.MemcpyOut(out))
	checkCoreInvariants(t, r)
	assert.Equal(t, in, out)
	assert.True(t, r.Empty())
}

func TestRingCoreMemcpyInsufficientSpaceAndData(t *testing.T) {
	r := newTestCore(t)

	tooBig := make([]byte, r.Capacity()+1)
	err := r.MemcpyIn(tooBig)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientSpace))

	err = r.MemcpyOut(make([]byte, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestRingCorePeekI32PingPong(t *testing.T) {
	r := newTestCore(t)
	require.NoError(t, r.MemcpyIn([]byte{1, 2, 3, 4}))

	v, err := r.PeekI32()
	require.NoError(t, err)

	want := int32(binary.NativeEndian.Uint32([]byte{1, 2, 3, 4}))
	assert.Equal(t, want, v)
	assert.Equal(t, uintptr(4), r.ReadySize(), "peek must not consume")

	out := make([]byte, 4)
	require.NoError(t, r.MemcpyOut(out))
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
	assert.True(t, r.Empty())
}

func TestRingCorePeekBytesAndByteAt(t *testing.T) {
	r := newTestCore(t)
	require.NoError(t, r.MemcpyIn([]byte{9, 8, 7}))

	b, err := r.PeekBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8}, b)

	one, err := r.PeekByteAt(2)
	require.NoError(t, err)
	assert.Equal(t, byte(7), one)

	_, err = r.PeekByteAt(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = r.PeekBytes(4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestRingCoreWrapWithContiguity(t *testing.T) {
	r := newTestCore(t)
	capacity := r.Capacity()

	require.NoError(t, r.Consume(capacity-2))
	require.NoError(t, r.Commit(capacity-2))
	require.Equal(t, capacity-2, r.filledStart)

	require.NoError(t, r.MemcpyIn([]byte{0xAA, 0xBB, 0xCC, 0xDD}))
	readable := r.Readable()
	require.Len(t, readable, 4)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, readable)
}

func TestRingCoreWritingExactCapacity(t *testing.T) {
	r := newTestCore(t)
	full := make([]byte, r.Capacity())
	for i := range full {
		full[i] = byte(i)
	}
	require.NoError(t, r.MemcpyIn(full))
	assert.False(t, r.BelowHighWatermark(), "a full ring must be at or above both watermarks")
	assert.Equal(t, uintptr(0), r.ReadyWriteSize())

	out := make([]byte, r.Capacity())
	require.NoError(t, r.MemcpyOut(out))
	assert.Equal(t, full, out)
}

func TestRingCoreWatermarksAreAdvisoryOnly(t *testing.T) {
	r := newTestCore(t)
	assert.True(t, r.BelowLowWatermark())
	assert.True(t, r.BelowHighWatermark())

	// Filling past both watermarks must not block or error.
	require.NoError(t, r.MemcpyIn(make([]byte, 40)))
	assert.False(t, r.BelowLowWatermark())
	assert.False(t, r.BelowHighWatermark())
}

func TestRingCoreReset(t *testing.T) {
	r := newTestCore(t)
	require.NoError(t, r.MemcpyIn([]byte{1, 2, 3}))
	r.Reset()
	assert.True(t, r.Empty())
	assert.Equal(t, uintptr(0), r.filledStart)
	assert.Equal(t, uintptr(0), r.nonFilledStart)
	assert.Equal(t, r.Capacity(), r.ReadyWriteSize())
}
