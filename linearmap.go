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

// sentinelByte is written to offset 0 and must read back at offset
// length after construction; it proves the two virtual ranges alias the
// same physical memory (invariant 5).
const sentinelByte = 0xA5

// LinearMap owns a physically backed memory region of Len() bytes,
// published twice: once at Slice(0, Len()) and again immediately
// following it, so that base+k and base+k+Len() always read and write
// the same physical byte. It owns every OS resource involved (backing
// file/handle, both virtual mappings) and releases them all on Close.
//
// LinearMap is the lowest layer described in the package's design notes;
// RingCore is the only intended caller.
type LinearMap struct {
	length  uintptr
	double  []byte // length 2*length, both halves alias the same memory
	closer  func() error
	closed  bool
}

// createDoubleMapping is implemented per-OS (linearmap_linux.go,
// linearmap_windows.go). It returns a byte slice of length 2*n whose two
// halves alias the same n physical bytes, plus a closer that releases
// every OS resource it acquired.
//
// The "reserve a 2n virtual range, release it, then remap into it" dance
// is inherently racy: another allocation can steal the freed range before
// the fixed remaps land. Implementations retry internally rather than
// failing the first time, per the package's design notes.
//
// pageGranularity returns the system's allocation granularity: page size
// on POSIX, but the (typically larger) allocation granularity on Windows,
// since MapViewOfFileEx aligns to that rather than the hardware page
// size. Both are implemented per-OS, selected by build tag.

// NewLinearMap acquires a region of at least minBytes, rounded up to the
// system's allocation granularity, and maps it twice into adjacent
// virtual ranges. It fails with KindAllocationFailed on overflow
// (2*n < n), backing-object creation failure, truncation failure, or
// either mapping call failing, and with KindAliasingNotEstablished if the
// post-mapping sentinel check does not observe the same byte at offset 0
// and offset n.
func NewLinearMap(minBytes uintptr) (*LinearMap, error) {
	page := pageGranularity()
	if page == 0 {
		page = 4096
	}
	n := minBytes
	if rem := n % page; rem != 0 {
		n += page - rem
	}
	if n == 0 {
		n = page
	}
	if 2*n < n {
		return nil, newError(KindAllocationFailed, "NewLinearMap", errOverflow)
	}

	double, closer, err := createDoubleMapping(n)
	if err != nil {
		return nil, newError(KindAllocationFailed, "NewLinearMap", err)
	}

	orig := double[0]
	double[0] = sentinelByte
	ok := double[n] == sentinelByte
	double[0] = orig
	if !ok {
		_ = closer()
		return nil, newError(KindAliasingNotEstablished, "NewLinearMap", nil)
	}

	return &LinearMap{length: n, double: double, closer: closer}, nil
}

// Len returns the mapped region's length in bytes: a positive multiple of
// the system allocation granularity, which may exceed the requested size.
func (m *LinearMap) Len() uintptr { return m.length }

// Slice returns the off..off+n byte range of the doubled mapping. Because
// the same physical bytes are visible at both [0,length) and
// [length,2*length), any off in [0,length) with off+n <= 2*length is a
// valid, contiguous view regardless of whether it straddles the physical
// wrap point.
func (m *LinearMap) Slice(off, n uintptr) []byte {
	return m.double[off : off+n]
}

// Close unmaps both virtual ranges and releases the backing object.
// Destruction is best-effort: it always runs every release step even if
// an earlier one failed, and returns the first error encountered, if any.
func (m *LinearMap) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.closer()
}

var errOverflow = errSentinel("ringcoro: requested size overflows when doubled")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
