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

import "fmt"

// Kind classifies the ways a ringcoro operation can fail.
type Kind int

const (
	// KindAllocationFailed covers every failure in acquiring or mapping
	// the backing memory: overflow while doubling the size, backing
	// object creation, truncation, or either mmap/MapViewOfFileEx call.
	KindAllocationFailed Kind = iota + 1

	// KindAliasingNotEstablished means the post-mapping sentinel check
	// found the two virtual ranges do not alias the same physical bytes.
	KindAliasingNotEstablished

	// KindInsufficientData means a read-side operation asked for more
	// bytes than are currently filled.
	KindInsufficientData

	// KindInsufficientSpace means a write-side operation asked to copy
	// more bytes than are currently free.
	KindInsufficientSpace

	// KindPreconditionViolation means Commit/Consume was called with a
	// length exceeding the corresponding region's size.
	KindPreconditionViolation
)

func (k Kind) String() string {
	switch k {
	case KindAllocationFailed:
		return "allocation failed"
	case KindAliasingNotEstablished:
		return "aliasing not established"
	case KindInsufficientData:
		return "insufficient data"
	case KindInsufficientSpace:
		return "insufficient space"
	case KindPreconditionViolation:
		return "precondition violation"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the operation that failed and, where
// applicable, the underlying cause. All errors returned by this package
// are synchronous at the call site and leave ring state unchanged, except
// for KindAllocationFailed/KindAliasingNotEstablished which are always
// fatal to construction.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ringcoro: %s: %s: %s", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("ringcoro: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ringcoro.ErrInsufficientData) and friends to
// work without callers needing to reach into the Kind field themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrAllocationFailed       = &Error{Kind: KindAllocationFailed}
	ErrAliasingNotEstablished = &Error{Kind: KindAliasingNotEstablished}
	ErrInsufficientData       = &Error{Kind: KindInsufficientData}
	ErrInsufficientSpace      = &Error{Kind: KindInsufficientSpace}
	ErrPreconditionViolation  = &Error{Kind: KindPreconditionViolation}
)

func newError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}
