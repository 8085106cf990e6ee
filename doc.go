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

// Package ringcoro implements a magic-mapped contiguous ring buffer: a
// fixed-capacity byte queue backed by a single physical region mapped twice
// into adjacent virtual pages, so that the filled and free regions are
// always addressable as one contiguous slice even when they straddle the
// physical wrap point.
//
// On top of that linear view (RingCore), RingCoro adds cooperative
// wake-up: a producer can wait until enough free space exists, a consumer
// can wait until enough data has arrived, and each is resumed in FIFO
// order exactly when progress becomes possible. RingCore and RingCoro hold
// no locks and drive no scheduler; they are meant to be driven by a single
// logical execution context (one goroutine, or one cooperatively-scheduled
// task at a time), matching the single-producer/single-consumer model
// described in the package's design notes. Ring wraps RingCoro with a
// single mutex around every operation so that separate producer and
// consumer goroutines can share one instance.
package ringcoro

// vim: foldmethod=marker
