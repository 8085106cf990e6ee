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

//go:build linux

package ringcoro

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func pageGranularity() uintptr {
	return uintptr(unix.Getpagesize())
}

// probeRetries bounds the "reserve then release, hope nobody steals it"
// dance described in the package's design notes. A handful of attempts is
// enough to ride out a concurrent mapping elsewhere in the process; it is
// not a correctness mechanism, just a way to not fail on the first
// unlucky race.
const probeRetries = 8

func createDoubleMapping(n uintptr) ([]byte, func() error, error) {
	fd, err := unix.MemfdCreate("ringcoro", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("memfd_create: %w", err)
	}
	closeFd := func() { _ = unix.Close(fd) }

	if err := unix.Ftruncate(fd, int64(n)); err != nil {
		closeFd()
		return nil, nil, fmt.Errorf("ftruncate: %w", err)
	}

	var base uintptr
	var lastErr error
	for attempt := 0; attempt < probeRetries; attempt++ {
		probe, errno := mmapRaw(0, 2*n, unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE, -1, 0)
		if errno != nil {
			lastErr = fmt.Errorf("mmap reserve: %w", errno)
			break
		}
		if err := munmapRaw(probe, 2*n); err != nil {
			lastErr = fmt.Errorf("munmap reserve: %w", err)
			break
		}

		p1, errno := mmapRaw(probe, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED, fd, 0)
		if errno != nil {
			lastErr = fmt.Errorf("mmap fixed low half: %w", errno)
			continue
		}
		if p1 != probe {
			_ = munmapRaw(p1, n)
			lastErr = fmt.Errorf("mmap did not honor MAP_FIXED for low half")
			continue
		}

		p2, errno := mmapRaw(probe+n, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_FIXED, fd, 0)
		if errno != nil {
			_ = munmapRaw(p1, n)
			lastErr = fmt.Errorf("mmap fixed high half: %w", errno)
			continue
		}
		if p2 != p1+n {
			_ = munmapRaw(p1, n)
			_ = munmapRaw(p2, n)
			lastErr = fmt.Errorf("mmap did not honor MAP_FIXED for high half")
			continue
		}

		base = p1
		lastErr = nil
		break
	}
	if lastErr != nil {
		closeFd()
		return nil, nil, lastErr
	}

	double := unsafe.Slice((*byte)(unsafe.Pointer(base)), 2*n)
	closer := func() error {
		var firstErr error
		if err := munmapRaw(base, n); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := munmapRaw(base+n, n); err != nil && firstErr == nil {
			firstErr = err
		}
		closeFd()
		return firstErr
	}
	return double, closer, nil
}

func mmapRaw(addr, length uintptr, prot, flags, fd int, offset int64) (uintptr, error) {
	r0, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, length, uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return 0, errno
	}
	return r0, nil
}

func munmapRaw(addr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
