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

//go:build windows

package ringcoro

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mapViewOfFileEx is not exposed by golang.org/x/sys/windows as a typed
// wrapper (only the address-agnostic MapViewOfFile is); we need the
// caller-chosen base address variant to land both halves adjacently, so
// this calls it the way the rest of the ecosystem reaches APIs the
// package hasn't wrapped yet: a lazy-loaded kernel32 proc.
var procMapViewOfFileEx = windows.NewLazySystemDLL("kernel32.dll").NewProc("MapViewOfFileEx")

func mapViewOfFileEx(h windows.Handle, access uint32, offsetHigh, offsetLow uint32, length uintptr, baseAddr uintptr) (uintptr, error) {
	r1, _, callErr := procMapViewOfFileEx.Call(
		uintptr(h), uintptr(access), uintptr(offsetHigh), uintptr(offsetLow), length, baseAddr,
	)
	if r1 == 0 {
		return 0, callErr
	}
	return r1, nil
}

func pageGranularity() uintptr {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return uintptr(info.AllocationGranularity)
}

const probeRetries = 8

func createDoubleMapping(n uintptr) ([]byte, func() error, error) {
	total := uint64(2 * n)
	h, err := windows.CreateFileMapping(
		windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(total>>32), uint32(total&0xffffffff), nil,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("CreateFileMapping: %w", err)
	}
	closeHandle := func() { _ = windows.CloseHandle(h) }

	var base uintptr
	var lastErr error
	for attempt := 0; attempt < probeRetries; attempt++ {
		probe, err := windows.VirtualAlloc(0, 2*n, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
		if err != nil {
			lastErr = fmt.Errorf("VirtualAlloc probe: %w", err)
			break
		}
		if err := windows.VirtualFree(probe, 0, windows.MEM_RELEASE); err != nil {
			lastErr = fmt.Errorf("VirtualFree probe: %w", err)
			break
		}

		p1, err := mapViewOfFileEx(h, windows.FILE_MAP_WRITE|windows.FILE_MAP_READ, 0, 0, n, probe)
		if err != nil {
			lastErr = fmt.Errorf("MapViewOfFileEx low half: %w", err)
			continue
		}
		if p1 != probe {
			_ = windows.UnmapViewOfFile(p1)
			lastErr = fmt.Errorf("MapViewOfFileEx did not honor requested base for low half")
			continue
		}

		p2, err := mapViewOfFileEx(h, windows.FILE_MAP_WRITE|windows.FILE_MAP_READ, 0, 0, n, probe+n)
		if err != nil {
			_ = windows.UnmapViewOfFile(p1)
			lastErr = fmt.Errorf("MapViewOfFileEx high half: %w", err)
			continue
		}
		if p2 != p1+n {
			_ = windows.UnmapViewOfFile(p1)
			_ = windows.UnmapViewOfFile(p2)
			lastErr = fmt.Errorf("MapViewOfFileEx did not honor requested base for high half")
			continue
		}

		base = p1
		lastErr = nil
		break
	}
	if lastErr != nil {
		closeHandle()
		return nil, nil, lastErr
	}

	double := unsafe.Slice((*byte)(unsafe.Pointer(base)), 2*n)
	closer := func() error {
		var firstErr error
		if err := windows.UnmapViewOfFile(base); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := windows.UnmapViewOfFile(base + n); err != nil && firstErr == nil {
			firstErr = err
		}
		closeHandle()
		return firstErr
	}
	return double, closer, nil
}
