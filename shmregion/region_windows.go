//go:build windows

// File: shmregion/region_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows shared-memory regions backed by named file-mapping objects,
// grounded on _examples/xll-gen-shm/go/platform_windows.go's
// CreateFileMappingW / MapViewOfFile / OpenFileMappingW convention.

package shmregion

import (
	"syscall"
	"unsafe"

	"github.com/momentics/shm-sensor-bus/apperr"
)

var (
	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procCreateFileMappingW = kernel32.NewProc("CreateFileMappingW")
	procOpenFileMappingW   = kernel32.NewProc("OpenFileMappingW")
	procMapViewOfFile      = kernel32.NewProc("MapViewOfFile")
	procUnmapViewOfFile    = kernel32.NewProc("UnmapViewOfFile")
	procCloseHandle        = kernel32.NewProc("CloseHandle")
)

const fileMapAllAccess = 0xF001F

// Create creates a named file-mapping object of exactly size bytes.
// Huge-page backing is not attempted on Windows (SeLockMemoryPrivilege
// is required and unavailable to most hosting processes); the flag
// always reports false here, which is a legitimate "unavailable,
// fell back transparently" per base spec §9.
func Create(name string, size int, hugePages bool) (*Region, error) {
	winName, err := syscall.UTF16PtrFromString(`Local\` + backingName(name))
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "encode region name %q: %v", name, err)
	}

	hMap, _, callErr := procCreateFileMappingW.Call(
		uintptr(syscall.InvalidHandle),
		0,
		uintptr(syscall.PAGE_READWRITE),
		0,
		uintptr(size),
		uintptr(unsafe.Pointer(winName)),
	)
	if hMap == 0 {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "CreateFileMappingW %q: %v", name, callErr)
	}

	addr, _, callErr := procMapViewOfFile.Call(hMap, uintptr(fileMapAllAccess), 0, 0, uintptr(size))
	if addr == 0 {
		procCloseHandle.Call(hMap)
		return nil, apperr.Newf(apperr.CodeSetupFailure, "MapViewOfFile %q: %v", name, callErr)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return &Region{
		name: name,
		data: data,
		close: func() error {
			procUnmapViewOfFile.Call(addr)
			procCloseHandle.Call(hMap)
			return nil
		},
		// Named file-mapping objects are reference-counted by the OS
		// and vanish once the last handle closes; there is no
		// separate unlink step to perform.
		unlink: func() error { return nil },
	}, nil
}

// Open opens an existing named region for read-write access.
func Open(name string) (*Region, error) {
	return open(name)
}

// OpenReadOnly opens an existing named region for read-only access.
// Windows file-mapping views do not distinguish read-only at the
// handle-open granularity this package needs; callers are expected
// not to write through a reader-owned Region.
func OpenReadOnly(name string) (*Region, error) {
	return open(name)
}

func open(name string) (*Region, error) {
	winName, err := syscall.UTF16PtrFromString(`Local\` + backingName(name))
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "encode region name %q: %v", name, err)
	}

	hMap, _, callErr := procOpenFileMappingW.Call(uintptr(fileMapAllAccess), 0, uintptr(unsafe.Pointer(winName)))
	if hMap == 0 {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "OpenFileMappingW %q: %v", name, callErr)
	}

	addr, _, callErr := procMapViewOfFile.Call(hMap, uintptr(fileMapAllAccess), 0, 0, 0)
	if addr == 0 {
		procCloseHandle.Call(hMap)
		return nil, apperr.Newf(apperr.CodeSetupFailure, "MapViewOfFile %q: %v", name, callErr)
	}

	// The view is exposed as a fixed maxRegionProbeSize-byte slice
	// whatever the mapping's real size, and Size() reports that value;
	// callers index Bytes() only within the layout they already know.
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), maxRegionProbeSize)
	return &Region{
		name: name,
		data: data,
		close: func() error {
			procUnmapViewOfFile.Call(addr)
			procCloseHandle.Call(hMap)
			return nil
		},
	}, nil
}

const maxRegionProbeSize = 64 << 20
