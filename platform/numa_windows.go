//go:build windows

// File: platform/numa_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows NUMA topology via kernel32's NUMA node enumeration, grounded
// on the teacher's lazy-DLL call convention for Win32 NUMA APIs.

package platform

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modKernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetNumaHighestNodeNumber = modKernel32.NewProc("GetNumaHighestNodeNumber")
)

// DetectNUMA reports the NUMA node count via GetNumaHighestNodeNumber.
// Current-node detection is not exposed by a single stable Win32 call
// across supported Windows versions, so current node always reports 0
// (informational only, per base spec §6).
func DetectNUMA() NUMAInfo {
	info := defaultNUMAInfo()

	var highest uint32
	ret, _, _ := procGetNumaHighestNodeNumber.Call(uintptr(unsafe.Pointer(&highest)))
	if ret != 0 {
		info.NodeCount = int(highest) + 1
	}
	return info
}
