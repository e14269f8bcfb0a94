//go:build windows

// File: platform/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows CPU affinity, grounded on the teacher's affinity/affinity_windows.go
// SetThreadAffinityMask convention.

package platform

import (
	"errors"
	"runtime"
	"syscall"
)

// PinCurrentThread binds the calling OS thread to the given logical
// CPU using SetThreadAffinityMask.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 || cpuID >= 64 {
		return errors.New("platform: cpu index out of range")
	}

	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	procSetThreadAffinityMask := kernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread := kernel32.NewProc("GetCurrentThread")

	hThread, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << uint(cpuID)
	ret, _, callErr := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return callErr
	}
	return nil
}

// CurrentCPU returns the logical CPU the calling thread is currently
// running on via GetCurrentProcessorNumber.
func CurrentCPU() int {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	proc := kernel32.NewProc("GetCurrentProcessorNumber")
	ret, _, _ := proc.Call()
	return int(ret)
}
