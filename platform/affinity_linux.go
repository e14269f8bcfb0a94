//go:build linux

// File: platform/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux CPU affinity via a raw sched_setaffinity(2) syscall — no cgo,
// grounded on _examples/other_examples/codewanderer42820-evm_triarb's
// setaffinity_linux.go bitmask-syscall pattern, combined with the
// teacher's runtime.LockOSThread()-first convention from
// internal/concurrency/pin_linux_nocgo.go.

package platform

import (
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PinCurrentThread binds the calling OS thread to the given logical
// CPU. The goroutine is locked to its OS thread first, since affinity
// is a thread (not process) property and Go may otherwise migrate the
// goroutine off the pinned thread. Failure is reported but never
// fatal — callers may continue running unpinned.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 {
		return syscall.EINVAL
	}
	var mask uintptr = 1 << uint(cpuID)
	_, _, errno := syscall.RawSyscall(
		syscall.SYS_SCHED_SETAFFINITY,
		0, // current thread
		unsafe.Sizeof(mask),
		uintptr(unsafe.Pointer(&mask)),
	)
	if errno != 0 {
		return errno
	}
	return nil
}

// CurrentCPU returns the logical CPU the calling thread is currently
// running on, via getcpu(2). Returns -1 when unavailable.
func CurrentCPU() int {
	var cpu, node uint32
	_, _, errno := syscall.RawSyscall(
		unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)),
		uintptr(unsafe.Pointer(&node)),
		0,
	)
	if errno != 0 {
		return -1
	}
	return int(cpu)
}
