//go:build !linux && !windows

// File: platform/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without a thread-affinity API.

package platform

import "errors"

// PinCurrentThread is unsupported on this platform and always fails;
// callers should treat this as best-effort and continue unpinned.
func PinCurrentThread(cpuID int) error {
	return errors.New("platform: cpu affinity not supported on this platform")
}

// CurrentCPU always reports unknown (-1) on this platform.
func CurrentCPU() int {
	return -1
}
