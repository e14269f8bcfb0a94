//go:build !linux && !windows

// File: shmregion/region_stub.go
// Author: momentics <momentics@gmail.com>
//
// This transport family targets same-host shared memory on Linux and
// Windows; other platforms report a setup failure rather than
// pretending to succeed.

package shmregion

import "github.com/momentics/shm-sensor-bus/apperr"

func Create(name string, size int, hugePages bool) (*Region, error) {
	return nil, apperr.Newf(apperr.CodeSetupFailure, "shmregion: unsupported platform")
}

func Open(name string) (*Region, error) {
	return nil, apperr.Newf(apperr.CodeSetupFailure, "shmregion: unsupported platform")
}

func OpenReadOnly(name string) (*Region, error) {
	return nil, apperr.Newf(apperr.CodeSetupFailure, "shmregion: unsupported platform")
}
