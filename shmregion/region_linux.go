//go:build linux

// File: shmregion/region_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux shared-memory regions backed by /dev/shm, the tmpfs mount
// POSIX shm_open(3) itself uses. Grounded on
// _examples/other_examples/toto1234567890-share_mem's
// syscall.Ftruncate + syscall.Mmap pattern, and on the teacher's
// core/buffer/bufferpool_linux.go MAP_HUGETLB-with-fallback mmap.

package shmregion

import (
	"log"
	"os"
	"path/filepath"
	"syscall"

	"github.com/momentics/shm-sensor-bus/apperr"
)

const shmDir = "/dev/shm"

var regionLog = log.New(os.Stderr, "[shmregion] ", log.LstdFlags)

func regionPath(name string) string {
	return filepath.Join(shmDir, backingName(name))
}

// Create creates (or truncates, if it already exists — initialize is
// idempotent per base spec §8) a shared-memory region of exactly size
// bytes. When hugePages is true and size is at least one huge page,
// mapping is attempted with MAP_HUGETLB first; any failure there falls
// back transparently to an ordinary MAP_SHARED mapping, per base spec
// §9. The caller becomes the region's owner: Destroy will unlink it.
func Create(name string, size int, hugePages bool) (*Region, error) {
	path := regionPath(name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "create region %q: %v", name, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, apperr.Newf(apperr.CodeSetupFailure, "truncate region %q to %d: %v", name, size, err)
	}

	data, actualHuge, err := mapFile(f, size, hugePages)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, apperr.Newf(apperr.CodeSetupFailure, "map region %q: %v", name, err)
	}
	f.Close() // fd not needed after mmap; mapping keeps the pages resident.

	bestEffortMlock(data)
	bestEffortPopulate(data)

	return &Region{
		name:     name,
		data:     data,
		hugePage: actualHuge,
		close:    func() error { return syscall.Munmap(data) },
		unlink:   func() error { return os.Remove(path) },
	}, nil
}

// Open opens an existing region for read-write access, sized to the
// backing file's current length. Used by ring fan-out readers to open
// the control channel (their own ring is made with Create) and by the
// ring fan-out writer when attaching to a reader's ring.
func Open(name string) (*Region, error) {
	return open(name, os.O_RDWR)
}

// OpenReadOnly opens an existing region for read-only access. Used by
// double-buffer readers.
func OpenReadOnly(name string) (*Region, error) {
	return open(name, os.O_RDONLY)
}

func open(name string, flag int) (*Region, error) {
	path := regionPath(name)
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "open region %q: %v", name, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "stat region %q: %v", name, err)
	}
	size := int(fi.Size())
	if size == 0 {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "region %q is empty", name)
	}

	prot := syscall.PROT_READ
	if flag == os.O_RDWR {
		prot |= syscall.PROT_WRITE
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, prot, syscall.MAP_SHARED)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "mmap region %q: %v", name, err)
	}

	return &Region{
		name:  name,
		data:  data,
		close: func() error { return syscall.Munmap(data) },
	}, nil
}

// mapFile attempts a huge-page-backed mapping first when requested and
// size is at least one huge page, falling back to an ordinary mapping
// on any failure. Returns the mapped bytes and whether huge pages
// actually ended up backing the mapping.
func mapFile(f *os.File, size int, hugePages bool) ([]byte, bool, error) {
	if hugePages && size >= 2*1024*1024 {
		data, err := syscall.Mmap(int(f.Fd()), 0, size,
			syscall.PROT_READ|syscall.PROT_WRITE,
			syscall.MAP_SHARED|syscall.MAP_HUGETLB)
		if err == nil {
			return data, true, nil
		}
		regionLog.Printf("huge-page mmap unavailable (%v), falling back to ordinary pages", err)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

// bestEffortMlock locks pages resident so first-touch page faults do
// not land on the hot path. Failure is logged, never fatal, per base
// spec §9 "Page-locking: best-effort."
func bestEffortMlock(data []byte) {
	if len(data) == 0 {
		return
	}
	if err := syscall.Mlock(data); err != nil {
		regionLog.Printf("mlock failed (%v), continuing without page-locking", err)
	}
}

// bestEffortPopulate pre-populates page tables by touching every page
// once, eliding first-access faults on the hot path.
func bestEffortPopulate(data []byte) {
	const pageSize = 4096
	var sink byte
	for i := 0; i < len(data); i += pageSize {
		data[i] |= 0
		sink += data[i]
	}
	_ = sink
}
