// Package shmregion
// Author: momentics <momentics@gmail.com>
//
// Shared-memory region lifecycle: create/open/map/unmap/unlink a
// named, host-local shared-memory object. Region layout semantics
// belong entirely to the caller (doublebuffer, ringfanout); this
// package only owns the bytes.
//
// Grounded on _examples/other_examples/toto1234567890-share_mem's
// file-backed syscall.Mmap/Ftruncate pattern and the teacher's
// core/buffer/bufferpool_linux.go MAP_HUGETLB mmap-with-fallback.
package shmregion
