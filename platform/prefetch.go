// File: platform/prefetch.go
// Author: momentics <momentics@gmail.com>
//
// Portable software-prefetch hints. Go exposes no portable prefetch
// intrinsic without cgo or hand-written assembly (neither of which the
// corpus this module is built from reaches for); instead this follows
// _examples/other_examples/xDarkicex-slabby's prefetchSliceSafe
// pattern of touching memory at cache-line strides to warm the CPU
// cache ahead of a real read. Correctness never depends on this path —
// it is a throughput hint only, exactly as base spec §9 requires.

package platform

import "golang.org/x/sys/cpu"

// HasStreamingStores reports whether the CPU supports the SSE2
// streaming-store family of instructions, used by the cache-tuned
// double-buffer writer to decide whether a non-temporal copy path is
// worth taking for large payloads. False on any non-x86 platform or
// when detection is unavailable.
func HasStreamingStores() bool {
	return cpu.X86.HasSSE2
}

// PrefetchForRead hints that data will be read with high locality soon.
func PrefetchForRead(data []byte) {
	touchCacheLines(data)
}

// PrefetchForWrite hints that data will be written with high locality soon.
func PrefetchForWrite(data []byte) {
	touchCacheLines(data)
}

// PrefetchRange walks data in cache-line strides, touching one byte
// per line to pull it into cache ahead of the real access.
func PrefetchRange(data []byte, lineSize int) {
	if lineSize <= 0 {
		lineSize = DefaultCacheLine
	}
	var sink byte
	for i := 0; i < len(data); i += lineSize {
		sink += data[i]
	}
	_ = sink
}

func touchCacheLines(data []byte) {
	PrefetchRange(data, DefaultCacheLine)
}
