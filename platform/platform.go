// File: platform/platform.go
// Author: momentics <momentics@gmail.com>
//
// Portable defaults and the public types returned by the probes in this
// package. Grounded on the teacher's internal/concurrency affinity/pin
// split and control/platform_{linux,windows}.go probe registration.

package platform

// Conservative defaults substituted whenever the underlying platform
// query fails or is unavailable on this OS.
const (
	DefaultL1Size    = 32 * 1024
	DefaultL2Size    = 256 * 1024
	DefaultL3Size    = 8 * 1024 * 1024
	DefaultCacheLine = 64

	// DefaultHugePageSize is the typical x86-64 huge page size (2 MiB).
	DefaultHugePageSize = 2 * 1024 * 1024

	minPrefetchDistance = 64 * 1024
)

// CacheInfo describes the detected (or default) cache hierarchy.
type CacheInfo struct {
	L1DataSize  int
	L1InstSize  int
	L2Size      int
	L3Size      int
	LineSize    int
	CoreCount   int
}

// PrefetchDistance returns the optimal software-prefetch distance: L2/4
// with a 64 KiB floor.
func (c CacheInfo) PrefetchDistance() int {
	d := c.L2Size / 4
	if d < minPrefetchDistance {
		return minPrefetchDistance
	}
	return d
}

// ChunkSize returns the optimal bulk-copy chunk size: L3/2.
func (c CacheInfo) ChunkSize() int {
	if c.L3Size <= 0 {
		return DefaultL3Size / 2
	}
	return c.L3Size / 2
}

func defaultCacheInfo() CacheInfo {
	return CacheInfo{
		L1DataSize: DefaultL1Size,
		L1InstSize: DefaultL1Size,
		L2Size:     DefaultL2Size,
		L3Size:     DefaultL3Size,
		LineSize:   DefaultCacheLine,
		CoreCount:  1,
	}
}

// HugePageInfo describes detected (or default) huge-page reservations.
type HugePageInfo struct {
	Available bool
	Total     int
	Free      int
	PageSize  int
}

// Usable reports whether at least one huge page is currently free.
func (h HugePageInfo) Usable() bool {
	return h.Available && h.Free > 0
}

func defaultHugePageInfo() HugePageInfo {
	return HugePageInfo{
		Available: false,
		Total:     0,
		Free:      0,
		PageSize:  DefaultHugePageSize,
	}
}

// NUMAInfo describes the detected (or default) NUMA topology.
type NUMAInfo struct {
	NodeCount    int
	CurrentNode  int
}

func defaultNUMAInfo() NUMAInfo {
	return NUMAInfo{NodeCount: 1, CurrentNode: 0}
}

// AlignUp rounds size up to the next multiple of boundary. boundary
// must be a positive power of two; any other value is treated as 1
// (no alignment).
func AlignUp(size, boundary int) int {
	if boundary <= 1 || (boundary&(boundary-1)) != 0 {
		return size
	}
	return (size + boundary - 1) &^ (boundary - 1)
}

// AlignUpCacheLine rounds size up to the cache-line size reported by
// the given CacheInfo.
func AlignUpCacheLine(size int, c CacheInfo) int {
	line := c.LineSize
	if line <= 0 {
		line = DefaultCacheLine
	}
	return AlignUp(size, line)
}

// AlignUpHugePage rounds size up to the huge-page size reported by the
// given HugePageInfo.
func AlignUpHugePage(size int, h HugePageInfo) int {
	pageSize := h.PageSize
	if pageSize <= 0 {
		pageSize = DefaultHugePageSize
	}
	return AlignUp(size, pageSize)
}
