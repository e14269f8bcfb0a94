// File: platform/normalize.go
// Author: momentics <momentics@gmail.com>
//
// Index normalization for NUMA nodes and CPU indices, adapted from the
// teacher's internal/normalize/normalizer.go: validates caller-supplied
// indices against the topology this package actually detected, instead
// of trusting them blindly.

package platform

import (
	"log"
	"os"
)

var normalizeLog = log.New(os.Stderr, "[platform] ", log.LstdFlags)

// NormalizeNUMANode validates requested against the detected node
// count, falling back to node 0 when out of range.
func NormalizeNUMANode(requested int, numa NUMAInfo) int {
	if numa.NodeCount < 1 {
		return 0
	}
	if requested < 0 || requested >= numa.NodeCount {
		normalizeLog.Printf("numa node %d out of range [0,%d), falling back to 0", requested, numa.NodeCount)
		return 0
	}
	return requested
}

// NormalizeCPUIndex validates requested against the detected core
// count, falling back to 0 when out of range.
func NormalizeCPUIndex(requested int, cache CacheInfo) int {
	if cache.CoreCount < 1 {
		return 0
	}
	if requested < 0 || requested >= cache.CoreCount {
		normalizeLog.Printf("cpu index %d out of range [0,%d), falling back to 0", requested, cache.CoreCount)
		return 0
	}
	return requested
}
