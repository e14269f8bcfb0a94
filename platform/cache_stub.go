//go:build !linux

// File: platform/cache_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux fallback: always returns the conservative defaults.

package platform

import "runtime"

// DetectCacheHierarchy returns the conservative defaults on platforms
// without a sysfs cache directory.
func DetectCacheHierarchy() CacheInfo {
	info := defaultCacheInfo()
	info.CoreCount = runtime.NumCPU()
	return info
}
