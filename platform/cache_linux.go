//go:build linux

// File: platform/cache_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux cache-hierarchy detection via the per-CPU sysfs cache directory.

package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const cacheSysfsRoot = "/sys/devices/system/cpu/cpu0/cache"

// DetectCacheHierarchy reads L1-data, L1-instruction, L2, L3 sizes and
// the cache-line size from the Linux sysfs cache directory. Any read
// failure at any level substitutes the documented conservative
// defaults for that field only.
func DetectCacheHierarchy() CacheInfo {
	info := defaultCacheInfo()
	info.CoreCount = runtime.NumCPU()

	entries, err := os.ReadDir(cacheSysfsRoot)
	if err != nil {
		return info
	}

	lineSizeSet := false
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "index") {
			continue
		}
		dir := filepath.Join(cacheSysfsRoot, entry.Name())

		level := readCacheInt(filepath.Join(dir, "level"))
		kind := strings.TrimSpace(readCacheString(filepath.Join(dir, "type")))
		size := parseCacheSize(readCacheString(filepath.Join(dir, "size")))
		if size <= 0 {
			continue
		}

		switch {
		case level == 1 && kind == "Data":
			info.L1DataSize = size
		case level == 1 && kind == "Instruction":
			info.L1InstSize = size
		case level == 2:
			info.L2Size = size
		case level == 3:
			info.L3Size = size
		}

		if !lineSizeSet {
			if ls := readCacheInt(filepath.Join(dir, "coherency_line_size")); ls > 0 {
				info.LineSize = ls
				lineSizeSet = true
			}
		}
	}
	return info
}

func readCacheString(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

func readCacheInt(path string) int {
	v, err := strconv.Atoi(strings.TrimSpace(readCacheString(path)))
	if err != nil {
		return 0
	}
	return v
}

// parseCacheSize parses sysfs sizes like "32K" or "8M" into bytes.
func parseCacheSize(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	mult := 1
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1024
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		s = s[:len(s)-1]
	case 'G', 'g':
		mult = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n * mult
}
