//go:build linux

// File: platform/hugepages_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux huge-page availability via /proc/meminfo.

package platform

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

const meminfoPath = "/proc/meminfo"

// DetectHugePages parses /proc/meminfo for HugePages_Total, HugePages_Free
// and Hugepagesize. On any read failure it returns the conservative
// default (unavailable, 2 MiB page size).
func DetectHugePages() HugePageInfo {
	info := defaultHugePageInfo()

	f, err := os.Open(meminfoPath)
	if err != nil {
		return info
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "HugePages_Total:"):
			info.Total = meminfoInt(line)
		case strings.HasPrefix(line, "HugePages_Free:"):
			info.Free = meminfoInt(line)
		case strings.HasPrefix(line, "Hugepagesize:"):
			if kb := meminfoInt(line); kb > 0 {
				info.PageSize = kb * 1024
			}
		}
	}
	info.Available = info.Total > 0
	return info
}

func meminfoInt(line string) int {
	fields := strings.Fields(line)
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			return n
		}
	}
	return 0
}
