//go:build linux

// File: platform/numa_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux NUMA topology via sysfs node directories and getcpu(2).

package platform

import (
	"os"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const numaSysfsRoot = "/sys/devices/system/node"

// DetectNUMA returns the configured NUMA node count (by counting
// /sys/devices/system/node/node* directories) and the current thread's
// node via getcpu(2). Any failure falls back to the single-node
// default with current node 0.
func DetectNUMA() NUMAInfo {
	info := defaultNUMAInfo()

	entries, err := os.ReadDir(numaSysfsRoot)
	if err == nil {
		count := 0
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "node") {
				count++
			}
		}
		if count > 0 {
			info.NodeCount = count
		}
	}

	var cpu, node uint32
	_, _, errno := syscall.RawSyscall(
		unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)),
		uintptr(unsafe.Pointer(&node)),
		0,
	)
	if errno == 0 {
		info.CurrentNode = int(node)
	}
	return info
}
