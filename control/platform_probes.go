// control/platform_probes.go
// Author: momentics <momentics@gmail.com>
//
// Debug-probe registration for the platform package's detected
// topology. The teacher split this per OS even though the probe
// bodies never actually branched on OS; here the OS-specific work
// already happens once, inside package platform, so a single file
// covers every platform this module supports.

package control

import (
	"runtime"

	"github.com/momentics/shm-sensor-bus/platform"
)

// RegisterPlatformProbes registers debug probes reporting the detected
// core count, cache-line size, and huge-page availability, so a
// process's debug endpoint can surface the same topology its
// transports are tuning themselves to.
func RegisterPlatformProbes(dp *DebugProbes, cache platform.CacheInfo) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.cacheline", func() any {
		return cache.LineSize
	})
	dp.RegisterProbe("platform.hugepage_available", func() any {
		return platform.DetectHugePages().Usable()
	})
}
