package control

import (
	"testing"
	"time"

	"github.com/momentics/shm-sensor-bus/platform"
)

func TestTransportConfigDefaults(t *testing.T) {
	tc := NewTransportConfig()
	if tc.WriterLivenessTimeout() != DefaultWriterLivenessTimeout {
		t.Fatalf("WriterLivenessTimeout() = %v, want %v", tc.WriterLivenessTimeout(), DefaultWriterLivenessTimeout)
	}
	if tc.HugePagesEnabled() != DefaultHugePagesEnabled {
		t.Fatalf("HugePagesEnabled() = %v, want %v", tc.HugePagesEnabled(), DefaultHugePagesEnabled)
	}
	if tc.DefaultRingSize() != DefaultRingSizeValue {
		t.Fatalf("DefaultRingSize() = %d, want %d", tc.DefaultRingSize(), DefaultRingSizeValue)
	}
	if tc.PrefetchDistanceOverride() != 0 {
		t.Fatalf("PrefetchDistanceOverride() = %d, want 0", tc.PrefetchDistanceOverride())
	}
}

func TestTransportConfigSetConfigAndReload(t *testing.T) {
	tc := NewTransportConfig()
	reloaded := make(chan struct{}, 1)
	tc.OnReload(func() { reloaded <- struct{}{} })

	tc.SetConfig(map[string]any{
		KeyHugePagesEnabled: true,
		KeyDefaultRingSize:  64,
	})

	select {
	case <-reloaded:
	case <-time.After(time.Second):
		t.Fatal("reload listener was not invoked")
	}

	if !tc.HugePagesEnabled() {
		t.Fatal("HugePagesEnabled() = false after enabling it")
	}
	if tc.DefaultRingSize() != 64 {
		t.Fatalf("DefaultRingSize() = %d, want 64", tc.DefaultRingSize())
	}

	snapshot := tc.GetSnapshot()
	if snapshot[KeyDefaultRingSize] != 64 {
		t.Fatalf("snapshot[%q] = %v, want 64", KeyDefaultRingSize, snapshot[KeyDefaultRingSize])
	}
}

func TestDebugProbesRegisterAndDump(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("answer", func() any { return 42 })

	state := dp.DumpState()
	if state["answer"] != 42 {
		t.Fatalf("state[\"answer\"] = %v, want 42", state["answer"])
	}
}

func TestRegisterPlatformProbes(t *testing.T) {
	dp := NewDebugProbes()
	cache := platform.DetectCacheHierarchy()
	RegisterPlatformProbes(dp, cache)

	state := dp.DumpState()
	if _, ok := state["platform.cpus"]; !ok {
		t.Fatal("expected platform.cpus probe to be registered")
	}
	if got := state["platform.cacheline"]; got != cache.LineSize {
		t.Fatalf("platform.cacheline = %v, want %d", got, cache.LineSize)
	}
	if _, ok := state["platform.hugepage_available"]; !ok {
		t.Fatal("expected platform.hugepage_available probe to be registered")
	}
}

func TestMetricsRegistrySetAndSnapshot(t *testing.T) {
	mr := NewMetricsRegistry()
	mr.Set("reader_count", 3)

	snapshot := mr.GetSnapshot()
	if snapshot["reader_count"] != 3 {
		t.Fatalf("snapshot[\"reader_count\"] = %v, want 3", snapshot["reader_count"])
	}
}
