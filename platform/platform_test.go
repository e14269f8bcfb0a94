package platform

import "testing"

func TestAlignUp(t *testing.T) {
	cases := []struct {
		size, boundary, want int
	}{
		{0, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{100, 1, 100},
	}
	for _, c := range cases {
		if got := AlignUp(c.size, c.boundary); got != c.want {
			t.Errorf("AlignUp(%d,%d) = %d, want %d", c.size, c.boundary, got, c.want)
		}
	}
}

func TestCacheInfoDerivedHelpers(t *testing.T) {
	c := CacheInfo{L2Size: 1024 * 1024, L3Size: 8 * 1024 * 1024, LineSize: 64}
	if got := c.PrefetchDistance(); got != 256*1024 {
		t.Errorf("PrefetchDistance() = %d, want %d", got, 256*1024)
	}
	small := CacheInfo{L2Size: 16 * 1024}
	if got := small.PrefetchDistance(); got != minPrefetchDistance {
		t.Errorf("PrefetchDistance() floor = %d, want %d", got, minPrefetchDistance)
	}
	if got := c.ChunkSize(); got != 4*1024*1024 {
		t.Errorf("ChunkSize() = %d, want %d", got, 4*1024*1024)
	}
}

func TestHugePageInfoUsable(t *testing.T) {
	h := HugePageInfo{Available: true, Free: 0}
	if h.Usable() {
		t.Error("expected Usable() false when Free == 0")
	}
	h.Free = 4
	if !h.Usable() {
		t.Error("expected Usable() true when Available and Free > 0")
	}
}

func TestDetectCacheHierarchyDoesNotPanic(t *testing.T) {
	info := DetectCacheHierarchy()
	if info.LineSize <= 0 {
		t.Errorf("expected positive line size, got %d", info.LineSize)
	}
	if info.CoreCount <= 0 {
		t.Errorf("expected positive core count, got %d", info.CoreCount)
	}
}

func TestDetectHugePagesDoesNotPanic(t *testing.T) {
	_ = DetectHugePages()
}

func TestDetectNUMADoesNotPanic(t *testing.T) {
	n := DetectNUMA()
	if n.NodeCount < 1 {
		t.Errorf("expected at least one NUMA node, got %d", n.NodeCount)
	}
}

func TestNormalizeNUMANodeOutOfRange(t *testing.T) {
	got := NormalizeNUMANode(5, NUMAInfo{NodeCount: 2})
	if got != 0 {
		t.Errorf("expected fallback to 0, got %d", got)
	}
}

func TestNormalizeCPUIndexInRange(t *testing.T) {
	got := NormalizeCPUIndex(1, CacheInfo{CoreCount: 4})
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestPrefetchRangeDoesNotPanic(t *testing.T) {
	data := make([]byte, 4096)
	PrefetchForRead(data)
	PrefetchForWrite(data)
	PrefetchRange(nil, 64)
}
