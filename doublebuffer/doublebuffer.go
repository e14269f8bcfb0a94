// File: doublebuffer/doublebuffer.go
// Author: momentics <momentics@gmail.com>
//
// Package doublebuffer implements the single-writer/multi-reader
// latest-value shared-memory channel in both its tiers: Basic (a
// straight copy into whichever slot is not currently front) and
// CacheTuned (optional huge-page backing, chunked copies of large
// payloads, prefetch hints on the copying read path). Tier is a
// construction-time choice, never a runtime branch, so a reader and
// writer must agree on it out of band.
package doublebuffer

import (
	"time"

	"github.com/momentics/shm-sensor-bus/apperr"
	"github.com/momentics/shm-sensor-bus/platform"
	"github.com/momentics/shm-sensor-bus/shmregion"
)

// Tier selects the double-buffer implementation variant.
type Tier int

const (
	// TierBasic is a portable, dependency-free double buffer: two
	// slots, a front-index flip, no platform tuning.
	TierBasic Tier = iota
	// TierCacheTuned additionally requests huge-page backing at
	// Construct time when hugePages is set, and copies payloads at or
	// above nonTemporalThreshold in ChunkSize()-sized copy() strides
	// when the CPU reports streaming-store support (no non-temporal
	// instructions are issued; see copyPayload), with a single copy()
	// otherwise.
	TierCacheTuned
)

// nonTemporalThreshold is the payload size (base spec §9) at or above
// which the cache-tuned writer takes its chunked copy path.
const nonTemporalThreshold = 4096

func magicVersionFor(tier Tier) (uint32, uint32) {
	if tier == TierCacheTuned {
		return MagicCacheTuned, VersionCacheTuned
	}
	return MagicBasic, VersionBasic
}

// layout computes the slot stride and total region size for a given
// tier, capacity, and cache-line size. The result is additionally
// rounded up to a huge-page boundary when hugePages is requested and
// the region is at least one huge page, per base spec §4.2.
func layout(tier Tier, capacity int, hugePages bool, cache platform.CacheInfo) (slotStride, totalSize int) {
	slotStride = platform.AlignUpCacheLine(capacity, cache)
	totalSize = headerSize + 2*slotStride
	if tier == TierCacheTuned && hugePages {
		hp := platform.DetectHugePages()
		if totalSize >= hp.PageSize {
			totalSize = platform.AlignUpHugePage(totalSize, hp)
		}
	}
	return slotStride, totalSize
}

// Writer is the single permitted writer of a double-buffer channel.
type Writer struct {
	region     *shmregion.Region
	hdr        *header
	tier       Tier
	slotStride int
	sequence   uint64
	cache      platform.CacheInfo
	useNTStore bool
}

// Construct creates a new double-buffer region named name, sized to
// hold payloads up to capacity bytes, in the given tier. hugePages
// requests huge-page backing; it is only honored for TierCacheTuned
// (base spec §4.3 — huge pages are the cache-tuned tier's feature).
func Construct(name string, capacity int, tier Tier, hugePages bool) (*Writer, error) {
	if capacity <= 0 {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "doublebuffer: capacity must be positive, got %d", capacity)
	}
	cache := platform.DetectCacheHierarchy()
	slotStride, totalSize := layout(tier, capacity, hugePages, cache)
	wantHuge := hugePages && tier == TierCacheTuned

	region, err := shmregion.Create(name, totalSize, wantHuge)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "doublebuffer: construct %q: %v", name, err)
	}

	w := &Writer{
		region:     region,
		hdr:        headerAt(region.Bytes()),
		tier:       tier,
		slotStride: slotStride,
		cache:      cache,
		useNTStore: tier == TierCacheTuned && platform.HasStreamingStores(),
	}
	w.initializeHeader(capacity, region.HugePageBacked())
	return w, nil
}

func (w *Writer) initializeHeader(capacity int, hugePage bool) {
	magic, version := magicVersionFor(w.tier)
	var flags uint32
	if hugePage {
		flags |= FlagHugePageBacked
	}
	w.hdr.SetCapacity(uint32(capacity))
	w.hdr.SetSlot0Offset(uint32(headerSize))
	w.hdr.SetFlags(flags)
	w.hdr.SetFront(0)
	w.hdr.SetTotalWrites(0)
	w.hdr.SetTotalBytes(0)
	w.hdr.SetSlotSequence(0, 0)
	w.hdr.SetSlotSequence(1, 0)
	w.markAlive()
	// Version and magic are published last: their presence is what a
	// reader's Initialize treats as "region is ready."
	w.hdr.SetVersion(version)
	w.hdr.SetMagic(magic)
}

func (w *Writer) markAlive() {
	w.hdr.SetHeartbeat(uint64(time.Now().UnixNano()))
}

func (w *Writer) slotBytes(slot int) []byte {
	off := int(w.hdr.Slot0Offset()) + slot*w.slotStride
	return w.region.Bytes()[off : off+w.slotStride]
}

// Write publishes payload as the new latest value. It is the
// convenience path described in base spec §4.2: internally it is
// GetWriteBuffer followed by Commit(len(payload)).
func (w *Writer) Write(payload []byte) error {
	buf, err := w.GetWriteBuffer(len(payload))
	if err != nil {
		return err
	}
	w.copyPayload(buf, payload)
	return w.Commit(len(payload))
}

// copyPayload copies src into dst, using chunked strides sized to the
// detected LLC when the cache-tuned tier's non-temporal path applies
// (base spec §9 "Non-temporal stores and prefetch"). Go has no portable
// non-temporal-store intrinsic without cgo/asm, so the throughput
// benefit here comes only from bounding how much of the cache a single
// large copy evicts, not from bypassing the cache entirely; correctness
// is identical to a plain copy either way.
func (w *Writer) copyPayload(dst, src []byte) {
	if !w.useNTStore || len(src) < nonTemporalThreshold {
		copy(dst, src)
		return
	}
	chunk := w.cache.ChunkSize()
	if chunk <= 0 {
		copy(dst, src)
		return
	}
	for off := 0; off < len(src); off += chunk {
		end := off + chunk
		if end > len(src) {
			end = len(src)
		}
		copy(dst[off:end], src[off:end])
	}
}

// GetWriteBuffer returns the backing slot the writer should fill for
// the next Commit — the slot that is NOT currently front. length must
// not exceed the declared capacity (base spec §8: size == capacity
// succeeds, size == capacity+1 fails) — checked against the declared
// capacity itself, not the cache-line-rounded slot stride, since the
// stride is only ever >= capacity and would silently accept an
// oversize write that the capacity contract forbids.
func (w *Writer) GetWriteBuffer(length int) ([]byte, error) {
	capacity := int(w.hdr.Capacity())
	if length < 0 || length > capacity {
		return nil, apperr.Newf(apperr.CodeBoundsViolation, "doublebuffer: write length %d exceeds capacity %d", length, capacity)
	}
	back := 1 - int(w.hdr.Front())
	return w.slotBytes(back)[:length], nil
}

// Commit publishes the back slot (previously filled via
// GetWriteBuffer) as the new front. Per base spec §4.2, the slot
// metadata and lifetime stats are written first; the front-index
// store is the single release-ordered publish point (base spec §5)
// and must be the last thing Commit does.
func (w *Writer) Commit(length int) error {
	back := 1 - int(w.hdr.Front())
	w.sequence++

	w.hdr.SetSlotLength(back, uint64(length))
	w.hdr.SetSlotTimestamp(back, uint64(time.Now().UnixNano()))
	w.hdr.SetSlotSequence(back, w.sequence)

	w.hdr.SetTotalWrites(w.hdr.TotalWrites() + 1)
	w.hdr.SetTotalBytes(w.hdr.TotalBytes() + uint64(length))
	w.markAlive()

	w.hdr.SetFront(uint32(back))
	return nil
}

// Destroy unmaps and unlinks the channel's backing region. Only the
// writer (the region's owner) should call this.
func (w *Writer) Destroy() error {
	return w.region.Destroy()
}

// Region exposes the underlying mapped region, primarily so a
// transport-level facade can discover its size/huge-page status
// without re-deriving the layout.
func (w *Writer) Region() *shmregion.Region { return w.region }
