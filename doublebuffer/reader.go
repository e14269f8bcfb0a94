// File: doublebuffer/reader.go
// Author: momentics <momentics@gmail.com>

package doublebuffer

import (
	"sync/atomic"
	"time"

	"github.com/momentics/shm-sensor-bus/apperr"
	"github.com/momentics/shm-sensor-bus/platform"
	"github.com/momentics/shm-sensor-bus/shmregion"
)

// Reader observes a double-buffer channel's latest published value.
// Many Readers may attach to the same channel concurrently; none of
// them coordinate with each other or with the Writer beyond the
// lock-free protocol implemented here.
type Reader struct {
	region       *shmregion.Region
	hdr          *header
	tier         Tier
	slotStride   int
	started      bool
	lastSequence uint64
	dropped      uint64
	leased       int32 // 0 = free, 1 = held; cache-tuned tier only
}

// ConstructReader opens an existing double-buffer channel named name
// for reading. tier must match the value the Writer was constructed
// with.
func ConstructReader(name string, tier Tier) (*Reader, error) {
	region, err := shmregion.OpenReadOnly(name)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "doublebuffer: open reader %q: %v", name, err)
	}

	r := &Reader{region: region, hdr: headerAt(region.Bytes()), tier: tier}
	if err := r.initialize(); err != nil {
		region.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) initialize() error {
	wantMagic, wantVersion := magicVersionFor(r.tier)
	if r.hdr.Magic() != wantMagic {
		return apperr.Newf(apperr.CodeSetupFailure, "doublebuffer: magic mismatch: got %#x, want %#x", r.hdr.Magic(), wantMagic)
	}
	if r.hdr.Version() != wantVersion {
		return apperr.Newf(apperr.CodeSetupFailure, "doublebuffer: version mismatch: got %#x, want %#x", r.hdr.Version(), wantVersion)
	}
	cache := platform.DetectCacheHierarchy()
	r.slotStride = platform.AlignUpCacheLine(int(r.hdr.Capacity()), cache)
	return nil
}

func (r *Reader) slotBytes(slot int) []byte {
	off := int(r.hdr.Slot0Offset()) + slot*r.slotStride
	return r.region.Bytes()[off : off+r.slotStride]
}

// GetLatest returns a zero-copy view of the current front slot along
// with its sequence number, without locking. If the writer has not
// published a new frame since the last call, data is nil (base spec
// §8's "repeated get-latest calls without an intervening publish
// return null"). The returned slice aliases shared memory and is only
// guaranteed stable until the writer's next Commit; callers that need
// a stable snapshot should use CopyingRead, or on the cache-tuned tier
// use AcquireLease/ReleaseLease to pin it.
func (r *Reader) GetLatest() (data []byte, sequence uint64, err error) {
	front := int(r.hdr.Front())
	sequence = r.hdr.SlotSequence(front)
	if sequence == r.lastSequence {
		return nil, sequence, nil
	}
	length := int(r.hdr.SlotLength(front))
	r.noteSequence(sequence)
	return r.slotBytes(front)[:length], sequence, nil
}

// CopyingRead copies the current front slot's payload into dst,
// returning the number of bytes copied and the frame's sequence
// number. n is 0 with no error when there is no new frame since the
// last call. dst must be at least as large as the frame.
func (r *Reader) CopyingRead(dst []byte) (n int, sequence uint64, err error) {
	front := int(r.hdr.Front())
	sequence = r.hdr.SlotSequence(front)
	if sequence == r.lastSequence {
		return 0, sequence, nil
	}
	length := int(r.hdr.SlotLength(front))
	if length > len(dst) {
		return 0, 0, apperr.Newf(apperr.CodeBoundsViolation, "doublebuffer: dst too small: have %d, need %d", len(dst), length)
	}
	src := r.slotBytes(front)[:length]
	if r.tier == TierCacheTuned {
		platform.PrefetchForRead(src)
	}
	n = copy(dst, src)
	r.noteSequence(sequence)
	return n, sequence, nil
}

// AcquireLease returns a zero-copy view like GetLatest and marks this
// Reader as holding a lease: only available on TierCacheTuned. A
// second AcquireLease fails with CodeLeaseConflict until ReleaseLease
// is called. GetLatest and CopyingRead do not check the lease, so they
// are not blocked while one is held. It does not block the writer.
func (r *Reader) AcquireLease() ([]byte, uint64, error) {
	if r.tier != TierCacheTuned {
		return nil, 0, apperr.Newf(apperr.CodeSetupFailure, "doublebuffer: zero-copy lease is only available on the cache-tuned tier")
	}
	if !atomic.CompareAndSwapInt32(&r.leased, 0, 1) {
		return nil, 0, apperr.Newf(apperr.CodeLeaseConflict, "doublebuffer: lease already held on this reader")
	}
	data, seq, err := r.GetLatest()
	if err != nil {
		atomic.StoreInt32(&r.leased, 0)
		return nil, 0, err
	}
	return data, seq, nil
}

// ReleaseLease releases a lease acquired by AcquireLease. Calling it
// without a held lease is a no-op.
func (r *Reader) ReleaseLease() {
	atomic.StoreInt32(&r.leased, 0)
}

// noteSequence updates the dropped-frame counter whenever the observed
// sequence jumps by more than one relative to the last read.
func (r *Reader) noteSequence(sequence uint64) {
	if r.started && sequence > r.lastSequence+1 {
		r.dropped += sequence - r.lastSequence - 1
	}
	r.lastSequence = sequence
	r.started = true
}

// DroppedCount returns the number of frames this Reader has observed
// being skipped (sequence gaps) since it started reading.
func (r *Reader) DroppedCount() uint64 { return r.dropped }

// IsWriterAlive reports whether the writer's heartbeat is fresher than
// timeout.
func (r *Reader) IsWriterAlive(timeout time.Duration) bool {
	age := time.Duration(time.Now().UnixNano() - int64(r.hdr.Heartbeat()))
	return age >= 0 && age < timeout
}

// TotalWrites returns the writer-maintained lifetime publish count.
func (r *Reader) TotalWrites() uint64 { return r.hdr.TotalWrites() }

// TotalBytes returns the writer-maintained lifetime published byte count.
func (r *Reader) TotalBytes() uint64 { return r.hdr.TotalBytes() }

// Close releases this reader's mapping without affecting the channel
// itself.
func (r *Reader) Close() error {
	return r.region.Close()
}
