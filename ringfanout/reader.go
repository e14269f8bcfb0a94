// File: ringfanout/reader.go
// Author: momentics <momentics@gmail.com>

package ringfanout

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/momentics/shm-sensor-bus/apperr"
	"github.com/momentics/shm-sensor-bus/control"
	"github.com/momentics/shm-sensor-bus/platform"
	"github.com/momentics/shm-sensor-bus/shmregion"
)

// readerSeq disambiguates ring region names for multiple readers
// attached to the same channel from within a single process (the
// common case in tests; production readers are typically one per
// process and would get the same disambiguator every time, which is
// harmless since it is combined with the pid).
var readerSeq uint64

// Reader is one fan-out destination: it owns a private ring region and
// registers it with the writer's control channel.
type Reader struct {
	controlName string
	control     *shmregion.Region
	dir         *directoryHeader
	entryIndex  int

	ring       *shmregion.Region
	ringHdr    *ringHeader
	ringName   string
	capacity   int
	slotStride int
	dataOffset int
	ringSize   int

	started      bool
	lastSequence uint64
	dropped      uint64
	metrics      *control.MetricsRegistry
	ready        bool
}

// AttachMetrics wires a control.MetricsRegistry that GetLatest keeps
// updated with this reader's dropped count and
// last-observed sequence, purely for observability — it has no effect
// on wire layout or delivery semantics.
func (r *Reader) AttachMetrics(mr *control.MetricsRegistry) {
	r.metrics = mr
}

// Construct prepares a Reader for channelName with the given per-slot
// capacity and ring size (0 selects DefaultRingSize). No I/O happens
// until Initialize.
func Construct(channelName string, capacity, ringSize int) *Reader {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Reader{
		controlName: channelName,
		capacity:    capacity,
		ringSize:    ringSize,
	}
}

// Initialize opens the control channel, creates this reader's own ring
// region, and claims a directory entry. On directory-full it tears down
// everything it allocated and fails.
func (r *Reader) Initialize() error {
	capacity := r.capacity

	control, err := shmregion.Open(r.controlName)
	if err != nil {
		return apperr.Newf(apperr.CodeSetupFailure, "ringfanout: open control channel %q: %v", r.controlName, err)
	}
	dir := directoryAt(control.Bytes())
	if dir.Magic() != ControlMagic || dir.Version() != ControlVersion {
		control.Close()
		return apperr.Newf(apperr.CodeSetupFailure, "ringfanout: control channel %q has unrecognized magic/version", r.controlName)
	}

	// The name must fit, NUL-terminated, in a directory entry's name
	// field; a long channel name is shortened so the unique suffix
	// survives intact.
	suffix := fmt.Sprintf("_reader_%d_%d", os.Getpid(), atomic.AddUint64(&readerSeq, 1))
	prefix := r.controlName
	if maxPrefix := entryNameLen - 1 - len(suffix); len(prefix) > maxPrefix {
		prefix = prefix[:maxPrefix]
	}
	ringName := prefix + suffix
	cache := platform.DetectCacheHierarchy()
	slotStride, dataOffset, total := ringRegionSize(r.ringSize, capacity, cache.LineSize)

	ring, err := shmregion.Create(ringName, total, false)
	if err != nil {
		control.Close()
		return apperr.Newf(apperr.CodeSetupFailure, "ringfanout: create ring %q: %v", ringName, err)
	}

	ringHdr := ringAt(ring.Bytes())
	ringHdr.SetRingSize(uint32(r.ringSize))
	ringHdr.SetSlotCapacity(uint32(capacity))
	ringHdr.SetSlotStride(uint32(slotStride))
	ringHdr.SetDataOffset(uint32(dataOffset))
	ringHdr.SetWriteIndex(0)
	ringHdr.SetTotalWrites(0)
	ringHdr.SetVersion(RingVersion)
	ringHdr.SetMagic(RingMagic)

	index, err := claimDirectoryEntry(dir, ringName, r.ringSize)
	if err != nil {
		ring.Destroy()
		control.Close()
		return err
	}

	r.control = control
	r.dir = dir
	r.entryIndex = index
	r.ring = ring
	r.ringHdr = ringHdr
	r.ringName = ringName
	r.slotStride = slotStride
	r.dataOffset = dataOffset
	r.ready = true
	return nil
}

func claimDirectoryEntry(dir *directoryHeader, ringName string, ringSize int) (int, error) {
	for i := 0; i < MaxReaders; i++ {
		if dir.entryActive(i) {
			continue
		}
		if !dir.reserveEntry(i) {
			// Lost the race to reserve this slot; try the next one.
			continue
		}
		dir.setEntryName(i, ringName)
		dir.setEntryRingSize(i, uint32(ringSize))
		dir.activateEntry(i)
		dir.addReader(1)
		return i, nil
	}
	return 0, apperr.Newf(apperr.CodeDirectoryFull, "ringfanout: control channel directory is full (max %d readers)", MaxReaders)
}

func (r *Reader) slotOffset(idx uint64) int {
	return r.dataOffset + int(idx)*r.slotStride
}

// GetLatest returns a zero-copy view of the most recently written
// slot's payload along with its sequence number. Returns nil data when
// the writer has not published anything yet (total-writes == 0).
func (r *Reader) GetLatest() (data []byte, sequence uint64, err error) {
	if !r.ready {
		return nil, 0, apperr.Newf(apperr.CodeNotReady, "ringfanout: reader used before a successful Initialize")
	}
	total := r.ringHdr.TotalWrites()
	if total == 0 {
		return nil, 0, nil
	}
	idx := r.ringHdr.WriteIndex()
	latest := (idx + uint64(r.ringSize) - 1) % uint64(r.ringSize)
	data, sequence, err = r.GetSlot(int(latest))
	if err == nil && data != nil {
		r.noteSequence(sequence)
	}
	return data, sequence, err
}

// noteSequence tracks dropped frames (sequence gaps between successive
// GetLatest results) and publishes ambient observability metrics when
// a registry is attached.
func (r *Reader) noteSequence(sequence uint64) {
	if r.started && sequence > r.lastSequence+1 {
		r.dropped += sequence - r.lastSequence - 1
	}
	r.lastSequence = sequence
	r.started = true
	if r.metrics != nil {
		r.metrics.Set("dropped", r.dropped)
		r.metrics.Set("last_sequence", r.lastSequence)
	}
}

// DroppedCount returns the number of frames published between two
// successive GetLatest results that GetLatest did not return, whether
// or not those frames are still held in the ring.
func (r *Reader) DroppedCount() uint64 { return r.dropped }

// GetSlot returns the payload at ring index idx, or nil data if that
// slot has never been written (sequence == 0).
func (r *Reader) GetSlot(idx int) (data []byte, sequence uint64, err error) {
	if !r.ready {
		return nil, 0, apperr.Newf(apperr.CodeNotReady, "ringfanout: reader used before a successful Initialize")
	}
	if idx < 0 || idx >= r.ringSize {
		return nil, 0, apperr.Newf(apperr.CodeBoundsViolation, "ringfanout: slot index %d out of range [0,%d)", idx, r.ringSize)
	}
	off := r.slotOffset(uint64(idx))
	rec := slotRecordAt(r.ring.Bytes(), off)
	sequence = rec.Sequence()
	if sequence == 0 {
		return nil, 0, nil
	}
	length := rec.Length()
	payload := r.ring.Bytes()[off+slotMetaSize : off+slotMetaSize+int(length)]
	return payload, sequence, nil
}

// SlotTimestamp returns the nanosecond publish timestamp of ring index idx.
func (r *Reader) SlotTimestamp(idx int) uint64 {
	off := r.slotOffset(uint64(idx))
	return slotRecordAt(r.ring.Bytes(), off).Timestamp()
}

// SlotSequence returns the sequence number of ring index idx.
func (r *Reader) SlotSequence(idx int) uint64 {
	off := r.slotOffset(uint64(idx))
	return slotRecordAt(r.ring.Bytes(), off).Sequence()
}

// TotalWrites returns the number of frames the writer has published to
// this reader's ring.
func (r *Reader) TotalWrites() uint64 { return r.ringHdr.TotalWrites() }

// WriteIndex returns the next slot index the writer will fill.
func (r *Reader) WriteIndex() uint64 { return r.ringHdr.WriteIndex() }

// IsWriterAlive reports whether the control channel's heartbeat is
// fresher than timeout.
func (r *Reader) IsWriterAlive(timeout time.Duration) bool {
	age := time.Duration(time.Now().UnixNano() - int64(r.dir.Heartbeat()))
	return age >= 0 && age < timeout
}

// Destroy clears this reader's directory entry, unmaps and unlinks its
// ring region, and unmaps the control channel.
func (r *Reader) Destroy() error {
	if !r.ready {
		return apperr.Newf(apperr.CodeNotReady, "ringfanout: Destroy called before a successful Initialize")
	}
	r.ready = false
	r.dir.releaseEntry(r.entryIndex)
	r.dir.addReader(-1)
	if err := r.ring.Destroy(); err != nil {
		return err
	}
	return r.control.Close()
}
