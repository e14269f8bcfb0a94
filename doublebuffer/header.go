// File: doublebuffer/header.go
// Author: momentics <momentics@gmail.com>
//
// On-disk header layout for the double-buffer latest-value channel.
// Grounded on _examples/markrussinovich-grpc-go-shmem's
// internal/transport/shm/shm_segment.go SegmentHeader/RingHeader
// convention: a plain Go struct overlaid on the mapped bytes via
// unsafe.Pointer, with every mutable field accessed through
// sync/atomic so independent processes observe a consistent view
// without locks.
//
// Layout (base spec §3, "Double-buffer region"):
//
//	line 0 [0x00,0x40) static:   magic, version, capacity, slot0Offset, flags
//	line 1 [0x40,0x80) hot:      front index
//	line 2 [0x80,0xC0) slot 0:   sequence, timestamp, length
//	line 3 [0xC0,0x100) slot 1:  sequence, timestamp, length
//	line 4 [0x100,0x140) stats:  heartbeat, totalWrites, totalBytes
package doublebuffer

import (
	"sync/atomic"
	"unsafe"
)

// Magic tags and versions (base spec §6).
const (
	MagicBasic      uint32 = 0x53484D32 // "SHM2"
	VersionBasic    uint32 = 0x00020000
	MagicCacheTuned uint32 = 0x43415352 // "CASR"
	VersionCacheTuned uint32 = 0x00010000

	// FlagHugePageBacked is header flags bit 0.
	FlagHugePageBacked uint32 = 1 << 0

	cacheLine  = 64
	headerSize = 5 * cacheLine
)

type staticLine struct {
	magic       uint32
	version     uint32
	capacity    uint32
	slot0Offset uint32
	flags       uint32
	_           [cacheLine - 5*4]byte
}

type frontLine struct {
	front uint32
	_     [cacheLine - 4]byte
}

type slotMetaLine struct {
	sequence  uint64
	timestamp uint64
	length    uint64
	_         [cacheLine - 3*8]byte
}

type statsLine struct {
	heartbeatNs uint64
	totalWrites uint64
	totalBytes  uint64
	_           [cacheLine - 3*8]byte
}

// header is the double-buffer region's fixed-offset control block.
type header struct {
	static    staticLine
	front     frontLine
	slotMeta  [2]slotMetaLine
	stats     statsLine
}

func init() {
	if unsafe.Sizeof(header{}) != headerSize {
		panic("doublebuffer: header layout drifted from the documented 320-byte size")
	}
}

func headerAt(data []byte) *header {
	return (*header)(unsafe.Pointer(&data[0]))
}

func (h *header) Magic() uint32       { return atomic.LoadUint32(&h.static.magic) }
func (h *header) SetMagic(v uint32)   { atomic.StoreUint32(&h.static.magic, v) }
func (h *header) Version() uint32     { return atomic.LoadUint32(&h.static.version) }
func (h *header) SetVersion(v uint32) { atomic.StoreUint32(&h.static.version, v) }
func (h *header) Capacity() uint32    { return atomic.LoadUint32(&h.static.capacity) }
func (h *header) SetCapacity(v uint32) { atomic.StoreUint32(&h.static.capacity, v) }
func (h *header) Slot0Offset() uint32 { return atomic.LoadUint32(&h.static.slot0Offset) }
func (h *header) SetSlot0Offset(v uint32) { atomic.StoreUint32(&h.static.slot0Offset, v) }
func (h *header) Flags() uint32       { return atomic.LoadUint32(&h.static.flags) }
func (h *header) SetFlags(v uint32)   { atomic.StoreUint32(&h.static.flags, v) }

// Front loads the front index with acquire semantics (Go's
// sync/atomic loads are sequentially consistent, a strict superset of
// acquire, so this satisfies base spec §5's release/acquire
// requirement).
func (h *header) Front() uint32 { return atomic.LoadUint32(&h.front.front) }

// SetFront publishes a new front index with release semantics — the
// single publish point every prior metadata and payload write must
// precede.
func (h *header) SetFront(v uint32) { atomic.StoreUint32(&h.front.front, v) }

func (h *header) SlotSequence(slot int) uint64 { return atomic.LoadUint64(&h.slotMeta[slot].sequence) }
func (h *header) SetSlotSequence(slot int, v uint64) {
	atomic.StoreUint64(&h.slotMeta[slot].sequence, v)
}
func (h *header) SlotTimestamp(slot int) uint64 {
	return atomic.LoadUint64(&h.slotMeta[slot].timestamp)
}
func (h *header) SetSlotTimestamp(slot int, v uint64) {
	atomic.StoreUint64(&h.slotMeta[slot].timestamp, v)
}
func (h *header) SlotLength(slot int) uint64 { return atomic.LoadUint64(&h.slotMeta[slot].length) }
func (h *header) SetSlotLength(slot int, v uint64) {
	atomic.StoreUint64(&h.slotMeta[slot].length, v)
}

func (h *header) Heartbeat() uint64     { return atomic.LoadUint64(&h.stats.heartbeatNs) }
func (h *header) SetHeartbeat(v uint64) { atomic.StoreUint64(&h.stats.heartbeatNs, v) }
func (h *header) TotalWrites() uint64   { return atomic.LoadUint64(&h.stats.totalWrites) }
func (h *header) SetTotalWrites(v uint64) { atomic.StoreUint64(&h.stats.totalWrites, v) }
func (h *header) TotalBytes() uint64    { return atomic.LoadUint64(&h.stats.totalBytes) }
func (h *header) SetTotalBytes(v uint64) { atomic.StoreUint64(&h.stats.totalBytes, v) }
