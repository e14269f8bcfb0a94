// File: ringfanout/ring.go
// Author: momentics <momentics@gmail.com>
//
// Per-reader ring region layout: a header followed by N fixed-size
// slot records, each holding a metadata triple and an inline payload
// area. Grounded on the same header/ring split as
// _examples/markrussinovich-grpc-go-shmem/internal/transport/shm's
// ring.go, adapted to single-writer/single-reader-per-ring semantics
// per base spec §3/§5.
package ringfanout

import (
	"sync/atomic"
	"unsafe"
)

const (
	// RingMagic and RingVersion tag a per-reader ring region.
	RingMagic   uint32 = 0x52494E47 // "RING"
	RingVersion uint32 = 1

	// DefaultRingSize is used whenever a ring size of zero is given
	// (base spec §4.5 "default ring size = 30").
	DefaultRingSize = 30

	slotMetaSize = 24 // sequence + timestamp + length, 8 bytes each
)

type ringHeader struct {
	magic        uint32
	version      uint32
	ringSize     uint32
	slotCapacity uint32
	slotStride   uint32
	dataOffset   uint32
	writeIndex   uint64
	totalWrites  uint64
}

func ringHeaderSize() int {
	return int(unsafe.Sizeof(ringHeader{}))
}

func ringAt(data []byte) *ringHeader {
	return (*ringHeader)(unsafe.Pointer(&data[0]))
}

func (r *ringHeader) Magic() uint32         { return atomic.LoadUint32(&r.magic) }
func (r *ringHeader) SetMagic(v uint32)     { atomic.StoreUint32(&r.magic, v) }
func (r *ringHeader) Version() uint32       { return atomic.LoadUint32(&r.version) }
func (r *ringHeader) SetVersion(v uint32)   { atomic.StoreUint32(&r.version, v) }
func (r *ringHeader) RingSize() uint32      { return atomic.LoadUint32(&r.ringSize) }
func (r *ringHeader) SetRingSize(v uint32)  { atomic.StoreUint32(&r.ringSize, v) }
func (r *ringHeader) SlotCapacity() uint32  { return atomic.LoadUint32(&r.slotCapacity) }
func (r *ringHeader) SetSlotCapacity(v uint32) { atomic.StoreUint32(&r.slotCapacity, v) }
func (r *ringHeader) SlotStride() uint32    { return atomic.LoadUint32(&r.slotStride) }
func (r *ringHeader) SetSlotStride(v uint32) { atomic.StoreUint32(&r.slotStride, v) }
func (r *ringHeader) DataOffset() uint32    { return atomic.LoadUint32(&r.dataOffset) }
func (r *ringHeader) SetDataOffset(v uint32) { atomic.StoreUint32(&r.dataOffset, v) }

func (r *ringHeader) WriteIndex() uint64     { return atomic.LoadUint64(&r.writeIndex) }
func (r *ringHeader) SetWriteIndex(v uint64) { atomic.StoreUint64(&r.writeIndex, v) }
func (r *ringHeader) TotalWrites() uint64    { return atomic.LoadUint64(&r.totalWrites) }
func (r *ringHeader) SetTotalWrites(v uint64) { atomic.StoreUint64(&r.totalWrites, v) }

// slotRecord is the fixed-offset metadata prefix of each ring slot;
// the payload bytes immediately follow it in the mapped region.
type slotRecord struct {
	sequence  uint64
	timestamp uint64
	length    uint64
}

func slotRecordAt(data []byte, offset int) *slotRecord {
	return (*slotRecord)(unsafe.Pointer(&data[offset]))
}

func (s *slotRecord) Sequence() uint64      { return atomic.LoadUint64(&s.sequence) }
func (s *slotRecord) SetSequence(v uint64)  { atomic.StoreUint64(&s.sequence, v) }
func (s *slotRecord) Timestamp() uint64     { return atomic.LoadUint64(&s.timestamp) }
func (s *slotRecord) SetTimestamp(v uint64) { atomic.StoreUint64(&s.timestamp, v) }
func (s *slotRecord) Length() uint64        { return atomic.LoadUint64(&s.length) }
func (s *slotRecord) SetLength(v uint64)    { atomic.StoreUint64(&s.length, v) }

// ringRegionSize computes the total byte size of a ring region with
// ringSize slots, each capable of holding capacity payload bytes,
// aligned so every slot starts on a cache-line boundary.
func ringRegionSize(ringSize, capacity, cacheLine int) (slotStride, dataOffset, total int) {
	raw := slotMetaSize + capacity
	slotStride = alignUp(raw, cacheLine)
	dataOffset = alignUp(ringHeaderSize(), cacheLine)
	total = dataOffset + ringSize*slotStride
	return slotStride, dataOffset, total
}

func alignUp(size, boundary int) int {
	if boundary <= 1 || (boundary&(boundary-1)) != 0 {
		return size
	}
	return (size + boundary - 1) &^ (boundary - 1)
}
