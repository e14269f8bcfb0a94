// File: ringfanout/directory.go
// Author: momentics <momentics@gmail.com>
//
// The ring fan-out control channel: a fixed directory of up to 16
// reader entries a writer scans on every Write to discover who is
// listening. Grounded on the same atomic-accessor-over-unsafe.Pointer
// convention as doublebuffer's header (itself grounded on
// _examples/markrussinovich-grpc-go-shmem's SegmentHeader/RingHeader).
package ringfanout

import (
	"sync/atomic"
	"unsafe"
)

const (
	// ControlMagic and ControlVersion tag the control-channel region.
	ControlMagic   uint32 = 0xD1EC7002
	ControlVersion uint32 = 2

	// MaxReaders is the fixed directory capacity (base spec §3:
	// "a fixed-size table of up to 16 reader entries").
	MaxReaders = 16

	// entryNameLen matches base spec §6's "null-terminated within a
	// 64-byte field" (and the original's SHM_NAME_LEN).
	entryNameLen = 64
)

type directoryEntry struct {
	// reserved is CAS'd from 0 to 1 to exclusively claim this slot,
	// before name/ringSize are written and before active is set — this
	// two-phase handshake is what keeps two concurrent claimants from
	// both writing into the same slot (see reserveEntry/activateEntry).
	reserved uint32
	active   uint32
	ringSize uint32
	name     [entryNameLen]byte
}

type directoryHeader struct {
	magic       uint32
	version     uint32
	capacity    uint32
	readerCount uint32
	heartbeatNs uint64
	entries     [MaxReaders]directoryEntry
}

func directoryAt(data []byte) *directoryHeader {
	return (*directoryHeader)(unsafe.Pointer(&data[0]))
}

func directorySize() int {
	return int(unsafe.Sizeof(directoryHeader{}))
}

func (d *directoryHeader) Magic() uint32        { return atomic.LoadUint32(&d.magic) }
func (d *directoryHeader) SetMagic(v uint32)    { atomic.StoreUint32(&d.magic, v) }
func (d *directoryHeader) Version() uint32      { return atomic.LoadUint32(&d.version) }
func (d *directoryHeader) SetVersion(v uint32)  { atomic.StoreUint32(&d.version, v) }
func (d *directoryHeader) Capacity() uint32     { return atomic.LoadUint32(&d.capacity) }
func (d *directoryHeader) SetCapacity(v uint32) { atomic.StoreUint32(&d.capacity, v) }

func (d *directoryHeader) ReaderCount() uint32 { return atomic.LoadUint32(&d.readerCount) }
func (d *directoryHeader) addReader(delta int32) uint32 {
	if delta > 0 {
		return atomic.AddUint32(&d.readerCount, 1)
	}
	return atomic.AddUint32(&d.readerCount, ^uint32(0))
}

func (d *directoryHeader) Heartbeat() uint64     { return atomic.LoadUint64(&d.heartbeatNs) }
func (d *directoryHeader) SetHeartbeat(v uint64) { atomic.StoreUint64(&d.heartbeatNs, v) }

func (d *directoryHeader) entryActive(i int) bool {
	return atomic.LoadUint32(&d.entries[i].active) != 0
}

// reserveEntry performs the test-and-set claim described in base spec
// §3 invariant (xi): a compare-and-swap on a slot's reservation flag,
// separate from its externally-visible active flag, so that two
// concurrent claimants scanning the same slot can never both proceed
// to write into it. Only the CAS winner may call setEntryName /
// setEntryRingSize / activateEntry for this index.
func (d *directoryHeader) reserveEntry(i int) bool {
	return atomic.CompareAndSwapUint32(&d.entries[i].reserved, 0, 1)
}

// activateEntry publishes a reserved entry: this is the flag a
// writer's discovery scan reads, so it must only be set after name
// and ringSize are written, per invariant (x).
func (d *directoryHeader) activateEntry(i int) {
	atomic.StoreUint32(&d.entries[i].active, 1)
}

func (d *directoryHeader) releaseEntry(i int) {
	atomic.StoreUint32(&d.entries[i].active, 0)
	atomic.StoreUint32(&d.entries[i].reserved, 0)
}

func (d *directoryHeader) setEntryName(i int, name string) {
	var buf [entryNameLen]byte
	n := copy(buf[:], name)
	_ = n
	d.entries[i].name = buf
}

func (d *directoryHeader) entryName(i int) string {
	raw := d.entries[i].name[:]
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	return string(raw[:end])
}

func (d *directoryHeader) setEntryRingSize(i int, size uint32) {
	atomic.StoreUint32(&d.entries[i].ringSize, size)
}

func (d *directoryHeader) entryRingSize(i int) uint32 {
	return atomic.LoadUint32(&d.entries[i].ringSize)
}
