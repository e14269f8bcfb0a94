// File: ringfanout/writer.go
// Author: momentics <momentics@gmail.com>

package ringfanout

import (
	"log"
	"os"
	"time"

	"github.com/momentics/shm-sensor-bus/apperr"
	"github.com/momentics/shm-sensor-bus/control"
	"github.com/momentics/shm-sensor-bus/shmregion"
)

var writerLog = log.New(os.Stderr, "[ringfanout] ", log.LstdFlags|log.Lmicroseconds)

type readerMapping struct {
	valid      bool
	region     *shmregion.Region
	hdr        *ringHeader
	slotStride int
	dataOffset int
	ringSize   int
}

// Writer fans payloads out to every reader currently registered on a
// control channel. Exactly one Writer per channel is assumed (base
// spec §5).
type Writer struct {
	control  *shmregion.Region
	dir      *directoryHeader
	capacity int
	readers  [MaxReaders]readerMapping
	metrics  *control.MetricsRegistry
	writes   uint64
}

// AttachMetrics wires a control.MetricsRegistry that Write keeps
// updated with reader_count and total_writes_all_readers — ambient
// observability only, no effect on wire layout.
func (w *Writer) AttachMetrics(mr *control.MetricsRegistry) {
	w.metrics = mr
}

// Initialize creates the control-channel region named name with the
// given per-frame payload capacity.
func Initialize(name string, capacity int) (*Writer, error) {
	if capacity <= 0 {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "ringfanout: capacity must be positive, got %d", capacity)
	}
	region, err := shmregion.Create(name, directorySize(), false)
	if err != nil {
		return nil, apperr.Newf(apperr.CodeSetupFailure, "ringfanout: initialize control channel %q: %v", name, err)
	}
	dir := directoryAt(region.Bytes())
	dir.SetCapacity(uint32(capacity))
	dir.SetHeartbeat(uint64(time.Now().UnixNano()))
	dir.SetVersion(ControlVersion)
	dir.SetMagic(ControlMagic)

	return &Writer{control: region, dir: dir, capacity: capacity}, nil
}

// discoverReaders scans the 16 directory entries, mapping newly active
// ones and unmapping ones that have gone inactive since the last scan.
// Failures to open or map a reader's ring are skipped without error,
// per base spec §4.4.
func (w *Writer) discoverReaders() {
	for i := 0; i < MaxReaders; i++ {
		active := w.dir.entryActive(i)
		m := &w.readers[i]

		if active && !m.valid {
			name := w.dir.entryName(i)
			if name == "" {
				continue
			}
			region, err := shmregion.Open(name)
			if err != nil {
				writerLog.Printf("skipping reader entry %d (%s): %v", i, name, err)
				continue
			}
			hdr := ringAt(region.Bytes())
			ringSize := int(w.dir.entryRingSize(i))
			if ringSize == 0 {
				ringSize = DefaultRingSize
			}
			*m = readerMapping{
				valid:      true,
				region:     region,
				hdr:        hdr,
				slotStride: int(hdr.SlotStride()),
				dataOffset: int(hdr.DataOffset()),
				ringSize:   ringSize,
			}
			continue
		}

		if !active && m.valid {
			m.region.Close()
			*m = readerMapping{}
		}
	}
}

// Write fans payload out to every currently mapped reader, returning
// the number of readers it was delivered to. It fails only if payload
// exceeds the channel's declared capacity.
func (w *Writer) Write(payload []byte) (int, error) {
	if len(payload) > w.capacity {
		return 0, apperr.Newf(apperr.CodeBoundsViolation, "ringfanout: payload length %d exceeds capacity %d", len(payload), w.capacity)
	}
	w.discoverReaders()

	now := uint64(time.Now().UnixNano())
	count := 0
	for i := range w.readers {
		m := &w.readers[i]
		if !m.valid {
			continue
		}
		w.publishToReader(m, payload, now)
		count++
		w.writes++
	}
	w.dir.SetHeartbeat(now)
	if w.metrics != nil {
		w.metrics.Set("reader_count", count)
		w.metrics.Set("total_writes_all_readers", w.writes)
	}
	return count, nil
}

func (w *Writer) publishToReader(m *readerMapping, payload []byte, now uint64) {
	idx := m.hdr.WriteIndex()
	off := m.dataOffset + int(idx)*m.slotStride
	data := m.region.Bytes()
	payloadArea := data[off+slotMetaSize : off+slotMetaSize+len(payload)]
	copy(payloadArea, payload)

	rec := slotRecordAt(data, off)
	rec.SetLength(uint64(len(payload)))
	rec.SetTimestamp(now)

	// total-writes is a load-then-store rather than a fetch-add: this
	// ring has exactly one writer, so there is no concurrent mutator to
	// race against. Preserved intentionally rather than switched to an
	// atomic add.
	seq := m.hdr.TotalWrites() + 1
	rec.SetSequence(seq)

	newIdx := (idx + 1) % uint64(m.ringSize)
	m.hdr.SetWriteIndex(newIdx)
	m.hdr.SetTotalWrites(seq)
}

// GetWriteSlots returns a zero-copy view into each currently mapped
// reader's next slot (at the ring's current write index), for direct
// in-place preparation. The returned slices are ordered by reader
// directory index. Call Commit(length) to publish them all.
func (w *Writer) GetWriteSlots(length int) ([][]byte, error) {
	if length > w.capacity {
		return nil, apperr.Newf(apperr.CodeBoundsViolation, "ringfanout: length %d exceeds capacity %d", length, w.capacity)
	}
	w.discoverReaders()

	slots := make([][]byte, 0, MaxReaders)
	for i := range w.readers {
		m := &w.readers[i]
		if !m.valid {
			continue
		}
		idx := m.hdr.WriteIndex()
		off := m.dataOffset + int(idx)*m.slotStride
		data := m.region.Bytes()
		slots = append(slots, data[off+slotMetaSize:off+slotMetaSize+length])
	}
	return slots, nil
}

// Commit publishes the slots most recently returned by GetWriteSlots,
// using the same metadata-update protocol as Write.
func (w *Writer) Commit(length int) error {
	now := uint64(time.Now().UnixNano())
	for i := range w.readers {
		m := &w.readers[i]
		if !m.valid {
			continue
		}
		idx := m.hdr.WriteIndex()
		off := m.dataOffset + int(idx)*m.slotStride
		rec := slotRecordAt(m.region.Bytes(), off)
		rec.SetLength(uint64(length))
		rec.SetTimestamp(now)
		seq := m.hdr.TotalWrites() + 1
		rec.SetSequence(seq)
		newIdx := (idx + 1) % uint64(m.ringSize)
		m.hdr.SetWriteIndex(newIdx)
		m.hdr.SetTotalWrites(seq)
	}
	w.dir.SetHeartbeat(now)
	return nil
}

// ReaderCount returns the control channel's currently registered
// reader count.
func (w *Writer) ReaderCount() uint32 { return w.dir.ReaderCount() }

// Destroy unmaps every reader's ring mapping (without unlinking — the
// reader owns its ring) and unmaps and unlinks the control channel.
func (w *Writer) Destroy() error {
	for i := range w.readers {
		m := &w.readers[i]
		if m.valid {
			m.region.Close()
			*m = readerMapping{}
		}
	}
	return w.control.Destroy()
}
