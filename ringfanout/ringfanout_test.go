//go:build linux

package ringfanout

import (
	"encoding/binary"
	"os"
	"sync"
	"testing"

	"github.com/momentics/shm-sensor-bus/control"
)

func uniqueChannel(t *testing.T) string {
	t.Helper()
	return "/ringfanout_test_" + t.Name() + "_" + string(rune('a'+os.Getpid()%26))
}

func seqPayload(seq uint64, size int) []byte {
	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf, seq)
	return buf
}

func mustReader(t *testing.T, channel string, capacity, ringSize int) *Reader {
	t.Helper()
	r := Construct(channel, capacity, ringSize)
	if err := r.Initialize(); err != nil {
		t.Fatalf("reader Initialize: %v", err)
	}
	return r
}

// Scenario 4 (base spec §8): ring size 30, capacity 1024, three
// readers, 100 published frames.
func TestThreeReadersHundredFrames(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 1024)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	readers := make([]*Reader, 3)
	for i := range readers {
		readers[i] = mustReader(t, channel, 1024, 30)
		defer readers[i].Destroy()
	}

	if got := w.ReaderCount(); got != 3 {
		t.Fatalf("ReaderCount() = %d, want 3", got)
	}

	for seq := uint64(0); seq < 100; seq++ {
		n, err := w.Write(seqPayload(seq, 1024))
		if err != nil {
			t.Fatalf("Write(%d): %v", seq, err)
		}
		if n != 3 {
			t.Fatalf("Write(%d) delivered to %d readers, want 3", seq, n)
		}
	}

	for i, r := range readers {
		if got := r.TotalWrites(); got != 100 {
			t.Fatalf("reader %d TotalWrites() = %d, want 100", i, got)
		}
		data, sequence, err := r.GetLatest()
		if err != nil {
			t.Fatalf("reader %d GetLatest: %v", i, err)
		}
		if got := binary.LittleEndian.Uint64(data[:8]); got != 99 {
			t.Fatalf("reader %d latest payload seq = %d, want 99", i, got)
		}
		if sequence != 100 {
			t.Fatalf("reader %d latest sequence = %d, want 100", i, sequence)
		}
		if seq9 := r.SlotSequence(9); seq9 != 100 {
			t.Fatalf("reader %d slot 9 sequence = %d, want 100", i, seq9)
		}
	}
}

// Scenario 5: a reader terminates mid-stream; the writer's next Write
// discovers the inactive flag and reports a decreased reader count.
func TestReaderExitMidStreamFreesSlot(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 128)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	r1 := mustReader(t, channel, 128, 30)
	r2 := mustReader(t, channel, 128, 30)
	defer r2.Destroy()

	if _, err := w.Write(seqPayload(0, 128)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := w.ReaderCount(); got != 2 {
		t.Fatalf("ReaderCount() = %d, want 2", got)
	}

	if err := r1.Destroy(); err != nil {
		t.Fatalf("r1 Destroy: %v", err)
	}

	n, err := w.Write(seqPayload(1, 128))
	if err != nil {
		t.Fatalf("Write after reader exit: %v", err)
	}
	if n != 1 {
		t.Fatalf("Write delivered to %d readers, want 1", n)
	}
	if got := w.ReaderCount(); got != 1 {
		t.Fatalf("ReaderCount() after exit = %d, want 1", got)
	}
}

// Directory-full: a 17th concurrent reader fails to register; freeing
// a slot allows a subsequent 17th attempt to succeed.
func TestDirectoryFullAndRecovery(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 64)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	readers := make([]*Reader, MaxReaders)
	for i := range readers {
		readers[i] = mustReader(t, channel, 64, 30)
	}
	defer func() {
		for _, r := range readers {
			r.Destroy()
		}
	}()

	overflow := Construct(channel, 64, 30)
	if err := overflow.Initialize(); err == nil {
		t.Fatal("expected the 17th reader to fail to register")
	}

	if err := readers[0].Destroy(); err != nil {
		t.Fatalf("Destroy readers[0]: %v", err)
	}
	readers[0] = nil

	retry := Construct(channel, 64, 30)
	if err := retry.Initialize(); err != nil {
		t.Fatalf("expected retry to succeed after a slot freed up: %v", err)
	}
	readers[0] = retry
}

func TestOversizeWriteFails(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 16)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	if _, err := w.Write(make([]byte, 1024)); err == nil {
		t.Fatal("expected oversize Write to fail")
	}
}

func TestWriterMetricsReflectReaderCount(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 64)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	mr := control.NewMetricsRegistry()
	w.AttachMetrics(mr)

	r := mustReader(t, channel, 64, 30)
	defer r.Destroy()

	if _, err := w.Write(seqPayload(0, 64)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	snapshot := mr.GetSnapshot()
	if snapshot["reader_count"] != 1 {
		t.Fatalf("metrics reader_count = %v, want 1", snapshot["reader_count"])
	}
	if snapshot["total_writes_all_readers"] != uint64(1) {
		t.Fatalf("metrics total_writes_all_readers = %v, want 1", snapshot["total_writes_all_readers"])
	}
}

// Concurrent registration: every reader must claim a distinct
// directory entry with its own name intact, never inheriting another
// racer's ring name (the corruption the two-phase reserve/activate
// handshake in claimDirectoryEntry prevents).
func TestConcurrentReaderRegistrationNoCorruption(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 64)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	const n = MaxReaders
	readers := make([]*Reader, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		readers[i] = Construct(channel, 64, 30)
		wg.Add(1)
		go func(r *Reader) {
			defer wg.Done()
			if err := r.Initialize(); err != nil {
				t.Errorf("Initialize: %v", err)
			}
		}(readers[i])
	}
	wg.Wait()
	defer func() {
		for _, r := range readers {
			r.Destroy()
		}
	}()

	if got := w.ReaderCount(); got != uint32(n) {
		t.Fatalf("ReaderCount() = %d, want %d", got, n)
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		name := w.dir.entryName(i)
		if name == "" {
			t.Fatalf("entry %d has an empty name after concurrent registration", i)
		}
		if seen[name] {
			t.Fatalf("entry %d duplicates a name already claimed by another entry: %q", i, name)
		}
		seen[name] = true
	}

	if _, err := w.Write(seqPayload(0, 64)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for i, r := range readers {
		if got := r.TotalWrites(); got != 1 {
			t.Fatalf("reader %d TotalWrites() = %d, want 1 (its ring was never mapped by the writer)", i, got)
		}
	}
}

func TestReaderNotReadyBeforeInitialize(t *testing.T) {
	channel := uniqueChannel(t)
	r := Construct(channel, 64, 30)

	if _, _, err := r.GetLatest(); err == nil {
		t.Fatal("expected GetLatest before Initialize to fail")
	}
	if _, _, err := r.GetSlot(0); err == nil {
		t.Fatal("expected GetSlot before Initialize to fail")
	}
	if err := r.Destroy(); err == nil {
		t.Fatal("expected Destroy before Initialize to fail")
	}
}

func TestGetSlotNeverWritten(t *testing.T) {
	channel := uniqueChannel(t)
	w, err := Initialize(channel, 64)
	if err != nil {
		t.Fatalf("Initialize writer: %v", err)
	}
	defer w.Destroy()

	r := mustReader(t, channel, 64, 30)
	defer r.Destroy()

	data, seq, err := r.GetSlot(5)
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if data != nil || seq != 0 {
		t.Fatalf("GetSlot on an unwritten slot = (%v, %d), want (nil, 0)", data, seq)
	}
}
