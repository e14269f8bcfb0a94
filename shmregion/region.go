// File: shmregion/region.go
// Author: momentics <momentics@gmail.com>
//
// OS-neutral shared-memory region handle. Platform-specific Create,
// Open, and OpenReadOnly constructors live in region_linux.go,
// region_windows.go, and region_stub.go; all three build the same
// *Region shape so the transport packages never branch on OS.

package shmregion

import "strings"

// Region is a mapped view of a named shared-memory object.
type Region struct {
	name     string
	data     []byte
	hugePage bool

	// close unmaps (and, on Unix, closes the backing fd). Set by the
	// platform-specific constructor.
	close func() error
	// unlink removes the backing object from the OS namespace. Only
	// set on regions created by their owner — Destroy calls it,
	// plain Close never does, matching base spec §5's "owner of a
	// region (the creator) is responsible for unlink."
	unlink func() error
}

// Bytes returns the mapped region's backing storage. The slice is
// valid until Close or Destroy is called.
func (r *Region) Bytes() []byte { return r.data }

// Size returns the mapped region's size in bytes.
func (r *Region) Size() int { return len(r.data) }

// HugePageBacked reports whether the mapping is actually backed by
// huge pages (which may differ from what the caller requested, since
// huge-page mapping transparently falls back to ordinary pages).
func (r *Region) HugePageBacked() bool { return r.hugePage }

// Close unmaps the region without unlinking the backing object. Use
// this from a non-owning endpoint (e.g. a double-buffer reader, or the
// ring fan-out writer's per-reader mappings).
func (r *Region) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// Destroy unmaps and unlinks the region. Only the endpoint that
// created the region should call this.
func (r *Region) Destroy() error {
	if err := r.Close(); err != nil {
		return err
	}
	if r.unlink == nil {
		return nil
	}
	return r.unlink()
}

// backingName strips the leading slash a region name is conventionally
// given (e.g. "/sensor_channel") since the OS-level object namespaces
// this package maps onto (tmpfs paths, Win32 "Local\" names) do not
// use one themselves.
func backingName(name string) string {
	return strings.TrimPrefix(name, "/")
}
