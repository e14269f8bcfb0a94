// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe transport configuration store with dynamic update and
// hot-reload propagation.

package control

import (
	"sync"
	"time"
)

// Recognized TransportConfig keys and their defaults, read through the
// typed accessors below. The doublebuffer and ringfanout packages do
// not read TransportConfig themselves; a host process passes the values
// to their constructors.
const (
	KeyWriterLivenessTimeout = "writer_liveness_timeout"
	KeyHugePagesEnabled      = "huge_pages_enabled"
	KeyPrefetchDistance      = "prefetch_distance_override"
	KeyDefaultRingSize       = "default_ring_size"

	DefaultWriterLivenessTimeout = 2 * time.Second
	DefaultHugePagesEnabled      = false
	DefaultRingSizeValue         = 30
)

// TransportConfig is a dynamic key/value store with atomic snapshot and
// listener support, carrying the tunables shared across a process's
// double-buffer and ring fan-out endpoints (writer liveness timeout,
// huge-page opt-in, prefetch distance override, default ring size).
type TransportConfig struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewTransportConfig initializes a new config store seeded with this
// package's defaults.
func NewTransportConfig() *TransportConfig {
	return &TransportConfig{
		config: map[string]any{
			KeyWriterLivenessTimeout: DefaultWriterLivenessTimeout,
			KeyHugePagesEnabled:      DefaultHugePagesEnabled,
			KeyDefaultRingSize:       DefaultRingSizeValue,
		},
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (tc *TransportConfig) GetSnapshot() map[string]any {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	snapshot := make(map[string]any, len(tc.config))
	for k, v := range tc.config {
		snapshot[k] = v
	}
	return snapshot
}

// SetConfig merges new values and dispatches reload if needed.
func (tc *TransportConfig) SetConfig(newCfg map[string]any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for k, v := range newCfg {
		tc.config[k] = v
	}
	tc.dispatchReload()
}

// OnReload registers a listener hook called on config changes.
func (tc *TransportConfig) OnReload(fn func()) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// dispatchReload invokes all listeners.
func (tc *TransportConfig) dispatchReload() {
	for _, fn := range tc.listeners {
		go fn()
	}
}

// WriterLivenessTimeout returns the configured heartbeat-age threshold
// readers should use for IsWriterAlive checks.
func (tc *TransportConfig) WriterLivenessTimeout() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if v, ok := tc.config[KeyWriterLivenessTimeout].(time.Duration); ok {
		return v
	}
	return DefaultWriterLivenessTimeout
}

// HugePagesEnabled reports whether callers should request huge-page
// backing when constructing cache-tuned channels.
func (tc *TransportConfig) HugePagesEnabled() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if v, ok := tc.config[KeyHugePagesEnabled].(bool); ok {
		return v
	}
	return DefaultHugePagesEnabled
}

// PrefetchDistanceOverride returns a caller-supplied prefetch distance
// in bytes, or 0 when unset (meaning: use platform.CacheInfo's
// computed default instead).
func (tc *TransportConfig) PrefetchDistanceOverride() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if v, ok := tc.config[KeyPrefetchDistance].(int); ok {
		return v
	}
	return 0
}

// DefaultRingSize returns the ring size new ring fan-out readers should
// use when none is explicitly requested.
func (tc *TransportConfig) DefaultRingSize() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if v, ok := tc.config[KeyDefaultRingSize].(int); ok {
		return v
	}
	return DefaultRingSizeValue
}
