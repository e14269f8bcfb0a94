// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, and debug
// introspection layer shared by the doublebuffer and ringfanout
// transports.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates on TransportConfig
//   - Runtime observers for hot-reload
//   - Metrics telemetry contracts
//   - State export, debug hooks, and platform probe registration
package control
