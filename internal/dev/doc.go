// Package dev runs the live development session: it watches the route
// source tree, coalesces bursts of file changes, recompiles only the
// impacted routes, and pushes ordered update notifications to connected
// browsers over WebSocket.
//
// A session moves Idle -> Watching -> (Debouncing -> Recompiling ->
// Notifying) -> Watching, with Stopped reachable from any state. Each
// debounced burst becomes one ChangeEvent with a monotonically
// increasing sequence number; notifications are always delivered in
// sequence order even when recompilation finishes out of order.
package dev
