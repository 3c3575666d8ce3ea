// Package errors provides the structured error type shared by the route
// resolver, compilation cache, compiler adapter, and dev session.
//
// Errors carry a Kind from a closed set so callers can distinguish
// per-route failures (compile rejections, malformed segments) from
// project-wide faults (missing transformer, unreadable route root) without
// string matching. The package also re-exports the stdlib Is/As helpers so
// callers do not need two errors imports.
package errors
