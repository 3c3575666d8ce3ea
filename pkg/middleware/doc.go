// Package middleware provides net/http middleware used by the dev
// server: Prometheus request metrics and OpenTelemetry tracing.
package middleware
