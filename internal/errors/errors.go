package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error into one of the closed set of failure modes
// the bundler can produce. Every error that crosses a package boundary
// carries a Kind so callers can decide between per-route isolation and
// aborting the whole operation.
type Kind string

const (
	// KindMalformedSegment marks bad route directory-name syntax, such as
	// an unmatched bracket. Fatal for that subtree only.
	KindMalformedSegment Kind = "malformed_segment"

	// KindFileSystem marks an unreadable route root or a failed directory
	// walk. Fatal for the whole resolution.
	KindFileSystem Kind = "filesystem"

	// KindToolUnavailable marks a missing or misconfigured external
	// transformer binary. Fatal for any compile attempt.
	KindToolUnavailable Kind = "tool_unavailable"

	// KindCompile marks a transform that rejected the source. Reported per
	// route, never aborts a batch build.
	KindCompile Kind = "compile"

	// KindTimeout marks a compile that exceeded its budget. Treated as a
	// compile failure; the underlying process is terminated.
	KindTimeout Kind = "timeout"

	// KindCacheCorruption marks an unreadable cache index. Recovered
	// locally by treating the cache as empty.
	KindCacheCorruption Kind = "cache_corruption"
)

// Error is the structured error type used throughout the bundler.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Message is a short description of what went wrong.
	Message string

	// Path is the file or directory the error refers to, if any.
	Path string

	// Remediation is a hint on how to fix the problem. Set on
	// ToolUnavailable errors so the CLI can surface actionable text.
	Remediation string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithPath attaches the offending file or directory path.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithRemediation attaches a fix suggestion.
func (e *Error) WithRemediation(r string) *Error {
	e.Remediation = r
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf extracts the Kind from an error chain. Returns the empty Kind
// when no *Error is present in the chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether the error chain contains an *Error of the given
// kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsCompileFailure reports whether the error is a compile rejection or a
// compile timeout. Both are isolated to the affected route in batch
// operations.
func IsCompileFailure(err error) bool {
	k := KindOf(err)
	return k == KindCompile || k == KindTimeout
}

// IsFatal reports whether the error affects the whole project rather than
// a single route: a missing transformer or an unreadable route root.
func IsFatal(err error) bool {
	k := KindOf(err)
	return k == KindToolUnavailable || k == KindFileSystem
}
