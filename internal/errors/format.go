package errors

import (
	"fmt"
	"strings"
)

// Format renders an error for terminal display, including remediation
// text when present.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !As(err, &e) {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(e.Error())

	if e.Wrapped != nil {
		b.WriteString("\n  caused by: ")
		b.WriteString(e.Wrapped.Error())
	}

	if e.Remediation != "" {
		b.WriteString("\n\n  ")
		b.WriteString(e.Remediation)
	}

	return b.String()
}

// Summary renders a one-line error summary with the kind prefix, suitable
// for per-route slots in a build report.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !As(err, &e) {
		return err.Error()
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}
