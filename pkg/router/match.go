package router

import (
	stderrors "errors"
	"strings"
)

// ErrNotFound is returned by MatchRoute when no entry matches.
var ErrNotFound = stderrors.New("router: no matching route")

// MatchRoute walks the priority-ordered route list and returns the first
// entry matching the request path, along with the bound parameters.
func MatchRoute(path string, routes []RouteEntry) (*RouteEntry, Params, error) {
	parts := splitPath(path)
	for i := range routes {
		if params, ok := matchPattern(routes[i].Pattern, parts); ok {
			return &routes[i], params, nil
		}
	}
	return nil, nil, ErrNotFound
}

// matchPattern attempts a segment-by-segment match. Dynamic binds exactly
// one path segment, CatchAll binds one or more remaining segments,
// OptionalCatchAll binds zero or more. Catch-all forms are terminal in a
// pattern by construction.
func matchPattern(pattern []PathSegment, parts []string) (Params, bool) {
	params := make(Params)
	pi := 0

	for i, seg := range pattern {
		switch seg.Kind {
		case SegmentStatic:
			if pi >= len(parts) || parts[pi] != seg.Name {
				return nil, false
			}
			pi++

		case SegmentDynamic:
			if pi >= len(parts) {
				return nil, false
			}
			params[seg.Name] = []string{parts[pi]}
			pi++

		case SegmentCatchAll:
			if i != len(pattern)-1 || pi >= len(parts) {
				return nil, false
			}
			params[seg.Name] = append([]string(nil), parts[pi:]...)
			pi = len(parts)

		case SegmentOptionalCatchAll:
			if i != len(pattern)-1 {
				return nil, false
			}
			params[seg.Name] = append([]string(nil), parts[pi:]...)
			pi = len(parts)

		default:
			// Non-URL segments never appear in a pattern.
			return nil, false
		}
	}

	if pi != len(parts) {
		return nil, false
	}
	return params, true
}

// splitPath splits a request path into segments, ignoring empty parts
// from leading, trailing, or doubled slashes.
func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
