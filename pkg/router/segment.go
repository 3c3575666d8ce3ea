package router

import (
	"strings"

	"github.com/rivet-web/rivet/internal/errors"
)

// SegmentKind tags a parsed directory segment.
type SegmentKind int

const (
	// SegmentStatic matches its literal name.
	SegmentStatic SegmentKind = iota

	// SegmentDynamic ([name]) binds exactly one path segment.
	SegmentDynamic

	// SegmentCatchAll ([...name]) binds one or more remaining segments.
	SegmentCatchAll

	// SegmentOptionalCatchAll ([[...name]]) binds zero or more remaining
	// segments.
	SegmentOptionalCatchAll

	// SegmentGroup ((name)) organizes files without contributing a URL
	// segment.
	SegmentGroup

	// SegmentParallelSlot (@name) names a render slot without contributing
	// a URL segment.
	SegmentParallelSlot

	// SegmentIntercept ((.)name, (..)name, (..)(..)name, (...)name) marks
	// an intercepting segment; it contributes no URL segment.
	SegmentIntercept
)

// InterceptRoot marks an intercept relative to the route root ((...)name).
const InterceptRoot = -1

// PathSegment is one parsed directory name.
type PathSegment struct {
	// Kind is the segment tag. Exactly one applies.
	Kind SegmentKind

	// Name is the literal for static/group/slot segments, the parameter
	// name for dynamic variants, and the target segment for intercepts.
	Name string

	// InterceptLevels is how many levels up the intercept points:
	// 0 = same level, N = N levels up, InterceptRoot = route root.
	// Only meaningful when Kind is SegmentIntercept.
	InterceptLevels int
}

// ContributesURL reports whether the segment appears in the canonical
// route path. Group, parallel-slot, and intercepting segments do not.
func (s PathSegment) ContributesURL() bool {
	switch s.Kind {
	case SegmentGroup, SegmentParallelSlot, SegmentIntercept:
		return false
	}
	return true
}

// Placeholder renders the segment in canonical route-path notation.
func (s PathSegment) Placeholder() string {
	switch s.Kind {
	case SegmentDynamic:
		return "{" + s.Name + "}"
	case SegmentCatchAll:
		return "{..." + s.Name + "}"
	case SegmentOptionalCatchAll:
		return "{{..." + s.Name + "}}"
	default:
		return s.Name
	}
}

// ParseSegment parses a single directory name into a typed PathSegment.
// Every legal directory name maps to exactly one tag; an illegal name
// (unmatched bracket, empty parameter) fails with a MalformedSegment
// error naming the offending segment.
func ParseSegment(name string) (PathSegment, error) {
	if name == "" {
		return PathSegment{}, malformed(name, "empty segment name")
	}

	// Parallel slot: @name.
	if strings.HasPrefix(name, "@") {
		slot := name[1:]
		if slot == "" || strings.ContainsAny(slot, "[]()@") {
			return PathSegment{}, malformed(name, "invalid parallel slot name")
		}
		return PathSegment{Kind: SegmentParallelSlot, Name: slot}, nil
	}

	// Intercept markers and groups both open with a parenthesis.
	if strings.HasPrefix(name, "(") {
		return parseParenSegment(name)
	}

	// Double bracket: optional catch-all only.
	if strings.HasPrefix(name, "[[") {
		if !strings.HasSuffix(name, "]]") {
			return PathSegment{}, malformed(name, "unmatched '[['")
		}
		inner := name[2 : len(name)-2]
		param, ok := strings.CutPrefix(inner, "...")
		if !ok {
			return PathSegment{}, malformed(name, "double brackets require '...' (optional catch-all)")
		}
		if !validParamName(param) {
			return PathSegment{}, malformed(name, "invalid parameter name")
		}
		return PathSegment{Kind: SegmentOptionalCatchAll, Name: param}, nil
	}

	// Single bracket: dynamic or catch-all.
	if strings.HasPrefix(name, "[") {
		if !strings.HasSuffix(name, "]") || strings.HasSuffix(name, "]]") {
			return PathSegment{}, malformed(name, "unmatched '['")
		}
		inner := name[1 : len(name)-1]
		if param, ok := strings.CutPrefix(inner, "..."); ok {
			if !validParamName(param) {
				return PathSegment{}, malformed(name, "invalid parameter name")
			}
			return PathSegment{Kind: SegmentCatchAll, Name: param}, nil
		}
		if !validParamName(inner) {
			return PathSegment{}, malformed(name, "invalid parameter name")
		}
		return PathSegment{Kind: SegmentDynamic, Name: inner}, nil
	}

	// A stray closing bracket or parenthesis is never legal in a static
	// segment.
	if strings.ContainsAny(name, "[]()") {
		return PathSegment{}, malformed(name, "unmatched bracket")
	}

	return PathSegment{Kind: SegmentStatic, Name: name}, nil
}

// parseParenSegment handles groups and intercept markers.
func parseParenSegment(name string) (PathSegment, error) {
	// Root intercept: (...)target.
	if rest, ok := strings.CutPrefix(name, "(...)"); ok {
		if rest == "" {
			return PathSegment{}, malformed(name, "intercept marker requires a target segment")
		}
		return PathSegment{Kind: SegmentIntercept, Name: rest, InterceptLevels: InterceptRoot}, nil
	}

	// Level intercepts: (.)target, (..)target, (..)(..)target, ...
	levels, rest, isIntercept := cutInterceptMarkers(name)
	if isIntercept {
		if rest == "" {
			return PathSegment{}, malformed(name, "intercept marker requires a target segment")
		}
		if strings.ContainsAny(rest, "[]()@") {
			return PathSegment{}, malformed(name, "invalid intercept target")
		}
		return PathSegment{Kind: SegmentIntercept, Name: rest, InterceptLevels: levels}, nil
	}

	// Group: (name).
	if strings.HasSuffix(name, ")") && strings.Count(name, "(") == 1 {
		inner := name[1 : len(name)-1]
		if inner == "" || strings.ContainsAny(inner, "[]()@") {
			return PathSegment{}, malformed(name, "invalid group name")
		}
		return PathSegment{Kind: SegmentGroup, Name: inner}, nil
	}

	return PathSegment{}, malformed(name, "unmatched parenthesis")
}

// cutInterceptMarkers strips leading (.) and (..) markers, returning the
// level count and the remaining target. (.) alone is level 0; each (..)
// adds one level.
func cutInterceptMarkers(name string) (levels int, rest string, ok bool) {
	rest = name
	if r, found := strings.CutPrefix(rest, "(.)"); found {
		return 0, r, true
	}
	for {
		r, found := strings.CutPrefix(rest, "(..)")
		if !found {
			break
		}
		levels++
		rest = r
		ok = true
	}
	return levels, rest, ok
}

// validParamName accepts parameter names made of letters, digits,
// underscores, and hyphens.
func validParamName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

func malformed(segment, reason string) error {
	return errors.New(errors.KindMalformedSegment, "%s in %q", reason, segment)
}

func malformedPath(path, reason string) error {
	return errors.New(errors.KindMalformedSegment, "%s", reason).WithPath(path)
}

// segmentRank orders segment kinds for priority resolution. Lower ranks
// match first. Non-URL segments rank with static so they never perturb
// ordering of the paths beneath them.
func segmentRank(s PathSegment) int {
	switch s.Kind {
	case SegmentDynamic:
		return 1
	case SegmentCatchAll:
		return 2
	case SegmentOptionalCatchAll:
		return 3
	default:
		return 0
	}
}

// ComparePriority orders two segments for route matching: static before
// dynamic, dynamic before catch-all, catch-all before optional catch-all.
// Equal-rank segments compare by name so the overall ordering is a strict
// weak order and sorting is deterministic.
func ComparePriority(a, b PathSegment) int {
	ra, rb := segmentRank(a), segmentRank(b)
	if ra != rb {
		return ra - rb
	}
	return strings.Compare(a.Name, b.Name)
}
