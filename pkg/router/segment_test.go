package router

import (
	"sort"
	"testing"

	"github.com/rivet-web/rivet/internal/errors"
)

func TestParseSegment(t *testing.T) {
	tests := []struct {
		name   string
		want   PathSegment
		wantOK bool
	}{
		{"blog", PathSegment{Kind: SegmentStatic, Name: "blog"}, true},
		{"about-us", PathSegment{Kind: SegmentStatic, Name: "about-us"}, true},
		{"[slug]", PathSegment{Kind: SegmentDynamic, Name: "slug"}, true},
		{"[user_id]", PathSegment{Kind: SegmentDynamic, Name: "user_id"}, true},
		{"[...slug]", PathSegment{Kind: SegmentCatchAll, Name: "slug"}, true},
		{"[[...slug]]", PathSegment{Kind: SegmentOptionalCatchAll, Name: "slug"}, true},
		{"(marketing)", PathSegment{Kind: SegmentGroup, Name: "marketing"}, true},
		{"@analytics", PathSegment{Kind: SegmentParallelSlot, Name: "analytics"}, true},
		{"(.)photo", PathSegment{Kind: SegmentIntercept, Name: "photo", InterceptLevels: 0}, true},
		{"(..)photo", PathSegment{Kind: SegmentIntercept, Name: "photo", InterceptLevels: 1}, true},
		{"(..)(..)photo", PathSegment{Kind: SegmentIntercept, Name: "photo", InterceptLevels: 2}, true},
		{"(...)photo", PathSegment{Kind: SegmentIntercept, Name: "photo", InterceptLevels: InterceptRoot}, true},

		// Malformed names.
		{"[slug", PathSegment{}, false},
		{"slug]", PathSegment{}, false},
		{"[]", PathSegment{}, false},
		{"[[...]]", PathSegment{}, false},
		{"[[slug]]", PathSegment{}, false},
		{"(marketing", PathSegment{}, false},
		{"()", PathSegment{}, false},
		{"@", PathSegment{}, false},
		{"(.)", PathSegment{}, false},
		{"(...)", PathSegment{}, false},
		{"[sl ug]", PathSegment{}, false},
		{"", PathSegment{}, false},
	}

	for _, tt := range tests {
		got, err := ParseSegment(tt.name)
		if tt.wantOK {
			if err != nil {
				t.Errorf("ParseSegment(%q) error = %v", tt.name, err)
				continue
			}
			if got != tt.want {
				t.Errorf("ParseSegment(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		} else {
			if err == nil {
				t.Errorf("ParseSegment(%q) should fail, got %+v", tt.name, got)
				continue
			}
			if !errors.IsKind(err, errors.KindMalformedSegment) {
				t.Errorf("ParseSegment(%q) error kind = %q, want malformed_segment", tt.name, errors.KindOf(err))
			}
		}
	}
}

func TestParseSegment_Total(t *testing.T) {
	// Every legal name maps to exactly one tag; no name maps to two.
	legal := []string{"docs", "[id]", "[...rest]", "[[...rest]]", "(shop)", "@modal", "(.)item"}
	for _, name := range legal {
		seg, err := ParseSegment(name)
		if err != nil {
			t.Fatalf("ParseSegment(%q) error = %v", name, err)
		}
		if seg.ContributesURL() == (seg.Kind == SegmentGroup || seg.Kind == SegmentParallelSlot || seg.Kind == SegmentIntercept) {
			t.Errorf("ParseSegment(%q): URL contribution inconsistent with kind %d", name, seg.Kind)
		}
	}
}

func TestComparePriority_Ranking(t *testing.T) {
	static := PathSegment{Kind: SegmentStatic, Name: "latest"}
	dynamic := PathSegment{Kind: SegmentDynamic, Name: "slug"}
	catchAll := PathSegment{Kind: SegmentCatchAll, Name: "rest"}
	optional := PathSegment{Kind: SegmentOptionalCatchAll, Name: "rest"}

	ordered := []PathSegment{static, dynamic, catchAll, optional}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ComparePriority(ordered[i], ordered[j]) >= 0 {
				t.Errorf("segment %d should rank before segment %d", i, j)
			}
			if ComparePriority(ordered[j], ordered[i]) <= 0 {
				t.Errorf("segment %d should rank after segment %d", j, i)
			}
		}
	}
}

func TestComparePriority_StrictWeakOrder(t *testing.T) {
	segs := []PathSegment{
		{Kind: SegmentCatchAll, Name: "rest"},
		{Kind: SegmentStatic, Name: "blog"},
		{Kind: SegmentOptionalCatchAll, Name: "slug"},
		{Kind: SegmentDynamic, Name: "id"},
		{Kind: SegmentStatic, Name: "about"},
		{Kind: SegmentDynamic, Name: "slug"},
	}

	// Transitivity: sorting must be well-defined and idempotent.
	sorted := append([]PathSegment(nil), segs...)
	sort.Slice(sorted, func(i, j int) bool { return ComparePriority(sorted[i], sorted[j]) < 0 })
	again := append([]PathSegment(nil), sorted...)
	sort.Slice(again, func(i, j int) bool { return ComparePriority(again[i], again[j]) < 0 })

	for i := range sorted {
		if sorted[i] != again[i] {
			t.Fatalf("sorting is not stable: %+v vs %+v", sorted[i], again[i])
		}
	}

	// Consistency: equal segments compare equal both ways.
	a := PathSegment{Kind: SegmentDynamic, Name: "x"}
	b := PathSegment{Kind: SegmentDynamic, Name: "x"}
	if ComparePriority(a, b) != 0 || ComparePriority(b, a) != 0 {
		t.Error("identical segments must compare equal")
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		seg  PathSegment
		want string
	}{
		{PathSegment{Kind: SegmentStatic, Name: "blog"}, "blog"},
		{PathSegment{Kind: SegmentDynamic, Name: "slug"}, "{slug}"},
		{PathSegment{Kind: SegmentCatchAll, Name: "rest"}, "{...rest}"},
		{PathSegment{Kind: SegmentOptionalCatchAll, Name: "rest"}, "{{...rest}}"},
	}
	for _, tt := range tests {
		if got := tt.seg.Placeholder(); got != tt.want {
			t.Errorf("Placeholder() = %q, want %q", got, tt.want)
		}
	}
}
