package router

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates the given files (with trivial content) under a temp
// directory and returns its path.
func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("export default function C() { return null }\n"), 0644))
	}
	return root
}

func routePaths(routes []RouteEntry) []string {
	paths := make([]string, len(routes))
	for i, r := range routes {
		paths[i] = r.RoutePath
	}
	return paths
}

func TestResolveRoutes_Deterministic(t *testing.T) {
	files := []string{
		"layout.tsx",
		"page.tsx",
		"blog/page.tsx",
		"blog/latest/page.tsx",
		"blog/[slug]/page.tsx",
		"docs/[...slug]/page.tsx",
		"api/health/route.ts",
	}

	var first []string
	for i := 0; i < 3; i++ {
		root := writeTree(t, files...)
		routes, err := NewResolver(root).ResolveRoutes()
		require.NoError(t, err)
		paths := routePaths(routes)
		if first == nil {
			first = paths
			continue
		}
		assert.Equal(t, first, paths, "resolution must be deterministic across identical trees")
	}

	assert.Equal(t, []string{
		"/",
		"/blog",
		"/api/health",
		"/blog/latest",
		"/blog/{slug}",
		"/docs/{...slug}",
	}, first)
}

func TestResolveRoutes_LiteralBeforeDynamic(t *testing.T) {
	root := writeTree(t,
		"blog/page.tsx",
		"blog/latest/page.tsx",
		"blog/[slug]/page.tsx",
	)

	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)

	entry, params, err := MatchRoute("/blog/latest", routes)
	require.NoError(t, err)
	assert.Equal(t, "/blog/latest", entry.RoutePath, "literal route must win over [slug]")
	assert.Empty(t, params)

	entry, params, err = MatchRoute("/blog/hello-world", routes)
	require.NoError(t, err)
	assert.Equal(t, "/blog/{slug}", entry.RoutePath)
	assert.Equal(t, "hello-world", params.Get("slug"))
}

func TestResolveRoutes_LayoutChain(t *testing.T) {
	root := writeTree(t,
		"layout.tsx",
		"dashboard/layout.tsx",
		"dashboard/settings/page.tsx",
	)

	r := NewResolver(root)
	routes, err := r.ResolveRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 1)

	entry := routes[0]
	assert.Equal(t, "/dashboard/settings", entry.RoutePath)
	require.Len(t, entry.LayoutChain, 2)
	assert.Equal(t, filepath.Join(root, "layout.tsx"), entry.LayoutChain[0], "root layout is outermost")
	assert.Equal(t, filepath.Join(root, "dashboard", "layout.tsx"), entry.LayoutChain[1])

	// Bundle order: layouts outer to inner, then the page.
	bundle := r.EntryBundleFiles(&entry)
	assert.Equal(t, []string{
		filepath.Join(root, "layout.tsx"),
		filepath.Join(root, "dashboard", "layout.tsx"),
		filepath.Join(root, "dashboard", "settings", "page.tsx"),
	}, bundle)
}

func TestResolveRoutes_GroupsAndSlots(t *testing.T) {
	root := writeTree(t,
		"layout.tsx",
		"(marketing)/about/page.tsx",
		"(marketing)/layout.tsx",
		"@modal/login/page.tsx",
	)

	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)

	paths := routePaths(routes)
	assert.Contains(t, paths, "/about", "group segment contributes no URL part")
	assert.Contains(t, paths, "/login", "parallel slot contributes no URL part")
	assert.NotContains(t, paths, "/(marketing)/about")

	for _, entry := range routes {
		if entry.RoutePath == "/about" {
			// The group's own layout is still associated with the route.
			assert.True(t, entry.ContainsFile(filepath.Join(root, "(marketing)", "layout.tsx")))
			assert.True(t, entry.ContainsFile(filepath.Join(root, "layout.tsx")))
		}
	}
}

func TestResolveRoutes_AllFilesMetadata(t *testing.T) {
	root := writeTree(t,
		"layout.tsx",
		"shop/page.tsx",
		"shop/loading.tsx",
		"shop/error.tsx",
		"shop/not-found.tsx",
	)

	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 1)

	entry := routes[0]
	assert.NotEmpty(t, entry.LoadingFile)
	assert.NotEmpty(t, entry.ErrorFile)
	assert.NotEmpty(t, entry.NotFoundFile)
	for _, f := range []string{entry.PageFile, entry.LoadingFile, entry.ErrorFile, entry.NotFoundFile} {
		assert.True(t, entry.ContainsFile(f), "AllFiles must include %s", f)
	}
}

func TestResolveRoutes_MalformedSegmentIsolated(t *testing.T) {
	root := writeTree(t,
		"good/page.tsx",
		"[broken/page.tsx",
	)

	r := NewResolver(root)
	routes, err := r.ResolveRoutes()
	require.NoError(t, err, "a malformed subtree must not abort sibling resolution")
	assert.Equal(t, []string{"/good"}, routePaths(routes))
	assert.NotEmpty(t, r.Warnings(), "the malformed segment must be reported")
}

func TestResolveRoutes_ConflictingDynamicSiblings(t *testing.T) {
	root := writeTree(t,
		"posts/[slug]/page.tsx",
		"posts/[id]/page.tsx",
		"posts/page.tsx",
	)

	r := NewResolver(root)
	routes, err := r.ResolveRoutes()
	require.NoError(t, err)

	// Neither dynamic sibling survives; their precedence is undefined.
	assert.Equal(t, []string{"/posts"}, routePaths(routes))
	require.NotEmpty(t, r.Warnings())
}

func TestResolveRoutes_NoNestingUnderCatchAll(t *testing.T) {
	root := writeTree(t,
		"docs/[...rest]/page.tsx",
		"docs/[...rest]/deeper/page.tsx",
	)

	r := NewResolver(root)
	routes, err := r.ResolveRoutes()
	require.NoError(t, err)

	// The catch-all consumes the remaining path; the nested directory is
	// reported and produces no route.
	assert.Equal(t, []string{"/docs/{...rest}"}, routePaths(routes))
	require.NotEmpty(t, r.Warnings())
	assert.Contains(t, r.Warnings()[0].Error(), "catch-all")
}

func TestResolveRoutes_Invalidate(t *testing.T) {
	root := writeTree(t, "page.tsx")
	r := NewResolver(root)

	routes, err := r.ResolveRoutes()
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	// New route file appears; memo must hide it until invalidated.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "new"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "new", "page.tsx"), []byte("x"), 0644))

	routes, err = r.ResolveRoutes()
	require.NoError(t, err)
	assert.Len(t, routes, 1, "memoized table must be served until Invalidate")

	r.Invalidate()
	routes, err = r.ResolveRoutes()
	require.NoError(t, err)
	assert.Len(t, routes, 2)
}

func TestResolveRoutes_MissingRoot(t *testing.T) {
	_, err := NewResolver(filepath.Join(t.TempDir(), "nope")).ResolveRoutes()
	require.Error(t, err)
}

func TestMatchRoute_CatchAll(t *testing.T) {
	root := writeTree(t, "docs/[...slug]/page.tsx")
	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)

	for path, want := range map[string][]string{
		"/docs/a":     {"a"},
		"/docs/a/b":   {"a", "b"},
		"/docs/a/b/c": {"a", "b", "c"},
	} {
		entry, params, err := MatchRoute(path, routes)
		require.NoError(t, err, path)
		assert.Equal(t, "/docs/{...slug}", entry.RoutePath)
		assert.Equal(t, want, params["slug"], path)
	}

	// A catch-all binds one or more segments, never zero.
	_, _, err = MatchRoute("/docs", routes)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMatchRoute_OptionalCatchAll(t *testing.T) {
	root := writeTree(t, "shop/[[...slug]]/page.tsx")
	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)

	entry, params, err := MatchRoute("/shop", routes)
	require.NoError(t, err, "optional catch-all must match the bare path")
	assert.Equal(t, "/shop/{{...slug}}", entry.RoutePath)
	assert.Empty(t, params["slug"])

	_, params, err = MatchRoute("/shop/a/b", routes)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, params["slug"])
}

func TestMatchRoute_NotFound(t *testing.T) {
	root := writeTree(t, "page.tsx")
	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)

	_, _, err = MatchRoute("/missing", routes)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMatchRoute_DynamicBindsExactlyOne(t *testing.T) {
	root := writeTree(t, "users/[id]/page.tsx")
	routes, err := NewResolver(root).ResolveRoutes()
	require.NoError(t, err)

	_, params, err := MatchRoute("/users/42", routes)
	require.NoError(t, err)
	assert.Equal(t, Params{"id": {"42"}}, params)

	_, _, err = MatchRoute("/users/42/extra", routes)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = MatchRoute("/users", routes)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/a/b", []string{"a", "b"}},
		{"a/b/", []string{"a", "b"}},
		{"//a//b//", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := splitPath(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
