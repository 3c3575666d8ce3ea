package router

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rivet-web/rivet/internal/errors"
)

// Recognized route files, in lookup-preference order. The first match in
// a directory wins.
var (
	pageFileNames     = []string{"page.tsx", "page.ts", "page.jsx", "page.js"}
	layoutFileNames   = []string{"layout.tsx", "layout.ts", "layout.jsx", "layout.js"}
	loadingFileNames  = []string{"loading.tsx", "loading.ts", "loading.jsx", "loading.js"}
	errorFileNames    = []string{"error.tsx", "error.ts", "error.jsx", "error.js"}
	notFoundFileNames = []string{"not-found.tsx", "not-found.ts", "not-found.jsx", "not-found.js"}
	handlerFileNames  = []string{"route.ts", "route.js"}
)

// Resolver walks a route-source directory and produces the
// priority-ordered route table. The resolved table is memoized; the
// snapshot is immutable once published and safe for concurrent readers.
type Resolver struct {
	appDir string

	mu       sync.RWMutex
	routes   []RouteEntry
	resolved bool
	warnings []error
}

// NewResolver creates a resolver rooted at the route-source directory.
func NewResolver(appDir string) *Resolver {
	return &Resolver{appDir: appDir}
}

// AppDir returns the route-source directory the resolver walks.
func (r *Resolver) AppDir() string {
	return r.appDir
}

// ResolveRoutes returns the priority-ordered route table, walking the
// filesystem on first call and after Invalidate. Malformed segments are
// reported via Warnings and skip only their subtree; an unreadable route
// root fails the whole resolution.
func (r *Resolver) ResolveRoutes() ([]RouteEntry, error) {
	r.mu.RLock()
	if r.resolved {
		routes := r.routes
		r.mu.RUnlock()
		return routes, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return r.routes, nil
	}

	info, err := os.Stat(r.appDir)
	if err != nil {
		return nil, errors.New(errors.KindFileSystem, "route root unreadable: %v", err).
			WithPath(r.appDir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.KindFileSystem, "route root is not a directory").
			WithPath(r.appDir)
	}

	w := &walker{}
	w.walk(r.appDir, nil, nil)

	sort.SliceStable(w.entries, func(i, j int) bool {
		return compareEntries(&w.entries[i], &w.entries[j]) < 0
	})

	r.routes = w.entries
	r.warnings = w.warnings
	r.resolved = true
	return r.routes, nil
}

// Invalidate discards the memoized route table so the next resolution
// re-walks the filesystem.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
	r.warnings = nil
	r.resolved = false
}

// Warnings returns non-fatal resolution errors (malformed segments,
// conflicting dynamic siblings) collected during the last walk.
func (r *Resolver) Warnings() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.warnings
}

// EntryBundleFiles returns every file needed to build the route's bundle,
// deduplicated, ordered layout chain outer to inner followed by the page
// file.
func (r *Resolver) EntryBundleFiles(e *RouteEntry) []string {
	seen := make(map[string]bool, len(e.LayoutChain)+1)
	var files []string
	for _, layout := range e.LayoutChain {
		if !seen[layout] {
			seen[layout] = true
			files = append(files, layout)
		}
	}
	if e.PageFile != "" && !seen[e.PageFile] {
		files = append(files, e.PageFile)
	}
	return files
}

// walker accumulates entries and warnings during a directory walk.
type walker struct {
	entries  []RouteEntry
	warnings []error
}

// walk processes one directory: picks up its route files, creates an
// entry when a terminal file exists, then recurses into children with
// the extended layout chain.
func (w *walker) walk(dir string, pattern []PathSegment, layouts []string) {
	if layout := findRouteFile(dir, layoutFileNames); layout != "" {
		layouts = append(append([]string(nil), layouts...), layout)
	}

	page := findRouteFile(dir, pageFileNames)
	handler := findRouteFile(dir, handlerFileNames)
	if page != "" || handler != "" {
		entry := RouteEntry{
			RoutePath:    patternPath(pattern),
			Pattern:      append([]PathSegment(nil), pattern...),
			LayoutChain:  layouts,
			PageFile:     page,
			LoadingFile:  findRouteFile(dir, loadingFileNames),
			ErrorFile:    findRouteFile(dir, errorFileNames),
			NotFoundFile: findRouteFile(dir, notFoundFileNames),
			HandlerFile:  handler,
			AllFiles:     make(map[string]bool),
		}
		for _, f := range layouts {
			entry.AllFiles[f] = true
		}
		for _, f := range []string{page, entry.LoadingFile, entry.ErrorFile, entry.NotFoundFile, handler} {
			if f != "" {
				entry.AllFiles[f] = true
			}
		}
		w.entries = append(w.entries, entry)
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		w.warnings = append(w.warnings,
			errors.New(errors.KindFileSystem, "reading directory: %v", err).WithPath(dir))
		return
	}

	// Catch-all segments consume the rest of the path; nothing can nest
	// beneath them.
	if n := len(pattern); n > 0 {
		k := pattern[n-1].Kind
		if k == SegmentCatchAll || k == SegmentOptionalCatchAll {
			for _, d := range dirents {
				if d.IsDir() {
					w.warnings = append(w.warnings, malformedPath(
						filepath.Join(dir, d.Name()),
						"route directories cannot nest under a catch-all segment"))
				}
			}
			return
		}
	}

	children := w.parseChildren(dir, dirents)
	for _, child := range children {
		childPattern := pattern
		if child.seg.ContributesURL() {
			childPattern = append(append([]PathSegment(nil), pattern...), child.seg)
		}
		w.walk(child.path, childPattern, layouts)
	}
}

type childDir struct {
	path string
	seg  PathSegment
}

// parseChildren parses subdirectory names, reporting malformed names and
// the unresolvable case of two dynamic-class siblings at the same depth,
// which is a configuration error rather than something to guess a
// precedence for.
func (w *walker) parseChildren(dir string, dirents []os.DirEntry) []childDir {
	var children []childDir
	var dynamic, catchAll []int

	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || name == "node_modules" {
			continue
		}
		seg, err := ParseSegment(name)
		if err != nil {
			w.warnings = append(w.warnings,
				errors.New(errors.KindMalformedSegment, "%v", err).WithPath(filepath.Join(dir, name)))
			continue
		}
		idx := len(children)
		children = append(children, childDir{path: filepath.Join(dir, name), seg: seg})
		switch seg.Kind {
		case SegmentDynamic:
			dynamic = append(dynamic, idx)
		case SegmentCatchAll, SegmentOptionalCatchAll:
			catchAll = append(catchAll, idx)
		}
	}

	drop := make(map[int]bool)
	w.markConflicting(dir, children, dynamic, "dynamic", drop)
	w.markConflicting(dir, children, catchAll, "catch-all", drop)
	if len(drop) > 0 {
		kept := children[:0]
		for i, c := range children {
			if !drop[i] {
				kept = append(kept, c)
			}
		}
		children = kept
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].path < children[j].path
	})
	return children
}

// markConflicting flags same-depth sibling segments of the same class
// when more than one exists, since their relative precedence is
// undefined.
func (w *walker) markConflicting(dir string, children []childDir, idxs []int, class string, drop map[int]bool) {
	if len(idxs) < 2 {
		return
	}
	names := make([]string, len(idxs))
	for i, idx := range idxs {
		names[i] = filepath.Base(children[idx].path)
		drop[idx] = true
	}
	w.warnings = append(w.warnings, errors.New(errors.KindMalformedSegment,
		"conflicting %s siblings %v have no defined precedence", class, names).WithPath(dir))
}

// patternPath renders the canonical route path for a segment pattern.
func patternPath(pattern []PathSegment) string {
	if len(pattern) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range pattern {
		b.WriteByte('/')
		b.WriteString(seg.Placeholder())
	}
	return b.String()
}

// findRouteFile returns the first existing file from names in dir, or "".
func findRouteFile(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// compareEntries orders two entries for priority resolution: compare
// URL segments pairwise by rank (static before dynamic before catch-all
// before optional catch-all); on a fully tied prefix the shallower entry
// wins; remaining ties break lexicographically so the order is total and
// stable.
func compareEntries(a, b *RouteEntry) int {
	n := len(a.Pattern)
	if len(b.Pattern) < n {
		n = len(b.Pattern)
	}
	for i := 0; i < n; i++ {
		if ra, rb := segmentRank(a.Pattern[i]), segmentRank(b.Pattern[i]); ra != rb {
			return ra - rb
		}
	}
	if len(a.Pattern) != len(b.Pattern) {
		return len(a.Pattern) - len(b.Pattern)
	}
	return strings.Compare(a.RoutePath, b.RoutePath)
}
