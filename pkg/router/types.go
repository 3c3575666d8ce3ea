package router

// RouteEntry identifies one resolvable URL route discovered under the
// route-source directory.
type RouteEntry struct {
	// RoutePath is the canonical slash-separated path with {param}
	// placeholders, e.g. "/blog/{slug}".
	RoutePath string

	// Pattern holds the URL-contributing segments in order. Group,
	// parallel-slot, and intercepting segments are omitted here but their
	// files still appear in AllFiles.
	Pattern []PathSegment

	// LayoutChain lists layout files outermost first.
	LayoutChain []string

	// PageFile is the page component source, if any.
	PageFile string

	// LoadingFile is the loading-state component, if any.
	LoadingFile string

	// ErrorFile is the error-boundary component, if any.
	ErrorFile string

	// NotFoundFile is the not-found component, if any.
	NotFoundFile string

	// HandlerFile is the API handler source, if any. A route may have a
	// handler alongside or instead of a page.
	HandlerFile string

	// AllFiles is every source file contributing to this route, used for
	// change-impact analysis and bundling.
	AllFiles map[string]bool
}

// HasTerminal reports whether the entry resolves to something servable.
func (e *RouteEntry) HasTerminal() bool {
	return e.PageFile != "" || e.HandlerFile != ""
}

// ContainsFile reports whether path contributes to this route.
func (e *RouteEntry) ContainsFile(path string) bool {
	return e.AllFiles[path]
}

// Params maps parameter names to the path segments they bound during a
// match. A Dynamic segment binds exactly one value; CatchAll and
// OptionalCatchAll bind the remaining segments in order (possibly none
// for the optional form).
type Params map[string][]string

// Get returns the first bound value for name, or "".
func (p Params) Get(name string) string {
	if vs := p[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
