// Package compose merges a route's layout chain and page component into
// a single virtual module suitable for compilation.
//
// Each input file contributes its imports, its top-level declarations,
// and its default-exported component. Layouts are renamed Layout0
// through LayoutN outermost to innermost, the page becomes Page, and a
// generated default export nests them so Layout0 wraps Layout1 wraps
// ... wraps Page. Composition is pure text transformation; identical
// inputs always produce identical output.
package compose
