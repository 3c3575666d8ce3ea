// Package router discovers the file-system-defined route tree of a
// project and matches request paths against it.
//
// One directory level under the route-source directory is one route
// segment. Static names match literally; [name] binds one segment;
// [...name] binds one or more; [[...name]] binds zero or more; (name)
// groups files without a URL segment; @name declares a parallel render
// slot; (.)name, (..)name, and (...)name mark intercepting segments.
//
// Resolution produces a flat list of RouteEntry values in priority order:
// static segments outrank dynamic ones, which outrank catch-alls, which
// outrank optional catch-alls. Matching tries entries in that order and
// returns the first hit, so a literal /blog/latest always beats
// /blog/[slug] for the concrete path /blog/latest.
package router
