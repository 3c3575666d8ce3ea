// Package cache is the content-addressed store for compiled route
// bundles.
//
// A key is derived from the composed source bytes, the compilation
// mode, and the compiler version, so identical inputs always map to
// the same entry and any input change maps to a fresh one. Entries are
// immutable once written; they leave the store only through explicit
// eviction.
//
// On disk the store is a category-partitioned directory of output
// blobs plus one versioned JSON index. An index that cannot be parsed
// degrades the store to empty rather than failing callers. GetOrCompute
// guarantees at most one concurrent compute per key; racing callers
// join the in-flight computation instead of re-invoking the compiler.
package cache
