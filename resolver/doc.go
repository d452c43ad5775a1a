// Package resolver provides cycle-safe resolution of indirect references.
//
// PDF objects form a potentially cyclic graph (a page references its parent,
// which references the page). The [ObjectResolver] tracks the set of object
// numbers currently mid-resolution; re-entering one fails with a
// CyclicReference error instead of recursing until the stack overflows.
//
// Shallow resolution follows a single reference; deep resolution expands
// every reference nested in dictionaries, arrays, and stream dictionaries.
package resolver
