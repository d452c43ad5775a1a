// Package reader opens PDF byte buffers and serves their indirect objects.
//
// A Reader parses the %PDF header, loads the cross-reference chain
// (classic tables, xref streams and hybrids, following /Prev through
// incremental updates) and then resolves objects on demand, including
// objects packed into object streams. Loaded objects are cached by number.
//
// The whole document lives in memory. Callers hand the Reader a []byte and
// nothing is read from disk afterwards.
package reader
