// Package writer serializes a document back to PDF bytes.
//
// Serialization walks the live object graph from the page list, the
// catalog and the info dictionary, copying only reachable objects under
// fresh sequential numbers. Everything else in the document's table is
// pruned. A new flat page tree is built for the page list, the
// cross-reference table is rebuilt from the emitted offsets, and the
// trailer points at the rewritten catalog.
//
// Output is deterministic for a given document: dictionary keys are
// written in sorted order and object numbers follow discovery order.
package writer
