// Package core provides low-level PDF parsing primitives and object types.
//
// This package implements the building blocks the rest of the engine is made
// of: the eight basic PDF object types (null, boolean, integer, real, string,
// name, array, dictionary), streams, indirect references, cross-reference
// sections, and object streams.
//
// # Object Types
//
// Every PDF value is a type satisfying the [Object] interface:
//
//   - [Null] - the PDF null object
//   - [Bool] - boolean values
//   - [Int] - integers
//   - [Real] - real (floating point) numbers
//   - [String] - string objects (literal or hexadecimal form)
//   - [Name] - name objects (/Type, /MediaBox, ...)
//   - [Array] - arrays
//   - [Dict] - dictionaries
//
// [Stream] represents a dictionary plus a binary payload, and [IndirectRef]
// is a (number, generation) pointer to an indirect object.
//
// # Parsing
//
// [Lexer] tokenizes raw bytes; [Parser] assembles tokens into objects and
// indirect object definitions, including the stream/endstream construct.
// Both operate on whole in-memory buffers and report positions as absolute
// byte offsets.
//
// # Cross-Reference Sections
//
// [XRefParser] locates the startxref pointer at the file tail and parses
// classic xref tables, xref streams (PDF 1.5+), and hybrid-reference files,
// merging incremental-update /Prev chains into a single [XRefTable].
//
// # Errors
//
// Failures carry an [ErrorKind] and the byte offset where the problem was
// detected; [KindOf] classifies any error produced by this package.
package core
