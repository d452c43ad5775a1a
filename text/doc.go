// Package text extracts the text content of pages.
//
// The extractor interprets the text operators of a parsed content stream,
// tracking the text and transformation matrices so each shown string gets a
// device-space position. Fragments are then assembled into lines by
// vertical position, with spaces and line breaks inferred from the gaps
// between them.
//
// Extraction is best effort. Glyph advances come from standard-14 width
// tables when the caller supplies font metrics via SetFonts, and from a
// half-em estimate otherwise; embedded font programs are never read. That
// is enough to order fragments and place word boundaries in typical
// documents.
package text
