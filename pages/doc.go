// Package pages walks the page tree of a document and flattens it into an
// ordered list of pages.
//
// Page tree nodes form a hierarchy of Pages nodes with Kids arrays ending
// in Page leaves. Attributes such as MediaBox, Resources and Rotate may be
// set on an interior node and inherited by every page below it; flattening
// resolves that inheritance so each Page carries its effective values.
//
// Malformed trees whose Kids arrays loop back on an ancestor are rejected
// rather than walked forever.
package pages
