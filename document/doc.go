// Package document is the mutable in-memory form of a PDF.
//
// A Document owns an object table and an ordered page list. Loading
// imports every object from a parsed file; New builds an empty skeleton.
// Mutations (insert, remove, rotate, overlay) edit the table and page list
// only — object numbers grow monotonically and are never reused, and
// nothing is garbage collected until the writer prunes unreachable objects
// at serialize time.
//
// Pages imported from another Document are deep-cloned under fresh object
// numbers, with inherited attributes flattened onto the clone so the page
// stays correct outside its original tree.
package document
