// Package folio reads, transforms, and writes PDF documents.
//
// The root package exposes whole-document operations over byte buffers:
//
//	doc, err := folio.Merge(a, b, c)
//	if err != nil {
//	    // handle error
//	}
//	out, err := writer.Serialize(doc)
//
// Text extraction returns per-page strings plus non-fatal warnings:
//
//	pages, warnings, err := folio.ExtractText(data)
//	if len(warnings) > 0 {
//	    log.Println(folio.FormatWarnings(warnings))
//	}
//
// For finer control, the document, reader, and writer packages are also
// available.
package folio

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal diagnostic produced during an operation. Page is
// the 1-based page number the warning applies to, or 0 for document-level
// warnings.
type Warning struct {
	Page    int
	Message string
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single printable string, one per
// line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	doc := folio.Must(folio.Merge(a, b))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
