// Package contentstream parses and builds PDF content streams.
//
// A content stream is a sequence of operands followed by an operator, in
// postfix order:
//
//	BT /F1 12 Tf 72 720 Td (Hello) Tj ET
//
// Parse turns decoded stream data into an []Operation for inspection, for
// example by the text extractor:
//
//	ops, err := contentstream.Parse(data)
//	for _, op := range ops {
//	    fmt.Printf("%s %v\n", op.Operator, op.Operands)
//	}
//
// Builder goes the other way, emitting well-formed operator sequences for
// generated pages, watermark overlays and similar content.
package contentstream
