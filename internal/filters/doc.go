// Package filters implements the PDF stream filters the engine reads and
// writes: FlateDecode (with TIFF and PNG predictors), ASCIIHexDecode,
// ASCII85Decode, RunLengthDecode, and CCITTFaxDecode.
//
// Decode parameters from a stream's /DecodeParms dictionary are passed as a
// [Params] map of plain Go values. The package also provides FlateEncode for
// serializing compressed streams.
package filters
