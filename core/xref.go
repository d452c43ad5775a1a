package core

import (
	"bytes"
	"strconv"
	"strings"
)

// XRefEntry locates one object. For in-use objects Offset is the byte
// position of the object header; for objects stored in object streams
// (xref type 2) StreamNum/StreamIndex locate them instead.
type XRefEntry struct {
	Offset      int64
	Generation  int
	InUse       bool
	InStream    bool // object lives inside an object stream
	StreamNum   int  // object number of the containing object stream
	StreamIndex int  // index within that stream
}

// XRefTable maps object numbers to entries, together with the trailer
// dictionary of the section it came from (after merging, the newest trailer).
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an entry by object number.
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or replaces an entry.
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries.
func (x *XRefTable) Size() int { return len(x.Entries) }

// MaxObjectNumber returns the highest object number present.
func (x *XRefTable) MaxObjectNumber() int {
	max := 0
	for n := range x.Entries {
		if n > max {
			max = n
		}
	}
	return max
}

// XRefParser locates and parses cross-reference sections, both classic
// tables and xref streams, following /Prev chains across incremental
// updates and the /XRefStm pointer in hybrid-reference files.
type XRefParser struct {
	data []byte
}

// NewXRefParser creates a parser over a complete PDF file buffer.
func NewXRefParser(data []byte) *XRefParser {
	return &XRefParser{data: data}
}

// tailWindow is how many bytes from EOF are scanned for startxref.
const tailWindow = 1024

// FindStartXref locates the byte offset recorded after the startxref
// keyword at the file tail.
func (x *XRefParser) FindStartXref() (int64, error) {
	start := len(x.data) - tailWindow
	if start < 0 {
		start = 0
	}
	tail := x.data[start:]

	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, Errorf(MissingXref, int64(len(x.data)), "startxref not found")
	}

	rest := tail[idx+len("startxref"):]
	fields := strings.Fields(string(rest))
	if len(fields) == 0 {
		return 0, Errorf(MissingXref, int64(start+idx), "startxref has no offset")
	}
	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || offset < 0 || offset >= int64(len(x.data)) {
		return 0, Errorf(MissingXref, int64(start+idx),
			"invalid startxref offset %q", fields[0])
	}
	return offset, nil
}

// Load finds the newest cross-reference section and merges the whole /Prev
// chain into one table. Later sections take precedence for duplicate object
// numbers; the newest trailer wins.
func (x *XRefParser) Load() (*XRefTable, error) {
	offset, err := x.FindStartXref()
	if err != nil {
		return nil, err
	}

	// Collect sections newest-first, guarding against offset loops.
	var sections []*XRefTable
	visited := make(map[int64]bool)
	for {
		if visited[offset] {
			return nil, Errorf(MissingXref, offset, "cross-reference /Prev chain loops")
		}
		visited[offset] = true

		table, err := x.parseSection(offset)
		if err != nil {
			return nil, err
		}
		sections = append(sections, table)

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	// Merge oldest-first so newer entries override.
	merged := NewXRefTable()
	for i := len(sections) - 1; i >= 0; i-- {
		for objNum, entry := range sections[i].Entries {
			merged.Set(objNum, entry)
		}
	}
	merged.Trailer = sections[0].Trailer
	return merged, nil
}

// parseSection parses one cross-reference section at offset, dispatching on
// form: the xref keyword introduces a classic table, anything else must be
// an indirect object holding an xref stream.
func (x *XRefParser) parseSection(offset int64) (*XRefTable, error) {
	if offset >= int64(len(x.data)) {
		return nil, Errorf(MissingXref, offset, "cross-reference offset beyond EOF")
	}

	lexer := NewLexerAt(x.data, offset)
	token, err := lexer.NextToken()
	if err != nil {
		return nil, err
	}

	if token.Type == TokenKeyword && bytes.Equal(token.Value, []byte("xref")) {
		return x.parseClassic(lexer.Pos())
	}
	return x.parseXRefStream(offset)
}

// parseClassic parses a traditional xref table starting just after the xref
// keyword, through its trailer dictionary. In hybrid-reference files the
// trailer's /XRefStm section is merged in first, so the table's own entries
// take precedence.
func (x *XRefParser) parseClassic(pos int64) (*XRefTable, error) {
	table := NewXRefTable()

	for {
		line, next := readLine(x.data, pos)
		if next == pos {
			// End of input with no trailer keyword seen.
			return nil, Errorf(MissingXref, pos, "cross-reference table truncated before trailer")
		}
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "" {
			pos = next
			continue
		}

		if strings.HasPrefix(trimmed, "trailer") {
			// The dictionary may share the trailer keyword's line.
			dictPos := pos + int64(bytes.Index(line, []byte("trailer"))+len("trailer"))
			trailer, err := x.parseTrailerDict(dictPos)
			if err != nil {
				return nil, err
			}
			table.Trailer = trailer

			if stm, ok := trailer.GetInt("XRefStm"); ok {
				hybrid, err := x.parseXRefStream(int64(stm))
				if err != nil {
					return nil, err
				}
				for objNum, entry := range hybrid.Entries {
					if _, exists := table.Entries[objNum]; !exists {
						table.Set(objNum, entry)
					}
				}
			}
			return table, nil
		}

		// Subsection header: "firstObjNum count".
		fields := strings.Fields(trimmed)
		if len(fields) != 2 {
			return nil, Errorf(MissingXref, pos, "invalid xref subsection header %q", trimmed)
		}
		first, err1 := strconv.Atoi(fields[0])
		count, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || first < 0 || count < 0 {
			return nil, Errorf(MissingXref, pos, "invalid xref subsection header %q", trimmed)
		}
		pos = next

		for i := 0; i < count; i++ {
			line, next := readLine(x.data, pos)
			entry, err := parseClassicEntry(string(line), pos)
			if err != nil {
				return nil, err
			}
			table.Set(first+i, entry)
			pos = next
		}
	}
}

// parseClassicEntry parses one fixed-width "nnnnnnnnnn ggggg n" line.
func parseClassicEntry(line string, pos int64) (*XRefEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, Errorf(MissingXref, pos, "invalid xref entry %q", line)
	}

	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, Errorf(MissingXref, pos, "invalid xref offset %q", fields[0])
	}
	gen, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, Errorf(MissingXref, pos, "invalid xref generation %q", fields[1])
	}

	var inUse bool
	switch fields[2] {
	case "n":
		inUse = true
	case "f":
		inUse = false
	default:
		return nil, Errorf(MissingXref, pos, "invalid xref flag %q", fields[2])
	}

	return &XRefEntry{Offset: offset, Generation: gen, InUse: inUse}, nil
}

// parseTrailerDict parses the dictionary following a trailer keyword.
func (x *XRefParser) parseTrailerDict(pos int64) (Dict, error) {
	parser := NewParserAt(x.data, pos)
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, Errorf(MissingXref, pos, "invalid trailer: %v", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, Errorf(MissingXref, pos, "trailer is not a dictionary, got %v", obj.Type())
	}
	return dict, nil
}

// parseXRefStream parses a cross-reference stream object at offset.
// The stream dictionary doubles as the section's trailer.
func (x *XRefParser) parseXRefStream(offset int64) (*XRefTable, error) {
	parser := NewParserAt(x.data, offset)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, Errorf(MissingXref, offset, "invalid xref stream object: %v", err)
	}

	stream, ok := indObj.Object.(*Stream)
	if !ok {
		return nil, Errorf(MissingXref, offset, "expected xref stream, got %v", indObj.Object.Type())
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "XRef" {
		return nil, Errorf(MissingXref, offset, "xref stream has type /%s", typ)
	}

	widths, err := xrefStreamWidths(stream.Dict, offset)
	if err != nil {
		return nil, err
	}

	size, ok := stream.Dict.GetInt("Size")
	if !ok {
		return nil, Errorf(MissingXref, offset, "xref stream missing /Size")
	}

	// Default index covers [0, Size).
	index := []int{0, int(size)}
	if idxArr, ok := stream.Dict.GetArray("Index"); ok {
		if len(idxArr)%2 != 0 {
			return nil, Errorf(MissingXref, offset, "xref stream /Index has odd length")
		}
		index = index[:0]
		for i := range idxArr {
			n, ok := idxArr.Get(i).(Int)
			if !ok {
				return nil, Errorf(MissingXref, offset, "xref stream /Index element is not an integer")
			}
			index = append(index, int(n))
		}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, Errorf(MissingXref, offset, "cannot decode xref stream: %v", err)
	}

	table := NewXRefTable()
	table.Trailer = stream.Dict

	rowSize := widths[0] + widths[1] + widths[2]
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowSize > len(data) {
				return nil, Errorf(MissingXref, offset, "xref stream data truncated")
			}
			row := data[pos : pos+rowSize]
			pos += rowSize

			table.Set(first+j, decodeXRefStreamRow(row, widths))
		}
	}

	return table, nil
}

// xrefStreamWidths validates and extracts the /W array.
func xrefStreamWidths(dict Dict, offset int64) ([3]int, error) {
	var widths [3]int
	wArr, ok := dict.GetArray("W")
	if !ok || len(wArr) != 3 {
		return widths, Errorf(MissingXref, offset, "xref stream missing 3-element /W")
	}
	for i := 0; i < 3; i++ {
		n, ok := wArr.Get(i).(Int)
		if !ok || n < 0 || n > 8 {
			return widths, Errorf(MissingXref, offset, "invalid /W element %v", wArr.Get(i))
		}
		widths[i] = int(n)
	}
	return widths, nil
}

// decodeXRefStreamRow decodes one fixed-width row. A zero-width type field
// defaults to type 1 (in-use) when the /W array gives it zero width.
func decodeXRefStreamRow(row []byte, widths [3]int) *XRefEntry {
	f1 := int64(1)
	if widths[0] > 0 {
		f1 = readBigEndian(row[:widths[0]])
	}
	f2 := readBigEndian(row[widths[0] : widths[0]+widths[1]])
	f3 := readBigEndian(row[widths[0]+widths[1]:])

	switch f1 {
	case 0: // free object
		return &XRefEntry{Offset: f2, Generation: int(f3), InUse: false}
	case 2: // stored in an object stream
		return &XRefEntry{
			InUse:       true,
			InStream:    true,
			StreamNum:   int(f2),
			StreamIndex: int(f3),
		}
	default: // type 1: regular in-use object
		return &XRefEntry{Offset: f2, Generation: int(f3), InUse: true}
	}
}

// readBigEndian interprets up to 8 bytes as a big-endian unsigned integer.
func readBigEndian(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// readLine returns the bytes of the line starting at pos and the offset of
// the following line, tolerating CR, LF, and CRLF endings.
func readLine(data []byte, pos int64) ([]byte, int64) {
	start := pos
	for pos < int64(len(data)) && data[pos] != '\r' && data[pos] != '\n' {
		pos++
	}
	line := data[start:pos]
	if pos < int64(len(data)) && data[pos] == '\r' {
		pos++
	}
	if pos < int64(len(data)) && data[pos] == '\n' {
		pos++
	}
	return line, pos
}
