package reader

import (
	"bytes"
	"fmt"

	"github.com/greensward/folio/core"
	"github.com/greensward/folio/pages"
)

// Version is the PDF version from the file header.
type Version struct {
	Major int
	Minor int
}

// String returns the version as written in the header, e.g. "1.7".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader serves indirect objects from an in-memory PDF.
type Reader struct {
	data    []byte
	xref    *core.XRefTable
	trailer core.Dict
	version Version

	objCache   map[int]core.Object
	objStreams map[int]*core.ObjectStream
	loading    map[int]bool

	pageList []*pages.Page
}

var _ pages.Resolver = (*Reader)(nil)

// New parses the header and cross-reference chain of data and returns a
// Reader over it.
func New(data []byte) (*Reader, error) {
	if len(data) == 0 {
		return nil, core.Errorf(core.IoUnavailable, 0, "no document data")
	}

	r := &Reader{
		data:       data,
		objCache:   make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
		loading:    make(map[int]bool),
	}

	version, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	r.version = version

	table, err := core.NewXRefParser(data).Load()
	if err != nil {
		return nil, fmt.Errorf("loading cross-reference table: %w", err)
	}
	r.xref = table
	r.trailer = table.Trailer

	return r, nil
}

// parseHeader locates %PDF-x.y near the start of the buffer. Some producers
// prepend junk bytes, so the header is searched for within the first 1KB.
func parseHeader(data []byte) (Version, error) {
	window := data
	if len(window) > 1024 {
		window = window[:1024]
	}

	idx := bytes.Index(window, []byte("%PDF-"))
	if idx < 0 {
		return Version{}, core.Errorf(core.MalformedToken, 0, "no %%PDF header")
	}

	rest := data[idx+5:]
	var major, minor int
	n, err := fmt.Sscanf(string(firstLine(rest)), "%d.%d", &major, &minor)
	if err != nil || n != 2 {
		return Version{}, core.Errorf(core.MalformedToken, int64(idx),
			"malformed header version")
	}
	return Version{Major: major, Minor: minor}, nil
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return data[:i]
	}
	if len(data) > 16 {
		return data[:16]
	}
	return data
}

// Version returns the header version.
func (r *Reader) Version() Version { return r.version }

// Trailer returns the newest trailer dictionary.
func (r *Reader) Trailer() core.Dict { return r.trailer }

// Len returns the document size in bytes.
func (r *Reader) Len() int64 { return int64(len(r.data)) }

// XRefTable exposes the merged cross-reference table.
func (r *Reader) XRefTable() *core.XRefTable { return r.xref }

// GetObject loads the object with the given number, from its file offset or
// from the object stream holding it. Results are cached.
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}

	entry, ok := r.xref.Get(objNum)
	if !ok {
		return nil, core.Errorf(core.DanglingReference, -1,
			"object %d has no cross-reference entry", objNum)
	}
	if !entry.InUse {
		return nil, core.Errorf(core.DanglingReference, -1,
			"object %d is free", objNum)
	}

	// An object stream that (directly or via its /Length) needs objects
	// from itself cannot be loaded.
	if r.loading[objNum] {
		return nil, core.Errorf(core.CyclicReference, -1,
			"object %d load depends on itself", objNum)
	}
	r.loading[objNum] = true
	defer delete(r.loading, objNum)

	var obj core.Object
	var err error
	if entry.InStream {
		obj, err = r.loadFromObjectStream(objNum, entry.StreamNum)
	} else {
		obj, err = r.loadAtOffset(objNum, entry.Offset)
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

func (r *Reader) loadAtOffset(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, core.Errorf(core.DanglingReference, offset,
			"object %d offset out of range", objNum)
	}

	parser := core.NewParserAt(r.data, offset)
	parser.SetReferenceResolver(r)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", objNum, err)
	}
	if indObj.Ref.Number != objNum {
		return nil, core.Errorf(core.DanglingReference, offset,
			"offset for object %d holds object %d", objNum, indObj.Ref.Number)
	}
	return indObj.Object, nil
}

func (r *Reader) loadFromObjectStream(objNum, streamNum int) (core.Object, error) {
	objStm, ok := r.objStreams[streamNum]
	if !ok {
		container, err := r.GetObject(streamNum)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", streamNum, err)
		}
		stream, isStream := container.(*core.Stream)
		if !isStream {
			return nil, core.Errorf(core.DanglingReference, -1,
				"object %d is not an object stream", streamNum)
		}
		objStm, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, err
		}
		r.objStreams[streamNum] = objStm
	}
	return objStm.GetObjectByNumber(objNum)
}

// ResolveReference implements core.ReferenceResolver.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve follows obj once if it is an indirect reference.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.GetObject(ref.Number)
	}
	return obj, nil
}

// Catalog returns the document catalog from the trailer's /Root.
func (r *Reader) Catalog() (core.Dict, error) {
	ref, ok := r.trailer.GetIndirectRef("Root")
	if !ok {
		return nil, core.Errorf(core.MissingXref, -1, "trailer has no /Root")
	}
	obj, err := r.GetObject(ref.Number)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog: %w", err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, core.Errorf(core.DanglingReference, -1,
			"catalog is %T, want dictionary", obj)
	}
	return catalog, nil
}

// Info returns the trailer's /Info dictionary, or nil when absent.
func (r *Reader) Info() (core.Dict, error) {
	raw := r.trailer.Get("Info")
	if raw == nil {
		return nil, nil
	}
	obj, err := r.Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("resolving info: %w", err)
	}
	if info, ok := obj.(core.Dict); ok {
		return info, nil
	}
	return nil, nil
}

// Pages flattens and caches the page tree.
func (r *Reader) Pages() ([]*pages.Page, error) {
	if r.pageList != nil {
		return r.pageList, nil
	}
	catalog, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	list, err := pages.Flatten(r, catalog)
	if err != nil {
		return nil, err
	}
	r.pageList = list
	return list, nil
}

// PageCount returns the number of pages.
func (r *Reader) PageCount() (int, error) {
	list, err := r.Pages()
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// Page returns the page at index (0-based).
func (r *Reader) Page(index int) (*pages.Page, error) {
	list, err := r.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, core.Errorf(core.IndexError, -1,
			"page index %d out of range [0, %d)", index, len(list))
	}
	return list[index], nil
}
