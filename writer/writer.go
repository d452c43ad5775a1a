package writer

import (
	"bytes"
	"fmt"

	"github.com/greensward/folio/core"
	"github.com/greensward/folio/document"
	"github.com/greensward/folio/internal/filters"
)

// Option configures serialization.
type Option func(*serializer)

// WithCompression flate-compresses every stream that carries no filter
// yet. Streams that are already filtered are left alone.
func WithCompression() Option {
	return func(s *serializer) {
		s.compress = true
	}
}

// WithVersion sets the header version. The default is 1.7.
func WithVersion(major, minor int) Option {
	return func(s *serializer) {
		s.major, s.minor = major, minor
	}
}

// Serialize renders d as a complete PDF file.
func Serialize(d *document.Document, opts ...Option) ([]byte, error) {
	s := &serializer{
		doc:   d,
		seen:  make(map[int]int),
		major: 1,
		minor: 7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.run()
}

type serializer struct {
	doc      *document.Document
	compress bool
	major    int
	minor    int

	// objects[i] holds output object number i+1.
	objects []core.Object
	// seen maps source object numbers to output numbers.
	seen map[int]int
}

// reserve allocates the next output object number.
func (s *serializer) reserve() int {
	s.objects = append(s.objects, nil)
	return len(s.objects)
}

func (s *serializer) set(num int, obj core.Object) {
	s.objects[num-1] = obj
}

func (s *serializer) run() ([]byte, error) {
	rootNum := s.reserve()
	rootRef := core.IndirectRef{Number: rootNum}

	kids := make(core.Array, 0, s.doc.PageCount())
	for _, page := range s.doc.Pages() {
		pageNum, err := s.copyPage(page.Ref, page.Dict, rootRef)
		if err != nil {
			return nil, err
		}
		kids = append(kids, core.IndirectRef{Number: pageNum})
	}

	s.set(rootNum, core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  kids,
		"Count": core.Int(len(kids)),
	})

	catalogNum, err := s.copyCatalog(rootRef)
	if err != nil {
		return nil, err
	}

	infoNum := 0
	if info := s.doc.Metadata(); info != nil {
		copied, err := s.copyValue(info)
		if err != nil {
			return nil, err
		}
		infoNum = s.reserve()
		s.set(infoNum, copied)
	}

	return s.emit(catalogNum, infoNum)
}

// copyPage clones a page dictionary, dropping the old parent link and
// attaching the new tree root.
func (s *serializer) copyPage(ref core.IndirectRef, dict core.Dict, rootRef core.IndirectRef) (int, error) {
	num, already := s.seen[ref.Number]
	if !already || ref.Number == 0 {
		num = s.reserve()
		if ref.Number != 0 {
			s.seen[ref.Number] = num
		}
	}

	out := make(core.Dict, len(dict)+1)
	for key, value := range dict {
		if key == "Parent" {
			continue
		}
		copied, err := s.copyValue(value)
		if err != nil {
			return 0, fmt.Errorf("page object %d, key /%s: %w", ref.Number, key, err)
		}
		out[key] = copied
	}
	out["Parent"] = rootRef

	s.set(num, out)
	return num, nil
}

// copyCatalog clones the catalog with /Pages pointed at the new tree.
func (s *serializer) copyCatalog(rootRef core.IndirectRef) (int, error) {
	num := s.reserve()
	out := core.Dict{"Type": core.Name("Catalog"), "Pages": rootRef}
	for key, value := range s.doc.Catalog() {
		if key == "Type" || key == "Pages" {
			continue
		}
		copied, err := s.copyValue(value)
		if err != nil {
			return 0, fmt.Errorf("catalog key /%s: %w", key, err)
		}
		out[key] = copied
	}
	s.set(num, out)
	return num, nil
}

// copyValue clones a value, remapping references into output numbers.
// References to objects missing from the document become null rather than
// dangling.
func (s *serializer) copyValue(obj core.Object) (core.Object, error) {
	switch v := obj.(type) {
	case core.IndirectRef:
		if num, ok := s.seen[v.Number]; ok {
			return core.IndirectRef{Number: num}, nil
		}
		target, ok := s.doc.Object(v.Number)
		if !ok {
			return core.Null{}, nil
		}
		num := s.reserve()
		s.seen[v.Number] = num
		copied, err := s.copyValue(target)
		if err != nil {
			return nil, err
		}
		s.set(num, copied)
		return core.IndirectRef{Number: num}, nil

	case core.Dict:
		out := make(core.Dict, len(v))
		for key, value := range v {
			copied, err := s.copyValue(value)
			if err != nil {
				return nil, err
			}
			out[key] = copied
		}
		return out, nil

	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			copied, err := s.copyValue(elem)
			if err != nil {
				return nil, err
			}
			out[i] = copied
		}
		return out, nil

	case *core.Stream:
		return s.copyStream(v)

	default:
		return obj, nil
	}
}

func (s *serializer) copyStream(stream *core.Stream) (core.Object, error) {
	dict, err := s.copyValue(stream.Dict)
	if err != nil {
		return nil, err
	}
	outDict := dict.(core.Dict)

	data := make([]byte, len(stream.Data))
	copy(data, stream.Data)

	if s.compress && !outDict.Has("Filter") {
		encoded, err := filters.FlateEncode(data)
		if err != nil {
			return nil, fmt.Errorf("compressing stream: %w", err)
		}
		data = encoded
		outDict.Set("Filter", core.Name("FlateDecode"))
	}
	outDict.Set("Length", core.Int(len(data)))

	return &core.Stream{Dict: outDict, Data: data}, nil
}

// emit renders the collected objects, cross-reference table and trailer.
func (s *serializer) emit(catalogNum, infoNum int) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%%PDF-%d.%d\n", s.major, s.minor)
	// Binary marker comment so transfer tools treat the file as binary.
	buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})

	offsets := make([]int64, len(s.objects))
	for i, obj := range s.objects {
		if obj == nil {
			obj = core.Null{}
		}
		offsets[i] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		writeObject(&buf, obj)
		buf.WriteString("\nendobj\n")
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(s.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := core.Dict{
		"Size": core.Int(len(s.objects) + 1),
		"Root": core.IndirectRef{Number: catalogNum},
	}
	if infoNum != 0 {
		trailer.Set("Info", core.IndirectRef{Number: infoNum})
	}

	buf.WriteString("trailer\n")
	writeObject(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefPos)

	return buf.Bytes(), nil
}
