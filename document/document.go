package document

import (
	"fmt"

	"github.com/greensward/folio/core"
	"github.com/greensward/folio/pages"
	"github.com/greensward/folio/reader"
	"github.com/greensward/folio/text"
)

// LetterMediaBox returns the US letter media box, the default page size.
func LetterMediaBox() core.Array {
	return core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)}
}

// Document is a mutable PDF: an object table plus an ordered page list.
// Object numbers grow monotonically within a session and are never reused.
type Document struct {
	objects  map[int]core.Object
	nextNum  int
	catalog  core.Dict
	info     core.Dict
	pageList []*pages.Page
}

var _ pages.Resolver = (*Document)(nil)

// New creates an empty document with no pages. Pages added later default to
// letter-size media boxes.
func New() *Document {
	return &Document{
		objects: make(map[int]core.Object),
		nextNum: 1,
		catalog: core.Dict{"Type": core.Name("Catalog")},
	}
}

// Load parses data and imports every object into a mutable document. The
// catalog and page tree are validated; a malformed file fails the whole
// load.
func Load(data []byte) (*Document, error) {
	r, err := reader.New(data)
	if err != nil {
		return nil, err
	}

	d := &Document{objects: make(map[int]core.Object)}

	table := r.XRefTable()
	for num, entry := range table.Entries {
		if num == 0 || !entry.InUse {
			continue
		}
		obj, err := r.GetObject(num)
		if err != nil {
			return nil, fmt.Errorf("importing object %d: %w", num, err)
		}
		d.objects[num] = obj
	}
	d.nextNum = table.MaxObjectNumber() + 1

	catalog, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	d.catalog = catalog

	if info, err := r.Info(); err == nil {
		d.info = info
	}

	list, err := pages.Flatten(d, catalog)
	if err != nil {
		return nil, err
	}
	d.pageList = list
	for _, p := range d.pageList {
		d.materialize(p)
	}
	return d, nil
}

// materialize writes a page's effective inherited attributes onto its own
// dictionary and makes sure the page has an object number, so the page
// stays correct when the tree around it is rebuilt.
func (d *Document) materialize(p *pages.Page) {
	if p.MediaBox == nil {
		p.MediaBox = LetterMediaBox()
	}
	p.Dict.Set("MediaBox", p.MediaBox)
	if p.Resources != nil && !p.Dict.Has("Resources") {
		p.Dict.Set("Resources", p.Resources)
	}
	if p.Rotate != 0 {
		p.Dict.Set("Rotate", core.Int(p.Rotate))
	}
	if p.Ref.Number == 0 {
		p.Ref = d.AddObject(p.Dict)
	}
}

// AddObject stores obj under a fresh object number.
func (d *Document) AddObject(obj core.Object) core.IndirectRef {
	ref := core.IndirectRef{Number: d.nextNum}
	d.objects[d.nextNum] = obj
	d.nextNum++
	return ref
}

// Object returns the object stored under num.
func (d *Document) Object(num int) (core.Object, bool) {
	obj, ok := d.objects[num]
	return obj, ok
}

// ResolveReference implements core.ReferenceResolver against the object
// table.
func (d *Document) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	obj, ok := d.objects[ref.Number]
	if !ok {
		return nil, core.Errorf(core.DanglingReference, -1,
			"object %d not in document", ref.Number)
	}
	return obj, nil
}

// Resolve follows obj once if it is an indirect reference.
func (d *Document) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return d.ResolveReference(ref)
	}
	return obj, nil
}

// Catalog returns the catalog dictionary.
func (d *Document) Catalog() core.Dict { return d.catalog }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pageList) }

// Pages returns the page list in reading order. The slice is the
// document's own; callers must not reorder it.
func (d *Document) Pages() []*pages.Page { return d.pageList }

// Page returns the page at index (0-based).
func (d *Document) Page(index int) (*pages.Page, error) {
	if index < 0 || index >= len(d.pageList) {
		return nil, core.Errorf(core.IndexError, -1,
			"page index %d out of range [0, %d)", index, len(d.pageList))
	}
	return d.pageList[index], nil
}

// PageDimensions returns the page's media box width and height in points.
func (d *Document) PageDimensions(index int) (width, height float64, err error) {
	p, err := d.Page(index)
	if err != nil {
		return 0, 0, err
	}
	return p.Width(), p.Height(), nil
}

// AddPage appends a new page built from dict, filling in /Type and a
// letter media box when absent, and returns it.
func (d *Document) AddPage(dict core.Dict) *pages.Page {
	if !dict.Has("Type") {
		dict.Set("Type", core.Name("Page"))
	}
	if !dict.Has("MediaBox") {
		dict.Set("MediaBox", LetterMediaBox())
	}

	page := &pages.Page{
		Dict:   dict,
		Number: len(d.pageList) + 1,
		Ref:    d.AddObject(dict),
	}
	if box, ok := dict.GetArray("MediaBox"); ok {
		page.MediaBox = box
	}
	if res, ok := dict.GetDict("Resources"); ok {
		page.Resources = res
	}
	if rot, ok := dict.GetInt("Rotate"); ok {
		page.Rotate = int(rot)
	}
	d.pageList = append(d.pageList, page)
	return page
}

// InsertPages deep-clones pages of src into this document at position at.
// With no indices given, all of src's pages are inserted. Objects shared
// between the inserted pages (fonts, resources) are cloned once.
func (d *Document) InsertPages(at int, src *Document, indices ...int) error {
	if at < 0 || at > len(d.pageList) {
		return core.Errorf(core.IndexError, -1,
			"insert position %d out of range [0, %d]", at, len(d.pageList))
	}
	if len(indices) == 0 {
		indices = make([]int, len(src.pageList))
		for i := range indices {
			indices[i] = i
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(src.pageList) {
			return core.Errorf(core.IndexError, -1,
				"source page index %d out of range [0, %d)", idx, len(src.pageList))
		}
	}

	seen := make(map[int]core.IndirectRef)
	clones := make([]*pages.Page, 0, len(indices))
	for _, idx := range indices {
		clones = append(clones, d.clonePage(src, src.pageList[idx], seen))
	}

	d.pageList = append(d.pageList[:at:at],
		append(clones, d.pageList[at:]...)...)
	d.renumber()
	return nil
}

// AppendPages inserts src's pages at the end of the page list.
func (d *Document) AppendPages(src *Document, indices ...int) error {
	return d.InsertPages(len(d.pageList), src, indices...)
}

// clonePage copies a page subtree into this document under fresh object
// numbers, flattening inherited attributes onto the clone.
func (d *Document) clonePage(src *Document, p *pages.Page, seen map[int]core.IndirectRef) *pages.Page {
	dict := make(core.Dict, len(p.Dict))
	for key, value := range p.Dict {
		if key == "Parent" {
			continue
		}
		dict[key] = d.importValue(src, value, seen)
	}
	if !dict.Has("MediaBox") && p.MediaBox != nil {
		dict.Set("MediaBox", d.importValue(src, p.MediaBox, seen))
	}
	if !dict.Has("Resources") && p.Resources != nil {
		dict.Set("Resources", d.importValue(src, p.Resources, seen))
	}
	if !dict.Has("Rotate") && p.Rotate != 0 {
		dict.Set("Rotate", core.Int(p.Rotate))
	}

	clone := &pages.Page{
		Dict:   dict,
		Ref:    d.AddObject(dict),
		Rotate: p.Rotate,
	}
	if box, ok := dict.GetArray("MediaBox"); ok {
		clone.MediaBox = box
	}
	if res, ok := dict.GetDict("Resources"); ok {
		clone.Resources = res
	} else if ref, ok := dict.GetIndirectRef("Resources"); ok {
		if obj, err := d.ResolveReference(ref); err == nil {
			if resDict, isDict := obj.(core.Dict); isDict {
				clone.Resources = resDict
			}
		}
	}
	return clone
}

// importValue copies a value from src, remapping indirect references to
// fresh numbers in this document. seen carries the remapping so shared and
// cyclic structures clone once. References to missing objects become null.
func (d *Document) importValue(src *Document, obj core.Object, seen map[int]core.IndirectRef) core.Object {
	switch v := obj.(type) {
	case core.IndirectRef:
		if mapped, ok := seen[v.Number]; ok {
			return mapped
		}
		target, ok := src.objects[v.Number]
		if !ok {
			return core.Null{}
		}
		ref := d.AddObject(core.Null{})
		seen[v.Number] = ref
		d.objects[ref.Number] = d.importValue(src, target, seen)
		return ref

	case core.Dict:
		out := make(core.Dict, len(v))
		for key, value := range v {
			// Parent links would drag the source tree along.
			if key == "Parent" {
				continue
			}
			out[key] = d.importValue(src, value, seen)
		}
		return out

	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			out[i] = d.importValue(src, elem, seen)
		}
		return out

	case *core.Stream:
		dict := d.importValue(src, v.Dict, seen).(core.Dict)
		data := make([]byte, len(v.Data))
		copy(data, v.Data)
		return &core.Stream{Dict: dict, Data: data}

	default:
		return obj
	}
}

// RemovePages drops pages in the half-open range [from, to). The backing
// objects stay in the table; the writer prunes them if unreachable.
func (d *Document) RemovePages(from, to int) error {
	if from < 0 || to > len(d.pageList) || from > to {
		return core.Errorf(core.IndexError, -1,
			"remove range [%d, %d) invalid for %d pages", from, to, len(d.pageList))
	}
	d.pageList = append(d.pageList[:from:from], d.pageList[to:]...)
	d.renumber()
	return nil
}

func (d *Document) renumber() {
	for i, p := range d.pageList {
		p.Number = i + 1
	}
}

// RotatePage adds degrees to the page's Rotate attribute. The angle must
// be a multiple of 90; the sum is normalized modulo 360, so a page at 270
// rotated by 90 ends at 0. Content streams and the media box are
// untouched.
func (d *Document) RotatePage(index, degrees int) error {
	if _, err := NormalizeAngle(degrees); err != nil {
		return err
	}
	p, err := d.Page(index)
	if err != nil {
		return err
	}
	norm, err := NormalizeAngle(p.Rotate + degrees)
	if err != nil {
		return err
	}
	p.Rotate = norm
	p.Dict.Set("Rotate", core.Int(norm))
	return nil
}

// NormalizeAngle reduces a rotation to {0, 90, 180, 270}. Angles that are
// not multiples of 90 are rejected.
func NormalizeAngle(degrees int) (int, error) {
	if degrees%90 != 0 {
		return 0, core.Errorf(core.InvalidAngle, -1,
			"rotation %d is not a multiple of 90", degrees)
	}
	norm := degrees % 360
	if norm < 0 {
		norm += 360
	}
	return norm, nil
}

// Metadata returns the document Info dictionary, or nil when absent.
func (d *Document) Metadata() core.Dict { return d.info }

// MetadataText returns the Info dictionary's string values decoded to
// UTF-8, keyed by entry name.
func (d *Document) MetadataText() map[string]string {
	if d.info == nil {
		return nil
	}
	out := make(map[string]string)
	for _, key := range d.info.SortedKeys() {
		value, err := d.Resolve(d.info.Get(key))
		if err != nil {
			continue
		}
		if s, ok := value.(core.String); ok {
			out[key] = text.DecodeString([]byte(s))
		}
	}
	return out
}

// SetMetadata replaces the Info dictionary.
func (d *Document) SetMetadata(info core.Dict) { d.info = info }
