package pages

import (
	"bytes"

	"github.com/greensward/folio/core"
)

// Resolver resolves indirect references met while walking the tree.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Page is a single page with its inherited attributes applied.
type Page struct {
	// Dict is the page's own dictionary, without inherited entries
	// folded in.
	Dict core.Dict

	// Number is the 1-based position of the page in document order.
	Number int

	// Ref is the page object's indirect reference; zero when the leaf was
	// embedded directly in a Kids array.
	Ref core.IndirectRef

	// MediaBox is the effective media box, own or inherited.
	MediaBox core.Array

	// Resources is the effective resource dictionary. May be nil for a
	// page that draws nothing.
	Resources core.Dict

	// Rotate is the effective rotation in degrees, a multiple of 90.
	Rotate int
}

// Width returns the media box width in points.
func (p *Page) Width() float64 {
	lx, _ := boxCoord(p.MediaBox, 0)
	ux, _ := boxCoord(p.MediaBox, 2)
	return ux - lx
}

// Height returns the media box height in points.
func (p *Page) Height() float64 {
	ly, _ := boxCoord(p.MediaBox, 1)
	uy, _ := boxCoord(p.MediaBox, 3)
	return uy - ly
}

func boxCoord(box core.Array, index int) (float64, bool) {
	if box == nil || index >= box.Len() {
		return 0, false
	}
	return box.GetNumber(index)
}

// Contents returns the page's content stream data, decoded and
// concatenated. A page with no /Contents entry yields nil.
func (p *Page) Contents(res Resolver) ([]byte, error) {
	raw := p.Dict.Get("Contents")
	if raw == nil {
		return nil, nil
	}
	obj, err := res.Resolve(raw)
	if err != nil {
		return nil, err
	}

	var streams []*core.Stream
	switch v := obj.(type) {
	case *core.Stream:
		streams = append(streams, v)
	case core.Array:
		for i := 0; i < v.Len(); i++ {
			elem, err := res.Resolve(v.Get(i))
			if err != nil {
				return nil, err
			}
			if s, ok := elem.(*core.Stream); ok {
				streams = append(streams, s)
			}
		}
	}

	var buf bytes.Buffer
	for i, s := range streams {
		data, err := s.Decode()
		if err != nil {
			return nil, err
		}
		if i > 0 {
			// Split streams must behave as one stream with a token
			// boundary between the parts.
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// inheritable carries the attributes a Pages node passes down to its kids.
type inheritable struct {
	mediaBox  core.Array
	resources core.Dict
	rotate    int
	hasRotate bool
}

func (in inheritable) apply(dict core.Dict, res Resolver) (inheritable, error) {
	out := in
	if raw := dict.Get("MediaBox"); raw != nil {
		obj, err := res.Resolve(raw)
		if err != nil {
			return out, err
		}
		if arr, ok := obj.(core.Array); ok {
			out.mediaBox = arr
		}
	}
	if raw := dict.Get("Resources"); raw != nil {
		obj, err := res.Resolve(raw)
		if err != nil {
			return out, err
		}
		if d, ok := obj.(core.Dict); ok {
			out.resources = d
		}
	}
	if raw := dict.Get("Rotate"); raw != nil {
		obj, err := res.Resolve(raw)
		if err != nil {
			return out, err
		}
		if n, ok := obj.(core.Int); ok {
			out.rotate = int(n)
			out.hasRotate = true
		}
	}
	return out, nil
}

// walker tracks the ancestors of the current node so Kids loops are caught.
type walker struct {
	res     Resolver
	pages   []*Page
	onStack map[int]bool
}

// Flatten walks the tree rooted at the catalog's /Pages entry and returns
// the pages in document order with inheritance applied.
func Flatten(res Resolver, catalog core.Dict) ([]*Page, error) {
	raw := catalog.Get("Pages")
	if raw == nil {
		return nil, core.Errorf(core.MissingXref, -1, "catalog has no /Pages entry")
	}

	w := &walker{res: res, onStack: make(map[int]bool)}
	if err := w.walk(raw, inheritable{}); err != nil {
		return nil, err
	}
	return w.pages, nil
}

func (w *walker) walk(node core.Object, in inheritable) error {
	// Kids entries are normally indirect; the reference number is the
	// cycle key.
	ref, isRef := node.(core.IndirectRef)
	if isRef {
		if w.onStack[ref.Number] {
			return core.Errorf(core.CyclicPageTree, -1,
				"page tree node %d is its own ancestor", ref.Number)
		}
		w.onStack[ref.Number] = true
		defer delete(w.onStack, ref.Number)
	}

	obj, err := w.res.Resolve(node)
	if err != nil {
		return err
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return core.Errorf(core.TruncatedObject, -1,
			"page tree node is %T, want dictionary", obj)
	}

	in, err = in.apply(dict, w.res)
	if err != nil {
		return err
	}

	nodeType, _ := dict.GetName("Type")
	kids, hasKids := dict.GetArray("Kids")

	if nodeType == "Pages" || (nodeType == "" && hasKids) {
		for i := 0; i < kids.Len(); i++ {
			if err := w.walk(kids.Get(i), in); err != nil {
				return err
			}
		}
		return nil
	}

	page := &Page{
		Dict:      dict,
		Number:    len(w.pages) + 1,
		MediaBox:  in.mediaBox,
		Resources: in.resources,
	}
	if isRef {
		page.Ref = ref
	}
	if in.hasRotate {
		page.Rotate = in.rotate
	}
	w.pages = append(w.pages, page)
	return nil
}
