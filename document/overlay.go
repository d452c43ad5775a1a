package document

import (
	"bytes"
	"fmt"

	"github.com/greensward/folio/core"
	"github.com/greensward/folio/pages"
)

// OverlayPage appends an overlay content stream to the page at index and
// merges the overlay's resources into the page's. The overlay reference
// must point at a stream in this document; sharing one reference across
// many pages keeps the output size bounded.
//
// Resource names that collide with different objects are renamed, in which
// case the page gets a private copy of the overlay stream with the names
// rewritten.
func (d *Document) OverlayPage(index int, overlay core.IndirectRef, resources core.Dict) error {
	p, err := d.Page(index)
	if err != nil {
		return err
	}

	obj, err := d.ResolveReference(overlay)
	if err != nil {
		return err
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return fmt.Errorf("overlay object %d is %T, want stream", overlay.Number, obj)
	}

	renames, err := d.mergeResources(p, resources)
	if err != nil {
		return err
	}

	ref := overlay
	if len(renames) > 0 {
		data, err := stream.Decode()
		if err != nil {
			return fmt.Errorf("decoding overlay stream: %w", err)
		}
		rewritten := renameResourceTokens(data, renames)
		private := &core.Stream{
			Dict: core.Dict{"Length": core.Int(len(rewritten))},
			Data: rewritten,
		}
		ref = d.AddObject(private)
	}

	return d.appendContents(p, ref)
}

// mergeResources folds overlay resources into the page's resource
// dictionary. It returns the renames that were needed to avoid clobbering
// existing entries.
func (d *Document) mergeResources(p *pages.Page, resources core.Dict) (map[string]string, error) {
	if resources == nil {
		return nil, nil
	}

	pageRes, err := d.pageResources(p)
	if err != nil {
		return nil, err
	}

	renames := make(map[string]string)
	for _, category := range resources.SortedKeys() {
		catObj, err := d.Resolve(resources.Get(category))
		if err != nil {
			return nil, err
		}
		catDict, ok := catObj.(core.Dict)
		if !ok {
			// ProcSet and friends are arrays; last writer wins.
			pageRes.Set(category, resources.Get(category))
			continue
		}

		target, err := d.resourceCategory(pageRes, category)
		if err != nil {
			return nil, err
		}
		for _, name := range catDict.SortedKeys() {
			value := catDict.Get(name)
			existing := target.Get(name)
			if existing == nil {
				target.Set(name, value)
				continue
			}
			if sameResource(existing, value) {
				continue
			}
			fresh := freshName(target, name)
			target.Set(fresh, value)
			renames[name] = fresh
		}
	}
	return renames, nil
}

// pageResources returns the page's own resource dictionary, creating one
// when missing and materializing indirect ones so they can be edited
// without affecting other pages.
func (d *Document) pageResources(p *pages.Page) (core.Dict, error) {
	raw := p.Dict.Get("Resources")
	if raw == nil {
		res := make(core.Dict)
		p.Dict.Set("Resources", res)
		p.Resources = res
		return res, nil
	}

	obj, err := d.Resolve(raw)
	if err != nil {
		return nil, err
	}
	res, ok := obj.(core.Dict)
	if !ok {
		res = make(core.Dict)
	}
	if _, wasRef := raw.(core.IndirectRef); wasRef {
		res = core.Clone(res).(core.Dict)
	}
	p.Dict.Set("Resources", res)
	p.Resources = res
	return res, nil
}

func (d *Document) resourceCategory(res core.Dict, category string) (core.Dict, error) {
	raw := res.Get(category)
	if raw == nil {
		cat := make(core.Dict)
		res.Set(category, cat)
		return cat, nil
	}
	obj, err := d.Resolve(raw)
	if err != nil {
		return nil, err
	}
	cat, ok := obj.(core.Dict)
	if !ok {
		cat = make(core.Dict)
		res.Set(category, cat)
		return cat, nil
	}
	if _, wasRef := raw.(core.IndirectRef); wasRef {
		cat = core.Clone(cat).(core.Dict)
	}
	res.Set(category, cat)
	return cat, nil
}

// sameResource reports whether two resource entries point at the same
// object. Only reference identity counts; equal-looking inline values are
// still renamed.
func sameResource(a, b core.Object) bool {
	ar, aok := a.(core.IndirectRef)
	br, bok := b.(core.IndirectRef)
	return aok && bok && ar == br
}

func freshName(dict core.Dict, base string) string {
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !dict.Has(candidate) {
			return candidate
		}
	}
}

// renameResourceTokens rewrites /Name tokens in operator data.
func renameResourceTokens(data []byte, renames map[string]string) []byte {
	out := data
	for old, fresh := range renames {
		out = replaceName(out, old, fresh)
	}
	return out
}

// replaceName substitutes /old with /fresh where the token ends at a
// delimiter or whitespace.
func replaceName(data []byte, old, fresh string) []byte {
	needle := []byte("/" + old)
	var out bytes.Buffer
	for {
		idx := bytes.Index(data, needle)
		if idx < 0 {
			out.Write(data)
			return out.Bytes()
		}
		end := idx + len(needle)
		if end < len(data) && !isNameBoundary(data[end]) {
			out.Write(data[:end])
			data = data[end:]
			continue
		}
		out.Write(data[:idx])
		out.WriteByte('/')
		out.WriteString(fresh)
		data = data[end:]
	}
}

func isNameBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0,
		'(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// appendContents adds ref after the page's existing content streams.
func (d *Document) appendContents(p *pages.Page, ref core.IndirectRef) error {
	raw := p.Dict.Get("Contents")
	if raw == nil {
		p.Dict.Set("Contents", ref)
		return nil
	}

	switch v := raw.(type) {
	case core.Array:
		p.Dict.Set("Contents", append(core.Clone(v).(core.Array), ref))
		return nil
	case core.IndirectRef:
		resolved, err := d.ResolveReference(v)
		if err != nil {
			return err
		}
		if arr, ok := resolved.(core.Array); ok {
			clone := append(core.Clone(arr).(core.Array), ref)
			d.objects[v.Number] = clone
			return nil
		}
		p.Dict.Set("Contents", core.Array{v, ref})
		return nil
	case *core.Stream:
		streamRef := d.AddObject(v)
		p.Dict.Set("Contents", core.Array{streamRef, ref})
		return nil
	default:
		p.Dict.Set("Contents", ref)
		return nil
	}
}
