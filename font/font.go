// Package font models the width metrics of simple PDF fonts. The text
// extractor uses these to advance the text matrix accurately; fonts it
// cannot model fall back to coarse estimates.
package font

import (
	"github.com/greensward/folio/core"
)

// Resolver resolves possibly-indirect objects.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Font carries the metrics of one simple font from a page's resource
// dictionary. Widths are in 1000ths of an em.
type Font struct {
	Name     string
	BaseFont string
	Subtype  string

	firstChar int
	widths    []float64
	standard  map[rune]float64
}

// New builds a font from its base name alone, using standard-14 metrics
// when the name matches one.
func New(name, baseFont, subtype string) *Font {
	return &Font{
		Name:     name,
		BaseFont: baseFont,
		Subtype:  subtype,
		standard: standardWidths(baseFont),
	}
}

// FromDict builds a font from a font dictionary. The Widths array, when
// present, takes priority over standard-14 metrics.
func FromDict(res Resolver, name string, dict core.Dict) (*Font, error) {
	base, _ := dict.GetName("BaseFont")
	subtype, _ := dict.GetName("Subtype")
	f := New(name, string(base), string(subtype))

	first, hasFirst := dict.GetInt("FirstChar")
	widthsObj := dict.Get("Widths")
	if !hasFirst || widthsObj == nil {
		return f, nil
	}
	resolved, err := res.Resolve(widthsObj)
	if err != nil {
		return nil, err
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return f, nil
	}

	f.firstChar = int(first)
	f.widths = make([]float64, 0, len(arr))
	for _, elem := range arr {
		w, err := res.Resolve(elem)
		if err != nil {
			return nil, err
		}
		switch v := w.(type) {
		case core.Int:
			f.widths = append(f.widths, float64(v))
		case core.Real:
			f.widths = append(f.widths, float64(v))
		default:
			f.widths = append(f.widths, 0)
		}
	}
	return f, nil
}

// WidthOf returns a character's width in 1000ths of an em. Codes outside
// every table get half an em, a workable guess for unknown glyphs.
func (f *Font) WidthOf(code rune) float64 {
	if f.widths != nil {
		idx := int(code) - f.firstChar
		if idx >= 0 && idx < len(f.widths) && f.widths[idx] > 0 {
			return f.widths[idx]
		}
	}
	if f.standard != nil {
		if w, ok := f.standard[code]; ok {
			return w
		}
	}
	return 500
}

// StringWidth sums the widths of a string, in 1000ths of an em.
func (f *Font) StringWidth(s string) float64 {
	total := 0.0
	for _, r := range s {
		total += f.WidthOf(r)
	}
	return total
}

// IsStandard reports whether BaseFont names one of the standard 14 fonts.
func (f *Font) IsStandard() bool {
	return standardWidths(f.BaseFont) != nil
}
