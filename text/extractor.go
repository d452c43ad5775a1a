package text

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"

	"github.com/greensward/folio/contentstream"
	"github.com/greensward/folio/core"
	"github.com/greensward/folio/font"
)

// Fragment is one shown string with its device-space position.
type Fragment struct {
	Text     string
	X, Y     float64
	Width    float64
	FontName string
	FontSize float64
}

// Extractor walks text operators and collects fragments.
type Extractor struct {
	fragments []Fragment

	ctm      matrix
	ctmStack []matrix

	tm  matrix // text matrix
	tlm matrix // text line matrix

	fonts map[string]*font.Font

	fontName    string
	curFont     *font.Font
	fontSize    float64
	leading     float64
	charSpacing float64
	wordSpacing float64
}

// NewExtractor creates an extractor with default state.
func NewExtractor() *Extractor {
	return &Extractor{ctm: identity(), tm: identity(), tlm: identity()}
}

// SetFonts supplies metrics for the page's fonts, keyed by resource name.
// Strings shown in a known font advance by its real glyph widths instead
// of the half-em estimate.
func (e *Extractor) SetFonts(fonts map[string]*font.Font) *Extractor {
	e.fonts = fonts
	return e
}

// ExtractBytes parses decoded content stream data and extracts its text.
func (e *Extractor) ExtractBytes(data []byte) ([]Fragment, error) {
	ops, err := contentstream.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing content stream: %w", err)
	}
	return e.Extract(ops)
}

// Extract processes operations in order and returns the fragments found.
func (e *Extractor) Extract(ops []contentstream.Operation) ([]Fragment, error) {
	e.fragments = e.fragments[:0]
	for _, op := range ops {
		e.process(op)
	}
	return e.fragments, nil
}

func (e *Extractor) process(op contentstream.Operation) {
	switch op.Operator {
	case "q":
		e.ctmStack = append(e.ctmStack, e.ctm)
	case "Q":
		if n := len(e.ctmStack); n > 0 {
			e.ctm = e.ctmStack[n-1]
			e.ctmStack = e.ctmStack[:n-1]
		}
	case "cm":
		if m, ok := operandMatrix(op.Operands); ok {
			e.ctm = m.mul(e.ctm)
		}

	case "BT":
		e.tm = identity()
		e.tlm = identity()
	case "ET":
		// Text position is undefined outside BT/ET.

	case "Tf":
		if len(op.Operands) == 2 {
			if name, ok := op.Operands[0].(core.Name); ok {
				e.fontName = string(name)
				e.curFont = e.fonts[e.fontName]
			}
			if size, ok := operandFloat(op.Operands[1]); ok {
				e.fontSize = size
			}
		}
	case "TL":
		if v, ok := firstFloat(op.Operands); ok {
			e.leading = v
		}
	case "Tc":
		if v, ok := firstFloat(op.Operands); ok {
			e.charSpacing = v
		}
	case "Tw":
		if v, ok := firstFloat(op.Operands); ok {
			e.wordSpacing = v
		}

	case "Tm":
		if m, ok := operandMatrix(op.Operands); ok {
			e.tm = m
			e.tlm = m
		}
	case "Td":
		if len(op.Operands) == 2 {
			tx, _ := operandFloat(op.Operands[0])
			ty, _ := operandFloat(op.Operands[1])
			e.moveLine(tx, ty)
		}
	case "TD":
		if len(op.Operands) == 2 {
			tx, _ := operandFloat(op.Operands[0])
			ty, _ := operandFloat(op.Operands[1])
			e.leading = -ty
			e.moveLine(tx, ty)
		}
	case "T*":
		e.moveLine(0, -e.leading)

	case "Tj":
		if s, ok := firstString(op.Operands); ok {
			e.showText(s)
		}
	case "TJ":
		if len(op.Operands) == 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				e.showTextArray(arr)
			}
		}
	case "'":
		e.moveLine(0, -e.leading)
		if s, ok := firstString(op.Operands); ok {
			e.showText(s)
		}
	case "\"":
		if len(op.Operands) == 3 {
			if ws, ok := operandFloat(op.Operands[0]); ok {
				e.wordSpacing = ws
			}
			if cs, ok := operandFloat(op.Operands[1]); ok {
				e.charSpacing = cs
			}
			e.moveLine(0, -e.leading)
			if s, ok := op.Operands[2].(core.String); ok {
				e.showText([]byte(s))
			}
		}
	}
}

func (e *Extractor) moveLine(tx, ty float64) {
	e.tlm = translation(tx, ty).mul(e.tlm)
	e.tm = e.tlm
}

func (e *Extractor) showText(raw []byte) {
	decoded := DecodeString(raw)
	if decoded == "" {
		return
	}

	device := e.tm.mul(e.ctm)
	x, y := device.apply(0, 0)

	width := e.advance(decoded)
	e.fragments = append(e.fragments, Fragment{
		Text:     decoded,
		X:        x,
		Y:        y,
		Width:    width,
		FontName: e.fontName,
		FontSize: e.fontSize,
	})

	e.tm = translation(width, 0).mul(e.tm)
}

func (e *Extractor) showTextArray(arr core.Array) {
	for _, item := range arr {
		switch v := item.(type) {
		case core.String:
			e.showText([]byte(v))
		case core.Int:
			e.adjust(float64(v))
		case core.Real:
			e.adjust(float64(v))
		}
	}
}

// adjust applies a TJ position adjustment, in thousandths of text space.
func (e *Extractor) adjust(v float64) {
	e.tm = translation(-v/1000*e.fontSize, 0).mul(e.tm)
}

// advance computes the horizontal advance of a string, using the current
// font's glyph widths when known. Without metrics an average width of half
// an em per glyph is assumed.
func (e *Extractor) advance(s string) float64 {
	runes := []rune(s)
	var w float64
	if e.curFont != nil {
		w = e.curFont.StringWidth(s) / 1000 * e.fontSize
	} else {
		w = float64(len(runes)) * 0.5 * e.fontSize
	}
	w += float64(len(runes)) * e.charSpacing
	for _, r := range runes {
		if r == ' ' {
			w += e.wordSpacing
		}
	}
	return w
}

// DecodeString converts a PDF text string to UTF-8. Strings with a UTF-16BE
// byte order mark are decoded with the x/text machinery; everything else is
// kept byte for byte.
func DecodeString(raw []byte) string {
	if bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err == nil {
			return string(out)
		}
	}
	return string(raw)
}

func operandMatrix(operands []core.Object) (matrix, bool) {
	if len(operands) != 6 {
		return matrix{}, false
	}
	var m matrix
	for i, o := range operands {
		f, ok := operandFloat(o)
		if !ok {
			return matrix{}, false
		}
		m[i] = f
	}
	return m, true
}

func operandFloat(obj core.Object) (float64, bool) {
	switch v := obj.(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	}
	return 0, false
}

func firstFloat(operands []core.Object) (float64, bool) {
	if len(operands) != 1 {
		return 0, false
	}
	return operandFloat(operands[0])
}

func firstString(operands []core.Object) ([]byte, bool) {
	if len(operands) != 1 {
		return nil, false
	}
	if s, ok := operands[0].(core.String); ok {
		return []byte(s), true
	}
	return nil, false
}
