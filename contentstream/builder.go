package contentstream

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/greensward/folio/core"
)

// Builder emits content stream operators for generated pages and overlays.
// Methods chain:
//
//	data := NewBuilder().
//	    SaveState().
//	    Translate(200, 200).
//	    RotateDegrees(45).
//	    BeginText().
//	    SetFont("F1", 50).
//	    ShowText("CONFIDENTIAL").
//	    EndText().
//	    RestoreState().
//	    Bytes()
type Builder struct {
	buf        bytes.Buffer
	stateDepth int
	inText     bool
}

// NewBuilder creates an empty content stream builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) op(operator string, operands ...string) *Builder {
	for _, o := range operands {
		b.buf.WriteString(o)
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(operator)
	b.buf.WriteByte('\n')
	return b
}

// SaveState emits q.
func (b *Builder) SaveState() *Builder {
	b.stateDepth++
	return b.op("q")
}

// RestoreState emits Q.
func (b *Builder) RestoreState() *Builder {
	b.stateDepth--
	return b.op("Q")
}

// Transform emits a cm operator with the given matrix.
func (b *Builder) Transform(a, bb, c, d, e, f float64) *Builder {
	return b.op("cm",
		FormatNumber(a), FormatNumber(bb), FormatNumber(c),
		FormatNumber(d), FormatNumber(e), FormatNumber(f))
}

// Translate moves the origin by (tx, ty).
func (b *Builder) Translate(tx, ty float64) *Builder {
	return b.Transform(1, 0, 0, 1, tx, ty)
}

// RotateDegrees rotates the coordinate system counterclockwise.
func (b *Builder) RotateDegrees(degrees float64) *Builder {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	return b.Transform(cos, sin, -sin, cos, 0, 0)
}

// SetExtGState emits gs, selecting a named graphics state from the page's
// /ExtGState resources.
func (b *Builder) SetExtGState(name core.Name) *Builder {
	return b.op("gs", formatName(name))
}

// SetFillGray sets the nonstroking gray level, 0 black to 1 white.
func (b *Builder) SetFillGray(gray float64) *Builder {
	return b.op("g", FormatNumber(gray))
}

// SetFillRGB sets the nonstroking color in DeviceRGB.
func (b *Builder) SetFillRGB(r, g, bl float64) *Builder {
	return b.op("rg", FormatNumber(r), FormatNumber(g), FormatNumber(bl))
}

// BeginText emits BT.
func (b *Builder) BeginText() *Builder {
	b.inText = true
	return b.op("BT")
}

// EndText emits ET.
func (b *Builder) EndText() *Builder {
	b.inText = false
	return b.op("ET")
}

// SetFont emits Tf, selecting a font resource at the given size.
func (b *Builder) SetFont(name core.Name, size float64) *Builder {
	return b.op("Tf", formatName(name), FormatNumber(size))
}

// MoveText emits Td, offsetting the text position.
func (b *Builder) MoveText(tx, ty float64) *Builder {
	return b.op("Td", FormatNumber(tx), FormatNumber(ty))
}

// SetLeading emits TL.
func (b *Builder) SetLeading(leading float64) *Builder {
	return b.op("TL", FormatNumber(leading))
}

// NextLine emits T*, moving to the start of the next line.
func (b *Builder) NextLine() *Builder {
	return b.op("T*")
}

// ShowText emits Tj with the string escaped for literal syntax.
func (b *Builder) ShowText(text string) *Builder {
	return b.op("Tj", EscapeString(text))
}

// Rectangle emits re.
func (b *Builder) Rectangle(x, y, width, height float64) *Builder {
	return b.op("re",
		FormatNumber(x), FormatNumber(y),
		FormatNumber(width), FormatNumber(height))
}

// Fill emits f.
func (b *Builder) Fill() *Builder {
	return b.op("f")
}

// Raw appends an operator sequence verbatim.
func (b *Builder) Raw(data string) *Builder {
	b.buf.WriteString(data)
	if !strings.HasSuffix(data, "\n") {
		b.buf.WriteByte('\n')
	}
	return b
}

// Bytes returns the operator sequence built so far.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Err reports unbalanced q/Q or an unterminated text object.
func (b *Builder) Err() error {
	if b.stateDepth != 0 {
		return fmt.Errorf("unbalanced graphics state: depth %d", b.stateDepth)
	}
	if b.inText {
		return fmt.Errorf("unterminated text object")
	}
	return nil
}

// EscapeString renders text as a literal PDF string with the delimiter and
// escape characters backslash-quoted.
func EscapeString(text string) string {
	var out strings.Builder
	out.WriteByte('(')
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '(', ')', '\\':
			out.WriteByte('\\')
			out.WriteByte(c)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		case '\t':
			out.WriteString(`\t`)
		default:
			out.WriteByte(c)
		}
	}
	out.WriteByte(')')
	return out.String()
}

func formatName(name core.Name) string {
	return "/" + string(name)
}
