package writer

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/greensward/folio/core"
)

// writeObject renders one object in PDF syntax. Dictionary keys come out
// sorted so serialization is deterministic.
func writeObject(buf *bytes.Buffer, obj core.Object) {
	switch v := obj.(type) {
	case nil, core.Null:
		buf.WriteString("null")

	case core.Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case core.Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))

	case core.Real:
		buf.WriteString(formatReal(float64(v)))

	case core.String:
		writeString(buf, []byte(v))

	case core.Name:
		writeName(buf, string(v))

	case core.Array:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, elem)
		}
		buf.WriteByte(']')

	case core.Dict:
		writeDict(buf, v)

	case *core.Stream:
		writeDict(buf, v.Dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")

	case core.IndirectRef:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)

	default:
		buf.WriteString("null")
	}
}

func writeDict(buf *bytes.Buffer, dict core.Dict) {
	buf.WriteString("<<")
	for _, key := range dict.SortedKeys() {
		buf.WriteByte(' ')
		writeName(buf, key)
		buf.WriteByte(' ')
		writeObject(buf, dict.Get(key))
	}
	buf.WriteString(" >>")
}

// writeString emits a literal string. Delimiters and backslashes are
// escaped; bytes outside printable ASCII use octal escapes so binary
// strings survive any EOL translation.
func writeString(buf *bytes.Buffer, data []byte) {
	buf.WriteByte('(')
	for _, b := range data {
		switch {
		case b == '(' || b == ')' || b == '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case b == '\n':
			buf.WriteString(`\n`)
		case b == '\r':
			buf.WriteString(`\r`)
		case b == '\t':
			buf.WriteString(`\t`)
		case b < 0x20 || b > 0x7E:
			fmt.Fprintf(buf, "\\%03o", b)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(')')
}

// writeName emits a name with #xx escapes for whitespace, delimiters and
// the escape character itself.
func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b <= 0x20 || b > 0x7E || b == '#' || isDelimiterByte(b) {
			fmt.Fprintf(buf, "#%02X", b)
			continue
		}
		buf.WriteByte(b)
	}
}

func isDelimiterByte(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func formatReal(f float64) string {
	// The 'f' verb never emits exponent syntax, which PDF numbers lack.
	return strconv.FormatFloat(f, 'f', -1, 64)
}
