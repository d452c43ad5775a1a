package filters

import (
	"bytes"
	"fmt"
)

// RunLengthDecode expands run-length encoded data. A length byte L in 0..127
// copies the next L+1 bytes literally; L in 129..255 repeats the next byte
// 257-L times; 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	var out bytes.Buffer

	i := 0
	for i < len(data) {
		l := data[i]
		i++
		switch {
		case l == 128:
			return out.Bytes(), nil
		case l < 128:
			n := int(l) + 1
			if i+n > len(data) {
				return nil, fmt.Errorf("literal run of %d bytes exceeds input", n)
			}
			out.Write(data[i : i+n])
			i += n
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("repeat run missing byte")
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-int(l)))
			i++
		}
	}
	return out.Bytes(), nil
}
