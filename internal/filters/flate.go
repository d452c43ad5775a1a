package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Params holds decode parameters from a stream's /DecodeParms dictionary,
// translated to plain Go values (int, float64, bool, string).
type Params map[string]interface{}

// FlateDecode decompresses zlib/deflate data, the most common PDF filter,
// and reverses the optional Predictor pass.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}

	predictor := intParam(params, "Predictor", 1)
	if predictor == 1 {
		return out, nil
	}
	return undoPredictor(out, predictor, params)
}

// FlateEncode compresses data with zlib at the default level. No predictor
// is applied; the writer emits streams without /DecodeParms.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	return buf.Bytes(), nil
}

// undoPredictor reverses the row prediction applied before compression.
// Predictor 2 is TIFF horizontal differencing; 10-15 are the PNG filters,
// where each row carries its own filter-type byte.
func undoPredictor(data []byte, predictor int, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("predictor supports 8 bits per component, got %d", bpc)
	}

	switch {
	case predictor == 2:
		return undoTIFFPredictor(data, columns, colors)
	case predictor >= 10 && predictor <= 15:
		return undoPNGPredictor(data, columns, colors)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}
}

// undoTIFFPredictor adds each sample to the sample to its left.
func undoTIFFPredictor(data []byte, columns, colors int) ([]byte, error) {
	rowSize := columns * colors
	if rowSize <= 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data length %d not a multiple of row size %d", len(data), rowSize)
	}

	out := make([]byte, len(data))
	for row := 0; row < len(data)/rowSize; row++ {
		base := row * rowSize
		for col := 0; col < rowSize; col++ {
			if col < colors {
				out[base+col] = data[base+col]
			} else {
				out[base+col] = data[base+col] + out[base+col-colors]
			}
		}
	}
	return out, nil
}

// undoPNGPredictor reverses the per-row PNG filters
// (0 None, 1 Sub, 2 Up, 3 Average, 4 Paeth).
func undoPNGPredictor(data []byte, columns, colors int) ([]byte, error) {
	bpp := colors
	rowSize := columns*colors + 1 // leading filter-type byte
	if rowSize <= 1 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data length %d not a multiple of row size %d", len(data), rowSize)
	}

	width := columns * colors
	rows := len(data) / rowSize
	out := make([]byte, rows*width)

	for row := 0; row < rows; row++ {
		ft := data[row*rowSize]
		src := data[row*rowSize+1 : (row+1)*rowSize]
		dst := out[row*width : (row+1)*width]
		var prev []byte
		if row > 0 {
			prev = out[(row-1)*width : row*width]
		}

		for i := 0; i < width; i++ {
			var left, up, upLeft byte
			if i >= bpp {
				left = dst[i-bpp]
			}
			if prev != nil {
				up = prev[i]
				if i >= bpp {
					upLeft = prev[i-bpp]
				}
			}

			var pred byte
			switch ft {
			case 0:
				pred = 0
			case 1:
				pred = left
			case 2:
				pred = up
			case 3:
				pred = byte((int(left) + int(up)) / 2)
			case 4:
				pred = paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("row %d: unknown PNG filter type %d", row, ft)
			}
			dst[i] = src[i] + pred
		}
	}
	return out, nil
}

// paeth selects the neighbor closest to the linear prediction left+up-upLeft,
// as defined by the PNG specification.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// intParam fetches an integer parameter, tolerating the numeric types the
// object layer may hand over.
func intParam(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// boolParam fetches a boolean parameter.
func boolParam(params Params, key string, def bool) bool {
	if params == nil {
		return def
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
