package core

import (
	"fmt"

	"github.com/greensward/folio/internal/filters"
)

// Decode returns the stream payload with all /Filter entries applied, in
// order. The result is cached; the cache is discarded by SetData.
func (s *Stream) Decode() ([]byte, error) {
	if s.decoded != nil {
		return s.decoded, nil
	}

	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		s.decoded = s.Data
		return s.Data, nil
	}

	paramsObj := s.Dict.Get("DecodeParms")

	var chain []Name
	var params []Dict

	switch v := filterObj.(type) {
	case Name:
		chain = []Name{v}
		params = []Dict{paramsAsDict(paramsObj)}
	case Array:
		for i, f := range v {
			name, ok := f.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %v", i, f)
			}
			chain = append(chain, name)
			if parmsArr, ok := paramsObj.(Array); ok {
				params = append(params, paramsAsDict(parmsArr.Get(i)))
			} else {
				params = append(params, paramsAsDict(paramsObj))
			}
		}
	default:
		return nil, fmt.Errorf("invalid Filter type: %v", filterObj.Type())
	}

	data := s.Data
	var err error
	for i, name := range chain {
		data, err = decodeWithFilter(data, string(name), params[i])
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
		}
	}

	s.decoded = data
	return data, nil
}

// decodeWithFilter applies one named decompression filter.
func decodeWithFilter(data []byte, filterName string, params Dict) ([]byte, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(params))

	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)

	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)

	case "RunLengthDecode", "RL":
		return filters.RunLengthDecode(data)

	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, dictToParams(params))

	case "DCTDecode", "DCT", "JPXDecode":
		// JPEG/JPEG2000 payloads pass through; image decoding happens at the
		// XObject extraction layer.
		return data, nil

	case "LZWDecode", "LZW":
		return nil, fmt.Errorf("LZWDecode not supported")

	case "JBIG2Decode":
		return nil, fmt.Errorf("JBIG2Decode not supported")

	case "Crypt":
		return nil, fmt.Errorf("Crypt filter not supported")

	default:
		return nil, fmt.Errorf("unknown filter: %s", filterName)
	}
}

// paramsAsDict normalizes a DecodeParms entry to a Dict; Null and absent
// entries become nil.
func paramsAsDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams converts decode parameters to the plain-value map the filters
// package consumes.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
