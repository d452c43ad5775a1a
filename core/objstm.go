package core

// ObjectStream gives access to objects packed inside a /Type /ObjStm stream
// (PDF 1.5+). The decoded payload starts with n pairs of plain-text integers
// (object number, relative offset) followed by the object bodies.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	offsets []objStmOffset
	objects map[int]Object // cache keyed by index
	decoded []byte
}

type objStmOffset struct {
	objNum int
	offset int
}

// NewObjectStream validates stream as an object stream and wraps it.
// Decoding and header parsing happen lazily on first object access.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, Errorf(DanglingReference, -1, "object stream is nil")
	}

	if typ, _ := stream.Dict.GetName("Type"); typ != "ObjStm" {
		return nil, Errorf(MalformedToken, -1, "stream has type /%s, want /ObjStm", typ)
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, Errorf(MalformedToken, -1, "object stream has invalid /N")
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, Errorf(MalformedToken, -1, "object stream has invalid /First")
	}

	return &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		objects: make(map[int]Object),
	}, nil
}

// Count returns the number of objects stored in the stream.
func (os *ObjectStream) Count() int { return os.n }

// decode decompresses the payload and parses the offset header.
func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}

	decoded, err := os.stream.Decode()
	if err != nil {
		return Errorf(TruncatedObject, -1, "cannot decode object stream: %v", err)
	}
	if os.first > len(decoded) {
		return Errorf(TruncatedObject, -1,
			"/First %d exceeds decoded length %d", os.first, len(decoded))
	}
	os.decoded = decoded

	parser := NewParser(decoded[:os.first])
	os.offsets = make([]objStmOffset, 0, os.n)
	for i := 0; i < os.n; i++ {
		numObj, err := parser.ParseObject()
		if err != nil {
			return Errorf(TruncatedObject, -1, "object stream header entry %d: %v", i, err)
		}
		offObj, err := parser.ParseObject()
		if err != nil {
			return Errorf(TruncatedObject, -1, "object stream header entry %d: %v", i, err)
		}
		num, ok1 := numObj.(Int)
		off, ok2 := offObj.(Int)
		if !ok1 || !ok2 {
			return Errorf(MalformedToken, -1, "object stream header entry %d is not an integer pair", i)
		}
		if off < 0 {
			return Errorf(TruncatedObject, -1,
				"object stream header entry %d has negative offset %d", i, off)
		}
		os.offsets = append(os.offsets, objStmOffset{objNum: int(num), offset: int(off)})
	}
	return nil
}

// GetObjectByIndex parses and returns the object at a header index
// (not an object number). The second result is the object's number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, Errorf(DanglingReference, -1,
			"object stream index %d out of range [0, %d)", index, len(os.offsets))
	}

	if obj, ok := os.objects[index]; ok {
		return obj, os.offsets[index].objNum, nil
	}

	start := os.first + os.offsets[index].offset
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		end = os.first + os.offsets[index+1].offset
	}
	if start >= len(os.decoded) {
		return nil, 0, Errorf(TruncatedObject, -1,
			"object offset %d exceeds decoded length %d", start, len(os.decoded))
	}
	if end > len(os.decoded) {
		end = len(os.decoded)
	}
	if end < start {
		return nil, 0, Errorf(TruncatedObject, -1,
			"object stream offsets not monotonic at index %d", index)
	}

	parser := NewParser(os.decoded[start:end])
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, 0, err
	}

	os.objects[index] = obj
	return obj, os.offsets[index].objNum, nil
}

// GetObjectByNumber finds and parses the object with the given number.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}
	for i, entry := range os.offsets {
		if entry.objNum == objNum {
			obj, _, err := os.GetObjectByIndex(i)
			return obj, err
		}
	}
	return nil, Errorf(DanglingReference, -1, "object %d not found in object stream", objNum)
}
