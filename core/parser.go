package core

import (
	"bytes"
	"strconv"
)

// ReferenceResolver resolves indirect references during parsing. The parser
// needs one when a stream's /Length is itself an indirect reference.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from a byte buffer using a Lexer for
// tokenization. One token of lookahead disambiguates "num gen R" indirect
// references from plain integers.
type Parser struct {
	lexer        *Lexer
	currentToken *Token
	peekToken    *Token
	resolver     ReferenceResolver
}

// NewParser creates a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return NewParserAt(data, 0)
}

// NewParserAt creates a parser positioned at offset within data.
func NewParserAt(data []byte, offset int64) *Parser {
	p := &Parser{lexer: NewLexerAt(data, offset)}
	p.nextToken()
	p.nextToken()
	return p
}

// SetReferenceResolver installs the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// nextToken shifts the lookahead window forward by one token.
func (p *Parser) nextToken() error {
	p.currentToken = p.peekToken

	// The bytes after a stream keyword are binary payload; stop tokenizing
	// until parseStream has consumed them.
	if p.currentToken != nil &&
		p.currentToken.Type == TokenKeyword &&
		bytes.Equal(p.currentToken.Value, []byte("stream")) {
		p.peekToken = nil
		return nil
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.peekToken = token
	return nil
}

// skipComments advances past consecutive comment tokens.
func (p *Parser) skipComments() error {
	for p.currentToken != nil && p.currentToken.Type == TokenComment {
		if err := p.nextToken(); err != nil {
			return err
		}
	}
	return nil
}

// ParseObject parses one complete PDF object: null, boolean, number, string,
// name, array, dictionary, or indirect reference.
func (p *Parser) ParseObject() (Object, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}

	if p.currentToken == nil {
		return nil, Errorf(TruncatedObject, p.lexer.Pos(), "unexpected end of input")
	}

	switch p.currentToken.Type {
	case TokenEOF:
		return nil, Errorf(TruncatedObject, p.currentToken.Pos, "unexpected end of input")

	case TokenKeyword:
		keyword := string(p.currentToken.Value)
		switch keyword {
		case "null":
			p.nextToken()
			return Null{}, nil
		case "true":
			p.nextToken()
			return Bool(true), nil
		case "false":
			p.nextToken()
			return Bool(false), nil
		default:
			return nil, Errorf(MalformedToken, p.currentToken.Pos,
				"unexpected keyword %q", keyword)
		}

	case TokenInteger:
		return p.parseNumberOrRef()

	case TokenReal:
		val, err := strconv.ParseFloat(string(p.currentToken.Value), 64)
		if err != nil {
			return nil, Errorf(MalformedToken, p.currentToken.Pos,
				"invalid real number %q", p.currentToken.Value)
		}
		p.nextToken()
		return Real(val), nil

	case TokenString:
		val := string(p.currentToken.Value)
		p.nextToken()
		return String(val), nil

	case TokenName:
		val := string(p.currentToken.Value)
		p.nextToken()
		return Name(val), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, Errorf(MalformedToken, p.currentToken.Pos,
			"unexpected token type %v", p.currentToken.Type)
	}
}

// parseNumberOrRef parses an integer, detecting the "num gen R" indirect
// reference pattern via lookahead.
func (p *Parser) parseNumberOrRef() (Object, error) {
	first, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		return nil, Errorf(MalformedToken, p.currentToken.Pos,
			"invalid integer %q", p.currentToken.Value)
	}

	if p.peekToken != nil && p.peekToken.Type == TokenInteger {
		second, err := strconv.ParseInt(string(p.peekToken.Value), 10, 64)
		if err == nil {
			p.nextToken() // move onto the second integer
			if p.peekToken != nil && p.peekToken.Type == TokenIndirectRef {
				p.nextToken() // onto R
				p.nextToken() // past R
				return IndirectRef{Number: int(first), Generation: int(second)}, nil
			}
			// Not a reference: the second integer stays current for the
			// next ParseObject call.
			return Int(first), nil
		}
	}

	p.nextToken()
	return Int(first), nil
}

// parseArray parses [obj obj ...].
func (p *Parser) parseArray() (Object, error) {
	start := p.currentToken.Pos
	p.nextToken() // past [

	var arr Array
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}
		if p.currentToken == nil || p.currentToken.Type == TokenEOF {
			return nil, Errorf(TruncatedObject, start, "unterminated array")
		}
		if p.currentToken.Type == TokenArrayEnd {
			p.nextToken()
			return arr, nil
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDict parses << /Key value ... >>.
func (p *Parser) parseDict() (Object, error) {
	start := p.currentToken.Pos
	p.nextToken() // past <<

	dict := make(Dict)
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}
		if p.currentToken == nil || p.currentToken.Type == TokenEOF {
			return nil, Errorf(TruncatedObject, start, "unterminated dictionary")
		}
		if p.currentToken.Type == TokenDictEnd {
			p.nextToken()
			return dict, nil
		}

		if p.currentToken.Type != TokenName {
			return nil, Errorf(MalformedToken, p.currentToken.Pos,
				"dictionary key must be a name, got %v", p.currentToken.Type)
		}
		key := string(p.currentToken.Value)
		p.nextToken()

		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including the
// "dict stream ... endstream" form.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}

	if p.currentToken == nil || p.currentToken.Type != TokenInteger {
		return nil, Errorf(MalformedToken, p.pos(), "expected object number")
	}
	num, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		return nil, Errorf(MalformedToken, p.currentToken.Pos,
			"invalid object number %q", p.currentToken.Value)
	}
	p.nextToken()

	if p.currentToken == nil || p.currentToken.Type != TokenInteger {
		return nil, Errorf(MalformedToken, p.pos(), "expected generation number")
	}
	gen, err := strconv.ParseInt(string(p.currentToken.Value), 10, 64)
	if err != nil {
		return nil, Errorf(MalformedToken, p.currentToken.Pos,
			"invalid generation number %q", p.currentToken.Value)
	}
	p.nextToken()

	if p.currentToken == nil || p.currentToken.Type != TokenKeyword ||
		string(p.currentToken.Value) != "obj" {
		return nil, Errorf(MalformedToken, p.pos(), "expected obj keyword")
	}
	p.nextToken()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}

	if p.currentToken != nil && p.currentToken.Type == TokenKeyword &&
		string(p.currentToken.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, Errorf(MalformedToken, p.currentToken.Pos,
				"stream keyword must follow a dictionary, got %v", obj.Type())
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, err
		}
		obj = stream
	}

	if p.currentToken == nil || p.currentToken.Type != TokenKeyword ||
		string(p.currentToken.Value) != "endobj" {
		return nil, Errorf(TruncatedObject, p.pos(), "expected endobj keyword")
	}
	p.nextToken()

	return &IndirectObject{
		Ref:    IndirectRef{Number: int(num), Generation: int(gen)},
		Object: obj,
	}, nil
}

// parseStream reads the binary payload after a stream keyword. The payload
// size comes from the dictionary's /Length; when /Length is an unresolvable
// indirect reference the parser falls back to scanning for endstream and
// patches the dictionary afterwards.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	streamPos := p.currentToken.Pos

	length, haveLength, err := p.streamLength(dict, streamPos)
	if err != nil {
		return nil, err
	}

	// The lexer stopped right after the stream keyword; skip the mandatory
	// EOL so the payload starts cleanly.
	p.lexer.SkipStreamEOL()

	var data []byte
	if haveLength {
		if int64(length) > p.lexer.Remaining() {
			return nil, Errorf(InvalidLength, streamPos,
				"declared stream length %d exceeds %d remaining bytes",
				length, p.lexer.Remaining())
		}
		data, err = p.lexer.ReadBytes(length)
		if err != nil {
			return nil, err
		}
	} else {
		end := p.lexer.IndexFrom([]byte("endstream"))
		if end < 0 {
			return nil, Errorf(TruncatedObject, streamPos, "missing endstream keyword")
		}
		data, _ = p.lexer.ReadBytes(int(end - p.lexer.Pos()))
		// The scan includes the EOL preceding endstream; trim one marker.
		data = trimStreamEOL(data)
		dict.Set("Length", Int(len(data)))
	}

	// The next token must be endstream.
	token, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	if token.Type != TokenKeyword || !bytes.Equal(token.Value, []byte("endstream")) {
		return nil, Errorf(TruncatedObject, token.Pos,
			"expected endstream, got %q", token.Value)
	}

	// Reload the lookahead window so ParseIndirectObject can continue.
	p.currentToken = nil
	p.peekToken = nil
	p.nextToken()
	p.nextToken()

	return &Stream{Dict: dict, Data: data}, nil
}

// streamLength extracts /Length from the stream dictionary. The bool result
// is false when the length must be recovered by scanning.
func (p *Parser) streamLength(dict Dict, streamPos int64) (int, bool, error) {
	lengthObj := dict.Get("Length")
	if lengthObj == nil {
		return 0, false, nil
	}

	switch v := lengthObj.(type) {
	case Int:
		if v < 0 {
			return 0, false, Errorf(InvalidLength, streamPos, "negative stream length %d", v)
		}
		return int(v), true, nil
	case IndirectRef:
		if p.resolver == nil {
			return 0, false, nil
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			// Not yet resolvable; scan for endstream instead.
			return 0, false, nil
		}
		n, ok := resolved.(Int)
		if !ok || n < 0 {
			return 0, false, Errorf(InvalidLength, streamPos,
				"stream length reference resolved to %v", resolved)
		}
		return int(n), true, nil
	default:
		return 0, false, Errorf(InvalidLength, streamPos,
			"invalid stream length type %v", lengthObj.Type())
	}
}

// trimStreamEOL strips the single EOL marker that separates payload bytes
// from the endstream keyword.
func trimStreamEOL(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
		if n := len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}
	} else if n > 0 && data[n-1] == '\r' {
		data = data[:n-1]
	}
	return data
}

// pos returns the best available offset for error reporting.
func (p *Parser) pos() int64 {
	if p.currentToken != nil {
		return p.currentToken.Pos
	}
	return p.lexer.Pos()
}
