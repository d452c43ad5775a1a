package contentstream

import (
	"bytes"
	"strconv"

	"github.com/greensward/folio/core"
)

// Operation is one content stream instruction: an operator and the operands
// that preceded it.
type Operation struct {
	Operator string
	Operands []core.Object
}

// Parser splits decoded content stream data into operations.
type Parser struct {
	lexer    *core.Lexer
	operands []core.Object
	ops      []Operation
}

// NewParser creates a parser over decoded content stream data.
func NewParser(data []byte) *Parser {
	return &Parser{lexer: core.NewLexer(data)}
}

// Parse is a convenience wrapper around NewParser(data).Parse().
func Parse(data []byte) ([]Operation, error) {
	return NewParser(data).Parse()
}

// Parse returns the operations in stream order.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case core.TokenEOF:
			return p.ops, nil

		case core.TokenComment:
			continue

		case core.TokenKeyword:
			if err := p.handleKeyword(tok); err != nil {
				return nil, err
			}

		case core.TokenIndirectRef:
			// A lone R is not valid object syntax inside a content
			// stream, so it can only be an operator name.
			p.emit("R")

		default:
			obj, err := p.operand(tok)
			if err != nil {
				return nil, err
			}
			p.operands = append(p.operands, obj)
		}
	}
}

func (p *Parser) handleKeyword(tok *core.Token) error {
	switch string(tok.Value) {
	case "true":
		p.operands = append(p.operands, core.Bool(true))
	case "false":
		p.operands = append(p.operands, core.Bool(false))
	case "null":
		p.operands = append(p.operands, core.Null{})
	case "BI":
		// Inline image. The bytes between ID and EI are raw sample
		// data the lexer cannot tokenize, so the whole image is
		// skipped in one step.
		if err := p.skipInlineImage(tok.Pos); err != nil {
			return err
		}
		p.emit("BI")
	default:
		p.emit(string(tok.Value))
	}
	return nil
}

// emit closes the current operand stack into an operation.
func (p *Parser) emit(operator string) {
	operands := make([]core.Object, len(p.operands))
	copy(operands, p.operands)
	p.operands = p.operands[:0]
	p.ops = append(p.ops, Operation{Operator: operator, Operands: operands})
}

// skipInlineImage advances the lexer past an inline image body, to just
// after the EI operator.
func (p *Parser) skipInlineImage(start int64) error {
	for {
		idx := p.lexer.IndexFrom([]byte("EI"))
		if idx < 0 {
			return core.Errorf(core.TruncatedObject, start,
				"inline image has no EI terminator")
		}
		// EI must stand alone as a token.
		before := p.lexer.ByteAt(idx - 1)
		after := p.lexer.ByteAt(idx + 2)
		if isTokenBoundary(before) && isTokenBoundary(after) {
			p.lexer.SeekTo(idx + 2)
			return nil
		}
		p.lexer.SeekTo(idx + 2)
	}
}

func isTokenBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// operand converts a non-keyword token into a PDF object, recursing for
// arrays and dictionaries.
func (p *Parser) operand(tok *core.Token) (core.Object, error) {
	switch tok.Type {
	case core.TokenInteger:
		n, err := strconv.ParseInt(string(tok.Value), 10, 64)
		if err != nil {
			return nil, core.Errorf(core.MalformedToken, tok.Pos,
				"bad integer %q", tok.Value)
		}
		return core.Int(n), nil

	case core.TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, core.Errorf(core.MalformedToken, tok.Pos,
				"bad number %q", tok.Value)
		}
		return core.Real(f), nil

	case core.TokenString:
		return core.String(tok.Value), nil

	case core.TokenName:
		return core.Name(tok.Value), nil

	case core.TokenArrayStart:
		return p.parseArray(tok.Pos)

	case core.TokenDictStart:
		return p.parseDict(tok.Pos)

	default:
		return nil, core.Errorf(core.MalformedToken, tok.Pos,
			"unexpected token %q in content stream", tok.Value)
	}
}

func (p *Parser) parseArray(start int64) (core.Object, error) {
	var arr core.Array
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case core.TokenArrayEnd:
			return arr, nil
		case core.TokenEOF:
			return nil, core.Errorf(core.MalformedToken, start, "unclosed array")
		case core.TokenKeyword:
			switch string(tok.Value) {
			case "true":
				arr = append(arr, core.Bool(true))
			case "false":
				arr = append(arr, core.Bool(false))
			case "null":
				arr = append(arr, core.Null{})
			default:
				return nil, core.Errorf(core.MalformedToken, tok.Pos,
					"keyword %q inside array", tok.Value)
			}
		default:
			obj, err := p.operand(tok)
			if err != nil {
				return nil, err
			}
			arr = append(arr, obj)
		}
	}
}

func (p *Parser) parseDict(start int64) (core.Object, error) {
	dict := make(core.Dict)
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case core.TokenDictEnd:
			return dict, nil
		case core.TokenEOF:
			return nil, core.Errorf(core.MalformedToken, start, "unclosed dictionary")
		case core.TokenName:
			value, err := p.lexer.NextToken()
			if err != nil {
				return nil, err
			}
			obj, err := p.operand(value)
			if err != nil {
				return nil, err
			}
			dict[string(tok.Value)] = obj
		default:
			return nil, core.Errorf(core.MalformedToken, tok.Pos,
				"dictionary key must be a name, got %q", tok.Value)
		}
	}
}

// FormatNumber renders a numeric operand the way content streams are
// written: integers without a point, reals trimmed of trailing zeros.
func FormatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = trimTrailingZeros(s)
	return s
}

func trimTrailingZeros(s string) string {
	if !bytes.ContainsRune([]byte(s), '.') {
		return s
	}
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
