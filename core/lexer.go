package core

import (
	"bytes"
	"io"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, ...
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello) or <48656C6C6F>, already unescaped/decoded
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // the R keyword
)

// Token is one lexical unit of PDF syntax.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64 // byte offset of the token's first byte
}

// Lexer tokenizes PDF syntax from an in-memory buffer. Documents are parsed
// from whole byte slices, so the lexer supports random repositioning, which
// the cross-reference layer uses to jump between objects.
type Lexer struct {
	data []byte
	pos  int64
}

// NewLexer creates a lexer over data starting at offset 0.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// NewLexerAt creates a lexer over data positioned at offset.
func NewLexerAt(data []byte, offset int64) *Lexer {
	return &Lexer{data: data, pos: offset}
}

// Pos returns the current byte offset.
func (l *Lexer) Pos() int64 { return l.pos }

// SeekTo repositions the lexer at an absolute byte offset.
func (l *Lexer) SeekTo(offset int64) {
	if offset < 0 {
		offset = 0
	}
	l.pos = offset
}

// NextToken returns the next token, skipping whitespace. At end of input it
// returns a TokenEOF token rather than an error.
func (l *Lexer) NextToken() (*Token, error) {
	l.skipWhitespace()

	if l.pos >= int64(len(l.data)) {
		return &Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	b := l.data[l.pos]

	if b == '%' {
		return l.readComment()
	}

	switch b {
	case '[':
		l.pos++
		return &Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: l.pos - 1}, nil
	case ']':
		l.pos++
		return &Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: l.pos - 1}, nil
	case '(':
		return l.readLiteralString()
	case '<':
		if l.peekAt(1) == '<' {
			l.pos += 2
			return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: l.pos - 2}, nil
		}
		return l.readHexString()
	case '>':
		if l.peekAt(1) == '>' {
			l.pos += 2
			return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: l.pos - 2}, nil
		}
		return nil, Errorf(MalformedToken, l.pos, "unexpected '>'")
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}

	// ' and " are the abbreviated show-text operators; they occur in
	// content streams, never in object syntax.
	if isAlpha(b) || b == '\'' || b == '"' {
		return l.readKeyword()
	}

	return nil, Errorf(MalformedToken, l.pos, "unexpected byte 0x%02x", b)
}

// peekAt returns the byte at the current position plus delta, or 0 past the end.
func (l *Lexer) peekAt(delta int64) byte {
	idx := l.pos + delta
	if idx >= int64(len(l.data)) {
		return 0
	}
	return l.data[idx]
}

// skipWhitespace advances past PDF whitespace (space, tab, LF, CR, FF, NUL).
func (l *Lexer) skipWhitespace() {
	for l.pos < int64(len(l.data)) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readComment consumes a % comment through end of line.
func (l *Lexer) readComment() (*Token, error) {
	start := l.pos
	for l.pos < int64(len(l.data)) {
		b := l.data[l.pos]
		if b == '\r' || b == '\n' {
			break
		}
		l.pos++
	}
	tok := &Token{Type: TokenComment, Value: l.data[start:l.pos], Pos: start}
	// Consume the line ending, tolerating CR, LF, and CRLF.
	if l.pos < int64(len(l.data)) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < int64(len(l.data)) && l.data[l.pos] == '\n' {
		l.pos++
	}
	return tok, nil
}

// readLiteralString consumes a ( ... ) string, balancing nested parentheses
// and translating escape sequences. The returned token value holds the
// decoded bytes.
func (l *Lexer) readLiteralString() (*Token, error) {
	start := l.pos
	l.pos++ // opening (

	var buf bytes.Buffer
	depth := 1

	for depth > 0 {
		if l.pos >= int64(len(l.data)) {
			return nil, Errorf(MalformedToken, start, "unterminated string")
		}
		b := l.data[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			if l.pos >= int64(len(l.data)) {
				return nil, Errorf(MalformedToken, start, "unterminated escape in string")
			}
			next := l.data[l.pos]
			l.pos++
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(next)
			case '\r':
				// Line continuation; swallow an LF in a CRLF pair.
				if l.pos < int64(len(l.data)) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
				// Line continuation.
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := next - '0'
				for i := 0; i < 2 && l.pos < int64(len(l.data)) && isOctalDigit(l.data[l.pos]); i++ {
					val = val*8 + (l.data[l.pos] - '0')
					l.pos++
				}
				buf.WriteByte(val)
			default:
				// Unknown escape: the backslash is ignored.
				buf.WriteByte(next)
			}
		default:
			buf.WriteByte(b)
		}
	}

	return &Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
}

// readHexString consumes a < ... > string, decoding hex pairs. Whitespace
// inside the string is ignored; an odd trailing digit implies a final 0.
func (l *Lexer) readHexString() (*Token, error) {
	start := l.pos
	l.pos++ // opening <

	var buf bytes.Buffer
	var hi byte
	havePending := false

	for {
		if l.pos >= int64(len(l.data)) {
			return nil, Errorf(MalformedToken, start, "unterminated hex string")
		}
		b := l.data[l.pos]
		l.pos++

		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return nil, Errorf(MalformedToken, l.pos-1, "invalid hex digit %q", string(b))
		}
		if havePending {
			buf.WriteByte(hi<<4 | hexValue(b))
			havePending = false
		} else {
			hi = hexValue(b)
			havePending = true
		}
	}
	if havePending {
		buf.WriteByte(hi << 4)
	}

	return &Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
}

// readName consumes a /Name token, translating #xx escapes.
func (l *Lexer) readName() (*Token, error) {
	start := l.pos
	l.pos++ // the slash

	var buf bytes.Buffer
	for l.pos < int64(len(l.data)) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++

		if b == '#' {
			if l.pos+1 >= int64(len(l.data)) ||
				!isHexDigit(l.data[l.pos]) || !isHexDigit(l.data[l.pos+1]) {
				return nil, Errorf(MalformedToken, l.pos-1, "invalid # escape in name")
			}
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(b)
	}

	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber consumes an integer or real number token.
func (l *Lexer) readNumber() (*Token, error) {
	start := l.pos
	hasDecimal := false

	if b := l.data[l.pos]; b == '-' || b == '+' {
		l.pos++
	}
	for l.pos < int64(len(l.data)) {
		b := l.data[l.pos]
		if b == '.' && !hasDecimal {
			hasDecimal = true
			l.pos++
		} else if isDigit(b) {
			l.pos++
		} else {
			break
		}
	}

	tt := TokenInteger
	if hasDecimal {
		tt = TokenReal
	}
	return &Token{Type: tt, Value: l.data[start:l.pos], Pos: start}, nil
}

// readKeyword consumes an alphabetic keyword. The single letter R becomes a
// TokenIndirectRef so the parser can detect "num gen R" sequences.
func (l *Lexer) readKeyword() (*Token, error) {
	start := l.pos
	for l.pos < int64(len(l.data)) {
		b := l.data[l.pos]
		if !isAlpha(b) && !isDigit(b) && b != '*' && b != '\'' && b != '"' {
			break
		}
		l.pos++
	}

	value := l.data[start:l.pos]
	if len(value) == 1 && value[0] == 'R' {
		return &Token{Type: TokenIndirectRef, Value: value, Pos: start}, nil
	}
	return &Token{Type: TokenKeyword, Value: value, Pos: start}, nil
}

// SkipStreamEOL consumes the end-of-line marker that follows the stream
// keyword: a single LF or a CRLF pair.
func (l *Lexer) SkipStreamEOL() {
	if l.pos < int64(len(l.data)) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < int64(len(l.data)) && l.data[l.pos] == '\n' {
		l.pos++
	}
}

// ReadBytes returns the next n raw bytes, used for stream payloads.
// Fails with TruncatedObject when fewer than n bytes remain.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if int64(n) > int64(len(l.data))-l.pos {
		return nil, Errorf(TruncatedObject, l.pos,
			"need %d bytes, only %d remain", n, int64(len(l.data))-l.pos)
	}
	data := l.data[l.pos : l.pos+int64(n)]
	l.pos += int64(n)
	return data, nil
}

// Remaining returns the number of unread bytes.
func (l *Lexer) Remaining() int64 {
	return int64(len(l.data)) - l.pos
}

// IndexFrom reports the absolute offset of the first occurrence of needle at
// or after the current position, or -1. The stream parser uses it to recover
// when /Length cannot be resolved up front.
func (l *Lexer) IndexFrom(needle []byte) int64 {
	idx := bytes.Index(l.data[l.pos:], needle)
	if idx < 0 {
		return -1
	}
	return l.pos + int64(idx)
}

// ByteAt returns the byte at an absolute offset, or 0 outside the buffer.
func (l *Lexer) ByteAt(offset int64) byte {
	if offset < 0 || offset >= int64(len(l.data)) {
		return 0
	}
	return l.data[offset]
}

// ReadAll drains the rest of the buffer. Mostly useful in tests.
func (l *Lexer) ReadAll() ([]byte, error) {
	if l.pos >= int64(len(l.data)) {
		return nil, io.EOF
	}
	data := l.data[l.pos:]
	l.pos = int64(len(l.data))
	return data, nil
}

// Character class helpers shared by the lexer and the content-stream parser.

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
