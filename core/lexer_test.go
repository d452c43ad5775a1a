package core

import (
	"bytes"
	"testing"
)

func tokens(t *testing.T, input string) []*Token {
	t.Helper()
	l := NewLexer([]byte(input))
	var out []*Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("NextToken: %v", err)
		}
		if tok.Type == TokenEOF {
			return out
		}
		out = append(out, tok)
	}
}

func TestLexerTokenTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   TokenType
		value string
	}{
		{"integer", "42", TokenInteger, "42"},
		{"negative", "-17", TokenInteger, "-17"},
		{"plus sign", "+9", TokenInteger, "+9"},
		{"real", "3.14", TokenReal, "3.14"},
		{"leading dot", ".5", TokenReal, ".5"},
		{"name", "/Type", TokenName, "Type"},
		{"keyword", "true", TokenKeyword, "true"},
		{"array start", "[", TokenArrayStart, "["},
		{"dict start", "<<", TokenDictStart, "<<"},
		{"quote operator", "'", TokenKeyword, "'"},
		{"double quote operator", `"`, TokenKeyword, `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(t, tt.input)
			if len(toks) != 1 {
				t.Fatalf("got %d tokens, want 1", len(toks))
			}
			if toks[0].Type != tt.typ {
				t.Errorf("type = %v, want %v", toks[0].Type, tt.typ)
			}
			if string(toks[0].Value) != tt.value {
				t.Errorf("value = %q, want %q", toks[0].Value, tt.value)
			}
		})
	}
}

func TestLexerLiteralStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "(hello)", "hello"},
		{"nested parens", "(a (b (c)) d)", "a (b (c)) d"},
		{"escapes", `(a\(b\)c\\d)`, `a(b)c\d`},
		{"control escapes", `(a\nb\tc)`, "a\nb\tc"},
		{"octal", `(\101\102)`, "AB"},
		{"short octal", `(\7Q)`, "\x07Q"},
		{"line continuation", "(a\\\nb)", "ab"},
		{"unknown escape", `(\q)`, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(t, tt.input)
			if len(toks) != 1 || toks[0].Type != TokenString {
				t.Fatalf("tokens = %v", toks)
			}
			if string(toks[0].Value) != tt.want {
				t.Errorf("value = %q, want %q", toks[0].Value, tt.want)
			}
		})
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer([]byte("(never closed"))
	_, err := l.NextToken()
	if KindOf(err) != MalformedToken {
		t.Errorf("expected MalformedToken, got %v", err)
	}
}

func TestLexerHexStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"pairs", "<48656C6C6F>", "Hello"},
		{"whitespace ignored", "<48 65\n6C>", "Hel"},
		{"odd digit pads zero", "<48656C6C6F7>", "Hellop"},
		{"empty", "<>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokens(t, tt.input)
			if len(toks) != 1 || toks[0].Type != TokenString {
				t.Fatalf("tokens = %v", toks)
			}
			if string(toks[0].Value) != tt.want {
				t.Errorf("value = %q, want %q", toks[0].Value, tt.want)
			}
		})
	}
}

func TestLexerNameEscapes(t *testing.T) {
	toks := tokens(t, "/A#20B")
	if len(toks) != 1 || toks[0].Type != TokenName {
		t.Fatalf("tokens = %v", toks)
	}
	if string(toks[0].Value) != "A B" {
		t.Errorf("value = %q, want %q", toks[0].Value, "A B")
	}
}

func TestLexerComments(t *testing.T) {
	toks := tokens(t, "1 % a comment\n2")
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	want := []TokenType{TokenInteger, TokenComment, TokenInteger}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d type = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestLexerSequence(t *testing.T) {
	toks := tokens(t, "<< /Type /Page /MediaBox [0 0 612 792] >>")
	want := []TokenType{
		TokenDictStart, TokenName, TokenName, TokenName,
		TokenArrayStart, TokenInteger, TokenInteger, TokenInteger, TokenInteger, TokenArrayEnd,
		TokenDictEnd,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Type != want[i] {
			t.Errorf("token %d type = %v, want %v", i, tok.Type, want[i])
		}
	}
}

func TestLexerPositions(t *testing.T) {
	toks := tokens(t, "  12 /N")
	if toks[0].Pos != 2 {
		t.Errorf("integer Pos = %d, want 2", toks[0].Pos)
	}
	if toks[1].Pos != 5 {
		t.Errorf("name Pos = %d, want 5", toks[1].Pos)
	}
}

func TestLexerSeekAndReadBytes(t *testing.T) {
	l := NewLexer([]byte("0123456789"))
	l.SeekTo(4)
	got, err := l.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte("456")) {
		t.Errorf("ReadBytes = %q, want 456", got)
	}
	if l.Pos() != 7 {
		t.Errorf("Pos = %d, want 7", l.Pos())
	}
	if l.Remaining() != 3 {
		t.Errorf("Remaining = %d, want 3", l.Remaining())
	}
}

func TestLexerIndexFrom(t *testing.T) {
	l := NewLexer([]byte("abc EI def EI"))
	if got := l.IndexFrom([]byte("EI")); got != 4 {
		t.Errorf("IndexFrom = %d, want 4", got)
	}
	l.SeekTo(6)
	if got := l.IndexFrom([]byte("EI")); got != 11 {
		t.Errorf("IndexFrom after seek = %d, want 11", got)
	}
	if got := l.IndexFrom([]byte("missing")); got != -1 {
		t.Errorf("IndexFrom missing = %d, want -1", got)
	}
}

func TestLexerMalformedByte(t *testing.T) {
	l := NewLexer([]byte{0xFF})
	_, err := l.NextToken()
	if KindOf(err) != MalformedToken {
		t.Errorf("expected MalformedToken, got %v", err)
	}
}
