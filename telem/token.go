package telem

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"unicode"
)

// TokenType identifies the lexical class of a Token.
type TokenType int

// The token classes of the schema language.
const (
	TokenEOF TokenType = iota
	TokenOptionPrefix
	TokenBoardPrefix
	TokenMessagePrefix
	TokenSignalPrefix
	TokenEnumPrefix
	TokenIdentifier
	TokenHexInt
	TokenInt
	TokenFloat
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:           "end of input",
	TokenOptionPrefix:  "'!!'",
	TokenBoardPrefix:   "'>'",
	TokenMessagePrefix: "'>>'",
	TokenSignalPrefix:  "'>>>'",
	TokenEnumPrefix:    "'>>>>'",
	TokenIdentifier:    "identifier",
	TokenHexInt:        "hex integer",
	TokenInt:           "integer",
	TokenFloat:         "float",
}

func (tt TokenType) String() string {
	if name, ok := tokenTypeNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// IsPrefix reports whether the token starts a declaration.
func (tt TokenType) IsPrefix() bool {
	return tt >= TokenOptionPrefix && tt <= TokenEnumPrefix
}

// Token is a single word of schema text. Int holds the value of TokenInt and TokenHexInt tokens and
// Float the value of TokenFloat tokens.
type Token struct {
	Type  TokenType
	Text  string
	Line  int
	Int   int64
	Float float64
}

var (
	hexPattern   = regexp.MustCompile(`^0x[0-9A-Fa-f]+$`)
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d*([eE][-+]?\d+)?$`)
)

// Tokenizer splits schema text into whitespace separated tokens with one token of lookahead.
type Tokenizer struct {
	src    string
	pos    int
	line   int
	peeked *Token
}

// NewTokenizer returns a tokenizer positioned at the start of src.
func NewTokenizer(src string) *Tokenizer {
	return &Tokenizer{src: src, line: 1}
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() (Token, error) {
	if t.peeked != nil {
		return *t.peeked, nil
	}
	tok, err := t.scan()
	if err != nil {
		return Token{}, err
	}
	t.peeked = &tok
	return tok, nil
}

// Next consumes and returns the next token. Once the input is exhausted every call returns a
// TokenEOF token.
func (t *Tokenizer) Next() (Token, error) {
	if t.peeked != nil {
		tok := *t.peeked
		t.peeked = nil
		return tok, nil
	}
	return t.scan()
}

func (t *Tokenizer) scan() (Token, error) {
	for t.pos < len(t.src) && isSpace(t.src[t.pos]) {
		if t.src[t.pos] == '\n' {
			t.line++
		}
		t.pos++
	}
	if t.pos >= len(t.src) {
		return Token{Type: TokenEOF, Line: t.line}, nil
	}

	start := t.pos
	for t.pos < len(t.src) && !isSpace(t.src[t.pos]) {
		t.pos++
	}
	word := t.src[start:t.pos]
	tok := Token{Text: word, Line: t.line}

	switch {
	case word == "!!":
		tok.Type = TokenOptionPrefix
	case word == ">>>>":
		tok.Type = TokenEnumPrefix
	case word == ">>>":
		tok.Type = TokenSignalPrefix
	case word == ">>":
		tok.Type = TokenMessagePrefix
	case word == ">":
		tok.Type = TokenBoardPrefix
	case hexPattern.MatchString(word):
		tok.Type = TokenHexInt
		v, err := strconv.ParseUint(word[2:], 16, 64)
		if err != nil || v > math.MaxInt64 {
			return Token{}, &SchemaValidationError{Line: t.line, Reason: fmt.Sprintf("hex literal %q does not fit in 64 bits", word)}
		}
		tok.Int = int64(v)
	case intPattern.MatchString(word):
		tok.Type = TokenInt
		v, err := strconv.ParseInt(word, 10, 64)
		if err != nil {
			return Token{}, &SchemaValidationError{Line: t.line, Reason: fmt.Sprintf("integer literal %q does not fit in 64 bits", word)}
		}
		tok.Int = v
	case floatPattern.MatchString(word):
		tok.Type = TokenFloat
		v, err := strconv.ParseFloat(word, 64)
		if err != nil {
			return Token{}, &SchemaValidationError{Line: t.line, Reason: fmt.Sprintf("float literal %q is out of range", word)}
		}
		tok.Float = v
	default:
		tok.Type = TokenIdentifier
	}
	return tok, nil
}

func isSpace(c byte) bool {
	return c < 0x80 && unicode.IsSpace(rune(c))
}
