package telem

import (
	"fmt"
	"strings"
)

// Builder compiles schema text into a Config.
//
// The grammar, one declaration per line:
//
//	Config  := Option* Board+
//	Option  := "!!" Name Scalar
//	Board   := ">" Name [Description...] Message+
//	Message := ">>" Name Id Size Signal+
//	Signal  := ">>>" Name Type StartBit Length Factor Offset ["signed"|"unsigned"] ["little"|"big"] Enum*
//	Enum    := ">>>>" Name RawValue
type Builder struct {
	tok *Tokenizer
	cfg *Config

	boardNames map[string]struct{}
	messageIDs map[uint32]string

	board   *Board
	message *Message
	signal  *Signal
}

// NewBuilder returns a builder reading schema text.
func NewBuilder(src string) *Builder {
	return &Builder{
		tok:        NewTokenizer(src),
		cfg:        &Config{Options: map[string]any{}},
		boardNames: map[string]struct{}{},
		messageIDs: map[uint32]string{},
	}
}

// Compile builds schema text in one step.
func Compile(src string) (*Config, error) {
	return NewBuilder(src).Build()
}

// Build parses and validates the whole schema. The first violation aborts the build.
func (b *Builder) Build() (*Config, error) {
	for {
		tok, err := b.tok.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != TokenOptionPrefix {
			break
		}
		if err := b.parseOption(); err != nil {
			return nil, err
		}
	}

	for {
		tok, err := b.tok.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type != TokenBoardPrefix {
			break
		}
		if err := b.parseBoard(); err != nil {
			return nil, err
		}
	}
	b.board, b.message, b.signal = nil, nil, nil

	tok, err := b.tok.Next()
	if err != nil {
		return nil, err
	}
	if len(b.cfg.Boards) == 0 {
		return nil, b.fail(tok.Line, "no board defined")
	}
	if tok.Type != TokenEOF {
		return nil, b.fail(tok.Line, "unexpected %s %q after last board", tok.Type, tok.Text)
	}

	b.cfg.assignOffsets()
	return b.cfg, nil
}

func (b *Builder) fail(line int, format string, args ...interface{}) error {
	e := &SchemaValidationError{Line: line, Reason: fmt.Sprintf(format, args...)}
	if b.board != nil {
		e.Board = b.board.Name
	}
	if b.message != nil {
		e.Message = b.message.Name
	}
	if b.signal != nil {
		e.Signal = b.signal.Name
	}
	return e
}

func (b *Builder) expect(what string, types ...TokenType) (Token, error) {
	tok, err := b.tok.Next()
	if err != nil {
		return Token{}, err
	}
	for _, tt := range types {
		if tok.Type == tt {
			return tok, nil
		}
	}
	if tok.Type == TokenEOF {
		return Token{}, b.fail(tok.Line, "expected %s, got end of input", what)
	}
	return Token{}, b.fail(tok.Line, "expected %s, got %s %q", what, tok.Type, tok.Text)
}

func (b *Builder) name(what string) (Token, error) {
	return b.expect(what, TokenIdentifier)
}

func (b *Builder) integer(what string) (Token, error) {
	return b.expect(what, TokenInt, TokenHexInt)
}

func (b *Builder) number(what string) (float64, error) {
	tok, err := b.expect(what, TokenInt, TokenHexInt, TokenFloat)
	if err != nil {
		return 0, err
	}
	if tok.Type == TokenFloat {
		return tok.Float, nil
	}
	return float64(tok.Int), nil
}

// restOfLine consumes the tokens remaining on line and returns their text.
func (b *Builder) restOfLine(line int) ([]string, error) {
	var words []string
	for {
		tok, err := b.tok.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF || tok.Line != line {
			return words, nil
		}
		if _, err := b.tok.Next(); err != nil {
			return nil, err
		}
		words = append(words, tok.Text)
	}
}

func (b *Builder) peekIs(tt TokenType) (bool, error) {
	tok, err := b.tok.Peek()
	if err != nil {
		return false, err
	}
	return tok.Type == tt, nil
}

func (b *Builder) parseOption() error {
	prefix, err := b.tok.Next()
	if err != nil {
		return err
	}
	name, err := b.name("option name")
	if err != nil {
		return err
	}
	val, err := b.expect("option value", TokenIdentifier, TokenInt, TokenHexInt, TokenFloat)
	if err != nil {
		return err
	}
	switch val.Type {
	case TokenInt, TokenHexInt:
		b.cfg.Options[name.Text] = val.Int
	case TokenFloat:
		b.cfg.Options[name.Text] = val.Float
	default:
		b.cfg.Options[name.Text] = val.Text
	}
	_, err = b.restOfLine(prefix.Line)
	return err
}

func (b *Builder) parseBoard() error {
	prefix, err := b.tok.Next()
	if err != nil {
		return err
	}
	b.board, b.message, b.signal = nil, nil, nil

	name, err := b.name("board name")
	if err != nil {
		return err
	}
	if _, dup := b.boardNames[name.Text]; dup {
		return b.fail(name.Line, "duplicate board name %q", name.Text)
	}
	b.boardNames[name.Text] = struct{}{}

	board := &Board{Name: name.Text}
	b.board = board
	b.cfg.Boards = append(b.cfg.Boards, board)

	desc, err := b.restOfLine(prefix.Line)
	if err != nil {
		return err
	}
	board.Description = strings.Join(desc, " ")

	for {
		more, err := b.peekIs(TokenMessagePrefix)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if err := b.parseMessage(); err != nil {
			return err
		}
	}
	b.message, b.signal = nil, nil
	if len(board.Messages) == 0 {
		return b.fail(prefix.Line, "board %q has no messages", board.Name)
	}
	return nil
}

func (b *Builder) parseMessage() error {
	prefix, err := b.tok.Next()
	if err != nil {
		return err
	}
	b.message, b.signal = nil, nil

	name, err := b.name("message name")
	if err != nil {
		return err
	}
	msg := &Message{Name: name.Text}
	b.message = msg

	id, err := b.integer("message id")
	if err != nil {
		return err
	}
	if id.Int < 0 || id.Int > MaxMessageID {
		return b.fail(id.Line, "message id %s is outside 0x0..0x%X", id.Text, MaxMessageID)
	}
	msg.ID = uint32(id.Int)
	if other, dup := b.messageIDs[msg.ID]; dup {
		return b.fail(id.Line, "duplicate message id 0x%X (already used by %s)", msg.ID, other)
	}
	b.messageIDs[msg.ID] = b.board.Name + "." + msg.Name

	size, err := b.integer("message size")
	if err != nil {
		return err
	}
	if size.Int <= 0 || size.Int > 64 {
		return b.fail(size.Line, "message size %d must be between 1 and 64 bytes", size.Int)
	}
	msg.Size = int(size.Int)

	if _, err := b.restOfLine(prefix.Line); err != nil {
		return err
	}

	for {
		more, err := b.peekIs(TokenSignalPrefix)
		if err != nil {
			return err
		}
		if !more {
			break
		}
		sig, err := b.parseSignal(msg)
		if err != nil {
			return err
		}
		msg.Signals = append(msg.Signals, sig)
	}
	b.signal = nil
	if len(msg.Signals) == 0 {
		return b.fail(prefix.Line, "message %q has no signals", msg.Name)
	}
	b.board.Messages = append(b.board.Messages, msg)
	return nil
}

func (b *Builder) parseSignal(msg *Message) (*Signal, error) {
	prefix, err := b.tok.Next()
	if err != nil {
		return nil, err
	}
	b.signal = nil

	name, err := b.name("signal name")
	if err != nil {
		return nil, err
	}
	sig := &Signal{Name: name.Text, Endianness: LittleEndian}
	b.signal = sig
	for _, other := range msg.Signals {
		if other.Name == sig.Name {
			return nil, b.fail(name.Line, "duplicate signal name %q", sig.Name)
		}
	}

	dataType, err := b.name("signal type")
	if err != nil {
		return nil, err
	}
	sig.DataType = dataType.Text
	sig.Signed = strings.HasPrefix(sig.DataType, "int")

	startBit, err := b.integer("start bit")
	if err != nil {
		return nil, err
	}
	length, err := b.integer("signal length")
	if err != nil {
		return nil, err
	}
	if startBit.Int < 0 {
		return nil, b.fail(startBit.Line, "negative start bit %d", startBit.Int)
	}
	if length.Int < 1 || length.Int > 64 {
		return nil, b.fail(length.Line, "signal length %d must be between 1 and 64 bits", length.Int)
	}
	sig.StartBit = int(startBit.Int)
	sig.Length = int(length.Int)
	if sig.StartBit+sig.Length > msg.Size*8 {
		return nil, b.fail(length.Line, "bits [%d, %d) exceed message size of %d bits",
			sig.StartBit, sig.StartBit+sig.Length, msg.Size*8)
	}

	if sig.Factor, err = b.number("factor"); err != nil {
		return nil, err
	}
	if sig.Offset, err = b.number("offset"); err != nil {
		return nil, err
	}

	tok, err := b.tok.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenIdentifier && tok.Line == prefix.Line && (tok.Text == "signed" || tok.Text == "unsigned") {
		sig.Signed = tok.Text == "signed"
		if _, err := b.tok.Next(); err != nil {
			return nil, err
		}
		if tok, err = b.tok.Peek(); err != nil {
			return nil, err
		}
	}
	if tok.Type == TokenIdentifier && tok.Line == prefix.Line && (tok.Text == "little" || tok.Text == "big") {
		sig.Endianness = Endianness(tok.Text)
		if _, err := b.tok.Next(); err != nil {
			return nil, err
		}
	}
	if sig.Endianness == BigEndian && sig.Length%8 != 0 {
		return nil, b.fail(prefix.Line, "big endian signal length %d is not a whole number of bytes", sig.Length)
	}

	if _, err := b.restOfLine(prefix.Line); err != nil {
		return nil, err
	}

	rawValues := map[int64]string{}
	for {
		more, err := b.peekIs(TokenEnumPrefix)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		entry, line, err := b.parseEnum()
		if err != nil {
			return nil, err
		}
		if other, dup := rawValues[entry.RawValue]; dup {
			return nil, b.fail(line, "enum %q reuses raw value %d of %q", entry.Name, entry.RawValue, other)
		}
		rawValues[entry.RawValue] = entry.Name
		sig.Enums = append(sig.Enums, entry)
	}
	return sig, nil
}

func (b *Builder) parseEnum() (EnumEntry, int, error) {
	prefix, err := b.tok.Next()
	if err != nil {
		return EnumEntry{}, 0, err
	}
	name, err := b.name("enum name")
	if err != nil {
		return EnumEntry{}, 0, err
	}
	raw, err := b.integer("enum value")
	if err != nil {
		return EnumEntry{}, 0, err
	}
	if _, err := b.restOfLine(prefix.Line); err != nil {
		return EnumEntry{}, 0, err
	}
	return EnumEntry{Name: name.Text, RawValue: raw.Int}, prefix.Line, nil
}
