// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsont

import (
	"strconv"

	"github.com/creachadair/jsont/internal/escape"

	"go4.org/mem"
)

// labelBytes holds the canonical text of each token as a byte slice, so that
// Value does not allocate for tokens that are not backed by input.
var labelBytes = func() [len(label)][]byte {
	var out [len(label)][]byte
	for i, s := range label {
		out[i] = []byte(s)
	}
	return out
}()

// A Tokenizer reads lexical tokens from a JSON document held in memory.
// Each call to Next advances the tokenizer to the next token.
//
// A Tokenizer does not copy its input: the slices returned by Value refer
// directly to the buffer passed to NewTokenizer or Reset, which must not be
// modified while the tokenizer is in use.
//
// A Tokenizer has no internal pointers apart from its input, so copying a
// Tokenizer value yields an independent cursor over the same input. This is a
// cheap way to look ahead:
//
//	peek := *tok
//	if peek.Next() == jsont.ObjectEnd { ... }
type Tokenizer struct {
	input []byte
	pos   int  // read offset of the next unconsumed byte
	tok   Token
	val   Span // location of the current token
	code  ErrorCode
	epos  int // offset of the current error, if tok == Error
}

// NewTokenizer constructs a tokenizer over input, positioned at its first
// token.
func NewTokenizer(input []byte) *Tokenizer {
	t := new(Tokenizer)
	t.Reset(input)
	return t
}

// Reset discards the state of t and rebinds it to input. As with
// NewTokenizer, the first token of the new input is read immediately, so
// Current reports it without a call to Next.
func (t *Tokenizer) Reset(input []byte) {
	*t = Tokenizer{input: input}
	t.Next()
}

// Current returns the current token without advancing.
func (t *Tokenizer) Current() Token { return t.tok }

// Next advances t past the current token and returns the new current token.
// At the end of the input, Next returns End. Once Next has returned Error,
// further calls return Error without consuming input.
func (t *Tokenizer) Next() Token {
	if t.tok == Error {
		return Error
	}
	for t.pos < len(t.input) {
		start := t.pos
		b := t.input[t.pos]
		t.pos++

		switch b {
		case ' ', '\t', '\r', '\n':
			continue // IETF RFC 8259 whitespace only

		case '{':
			return t.setPunct(ObjectStart, start)
		case '[':
			return t.setPunct(ArrayStart, start)
		case '}':
			return t.readEndBracket(ObjectEnd, start)
		case ']':
			return t.readEndBracket(ArrayEnd, start)
		case ',':
			return t.readComma(start)

		case 'n':
			return t.readAtom("null", Null, start)
		case 't':
			return t.readAtom("true", True, start)
		case 'f':
			return t.readAtom("false", False, start)

		case '"':
			return t.readString(start)

		case '+', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			return t.readNumber(start)

		default:
			// This includes NUL, which is never valid outside a string.
			return t.setError(InvalidByte, start)
		}
	}
	t.val = Span{Pos: len(t.input), End: len(t.input)}
	return t.setToken(End)
}

// HasValue reports whether the current token carries a value decoded from
// the input, that is, whether it is an Integer, Float, String, or FieldName.
func (t *Tokenizer) HasValue() bool { return t.tok >= Integer && t.tok <= FieldName }

// Value returns the text of the current token. For Integer, Float, String,
// FieldName, True, False, and Null this is a view of the input; the quotes of
// strings and field names are included. For other tokens it is a fixed label,
// such as "{" for ObjectStart, so that any token can be echoed generically.
//
// The caller must not modify the returned slice, and must copy it if it is
// needed after the input buffer is released.
func (t *Tokenizer) Value() []byte {
	if t.HasValue() || t.tok == True || t.tok == False || t.tok == Null {
		return t.input[t.val.Pos:t.val.End]
	}
	return labelBytes[t.tok]
}

// StringValue returns a copy of Value as a string.
func (t *Tokenizer) StringValue() string { return string(t.Value()) }

// Unquote returns the contents of the current String or FieldName with the
// quotes removed and escape sequences replaced by their unescaped
// equivalents. Invalid escapes are replaced by the Unicode replacement rune.
// For other tokens it returns a copy of Value.
func (t *Tokenizer) Unquote() ([]byte, error) {
	v := t.Value()
	if t.tok != String && t.tok != FieldName {
		return append([]byte(nil), v...), nil
	}
	return escape.Unquote(mem.B(v[1 : len(v)-1]))
}

// Int64 returns the current value as a signed 64-bit integer. Out-of-range
// integers are clamped. A Float is truncated toward zero. True reports 1, and
// every other token reports 0.
func (t *Tokenizer) Int64() int64 {
	switch t.tok {
	case True:
		return 1
	case Integer:
		v, _ := strconv.ParseInt(string(t.Value()), 10, 64)
		return v
	case Float:
		return int64(t.Float64())
	}
	return 0
}

// Float64 returns the current value as a double-precision floating-point
// number. True reports 1, and every non-numeric token reports 0.
func (t *Tokenizer) Float64() float64 {
	switch t.tok {
	case True:
		return 1
	case Integer, Float:
		v, _ := strconv.ParseFloat(string(t.Value()), 64)
		return v
	}
	return 0
}

// Bool reports whether the current token is True.
func (t *Tokenizer) Bool() bool { return t.tok == True }

// ErrorCode returns the code of the last error. It is meaningful only when
// the current token is Error.
func (t *Tokenizer) ErrorCode() ErrorCode { return t.code }

// ErrorMessage returns a human-readable description of the last error.
func (t *Tokenizer) ErrorMessage() string { return t.code.String() }

// Err returns nil unless the current token is Error, in which case it returns
// a *LexError describing the failure.
func (t *Tokenizer) Err() error {
	if t.tok != Error {
		return nil
	}
	return &LexError{
		Code:     t.code,
		Offset:   t.epos,
		Location: lineColAt(t.input, t.epos),
	}
}

// Offset returns the byte offset into the input where t is currently
// looking. After an error, it reports where the error was detected.
func (t *Tokenizer) Offset() int {
	if t.tok == Error {
		return t.epos
	}
	return t.pos
}

// Len returns the total number of input bytes.
func (t *Tokenizer) Len() int { return len(t.input) }

// Span returns the location of the current token in the input.
func (t *Tokenizer) Span() Span { return t.val }

// SkipValue advances t past the complete value that begins at the current
// token, and returns the token that follows it. If the current token opens an
// object or array, everything up to and including the matching close is
// skipped. SkipValue stops early at End or Error.
func (t *Tokenizer) SkipValue() Token {
	depth := 0
	for {
		switch t.tok {
		case ObjectStart, ArrayStart:
			depth++
		case ObjectEnd, ArrayEnd:
			depth--
		case End, Error:
			return t.tok
		}
		next := t.Next()
		if depth <= 0 {
			return next
		}
	}
}

func (t *Tokenizer) setToken(tok Token) Token {
	t.tok = tok
	return tok
}

func (t *Tokenizer) setPunct(tok Token, start int) Token {
	t.val = Span{Pos: start, End: start + 1}
	return t.setToken(tok)
}

func (t *Tokenizer) setError(code ErrorCode, at int) Token {
	t.code = code
	t.epos = at
	t.val = Span{Pos: at, End: at}
	return t.setToken(Error)
}

func (t *Tokenizer) readComma(start int) Token {
	switch t.tok {
	case End, ObjectStart, ArrayStart, FieldName, Comma:
		return t.setError(UnexpectedComma, start)
	}
	return t.setPunct(Comma, start)
}

func (t *Tokenizer) readEndBracket(tok Token, start int) Token {
	if t.tok == Comma {
		return t.setError(UnexpectedTrailingComma, start)
	}
	return t.setPunct(tok, start)
}

// readAtom matches one of the constants true, false, or null beginning at
// offset start. The constant must not run into a following name character.
func (t *Tokenizer) readAtom(atom string, tok Token, start int) Token {
	end := start + len(atom)
	if end > len(t.input) {
		return t.setError(PrematureEndOfInput, len(t.input))
	} else if !mem.B(t.input[start:end]).EqualString(atom) {
		return t.setError(InvalidByte, start)
	} else if end < len(t.input) && isAlnum(t.input[end]) {
		return t.setError(SyntaxError, end)
	}
	t.pos = end
	t.val = Span{Pos: start, End: end}
	return t.setToken(tok)
}

// readString consumes a quoted string whose open quote is at offset start,
// then classifies it as a field name or a string value by the first
// non-space byte that follows. A following colon is consumed; any other
// delimiter is left for the next call.
func (t *Tokenizer) readString(start int) Token {
	for {
		if t.pos >= len(t.input) {
			return t.setError(UnterminatedString, start)
		}
		b := t.input[t.pos]
		t.pos++
		if b == '"' {
			break
		} else if b == '\\' {
			// N.B. The escaped byte is not checked, not even for \u.
			if t.pos >= len(t.input) {
				return t.setError(PrematureEndOfInput, t.pos)
			}
			t.pos++
		} else if b == 0 {
			return t.setError(InvalidByte, t.pos-1)
		}
	}
	t.val = Span{Pos: start, End: t.pos}

	for t.pos < len(t.input) {
		switch t.input[t.pos] {
		case ' ', '\t', '\r', '\n':
			t.pos++
		case ':':
			t.pos++
			return t.setToken(FieldName)
		case ',', ']', '}':
			return t.setToken(String)
		case 0:
			return t.setError(InvalidByte, t.pos)
		default:
			return t.setError(SyntaxError, t.pos)
		}
	}
	return t.setToken(String)
}

// readNumber consumes a number literal whose first byte (a digit or sign) is
// at offset start.
func (t *Tokenizer) readNumber(start int) Token {
	tok := Integer
	if nd := t.readDigits(); nd == 0 && !isDigit(t.input[start]) {
		return t.setError(MalformedNumberLiteral, t.pos)
	}
	if t.peek() == '.' {
		t.pos++
		if t.readDigits() == 0 {
			return t.setError(MalformedNumberLiteral, t.pos)
		}
		tok = Float
	}
	if b := t.peek(); b == 'e' || b == 'E' {
		t.pos++
		if b := t.peek(); b == '+' || b == '-' {
			t.pos++
		}
		if t.readDigits() == 0 {
			return t.setError(MalformedNumberLiteral, t.pos)
		}
		tok = Float
	}
	t.val = Span{Pos: start, End: t.pos}
	return t.setToken(tok)
}

// readDigits consumes decimal digits and reports how many it consumed.
func (t *Tokenizer) readDigits() int {
	n := 0
	for t.pos < len(t.input) && isDigit(t.input[t.pos]) {
		t.pos++
		n++
	}
	return n
}

// peek returns the next unconsumed byte, or 0 at the end of input.
func (t *Tokenizer) peek() byte {
	if t.pos < len(t.input) {
		return t.input[t.pos]
	}
	return 0
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

func isAlnum(b byte) bool {
	return isDigit(b) || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
