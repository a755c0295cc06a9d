// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package pretty re-serializes JSON text under a whitespace policy.
//
// The printer drives a jsont.Tokenizer and echoes each token as it was
// written in the input, so strings and numbers are reproduced byte for byte:
// 1.50 stays 1.50 and escapes are not rewritten. Only the whitespace between
// tokens changes. No syntax tree is constructed.
//
// If the tokenizer reports an error, printing stops and the error is
// returned. Output already written is left in place.
package pretty

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/creachadair/jsont"
)

// Mode selects the whitespace policy of a Printer.
type Mode int

const (
	// Pretty puts each value on its own line, indented one IndentChar per
	// level of nesting. A field name, its colon, a space, and the start of its
	// value share a line, and commas end the line they follow.
	Pretty Mode = iota

	// Compact writes no indentation and no line breaks, but a single space
	// follows each colon.
	Compact

	// NoWhitespace writes no whitespace at all between tokens.
	NoWhitespace
)

func (m Mode) String() string {
	switch m {
	case Pretty:
		return "pretty"
	case Compact:
		return "compact"
	case NoWhitespace:
		return "no-whitespace"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// A Printer carries the settings for re-serializing JSON.
// A zero value is ready for use and prints in Pretty mode.
type Printer struct {
	Mode Mode

	// IndentChar is the byte repeated once per level of nesting in Pretty
	// mode. If zero, a tab is used.
	IndentChar byte

	// Lines, if true, ends every top-level value with a newline in all modes,
	// so that the output is a stream of one value per line. Otherwise, modes
	// other than Pretty put a newline only between top-level values.
	Lines bool
}

func (p Printer) indentChar() byte {
	if p.IndentChar == 0 {
		return '\t'
	}
	return p.IndentChar
}

// Print re-serializes data to w in the given mode using default settings.
func Print(w io.Writer, data []byte, mode Mode) error {
	return Printer{Mode: mode}.Print(w, data)
}

// Bytes re-serializes data in the given mode using default settings.
// In case of error, it returns the partial output along with the error.
func Bytes(data []byte, mode Mode) ([]byte, error) {
	return Printer{Mode: mode}.Bytes(data)
}

// Print re-serializes each token of data to w using the settings from p.
func (p Printer) Print(w io.Writer, data []byte) error {
	return p.run(w, jsont.NewTokenizer(data), false)
}

// Bytes re-serializes data using the settings from p and returns the result.
// In case of error, it returns the partial output along with the error.
func (p Printer) Bytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) + len(data)/2)
	err := p.Print(&buf, data)
	return buf.Bytes(), err
}

// PrintValue re-serializes tokens from t to w, starting at the current token
// of t, until the end of the input or until t reaches a token that closes a
// container opened before the call. That closing token is not printed, and
// remains the current token of t when PrintValue returns.
//
// For example, if t is positioned at the first key of an object, PrintValue
// prints the members of the object and leaves t at its "}".
func (p Printer) PrintValue(w io.Writer, t *jsont.Tokenizer) error {
	return p.run(w, t, true)
}

type writer interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

func (p Printer) run(w io.Writer, t *jsont.Tokenizer, nested bool) error {
	bw, ok := w.(writer)
	var buf *bufio.Writer
	if !ok {
		buf = bufio.NewWriter(w)
		bw = buf
	}
	e := &emitter{w: bw, p: p, ic: p.indentChar()}
	err := e.run(t, nested)
	if buf != nil {
		if ferr := buf.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

// An emitter holds the state of a single print operation.
type emitter struct {
	w  writer
	p  Printer
	ic byte

	indent    int  // current nesting level
	needValue bool // the last token printed was a field name
	err       error
}

func (e *emitter) run(t *jsont.Tokenizer, nested bool) error {
	tok := t.Current()
	for e.err == nil {
		prev := tok
		switch tok {
		case jsont.Error:
			return t.Err()

		case jsont.End:
			return nil

		case jsont.ObjectStart, jsont.ArrayStart:
			e.value(t.Value(), false)
			closer := tok.Closer()
			if tok = t.Next(); tok == closer {
				// An empty container stays on one line.
				e.write(t.Value())
				break
			}
			e.indent++
			e.lineBreak(prev, tok)
			continue

		case jsont.ObjectEnd, jsont.ArrayEnd:
			if e.indent == 0 && nested {
				return nil // this closes a container we did not open
			}
			if e.indent > 0 {
				e.indent--
			}
			e.value(t.Value(), false)

		case jsont.FieldName:
			// The value that follows continues on the same line.
			e.value(t.Value(), true)
			tok = t.Next()
			continue

		case jsont.Comma:
			e.writeByte(',')

		default:
			e.value(t.Value(), false)
		}
		tok = t.Next()
		e.lineBreak(prev, tok)
	}
	return e.err
}

// value prints the text of a token, preceded by indentation if it begins a
// line. If field is true, the token is a field name and is followed by a
// colon.
func (e *emitter) value(text []byte, field bool) {
	if e.p.Mode == Pretty && (field || !e.needValue) {
		for range e.indent {
			e.writeByte(e.ic)
		}
	}
	e.needValue = field
	e.write(text)
	if field {
		e.writeByte(':')
		if e.p.Mode != NoWhitespace {
			e.writeByte(' ')
		}
	}
}

// lineBreak writes a line break, if one is needed, between the token just
// printed (prev) and the token that follows it (next).
func (e *emitter) lineBreak(prev, next jsont.Token) {
	if next == jsont.Comma {
		return // commas end the line of the value before them
	}
	if e.p.Mode == Pretty {
		e.writeByte('\n')
		return
	}
	if e.indent != 0 || prev == jsont.Comma {
		return
	}
	// A top-level value is complete.
	if e.p.Lines || (next != jsont.End && next != jsont.ObjectEnd && next != jsont.ArrayEnd) {
		e.writeByte('\n')
	}
}

func (e *emitter) write(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *emitter) writeByte(b byte) {
	if e.err == nil {
		e.err = e.w.WriteByte(b)
	}
}
