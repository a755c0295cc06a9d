// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package obb

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/creachadair/jsont"
	"github.com/creachadair/jsont/pretty"
	"github.com/creachadair/mds/mapset"
	"go4.org/mem"
)

// Field names recognized by Stitch and Unstitch, quoted as in the input.
const (
	fieldStitches = `"stitches"`
	fieldIndexed  = `"indexed-content"`
	fieldFilename = `"filename"`
	fieldRanges   = `"ranges"`
	fieldContent  = `"content"`
)

// Stitch rewrites a main story document so that it no longer refers to the
// ink content by byte range. Each "indexed-content" member of doc, of the form
//
//	"indexed-content": {"filename": "...", "ranges": {"k": "off len", ...}}
//
// is replaced by
//
//	"stitches": {"k": <ink[off:off+len]>, ...}
//
// where a range beginning with "[" is wrapped as {"content": <range>}. The
// filename is discarded. All other tokens of doc are copied as written, and
// no whitespace is added. The result is expected to be re-printed.
func Stitch(doc, ink []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(doc) + len(ink))

	t := jsont.NewTokenizer(doc)
	for tok := t.Current(); tok != jsont.End; {
		switch tok {
		case jsont.Error:
			return nil, t.Err()
		case jsont.FieldName:
			if mem.B(t.Value()).EqualString(fieldIndexed) {
				if err := stitchIndexed(&out, t, ink); err != nil {
					return nil, err
				}
			} else {
				out.Write(t.Value())
				out.WriteByte(':')
			}
		default:
			out.Write(t.Value())
		}
		tok = t.Next()
	}
	return out.Bytes(), nil
}

// stitchIndexed rewrites an indexed-content object beginning at the current
// field name of t. It leaves t at the end of the object.
func stitchIndexed(out *bytes.Buffer, t *jsont.Tokenizer, ink []byte) error {
	if err := expect(t, jsont.ObjectStart, fieldIndexed); err != nil {
		return err
	}
	out.WriteString(fieldStitches + ":{")
	first := true
	for tok := t.Next(); tok != jsont.ObjectEnd; tok = t.Next() {
		switch {
		case tok == jsont.Comma:
			continue
		case tok == jsont.Error:
			return t.Err()
		case tok != jsont.FieldName:
			return fmt.Errorf("at offset %d: indexed content: got %v, want field name", t.Span().Pos, tok)
		}

		key := mem.B(t.Value())
		switch {
		case key.EqualString(fieldFilename):
			if err := expect(t, jsont.String, fieldFilename); err != nil {
				return err
			}
		case key.EqualString(fieldRanges):
			if err := expect(t, jsont.ObjectStart, fieldRanges); err != nil {
				return err
			}
			if err := stitchRanges(out, t, ink, &first); err != nil {
				return err
			}
		default:
			return fmt.Errorf("at offset %d: indexed content: unknown field %s", t.Span().Pos, t.Value())
		}
	}
	out.WriteByte('}')
	return nil
}

// stitchRanges copies the ranges object at the current token of t, resolving
// each range against ink. It leaves t at the end of the ranges object.
func stitchRanges(out *bytes.Buffer, t *jsont.Tokenizer, ink []byte, first *bool) error {
	for tok := t.Next(); tok != jsont.ObjectEnd; tok = t.Next() {
		switch {
		case tok == jsont.Comma:
			continue
		case tok == jsont.Error:
			return t.Err()
		case tok != jsont.FieldName:
			return fmt.Errorf("at offset %d: ranges: got %v, want field name", t.Span().Pos, tok)
		}
		key := t.Value()
		if err := expect(t, jsont.String, string(key)); err != nil {
			return err
		}
		text, err := t.Unquote()
		if err != nil {
			return fmt.Errorf("at offset %d: range %s: %w", t.Span().Pos, key, err)
		}
		var off, n uint32
		if _, err := fmt.Sscan(string(text), &off, &n); err != nil {
			return fmt.Errorf("at offset %d: range %s: invalid range %q: %w", t.Span().Pos, key, text, err)
		}
		if uint64(off) > uint64(len(ink)) {
			return fmt.Errorf("range %s: offset %d exceeds ink content length %d", key, off, len(ink))
		}
		end := min(uint64(off)+uint64(n), uint64(len(ink)))
		chunk := ink[off:end]
		if len(bytes.TrimSpace(chunk)) == 0 {
			return fmt.Errorf("range %s: empty range %q", key, text)
		}

		if !*first {
			out.WriteByte(',')
		}
		*first = false
		out.Write(key)
		out.WriteByte(':')
		if chunk[0] == '[' {
			out.WriteString(`{` + fieldContent + `:`)
			out.Write(chunk)
			out.WriteByte('}')
		} else {
			out.Write(chunk)
		}
	}
	return nil
}

// Unstitch is the inverse of Stitch. Each "stitches" member of doc is
// replaced by an "indexed-content" object naming inkName, and the value of
// each stitch is moved to the returned ink content, one per line, without
// whitespace. The range recorded for a stitch covers its line including the
// newline. A stitch whose only member is "content" with an array value is
// stored as the bare array.
//
// All other tokens of doc are copied to the returned story as written, and no
// whitespace is added.
func Unstitch(doc []byte, inkName string) (story, ink []byte, err error) {
	var out, side bytes.Buffer
	out.Grow(len(doc) / 2)
	side.Grow(len(doc))

	t := jsont.NewTokenizer(doc)
	for tok := t.Current(); tok != jsont.End; {
		switch tok {
		case jsont.Error:
			return nil, nil, t.Err()
		case jsont.FieldName:
			if mem.B(t.Value()).EqualString(fieldStitches) {
				if err := unstitchObject(&out, &side, t, inkName); err != nil {
					return nil, nil, err
				}
			} else {
				out.Write(t.Value())
				out.WriteByte(':')
			}
		default:
			out.Write(t.Value())
		}
		tok = t.Next()
	}
	return out.Bytes(), side.Bytes(), nil
}

var flat = pretty.Printer{Mode: pretty.NoWhitespace}

// unstitchObject rewrites the stitches object beginning at the current field
// name of t. It leaves t at the end of the object.
func unstitchObject(out, side *bytes.Buffer, t *jsont.Tokenizer, inkName string) error {
	if err := expect(t, jsont.ObjectStart, fieldStitches); err != nil {
		return err
	}
	out.WriteString(fieldIndexed + ":{" + fieldFilename + ":")
	out.WriteString(jsont.Quote(inkName))
	out.WriteString("," + fieldRanges + ":{")

	seen := mapset.New[string]()
	for tok := t.Next(); tok != jsont.ObjectEnd; tok = t.Next() {
		switch {
		case tok == jsont.Comma:
			out.WriteByte(',')
			continue
		case tok == jsont.Error:
			return t.Err()
		case tok != jsont.FieldName:
			return fmt.Errorf("at offset %d: stitches: got %v, want field name", t.Span().Pos, tok)
		}
		key := t.StringValue()
		if seen.Has(key) {
			return fmt.Errorf("at offset %d: duplicate stitch %s", t.Span().Pos, key)
		}
		seen.Add(key)

		start := side.Len()
		out.WriteString(key)
		out.WriteString(`:"`)
		out.WriteString(strconv.Itoa(start))
		out.WriteByte(' ')

		if err := expect(t, jsont.ObjectStart, key); err != nil {
			return err
		}
		if isContentOnly(t) {
			t.Next() // "content"
			t.Next() // [
			if err := flat.PrintValue(side, t); err != nil {
				return err
			}
		} else {
			side.WriteByte('{')
			t.Next()
			if err := flat.PrintValue(side, t); err != nil {
				return err
			}
			side.WriteByte('}')
		}
		if t.Current() != jsont.ObjectEnd {
			return fmt.Errorf("at offset %d: stitch %s: unexpected %v", t.Span().Pos, key, t.Current())
		}
		side.WriteByte('\n')

		out.WriteString(strconv.Itoa(side.Len() - start))
		out.WriteByte('"')
	}
	out.WriteString("}}")
	return nil
}

// isContentOnly reports whether the object whose start is the current token
// of t has exactly one member, "content", whose value is an array. It does not
// advance t.
func isContentOnly(t *jsont.Tokenizer) bool {
	peek := *t
	if peek.Next() != jsont.FieldName || !mem.B(peek.Value()).EqualString(fieldContent) {
		return false
	}
	if peek.Next() != jsont.ArrayStart {
		return false
	}
	return peek.SkipValue() == jsont.ObjectEnd
}

// expect advances t and reports an error unless the new token is want.
func expect(t *jsont.Tokenizer, want jsont.Token, what string) error {
	got := t.Next()
	if got == want {
		return nil
	} else if got == jsont.Error {
		return t.Err()
	}
	return fmt.Errorf("at offset %d: %s: got %v, want %v", t.Span().Pos, what, got, want)
}
