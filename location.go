// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsont

import (
	"bytes"
	"fmt"
)

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int // the start offset, 0-based
	End int // the end offset, 0-based (noninclusive)
}

// Len reports the length of s in bytes.
func (s Span) Len() int { return s.End - s.Pos }

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// lineColAt computes the line and column of offset pos in input.
func lineColAt(input []byte, pos int) LineCol {
	pos = min(pos, len(input))
	head := input[:pos]
	line := bytes.Count(head, []byte("\n"))
	col := pos
	if i := bytes.LastIndexByte(head, '\n'); i >= 0 {
		col = pos - i - 1
	}
	return LineCol{Line: line + 1, Column: col}
}

// LexError is the concrete type of errors reported by a Tokenizer.
type LexError struct {
	Code     ErrorCode // the kind of error
	Offset   int       // the byte offset where the error was detected
	Location LineCol   // the line and column of Offset
}

// Error satisfies the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("at %s (offset %d): %s", e.Location, e.Offset, e.Code)
}
