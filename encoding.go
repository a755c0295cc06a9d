// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsont

import (
	"errors"

	"github.com/creachadair/jsont/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) string { return string(AppendQuote(nil, src)) }

// AppendQuote appends the JSON string encoding of src to dst and returns the
// extended slice.
func AppendQuote(dst []byte, src string) []byte { return escape.AppendQuote(dst, mem.S(src)) }

// Unquote decodes a JSON string value.  Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Invalid escapes are replaced by the Unicode replacement rune. Unquote
// reports an error for an incomplete escape sequence.
func Unquote(src []byte) ([]byte, error) {
	m := mem.B(src)
	if m.Len() < 2 || !mem.HasPrefix(m, mem.S(`"`)) || !mem.HasSuffix(m, mem.S(`"`)) {
		return nil, errors.New("missing quotations")
	}
	return escape.Unquote(m.SliceFrom(1).SliceTo(m.Len() - 2))
}
