// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jsont implements a single-pass, zero-copy JSON tokenizer.
//
// # Tokenizing
//
// The Tokenizer type converts a byte buffer holding a complete JSON document
// into a sequence of typed tokens. Construct a tokenizer from a byte slice; it
// is positioned at the first token immediately, and each call to Next
// advances it to the next token:
//
//	t := jsont.NewTokenizer(input)
//	for tok := t.Current(); tok != jsont.End; tok = t.Next() {
//	   if tok == jsont.Error {
//	      log.Fatalf("Tokenizing failed: %v", t.Err())
//	   }
//	   log.Printf("Next token: %v %q", tok, t.Value())
//	}
//
// The tokenizer does not build a tree, does not allocate per token, and does
// not copy its input. The text of the current token is reported by Value as a
// view of the input buffer:
//
//	Token        | Value
//	------------ | ----------------------------------------
//	Integer      | the literal, e.g. -15
//	Float        | the literal, e.g. 3.25e-5
//	String       | the quoted string as written, e.g. "a\tb"
//	FieldName    | the quoted key, without the following ":"
//	True, False  | true, false
//	Null         | null
//	other tokens | a fixed label, e.g. { or ,
//
// Commas are reported as tokens in their own right, so that a consumer can
// decide for itself where separators and line breaks belong.
//
// # Errors
//
// The tokenizer tracks enough structure to reject misplaced commas, and
// rejects unterminated strings, malformed numbers and constants, and bytes
// that cannot begin a token. When it does, the current token becomes Error and
// ErrorCode reports why. Err reports the same failure as a *LexError giving
// the offset and line:column where it was detected. Once an error has been
// reported the tokenizer does not advance further.
//
// The tokenizer does not validate the contents of escape sequences in
// strings: a backslash escapes exactly the following byte. A number may begin
// with "+" as well as "-", and the sign is kept in its Value.
package jsont
