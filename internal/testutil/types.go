// Package testutil defines support code for unit tests.
package testutil

import (
	"github.com/creachadair/jsont"
)

// A Tok is a token and the text reported for it by the tokenizer.
type Tok struct {
	Kind jsont.Token
	Text string
}

// Tokens scans input to completion and returns the tokens reported, not
// including the final End or Error. If tokenizing fails, the tokens read
// before the failure are returned along with the error.
func Tokens(input []byte) ([]Tok, error) {
	var out []Tok
	t := jsont.NewTokenizer(input)
	for tok := t.Current(); tok != jsont.End; tok = t.Next() {
		if tok == jsont.Error {
			return out, t.Err()
		}
		out = append(out, Tok{Kind: tok, Text: t.StringValue()})
	}
	return out, nil
}

// Kinds returns just the token kinds of toks, or nil if toks is empty.
func Kinds(toks []Tok) []jsont.Token {
	var out []jsont.Token
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}
