// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jsont

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	End         Token = iota // end of input
	ObjectStart              // left brace "{"
	ObjectEnd                // right brace "}"
	ArrayStart               // left square bracket "["
	ArrayEnd                 // right square bracket "]"
	True                     // constant: true
	False                    // constant: false
	Null                     // constant: null
	Integer                  // number: integer with no fraction or exponent
	Float                    // number with fraction and/or exponent
	String                   // quoted string value
	FieldName                // quoted string followed by ":"
	Error                    // lexical error; see Tokenizer.Error
	Comma                    // comma ","

	// Do not modify the order of these constants: each container start must
	// be immediately followed by its matching end, and the value-bearing
	// tokens Integer through FieldName must be contiguous.
)

// label is the canonical text of each token that is not backed by input.
var label = [...]string{
	End:         "<<EOF>>",
	ObjectStart: "{",
	ObjectEnd:   "}",
	ArrayStart:  "[",
	ArrayEnd:    "]",
	True:        "true",
	False:       "false",
	Null:        "null",
	Integer:     "<<int>>",
	Float:       "<<float>>",
	String:      "<<string>>",
	FieldName:   "<<field name>>",
	Error:       "<<error>>",
	Comma:       ",",
}

var tokenStr = [...]string{
	End:         "end of input",
	ObjectStart: `"{"`,
	ObjectEnd:   `"}"`,
	ArrayStart:  `"["`,
	ArrayEnd:    `"]"`,
	True:        "true",
	False:       "false",
	Null:        "null",
	Integer:     "integer",
	Float:       "float",
	String:      "string",
	FieldName:   "field name",
	Error:       "error",
	Comma:       `","`,
}

func (t Token) String() string {
	if int(t) >= len(tokenStr) {
		return "invalid token"
	}
	return tokenStr[t]
}

// Closer returns the token that closes a container opened by t, or End if t
// does not open a container.
func (t Token) Closer() Token {
	if t == ObjectStart || t == ArrayStart {
		return t + 1
	}
	return End
}

// ErrorCode describes the lexical error reported by a Tokenizer.
type ErrorCode byte

// Constants defining the valid ErrorCode values.
const (
	UnspecifiedError ErrorCode = iota // no error has been reported
	UnexpectedComma
	UnexpectedTrailingComma
	InvalidByte
	PrematureEndOfInput
	MalformedUnicodeEscapeSequence // reserved; never reported
	MalformedNumberLiteral
	UnterminatedString
	SyntaxError
)

var errorStr = [...]string{
	UnspecifiedError:               "Unspecified error",
	UnexpectedComma:                "Unexpected comma",
	UnexpectedTrailingComma:        "Unexpected trailing comma",
	InvalidByte:                    "Invalid input byte",
	PrematureEndOfInput:            "Premature end of input",
	MalformedUnicodeEscapeSequence: "Malformed Unicode escape sequence",
	MalformedNumberLiteral:         "Malformed number literal",
	UnterminatedString:             "Unterminated string",
	SyntaxError:                    "Illegal JSON (syntax error)",
}

// String returns the fixed human-readable description of c.
func (c ErrorCode) String() string {
	if int(c) >= len(errorStr) {
		return errorStr[UnspecifiedError]
	}
	return errorStr[c]
}
