package earley

import "fmt"

// TokType is a category type for a token. The engine does not define any
// constants here; terminal codes are client-assigned integers (§3,
// Symbol). Only -1 means end of input; other negative codes, such as the
// Ident and Int codes package scanner re-exports, are ordinary terminals.
type TokType int

// TokTypeStringer lets a scanner/grammar pair print token categories.
type TokTypeStringer func(TokType) string

// Token represents an input token, produced by an external lexer and
// retained by the engine only for diagnostics and for re-presentation to
// the syntax-error callback.
//
//	TokType = Float       // client-assigned category
//	Lexeme  = "3.1416"    // how it appeared in the input
//	Value   = 3.1416      // converted value, if any
//	Span    = 67…73       // position in the input stream
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// TokenRetriever fetches the token stored at a given input position.
type TokenRetriever func(uint64) Token

// Span captures an interval of input positions [From, To). Every terminal
// and non-terminal node in a parse tree/forest is tagged with the span of
// input it covers.
type Span [2]uint64

// From returns the start of the span.
func (s Span) From() uint64 { return s[0] }

// To returns the position just past the end of the span.
func (s Span) To() uint64 { return s[1] }

// Len returns the length of the span.
func (s Span) Len() uint64 { return s[1] - s[0] }

// IsNull reports whether the span is the zero value.
func (s Span) IsNull() bool { return s == Span{} }

// Extend widens s to also cover other.
func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}
