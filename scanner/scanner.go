// Package scanner defines the token source contract the parser consumes,
// plus two ready-made implementations: a thin wrapper over the standard
// library's text/scanner, and an adapter for github.com/timtadh/lexmachine
// (package scanner/lexmach). Grammar description text, lexers, and
// lexer-regeneration are out of scope for the engine proper (§1's
// non-goals) — this package exists only so client code has somewhere
// idiomatic to plug a token stream in from.
package scanner

import (
	"io"
	gotextscanner "text/scanner"

	"github.com/npillmayer/schuko/tracing"

	"github.com/cforge/earley"
)

func tracer() tracing.Trace {
	return tracing.Select("earley.scanner")
}

// EOF is the token-type value signaling end of input, identical to
// text/scanner.EOF and to earley.TokType(-1).
const EOF = gotextscanner.EOF

// Int and Ident re-export the underlying text/scanner token-type values a
// DefaultTokenizer produces for integer literals and identifiers, so
// client grammars can declare terminals against them without importing
// text/scanner themselves.
const (
	Int   = gotextscanner.Int
	Ident = gotextscanner.Ident
)

// Tokenizer is the scanner interface the parser drives.
type Tokenizer interface {
	NextToken() earley.Token
	SetErrorHandler(func(error))
}

// DefaultTokenizer is a default Tokenizer, backed by text/scanner.Scanner.
// Create one with GoTokenizer.
type DefaultTokenizer struct {
	gotextscanner.Scanner
	lastToken    rune
	Error        func(error)
	unifyStrings bool
	mode         uint
}

var _ Tokenizer = (*DefaultTokenizer)(nil)

func logError(e error) {
	tracer().Errorf("scanner error: %s", e.Error())
}

// GoTokenizer creates a tokenizer accepting tokens similar to the Go
// language, reading from input.
func GoTokenizer(sourceID string, input io.Reader, opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{Error: logError}
	t.Init(input)
	t.Filename = sourceID
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetErrorHandler installs h as the error handler; a nil h resets to the
// default logging handler.
func (t *DefaultTokenizer) SetErrorHandler(h func(error)) {
	if h == nil {
		t.Error = logError
		return
	}
	t.Error = h
}

// NextToken implements Tokenizer.
func (t *DefaultTokenizer) NextToken() earley.Token {
	t.lastToken = t.Scan()
	if t.lastToken == gotextscanner.EOF {
		tracer().Debugf("tokenizer reached end of input")
	}
	if t.unifyStrings && (t.lastToken == gotextscanner.RawString || t.lastToken == gotextscanner.Char) {
		t.lastToken = gotextscanner.String
	}
	return DefaultToken{
		kind:   earley.TokType(t.lastToken),
		lexeme: t.TokenText(),
		span:   earley.Span{uint64(t.Position.Offset), uint64(t.Pos().Offset)},
	}
}

// DefaultToken is an unsophisticated concrete Token, used by both
// DefaultTokenizer and the lexmachine adapter.
type DefaultToken struct {
	kind   earley.TokType
	lexeme string
	Val    interface{}
	span   earley.Span
}

// MakeDefaultToken constructs a DefaultToken directly, for callers feeding
// pre-lexed tokens into the parser.
func MakeDefaultToken(typ earley.TokType, lexeme string, span earley.Span) DefaultToken {
	return DefaultToken{kind: typ, lexeme: lexeme, span: span}
}

func (t DefaultToken) TokType() earley.TokType { return t.kind }
func (t DefaultToken) Value() interface{}      { return t.Val }
func (t DefaultToken) Lexeme() string          { return t.lexeme }
func (t DefaultToken) Span() earley.Span       { return t.span }

// Option configures a DefaultTokenizer.
type Option func(t *DefaultTokenizer)

const (
	optionSkipComments uint = 1 << 1
	optionUnifyStrings uint = 1 << 2
)

// SkipComments sets or clears comment skipping.
func SkipComments(b bool) Option {
	return func(t *DefaultTokenizer) {
		if b {
			t.Mode |= gotextscanner.SkipComments
			t.mode |= optionSkipComments
		} else {
			t.Mode &^= gotextscanner.SkipComments
			t.mode &^= optionSkipComments
		}
	}
}

// UnifyStrings sets or clears treating raw strings and single chars as
// plain strings.
func UnifyStrings(b bool) Option {
	return func(t *DefaultTokenizer) { t.unifyStrings = b }
}

func (t *DefaultTokenizer) hasmode(m uint) bool {
	if m == optionUnifyStrings {
		return t.unifyStrings
	}
	return t.mode&m > 0
}
