// Package frontend implements the textual grammar description language
// from the engine's EBNF fragment: a TERM block declaring terminal token
// codes, followed by one or more rules of alternatives, each optionally
// carrying a "# name cost pos..." abstract-node annotation. It is a small
// hand-written lexer and recursive-descent parser, not a generated one —
// the engine's own non-goals rule out lexer generation for the engine
// itself, not for this single fixed, simple description language.
package frontend

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cforge/earley/uax31"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokChar
	tokTerm // the literal keyword "TERM"
	tokColon
	tokSemi
	tokBar
	tokHash
	tokEq
)

type token struct {
	kind tokKind
	text string
	ival int64
	pos  int
}

// lexer scans a grammar description one rune at a time, classifying
// runes via uax31 rather than ASCII-only rules (§4.3).
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: src} }

func (l *lexer) peekRune() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, w
}

func (l *lexer) skipSpaceAndComments() error {
	for {
		r, w := l.peekRune()
		if w == 0 {
			return nil
		}
		if uax31.IsSpace(r) {
			l.pos += w
			continue
		}
		if r == '/' && strings.HasPrefix(l.src[l.pos:], "/*") {
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return &SyntaxError{Pos: l.pos, Msg: "unterminated comment"}
			}
			l.pos += 2 + end + 2
			continue
		}
		return nil
	}
}

// next scans and returns the next token.
func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	start := l.pos
	r, w := l.peekRune()
	if w == 0 {
		return token{kind: tokEOF, pos: start}, nil
	}

	switch r {
	case ':':
		l.pos += w
		return token{kind: tokColon, pos: start}, nil
	case ';':
		l.pos += w
		return token{kind: tokSemi, pos: start}, nil
	case '|':
		l.pos += w
		return token{kind: tokBar, pos: start}, nil
	case '#':
		l.pos += w
		return token{kind: tokHash, pos: start}, nil
	case '=':
		l.pos += w
		return token{kind: tokEq, pos: start}, nil
	case '\'':
		l.pos += w
		cr, cw := l.peekRune()
		if cw == 0 {
			return token{}, &SyntaxError{Pos: start, Msg: "unterminated character literal"}
		}
		l.pos += cw
		qr, qw := l.peekRune()
		if qw == 0 || qr != '\'' {
			return token{}, &SyntaxError{Pos: start, Msg: "unterminated character literal"}
		}
		l.pos += qw
		return token{kind: tokChar, ival: int64(cr), pos: start}, nil
	}

	if uax31.IsIdentStart(r) {
		l.pos += w
		for {
			cr, cw := l.peekRune()
			if cw == 0 || !uax31.IsIdentContinue(cr) {
				break
			}
			l.pos += cw
		}
		text := l.src[start:l.pos]
		if text == "TERM" {
			return token{kind: tokTerm, text: text, pos: start}, nil
		}
		return token{kind: tokIdent, text: uax31.NFC(text), pos: start}, nil
	}

	if unicode.IsDigit(r) {
		zero := uax31.DigitScript(r)
		val := int64(uax31.DigitValue(r))
		l.pos += w
		for {
			cr, cw := l.peekRune()
			if cw == 0 || !unicode.IsDigit(cr) {
				break
			}
			if z := uax31.DigitScript(cr); z != zero {
				return token{}, &SyntaxError{Pos: l.pos, Msg: "mixed-script numeric literal"}
			}
			val = val*10 + int64(uax31.DigitValue(cr))
			l.pos += cw
		}
		return token{kind: tokInt, ival: val, pos: start}, nil
	}

	return token{}, &SyntaxError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
}
