package frontend

import (
	"fmt"

	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/uax31"
)

// SyntaxError reports a malformed grammar description at a byte offset
// into the source text (§7: DescriptionSyntax).
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("frontend: %s (at byte %d)", e.Msg, e.Pos)
}

// ErrInvalidUTF8 reports that a description was not well-formed UTF-8
// (§7: InvalidUtf8). Pos is the byte offset of the first invalid
// sequence.
type ErrInvalidUTF8 struct{ Pos int }

func (e *ErrInvalidUTF8) Error() string {
	return fmt.Sprintf("frontend: invalid UTF-8 at byte %d", e.Pos)
}

// parser is a one-token-lookahead recursive-descent parser over the §6
// EBNF, feeding a grammar.GrammarBuilder as it goes.
type parser struct {
	lex   *lexer
	tok   token
	b     *grammar.GrammarBuilder
	terms map[string]grammar.TokType // declared by the TERM block
}

// Parse reads description (§6 EBNF) into b, declaring terminals and rules
// through the builder. The caller still must call b.Grammar(startName)
// afterward to finalize and pick up any builder-level semantic error
// (RepeatedTermDecl, RepeatedRule, …); Parse itself only reports lexical
// and syntactic errors.
func Parse(b *grammar.GrammarBuilder, description string) error {
	if off := uax31.ValidateUTF8(description); off >= 0 {
		return &ErrInvalidUTF8{Pos: off}
	}
	p := &parser{lex: newLexer(description), b: b, terms: make(map[string]grammar.TokType)}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.parseTerminals(); err != nil {
		return err
	}
	for p.tok.kind != tokEOF {
		if err := p.parseRule(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) expect(k tokKind, what string) error {
	if p.tok.kind != k {
		return &SyntaxError{Pos: p.tok.pos, Msg: "expected " + what}
	}
	return p.advance()
}

// parseTerminals reads the mandatory "TERM (ident (= integer)?)* ;" block.
func (p *parser) parseTerminals() error {
	if p.tok.kind != tokTerm {
		return &SyntaxError{Pos: p.tok.pos, Msg: "expected TERM block"}
	}
	if err := p.advance(); err != nil {
		return err
	}
	next := grammar.TokType(0)
	for p.tok.kind == tokIdent {
		name := p.tok.text
		if err := p.advance(); err != nil {
			return err
		}
		code := next
		if p.tok.kind == tokEq {
			if err := p.advance(); err != nil {
				return err
			}
			if p.tok.kind != tokInt {
				return &SyntaxError{Pos: p.tok.pos, Msg: "expected integer token code"}
			}
			code = grammar.TokType(p.tok.ival)
			if err := p.advance(); err != nil {
				return err
			}
		}
		p.terms[name] = code
		next = code + 1
	}
	return p.expect(tokSemi, "';'")
}

// parseRule reads "identifier : alternatives ;".
func (p *parser) parseRule() error {
	if p.tok.kind != tokIdent {
		return &SyntaxError{Pos: p.tok.pos, Msg: "expected rule name"}
	}
	lhs := p.tok.text
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expect(tokColon, "':'"); err != nil {
		return err
	}
	p.b.LHS(lhs)
	for {
		if err := p.parseAlt(); err != nil {
			return err
		}
		if p.tok.kind != tokBar {
			break
		}
		if err := p.advance(); err != nil {
			return err
		}
		p.b.LHS(lhs)
	}
	return p.expect(tokSemi, "';'")
}

// parseAlt reads "rhs annotation?" and closes the rule being built.
func (p *parser) parseAlt() error {
	for p.tok.kind == tokIdent || p.tok.kind == tokChar {
		switch p.tok.kind {
		case tokChar:
			name := fmt.Sprintf("'%c'", rune(p.tok.ival))
			p.b.T(name, grammar.TokType(p.tok.ival))
		default:
			if code, isTerm := p.terms[p.tok.text]; isTerm {
				p.b.T(p.tok.text, code)
			} else {
				p.b.N(p.tok.text)
			}
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	if p.tok.kind == tokHash {
		if err := p.parseAnno(); err != nil {
			return err
		}
	}
	p.b.End()
	return nil
}

// parseAnno reads "# identifier integer (integer)*".
func (p *parser) parseAnno() error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokIdent {
		return &SyntaxError{Pos: p.tok.pos, Msg: "expected annotation name"}
	}
	name := p.tok.text
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.kind != tokInt {
		return &SyntaxError{Pos: p.tok.pos, Msg: "expected annotation cost"}
	}
	cost := int(p.tok.ival)
	if err := p.advance(); err != nil {
		return err
	}
	var positions []int
	for p.tok.kind == tokInt {
		positions = append(positions, int(p.tok.ival))
		if err := p.advance(); err != nil {
			return err
		}
	}
	p.b.Anno(name, cost, positions...)
	return nil
}
