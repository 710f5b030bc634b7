package frontend

import (
	"testing"

	"github.com/cforge/earley/grammar"
)

const exprDescription = `
TERM plus = 1 number = 2 lparen = 3 rparen = 4 ;

Sum : Sum plus Product
    | Product
    ;
Product : Product '*' Factor
        | Factor
        ;
Factor : lparen Sum rparen
       | number
       ;
`

func TestParseDescription(t *testing.T) {
	b := grammar.NewGrammarBuilder("Expressions")
	if err := Parse(b, exprDescription); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g, err := b.Grammar("Sum")
	if err != nil {
		t.Fatalf("Grammar: %v", err)
	}
	sum, ok := g.FindSymbol("Sum")
	if !ok || sum.IsTerminal() {
		t.Fatalf("Sum should be an interned nonterminal")
	}
	star, ok := g.FindSymbol("'*'")
	if !ok || !star.IsTerminal() {
		t.Fatalf("'*' should be an interned terminal")
	}
}

func TestInvalidUTF8Rejected(t *testing.T) {
	b := grammar.NewGrammarBuilder("Bad")
	bad := "TERM a = 1 ;\nS : a ;\n" + string([]byte{0xC3})
	err := Parse(b, bad)
	if err == nil {
		t.Fatalf("expected an invalid-UTF-8 error")
	}
	if _, ok := err.(*ErrInvalidUTF8); !ok {
		t.Errorf("expected *ErrInvalidUTF8, got %T: %v", err, err)
	}
}

func TestMissingSemicolonIsSyntaxError(t *testing.T) {
	b := grammar.NewGrammarBuilder("Bad")
	err := Parse(b, "TERM a = 1 ;\nS : a\n")
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Errorf("expected *SyntaxError, got %T: %v", err, err)
	}
}

func TestAnnotation(t *testing.T) {
	b := grammar.NewGrammarBuilder("Annotated")
	desc := `
TERM a = 1 b = 2 ;
S : a b # pair 1 1 2 ;
`
	if err := Parse(b, desc); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	g, err := b.Grammar("S")
	if err != nil {
		t.Fatalf("Grammar: %v", err)
	}
	start, _ := g.FindSymbol("S")
	rules := start.Rules()
	if len(rules) != 1 || rules[0].Anno == nil {
		t.Fatalf("expected a single annotated rule")
	}
	if rules[0].Anno.Name != "pair" || rules[0].Anno.Cost != 1 {
		t.Errorf("unexpected annotation: %+v", rules[0].Anno)
	}
}
