package grammar

import (
	"testing"
)

// We use the same small unambiguous expression grammar throughout the
// package's tests:
//
//	Sum     = Sum '+' Product | Product
//	Product = Product '*' Factor | Factor
//	Factor  = '(' Sum ')' | number
func makeExprGrammar(t *testing.T) *Grammar {
	t.Helper()
	b := NewGrammarBuilder("Expressions")
	b.LHS("Sum").N("Sum").T("+", 1).N("Product").End()
	b.LHS("Sum").N("Product").End()
	b.LHS("Product").N("Product").T("*", 2).N("Factor").End()
	b.LHS("Product").N("Factor").End()
	b.LHS("Factor").T("(", 3).N("Sum").T(")", 4).End()
	b.LHS("Factor").T("number", 5).End()
	g, err := b.Grammar("Sum")
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g
}

func TestFinalizeNullableFirstFollow(t *testing.T) {
	g := makeExprGrammar(t)
	sum, ok := g.FindSymbol("Sum")
	if !ok {
		t.Fatalf("Sum not found")
	}
	if sum.Nullable() {
		t.Errorf("Sum should not be nullable")
	}
	number, ok := g.FindSymbol("number")
	if !ok {
		t.Fatalf("number not found")
	}
	if !sum.First().Has(number.Index) {
		t.Errorf("FIRST(Sum) should contain 'number'")
	}
}

func TestRepeatedTermDecl(t *testing.T) {
	b := NewGrammarBuilder("Bad")
	b.LHS("S").T("a", 1).End()
	b.LHS("S").T("a", 2).End()
	if _, err := b.Grammar("S"); err == nil {
		t.Fatalf("expected RepeatedTermDecl error")
	} else if ge, ok := err.(*Error); !ok || ge.Code != RepeatedTermDecl {
		t.Errorf("expected RepeatedTermDecl, got %v", err)
	}
}

func TestRepeatedRule(t *testing.T) {
	b := NewGrammarBuilder("Bad")
	b.LHS("S").T("a", 1).End()
	b.LHS("S").T("a", 1).End()
	if _, err := b.Grammar("S"); err == nil {
		t.Fatalf("expected RepeatedRule error")
	} else if ge, ok := err.(*Error); !ok || ge.Code != RepeatedRule {
		t.Errorf("expected RepeatedRule, got %v", err)
	}
}

func TestUnaccessibleNonterminal(t *testing.T) {
	b := NewGrammarBuilder("Bad")
	b.LHS("S").T("a", 1).End()
	b.LHS("Unused").T("b", 2).End()
	if _, err := b.Grammar("S"); err == nil {
		t.Fatalf("expected UnaccessibleNonterminal error")
	} else if ge, ok := err.(*Error); !ok || ge.Code != UnaccessibleNonterminal {
		t.Errorf("expected UnaccessibleNonterminal, got %v", err)
	}
}

func TestNoRulesForSymbol(t *testing.T) {
	b := NewGrammarBuilder("Bad")
	b.LHS("S").N("Missing").End()
	if _, err := b.Grammar("S"); err == nil {
		t.Fatalf("expected NoRulesForSymbol error")
	} else if ge, ok := err.(*Error); !ok || ge.Code != NoRulesForSymbol {
		t.Errorf("expected NoRulesForSymbol, got %v", err)
	}
}

func TestAugmentedStart(t *testing.T) {
	g := makeExprGrammar(t)
	if !g.AugmentedStart().IsAugmentedStart() {
		t.Errorf("AugmentedStart() should report IsAugmentedStart()")
	}
	r := g.AugmentedStartRule()
	if r == nil || len(r.RHS()) != 2 {
		t.Fatalf("expected augmented start rule with 2 RHS symbols, got %v", r)
	}
}
