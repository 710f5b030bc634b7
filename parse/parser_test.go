package parse

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	gotextscanner "text/scanner"

	"github.com/cforge/earley"
	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/scanner"
	"github.com/cforge/earley/sppf"
)

// valueTokenizer wraps text/scanner like scanner.DefaultTokenizer does, but
// additionally populates Token.Value() for integer literals — the
// DefaultTokenizer is deliberately "unsophisticated" (scanner.go) and
// leaves semantic-value conversion to the client; this is what a client
// wanting arithmetic values out of the forest would write.
type valueTokenizer struct {
	sc  gotextscanner.Scanner
	err func(error)
}

func newValueTokenizer(input string) *valueTokenizer {
	vt := &valueTokenizer{err: func(error) {}}
	vt.sc.Init(strings.NewReader(input))
	return vt
}

func (vt *valueTokenizer) SetErrorHandler(h func(error)) {
	if h != nil {
		vt.err = h
	}
}

func (vt *valueTokenizer) NextToken() earley.Token {
	r := vt.sc.Scan()
	lexeme := vt.sc.TokenText()
	span := earley.Span{uint64(vt.sc.Position.Offset), uint64(vt.sc.Pos().Offset)}
	tok := scanner.MakeDefaultToken(earley.TokType(r), lexeme, span)
	if r == gotextscanner.Int {
		n, err := strconv.Atoi(lexeme)
		if err != nil {
			vt.err(err)
		}
		tok.Val = n
	}
	return tok
}

// The same small unambiguous expression grammar the teacher uses
// (lr/earley/earley_test.go), adapted to this package's builder:
//
//	Sum     = Sum '+' Product | Product
//	Product = Product '*' Factor | Factor
//	Factor  = '(' Sum ')' | number
func makeExprGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewGrammarBuilder("Expressions")
	b.LHS("Sum").N("Sum").T("+", '+').N("Product").End()
	b.LHS("Sum").N("Product").End()
	b.LHS("Product").N("Product").T("*", '*').N("Factor").End()
	b.LHS("Product").N("Factor").End()
	b.LHS("Factor").T("(", '(').N("Sum").T(")", ')').End()
	b.LHS("Factor").T("number", scanner.Int).End()
	g, err := b.Grammar("Sum")
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g
}

func makeScanner(input string) scanner.Tokenizer {
	return scanner.GoTokenizer(fmt.Sprintf("test %q", input), strings.NewReader(input))
}

var acceptedInputs = []string{
	"1", "1+2", "1*2", "1+2*3", "1*(2+3)", "1+2+3+4", "1*2+3*4",
}

func TestParseAccepts(t *testing.T) {
	g := makeExprGrammar(t)
	for _, input := range acceptedInputs {
		p := NewParser(g)
		accept, err := p.Parse(makeScanner(input))
		if err != nil {
			t.Errorf("%q: %v", input, err)
		}
		if !accept {
			t.Errorf("%q: expected accept", input)
		}
	}
}

func TestParseRejects(t *testing.T) {
	g := makeExprGrammar(t)
	for _, input := range []string{"1+", "+1", "1 2", "(1+2"} {
		p := NewParser(g)
		accept, _ := p.Parse(makeScanner(input))
		if accept {
			t.Errorf("%q: expected reject", input)
		}
		if err, code := p.LastError(); err == nil || code != ParseSyntax {
			t.Errorf("%q: expected a ParseSyntax error, got %v/%v", input, err, code)
		}
	}
}

// evalExpr walks the forest produced for an unambiguous expression grammar
// (exactly one alternative at every node) and computes its integer value,
// mirroring the teacher's ExprListener but directly over the SPPF rather
// than through a listener callback.
func evalExpr(t *testing.T, forest *sppf.Forest, sn *sppf.SymbolNode) int {
	t.Helper()
	if sn.Kind == sppf.KindTerm {
		if sn.Symbol.IsTerminal() && sn.Symbol.TokenType() == scanner.Int {
			n, ok := sn.Value.(int)
			if !ok {
				t.Fatalf("expected an int token value, got %#v", sn.Value)
			}
			return n
		}
		return 0
	}
	alts := forest.Alternatives(sn)
	if len(alts) != 1 {
		t.Fatalf("expected an unambiguous forest, got %d alternatives at %v", len(alts), sn)
	}
	children := forest.Children(sn, 0)
	switch len(children) {
	case 1:
		return evalExpr(t, forest, children[0])
	case 3:
		left := evalExpr(t, forest, children[0])
		right := evalExpr(t, forest, children[2])
		if sn.Symbol.Name == "Sum" {
			return left + right
		}
		return left * right
	default:
		t.Fatalf("unexpected RHS arity %d", len(children))
		return 0
	}
}

func TestParseTreeValue(t *testing.T) {
	g := makeExprGrammar(t)
	p := NewParser(g)
	input := "1+2*3"
	accept, err := p.Parse(newValueTokenizer(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !accept {
		t.Fatalf("expected %q to be accepted", input)
	}
	forest := p.ParseForest()
	root := forest.Root()
	if root == nil {
		t.Fatalf("expected a non-nil forest root")
	}
	// The forest root is the augmented start symbol; descend once into
	// the real start symbol (Sum) before evaluating.
	children := forest.Children(root, 0)
	if len(children) == 0 {
		t.Fatalf("expected augmented start to have a child")
	}
	got := evalExpr(t, forest, children[0])
	if got != 7 {
		t.Errorf("1+2*3: expected 7, got %d", got)
	}
}

func TestAmbiguousGrammarYieldsMultipleAlternatives(t *testing.T) {
	b := grammar.NewGrammarBuilder("Ambiguous")
	b.LHS("X").T("+", '+').N("X").End()
	b.LHS("X").N("X").T("*", '*').N("X").End()
	b.LHS("X").T("x", scanner.Ident).End()
	g, err := b.Grammar("X")
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	p := NewParser(g)
	input := "+x*x"
	accept, err := p.Parse(makeScanner(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !accept {
		t.Fatalf("expected %q to be accepted", input)
	}
	forest := p.ParseForest()
	root := forest.Root()
	children := forest.Children(root, 0)
	if len(children) == 0 {
		t.Fatalf("expected augmented start to have a child")
	}
	if len(forest.Alternatives(children[0])) < 2 {
		t.Errorf("expected '+x*x' to admit more than one derivation")
	}
}

func TestOneParseSelectsSingleDerivation(t *testing.T) {
	b := grammar.NewGrammarBuilder("Ambiguous")
	b.LHS("X").T("+", '+').N("X").End()
	b.LHS("X").N("X").T("*", '*').N("X").End()
	b.LHS("X").T("x", scanner.Ident).End()
	g, err := b.Grammar("X")
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	p := NewParser(g, WithOneParse(true), WithCost(true))
	accept, err := p.Parse(makeScanner("+x*x"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !accept {
		t.Fatalf("expected acceptance")
	}
	forest := p.ParseForest()
	root := forest.Root()
	children := forest.Children(root, 0)
	if len(forest.Alternatives(children[0])) != 1 {
		t.Errorf("expected one-parse selection to collapse to a single alternative")
	}
}

// Right recursion, the case Leo's optimization (§4.8) targets:
//
//	A : 'a' A | 'a'
func TestLeoRightRecursion(t *testing.T) {
	b := grammar.NewGrammarBuilder("RightRecursive")
	b.LHS("A").T("a", scanner.Ident).N("A").End()
	b.LHS("A").T("a", scanner.Ident).End()
	g, err := b.Grammar("A")
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	const n = 64
	input := strings.Repeat("a ", n)
	p := NewParser(g)
	accept, err := p.Parse(makeScanner(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !accept {
		t.Fatalf("expected acceptance of %d a's", n)
	}
	stats := p.LeoStats()
	if stats.TransitiveChainsUsed == 0 {
		t.Errorf("expected the Leo shortcut to fire at least once for pure right recursion")
	}
}
