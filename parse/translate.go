package parse

import (
	"fmt"

	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/sppf"
)

// derivKey identifies one attempted rule derivation by rule and input
// span, so buildForest's recursive span search never recombines the same
// (rule, start, end) triple twice.
type derivKey struct {
	rule  int // Rule.Serial
	start int
	end   int
}

// buildForest reconstructs the shared packed parse forest for the most
// recently accepted parse by walking the finalized Earley sets backward
// from the augmented start rule, the way the teacher's
// lr/earley/parsetree.go walks its reduce stack backward from its accept
// state — generalized here to recombine every split point the chart
// admits, not just the one the parser happened to take first, since an
// ambiguous grammar can admit more than one.
func (p *Parser) buildForest() error {
	p.forest = sppf.NewForest()
	memo := make(map[derivKey]bool)
	startRule := p.g.AugmentedStartRule()
	end := len(p.finalized) - 1
	if err := p.buildRule(startRule, 0, end, memo); err != nil {
		return err
	}
	if p.forest.Root() == nil {
		p.lastErrorCode = InternalError
		return fmt.Errorf("parse: accepted input produced no forest root")
	}
	if p.oneParse {
		p.forest.SelectOneParse(p.forest.Root()) // also updates p.forest.Root()
	}
	return nil
}

// buildRule adds every forest alternative rule contributes over [start,
// end]: one AddReduction call per distinct split-point sequence the chart
// admits for rule's right-hand side.
func (p *Parser) buildRule(rule *grammar.Rule, start, end int, memo map[derivKey]bool) error {
	key := derivKey{rule.Serial, start, end}
	if memo[key] {
		return nil
	}
	memo[key] = true

	rhs := rule.RHS()
	if len(rhs) == 0 {
		if start != end {
			return nil
		}
		p.forest.AddEpsilonReduction(rule.LHS, rule, uint64(start))
		return nil
	}
	return p.enumerateSplits(rule, rhs, start, end, 0, start, nil, memo)
}

// enumerateSplits recursively finds every sequence of split points
// start=q0<=q1<=...<=qn=end consistent with the chart (qi is where rule's
// dot reaches position i, having originated at start) and adds one forest
// reduction per complete sequence found.
func (p *Parser) enumerateSplits(rule *grammar.Rule, rhs []*grammar.Symbol, start, end, idx, pos int, children []*sppf.SymbolNode, memo map[derivKey]bool) error {
	if idx == len(rhs) {
		if pos != end {
			return nil
		}
		kids := make([]*sppf.SymbolNode, len(children))
		copy(kids, children)
		p.forest.AddReduction(rule.LHS, rule, kids)
		return nil
	}
	sym := rhs[idx]
	for next := pos; next <= end; next++ {
		if !p.dotReachable(rule, idx+1, start, next) {
			continue
		}
		child, ok, err := p.buildSymbolSpan(sym, pos, next, memo)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := p.enumerateSplits(rule, rhs, start, end, idx+1, next, append(children, child), memo); err != nil {
			return err
		}
	}
	return nil
}

// buildSymbolSpan builds (or looks up) the forest node for sym covering
// [start, end). For a terminal, this is a single-width leaf carrying the
// scanned token's value; for a nonterminal, it recurses into every rule of
// sym that the chart admits over the same span.
func (p *Parser) buildSymbolSpan(sym *grammar.Symbol, start, end int, memo map[derivKey]bool) (*sppf.SymbolNode, bool, error) {
	if sym.IsTerminal() {
		if end != start+1 {
			return nil, false, nil
		}
		tok := p.tokens[start]
		node := p.forest.AddTerminal(sym, uint64(start), 1, tok.Value())
		return node, true, nil
	}
	for _, r := range sym.Rules() {
		if len(r.RHS()) == 0 && start != end {
			continue
		}
		if err := p.buildRule(r, start, end, memo); err != nil {
			return nil, false, err
		}
	}
	node, ok := p.forest.Lookup(sym, uint64(start), uint64(end))
	return node, ok, nil
}

// dotReachable reports whether situation (rule, dot) occurs in the
// finalized state at position pos with origin exactly start — i.e.
// whether the chart actually admits rule's first dot symbols spanning
// [start, pos]. dot 0 is trivially reachable at pos==start.
func (p *Parser) dotReachable(rule *grammar.Rule, dot, start, pos int) bool {
	if dot == 0 {
		return pos == start
	}
	if pos < 0 || pos >= len(p.finalized) {
		return false
	}
	core := p.finalized[pos].Core
	eset := p.finalized[pos]
	for _, v := range core.Situations.Values() {
		idx := v.(int)
		sit := p.situations.Get(idx)
		if sit.Item.Rule != rule || sit.Item.Dot != dot {
			continue
		}
		k, ok := core.PositionOf(idx)
		if !ok {
			continue
		}
		for _, dist := range eset.Distances[k] {
			if pos-dist == start {
				return true
			}
		}
	}
	return false
}
