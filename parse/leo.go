package parse

import (
	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/lr"
)

// leoShortcut walks a deterministic reduction path (§4.8) for symbol sym
// starting at the finalized state q, collapsing a chain of singleton
// unit-reduction states into a single (situation, origin) jump instead of
// the ordinary O(chain length) completion cascade. It returns ok=false
// the moment the chain is not purely deterministic, in which case the
// caller must fall back to completeFromFinalized's plain scan.
//
// Each state along the chain must have exactly one situation transitioning
// on the symbol under consideration, with exactly one recorded origin
// distance — two or more waiters, or two or more distinct origins for the
// same waiter, both mean some other derivation also depends on this
// completion, so the shortcut cannot skip materializing it.
func (p *Parser) leoShortcut(q int, sym *grammar.Symbol) (sitIndex, rootOrigin int, ok bool) {
	for {
		eset := p.finalized[q]
		core := eset.Core
		vec := p.csv.GetOrCompute(core, sym.Index, func() *lr.CoreSymbolVector {
			return p.computeCoreSymbolVector(core, sym)
		})
		if vec.TransitiveTransition < 0 {
			return 0, 0, false
		}
		k, posOK := core.PositionOf(vec.TransitiveTransition)
		if !posOK || len(eset.Distances[k]) != 1 {
			return 0, 0, false
		}
		dist := eset.Distances[k][0]
		if dist <= 0 {
			// An epsilon-distance step never shrinks q; only genuine
			// right recursion over consumed tokens is worth collapsing.
			return 0, 0, false
		}
		origin := q - dist
		sit := p.situations.Get(vec.TransitiveTransition)
		advanced := sit.Item.Advance()
		if advanced.PeekSymbol() != nil {
			// sym was not the rule's final remaining symbol: this hop
			// is the end of the chain, complete or not.
			asit := p.situations.Intern(advanced, sit.Ctx)
			p.leoStats.TransitiveChainsBuilt++
			return asit.Index, origin, true
		}
		// sym was the rule's last remaining symbol, so advancing over
		// it completes the rule immediately: this state is a pure
		// pass-through link. Keep walking, now looking for a
		// deterministic reduction path for the completed rule's own
		// LHS at its origin.
		sym = advanced.Rule.LHS
		q = origin
	}
}
