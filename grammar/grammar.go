package grammar

import (
	"fmt"
)

// ErrorCode identifies the category of a grammar construction error,
// mirroring the stable error-code surface exposed at the engine's public
// boundary (§7).
type ErrorCode int

const (
	// NoRulesForSymbol reports a nonterminal that is referenced but never
	// defined by any rule.
	NoRulesForSymbol ErrorCode = iota + 1
	// UndefinedSymbol reports a reference to a symbol that was never
	// declared as a terminal and never appears as a rule's LHS.
	UndefinedSymbol
	// RepeatedTermDecl reports a terminal declared more than once.
	RepeatedTermDecl
	// RepeatedRule reports two rules with identical LHS and RHS.
	RepeatedRule
	// UnaccessibleNonterminal reports a nonterminal unreachable from the
	// start symbol.
	UnaccessibleNonterminal
	// LoopNonterminal reports a nonterminal A with A =>+ A (pure left
	// recursion through nullable prefixes only, with no progress).
	LoopNonterminal
	// InvalidTokenCode reports a terminal declared with a token code that
	// collides with another terminal's code.
	InvalidTokenCode
)

// Error is a grammar construction error, carrying the offending symbol
// name where applicable.
type Error struct {
	Code   ErrorCode
	Symbol string
	msg    string
}

func (e *Error) Error() string { return e.msg }

func newError(code ErrorCode, symbol, format string, args ...interface{}) *Error {
	return &Error{Code: code, Symbol: symbol, msg: fmt.Sprintf(format, args...)}
}

// startSuffix names the augmented start nonterminal, $start -> S $end,
// wrapped around the client's declared start symbol so the engine always
// has a single root rule with a known accepting dot position (§3, §4.4).
const startSuffix = "$start"

// endSuffix names the distinguished end-of-input terminal used by the
// augmented start rule.
const endSuffix = "$end"

// errorSymbolName names the distinguished error-recovery nonterminal,
// present in every grammar so error-admitting rules can reference it
// (§4.9).
const errorSymbolName = "$error"

// Grammar is a finalized, interned collection of symbols and rules: the
// product of a GrammarBuilder, ready to drive parser-list construction.
type Grammar struct {
	symbols *symbolTable
	terms   *termSetInterner

	rulesHead *Rule
	rulesTail *Rule
	nrules    int

	start      *Symbol // client's declared start symbol
	augStart   *Symbol // $start
	augEndTerm *Symbol // $end
	errorSym   *Symbol // $error

	finalized bool
}

// FindSymbol looks up an already-declared symbol by name.
func (g *Grammar) FindSymbol(name string) (*Symbol, bool) {
	return g.symbols.lookup(name)
}

// EachSymbol calls fn once for every interned symbol, in creation order.
func (g *Grammar) EachSymbol(fn func(*Symbol)) {
	for _, s := range g.symbols.all {
		fn(s)
	}
}

// EachRule calls fn once for every rule, in creation (serial) order.
func (g *Grammar) EachRule(fn func(*Rule)) {
	for r := g.rulesHead; r != nil; r = r.nextInGrammar {
		fn(r)
	}
}

// NumTerminals returns the number of distinct terminals. Term sets are
// indexed by Symbol.Index over all symbols, not by this count.
func (g *Grammar) NumTerminals() int {
	n := 0
	for _, s := range g.symbols.all {
		if s.terminal {
			n++
		}
	}
	return n
}

// Start returns the client's declared start symbol.
func (g *Grammar) Start() *Symbol { return g.start }

// AugmentedStart returns the synthetic $start symbol wrapping Start(), or
// nil before Finalize.
func (g *Grammar) AugmentedStart() *Symbol { return g.augStart }

// AugmentedStartRule returns the single rule $start -> S $end.
func (g *Grammar) AugmentedStartRule() *Rule { return g.augStart.rulesHead }

// EndTerminal returns the distinguished end-of-input terminal, $end.
func (g *Grammar) EndTerminal() *Symbol { return g.augEndTerm }

// ErrorSymbol returns the distinguished $error nonterminal.
func (g *Grammar) ErrorSymbol() *Symbol { return g.errorSym }

// TermSets returns the term-set interner backing this grammar's FIRST/
// FOLLOW sets and any lookahead contexts the parser interns during a
// parse.
func (g *Grammar) TermSets() *termSetInterner { return g.terms }

// Finalize computes nullable/FIRST/FOLLOW by fixed-point worklist
// iteration (§4.4), wraps the declared start symbol in an augmented
// $start -> S $end rule, validates that every referenced nonterminal has
// at least one rule and every nonterminal is reachable from start. It does
// not block later rule additions. After a successful call, further calls
// return nil without recomputing; a failed call leaves the grammar
// unfinalized, so the next call runs again.
func (g *Grammar) Finalize(startName string) error {
	if g.finalized {
		return nil
	}
	start, ok := g.symbols.lookup(startName)
	if !ok || start.terminal {
		return newError(UndefinedSymbol, startName, "grammar: start symbol %q is not a declared nonterminal", startName)
	}
	if err := g.checkDefined(); err != nil {
		return err
	}
	g.start = start
	g.wrapAugmentedStart()
	g.computeNullable()
	g.computeFirst()
	g.computeFollow()
	if err := g.checkReachable(); err != nil {
		return err
	}
	g.finalized = true
	return nil
}

func (g *Grammar) checkDefined() error {
	for _, s := range g.symbols.all {
		if s.terminal || s.IsError() {
			continue
		}
		if s.rulesHead == nil {
			return newError(NoRulesForSymbol, s.Name, "grammar: nonterminal %q has no rules", s.Name)
		}
	}
	return nil
}

func (g *Grammar) wrapAugmentedStart() {
	augStart, _ := g.symbols.intern(startSuffix, func() *Symbol {
		return &Symbol{Name: startSuffix, terminal: false}
	})
	endTerm, _ := g.symbols.intern(endSuffix, func() *Symbol {
		return &Symbol{Name: endSuffix, terminal: true, value: EOF}
	})
	g.augStart = augStart
	g.augEndTerm = endTerm
	r := &Rule{LHS: augStart, rhs: []*Symbol{g.start, endTerm}}
	g.addRule(r)
}

func (g *Grammar) addRule(r *Rule) {
	r.Serial = g.nrules
	g.nrules++
	if g.rulesTail == nil {
		g.rulesHead, g.rulesTail = r, r
	} else {
		g.rulesTail.nextInGrammar = r
		g.rulesTail = r
	}
	if r.LHS.rulesTail == nil {
		r.LHS.rulesHead, r.LHS.rulesTail = r, r
	} else {
		r.LHS.rulesTail.nextSameLHS = r
		r.LHS.rulesTail = r
	}
}

// computeNullable runs a fixed-point worklist over rules: a nonterminal is
// nullable once some rule of it has every RHS symbol nullable (including
// the empty RHS).
func (g *Grammar) computeNullable() {
	changed := true
	for changed {
		changed = false
		for r := g.rulesHead; r != nil; r = r.nextInGrammar {
			if r.LHS.nullable {
				continue
			}
			allNullable := true
			for _, sym := range r.rhs {
				if sym.terminal || !sym.nullable {
					allNullable = false
					break
				}
			}
			if allNullable {
				r.LHS.nullable = true
				changed = true
			}
		}
	}
}

// computeFirst runs a fixed-point worklist computing FIRST(A) for every
// nonterminal A: for each rule A -> X1..Xn, union in FIRST(Xi) for the
// longest nullable prefix X1..Xi-1, stopping at the first non-nullable
// symbol (terminals contribute themselves; §4.4).
func (g *Grammar) computeFirst() {
	for _, s := range g.symbols.all {
		if s.terminal {
			s.first = g.terms.New()
			s.first.Set(s.Index)
			g.terms.Intern(s.first)
		} else {
			s.first = g.terms.New()
		}
	}
	changed := true
	for changed {
		changed = false
		for r := g.rulesHead; r != nil; r = r.nextInGrammar {
			for _, sym := range r.rhs {
				if r.LHS.first.Union(sym.first) {
					changed = true
				}
				if !sym.nullable {
					break
				}
			}
		}
	}
	for _, s := range g.symbols.all {
		if !s.terminal {
			s.first = g.terms.Intern(s.first)
		}
	}
}

// computeFollow runs a fixed-point worklist computing FOLLOW(A) for every
// nonterminal A: for each rule B -> ... A beta, union FIRST(beta) into
// FOLLOW(A); if beta is nullable (or empty), also union FOLLOW(B).
// $end enters FOLLOW of the declared start symbol through the augmented
// rule $start -> S $end, so no separate seeding step is needed;
// FOLLOW($start) itself stays empty.
func (g *Grammar) computeFollow() {
	for _, s := range g.symbols.all {
		if !s.terminal {
			s.follow = g.terms.New()
		}
	}
	changed := true
	for changed {
		changed = false
		for r := g.rulesHead; r != nil; r = r.nextInGrammar {
			for i, sym := range r.rhs {
				if sym.terminal {
					continue
				}
				beta := r.rhs[i+1:]
				betaNullable := true
				for _, b := range beta {
					if sym.follow.Union(b.first) {
						changed = true
					}
					if b.terminal || !b.nullable {
						betaNullable = false
						break
					}
				}
				if betaNullable {
					if sym.follow.Union(r.LHS.follow) {
						changed = true
					}
				}
			}
		}
	}
	for _, s := range g.symbols.all {
		if !s.terminal {
			s.follow = g.terms.Intern(s.follow)
		}
	}
}

// checkReachable verifies every nonterminal is reachable from $start by
// RHS traversal, reporting the first unreachable one found (in symbol
// creation order) as UnaccessibleNonterminal.
func (g *Grammar) checkReachable() error {
	reached := make(map[*Symbol]bool)
	var visit func(*Symbol)
	visit = func(s *Symbol) {
		if s.terminal || reached[s] {
			return
		}
		reached[s] = true
		for r := s.rulesHead; r != nil; r = r.nextSameLHS {
			for _, sym := range r.rhs {
				visit(sym)
			}
		}
	}
	visit(g.augStart)
	for _, s := range g.symbols.all {
		if s.terminal || s == g.errorSym {
			continue
		}
		if !reached[s] {
			return newError(UnaccessibleNonterminal, s.Name, "grammar: nonterminal %q is unreachable from the start symbol", s.Name)
		}
	}
	return nil
}
