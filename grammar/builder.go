package grammar

// GrammarBuilder assembles a Grammar through a fluent call chain, modeled
// on the teacher's lr.GrammarBuilder shape observed at its call sites
// (b.LHS("Sum").N("Sum").T("+", '+').N("Product").End()): LHS opens a rule
// for a nonterminal, N/T append RHS symbols, Anno attaches an abstract-node
// annotation, and End closes the rule. Grammar() finalizes the result.
//
// A GrammarBuilder is not safe for concurrent use; build one grammar per
// builder, then share the resulting *Grammar freely (it is read-only after
// Finalize).
type GrammarBuilder struct {
	g   *Grammar
	err error

	curLHS      *Symbol
	curRHS      []*Symbol
	pendingAnno *Annotation
}

// NewGrammarBuilder starts a new, empty grammar builder. name is used only
// for tracing.
func NewGrammarBuilder(name string) *GrammarBuilder {
	g := &Grammar{
		symbols: newSymbolTable(),
	}
	g.terms = newTermSetInterner(0)
	g.errorSym, _ = g.symbols.intern(errorSymbolName, func() *Symbol {
		return &Symbol{Name: errorSymbolName, terminal: false, value: errorTokenValue}
	})
	tracer().Debugf("new grammar builder %q", name)
	return &GrammarBuilder{g: g}
}

func (b *GrammarBuilder) fail(err error) *GrammarBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// LHS opens a new rule with nonterminal name as its left-hand side.
// Calling LHS with an open, unterminated rule implicitly closes the
// previous one first (mirroring the teacher's forgiving builder style).
func (b *GrammarBuilder) LHS(name string) *GrammarBuilder {
	if b.curLHS != nil {
		b.End()
	}
	sym, existed := b.g.symbols.intern(name, func() *Symbol {
		return &Symbol{Name: name, terminal: false}
	})
	if existed && sym.terminal {
		return b.fail(newError(UndefinedSymbol, name, "grammar: %q was already declared as a terminal", name))
	}
	b.curLHS = sym
	b.curRHS = nil
	return b
}

// N appends a nonterminal reference to the rule currently being built,
// interning it as a (as yet possibly rule-less) nonterminal if new.
func (b *GrammarBuilder) N(name string) *GrammarBuilder {
	sym, existed := b.g.symbols.intern(name, func() *Symbol {
		return &Symbol{Name: name, terminal: false}
	})
	if existed && sym.terminal {
		return b.fail(newError(UndefinedSymbol, name, "grammar: %q was already declared as a terminal", name))
	}
	b.curRHS = append(b.curRHS, sym)
	return b
}

// T appends a terminal reference to the rule currently being built,
// declaring it with token code value on first mention. A later mention
// with a different value is a RepeatedTermDecl error.
func (b *GrammarBuilder) T(name string, value TokType) *GrammarBuilder {
	sym, existed := b.g.symbols.intern(name, func() *Symbol {
		return &Symbol{Name: name, terminal: true, value: value}
	})
	if existed {
		if !sym.terminal {
			return b.fail(newError(UndefinedSymbol, name, "grammar: %q was already declared as a nonterminal", name))
		}
		if sym.value != value {
			return b.fail(newError(RepeatedTermDecl, name, "grammar: terminal %q redeclared with token code %d (was %d)", name, value, sym.value))
		}
	}
	b.curRHS = append(b.curRHS, sym)
	return b
}

// Epsilon marks the current rule as explicitly empty. It is a no-op
// beyond documentation value: a rule with no N()/T() calls is already
// epsilon.
func (b *GrammarBuilder) Epsilon() *GrammarBuilder { return b }

// Anno attaches an abstract-node annotation to the rule currently being
// built: a node name, an integer cost contribution (§4.3, used by
// one-parse cost-minimal selection), and the 1-based RHS positions that
// become the node's children, in order.
func (b *GrammarBuilder) Anno(name string, cost int, childPositions ...int) *GrammarBuilder {
	if b.curLHS == nil {
		return b.fail(newError(UndefinedSymbol, "", "grammar: Anno called with no open rule"))
	}
	b.pendingAnno = &Annotation{Name: name, Cost: cost, Translation: childPositions}
	return b
}

// End closes the rule currently being built, registering it with the
// grammar. Two rules with identical LHS and RHS symbol sequence are a
// RepeatedRule error.
func (b *GrammarBuilder) End() *GrammarBuilder {
	if b.curLHS == nil {
		return b.fail(newError(UndefinedSymbol, "", "grammar: End called with no open rule"))
	}
	for r := b.curLHS.rulesHead; r != nil; r = r.nextSameLHS {
		if sameRHS(r.rhs, b.curRHS) {
			b.fail(newError(RepeatedRule, b.curLHS.Name, "grammar: rule %s duplicates an existing one", b.curLHS.Name))
			break
		}
	}
	r := &Rule{LHS: b.curLHS, rhs: b.curRHS, Anno: b.pendingAnno}
	b.g.addRule(r)
	b.curLHS = nil
	b.curRHS = nil
	b.pendingAnno = nil
	return b
}

func sameRHS(a, bb []*Symbol) bool {
	if len(a) != len(bb) {
		return false
	}
	for i := range a {
		if a[i] != bb[i] {
			return false
		}
	}
	return true
}

// Grammar finalizes the builder: closes any still-open rule, wraps
// startName in the augmented start rule, computes nullable/FIRST/FOLLOW,
// and validates definedness and reachability. It returns the first error
// encountered anywhere in the build (including from LHS/N/T/End), if any.
func (b *GrammarBuilder) Grammar(startName string) (*Grammar, error) {
	if b.curLHS != nil {
		b.End()
	}
	if b.err != nil {
		return nil, b.err
	}
	if err := b.g.Finalize(startName); err != nil {
		return nil, err
	}
	return b.g, nil
}
