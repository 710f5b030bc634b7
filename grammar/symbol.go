// Package grammar implements the grammar-side substrate of the parsing
// engine: interned symbols and rules, FIRST/FOLLOW/nullable analysis, the
// term-set (lookahead context) interner. The per-parse situation/
// set-core/Earley-set stores the parser builds its working sets from live
// in package lr.
//
// The Symbol/Rule/Grammar/Builder API shape is modeled on the teacher
// repository's lr.GrammarBuilder usage (b.LHS("S").N("A").T("a", 1).EOF(),
// lr.Analysis(g), ga.First(N)) even though that repository's own
// grammar.go/symbol.go sources were not available to copy from — only
// their call sites were, via lr/doc.go and lr/tables.go.
package grammar

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/cforge/earley/internal/hashtab"
)

// tracer traces with key "earley.grammar".
func tracer() tracing.Trace {
	return tracing.Select("earley.grammar")
}

// TokType is a client-assigned terminal code. It mirrors the
// root package's TokType so grammar does not need to import earley (which
// would create an import cycle, since earley's facade imports grammar).
type TokType int32

// EOF is the token value reserved for end-of-input. The parser treats only
// this exact value as end of input; other negative values (such as the
// text/scanner Ident and Int codes) are ordinary terminal codes.
const EOF TokType = -1

// errorTokenValue is an internal sentinel; $error never matches against a
// real token value.
const errorTokenValue TokType = -2

// Symbol is an interned grammar entity: either a terminal (leaf of the
// grammar, carrying a client-assigned token code) or a nonterminal
// (carrying the rules whose left-hand side it is, plus cached
// derives-empty/FIRST/FOLLOW sets, computed by Finalize).
type Symbol struct {
	Name     string
	Index    int // stable index, assigned at creation
	terminal bool
	value    TokType // terminal token code; unused for nonterminals

	// nonterminal-only fields, populated as rules are added / by Finalize.
	rulesHead *Rule // first rule with this symbol as LHS
	rulesTail *Rule

	nullable bool
	first    *TermSet
	follow   *TermSet
}

// IsTerminal reports whether the symbol is a terminal.
func (s *Symbol) IsTerminal() bool { return s.terminal }

// TokenType returns the symbol's token code. For nonterminals the code is
// unused: it is 0, except for $error, which carries an internal negative
// sentinel.
func (s *Symbol) TokenType() TokType { return s.value }

// IsError reports whether s is the distinguished $error nonterminal.
func (s *Symbol) IsError() bool { return !s.terminal && s.value == errorTokenValue }

// IsAugmentedStart reports whether s is the synthetic $start wrapper
// Grammar.Finalize wraps around the client's declared start symbol.
func (s *Symbol) IsAugmentedStart() bool { return !s.terminal && s.Name == startSuffix }

func (s *Symbol) String() string {
	if s == nil {
		return "<nil symbol>"
	}
	if s.terminal {
		return fmt.Sprintf("%s/%d", s.Name, s.value)
	}
	return s.Name
}

// Rules returns the rules whose LHS is s, in creation order. Panics if s is
// a terminal.
func (s *Symbol) Rules() []*Rule {
	if s.terminal {
		panic("grammar: Rules() called on a terminal symbol")
	}
	var out []*Rule
	for r := s.rulesHead; r != nil; r = r.nextSameLHS {
		out = append(out, r)
	}
	return out
}

// Nullable reports whether s derives the empty string. Valid only after
// Grammar.Finalize.
func (s *Symbol) Nullable() bool { return s.nullable }

// First returns the cached FIRST(s) set. Valid only after Finalize.
func (s *Symbol) First() *TermSet { return s.first }

// Follow returns the cached FOLLOW(s) set. Valid only after Finalize.
// Terminals have no FOLLOW set and this returns nil.
func (s *Symbol) Follow() *TermSet { return s.follow }

// symbolTable interns symbols by name (case-sensitive, bytewise — §3).
type symbolTable struct {
	byName *hashtab.Table
	all    []*Symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		byName: hashtab.New(hashSymbolName, eqSymbolName, 64),
	}
}

func hashSymbolName(key interface{}) uint64 {
	return fnv64(symbolKeyName(key))
}

func eqSymbolName(a, b interface{}) bool {
	return symbolKeyName(a) == symbolKeyName(b)
}

// symbolKeyName extracts the lookup key (a symbol name) from either a bare
// query string or a stored *Symbol, so the same table can be probed with a
// string and populated with *Symbol entries.
func symbolKeyName(x interface{}) string {
	switch v := x.(type) {
	case string:
		return v
	case *Symbol:
		return v.Name
	default:
		panic(fmt.Sprintf("grammar: unexpected symbol-table key type %T", x))
	}
}

func fnv64(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// lookup finds an existing symbol by name, or (nil, false).
func (t *symbolTable) lookup(name string) (*Symbol, bool) {
	v, ok := t.byName.Find(name, false)
	if !ok {
		return nil, false
	}
	return v.(*Symbol), true
}

// intern returns the existing symbol named name, or creates and registers
// a new one via makeNew. The bool result reports whether it already
// existed.
func (t *symbolTable) intern(name string, makeNew func() *Symbol) (*Symbol, bool) {
	if s, ok := t.lookup(name); ok {
		return s, true
	}
	s := makeNew()
	s.Index = len(t.all)
	t.all = append(t.all, s)
	t.byName.Find(s, true) // reserve under the *Symbol key; Find's eq matches by name
	tracer().Debugf("interned symbol %s (terminal=%v)", s.Name, s.terminal)
	return s, false
}
