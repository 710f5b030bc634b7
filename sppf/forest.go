package sppf

import (
	"fmt"

	"github.com/cforge/earley"
	"github.com/cforge/earley/grammar"
)

// searchTree indexes nodes by (start, end) span, then by a secondary key
// (symbol index or rule serial), mirroring the teacher's two-level
// span-then-identity lookup (lr/sppf/forest.go) — reimplemented over
// plain maps of slices rather than iteratable.Set, since fan-out at a
// given span is small in practice and the teacher's own Set type was not
// available to copy from (only its doc.go was retrieved).
type searchTree map[spanKey]map[uint64][]*SymbolNode

type spanKey struct{ from, to uint64 }

// Forest is a shared packed parse forest.
type Forest struct {
	symbolNodes searchTree
	rhsNodes    map[spanKey]map[int][]*rhsNode
	orEdges     map[*SymbolNode][]*rhsNode
	andEdges    map[*rhsNode][]*SymbolNode
	parent      map[*SymbolNode]*SymbolNode
	root        *SymbolNode
}

// NewForest returns an empty forest.
func NewForest() *Forest {
	return &Forest{
		symbolNodes: make(searchTree),
		rhsNodes:    make(map[spanKey]map[int][]*rhsNode),
		orEdges:     make(map[*SymbolNode][]*rhsNode),
		andEdges:    make(map[*rhsNode][]*SymbolNode),
		parent:      make(map[*SymbolNode]*SymbolNode),
	}
}

// Root returns the forest's root symbol node, set by the last AddReduction
// call for the grammar's augmented start symbol.
func (f *Forest) Root() *SymbolNode { return f.root }

// NodeKind discriminates the vocabulary of forest nodes (§4.11).
type NodeKind int

const (
	KindSymbol NodeKind = iota // an interior [A (x…y)] node
	KindTerm                   // a terminal leaf
	KindNil                    // an epsilon derivation
	KindError                  // an error-recovery splice point
	KindAnode                  // a named abstract node with cost and children
)

// SymbolNode is [A (x…y)]: grammar symbol A over input span (x…y).
type SymbolNode struct {
	Symbol *grammar.Symbol
	Extent earley.Span
	Kind   NodeKind

	// Value carries the client semantic value for a terminal node, and
	// is nil for interior nodes (whose value is the walk/translate
	// step's business, not the forest's).
	Value interface{}

	// ErrorUsed marks an ERROR-kind node whose swallowed token range has
	// already been accounted for by a ReleaseTree pass, preventing a
	// second pass from double-counting it.
	ErrorUsed bool

	// The Anode fields are set on KindAnode nodes: the rule annotation that produced
	// this abstract node, and its already-resolved children (picked per
	// §4.10's one-parse rule when multiple alternatives exist).
	AnodeName     string
	AnodeCost     int
	AnodeChildren []*SymbolNode
}

func (sn *SymbolNode) String() string {
	if sn == nil {
		return "<nil sppf node>"
	}
	return fmt.Sprintf("%s %s", sn.Symbol, sn.Extent)
}

// rhsNode is [delta (x…y)]: one alternative (one rule's RHS) contributing
// to a symbol node, spanning the same input range.
type rhsNode struct {
	Rule  *grammar.Rule
	Start uint64
	End   uint64
	Cost  int // own rule annotation cost plus AnodeCost of KindAnode children; nested symbol nodes add 0
}

// AddReduction adds a node for a completed rule reduction. rhs holds the
// already-built symbol nodes for the rule's RHS, in order; the resulting
// node's span is derived from rhs's own extents. Returns nil if rhs is
// empty — callers should use AddEpsilonReduction for that case.
func (f *Forest) AddReduction(sym *grammar.Symbol, rule *grammar.Rule, rhs []*SymbolNode) *SymbolNode {
	if len(rhs) == 0 {
		return nil
	}
	start := rhs[0].Extent.From()
	end := rhs[len(rhs)-1].Extent.To()
	cost := annoCost(rule.Anno)
	for _, d := range rhs {
		cost += d.costContribution()
	}
	rn := f.addRHSNode(rule, rhs, start, end, cost)
	symnode := f.addSymNode(sym, start, end, KindSymbol)
	f.addOrEdge(symnode, rn)
	for _, d := range rhs {
		f.andEdges[rn] = append(f.andEdges[rn], d)
		f.parent[d] = symnode
	}
	if sym.IsAugmentedStart() {
		f.root = symnode
	}
	return symnode
}

// addRHSNode interns an rhsNode by (rule, start, end), reusing an existing
// one with structurally-equal children if present (the dedup that makes
// this a *shared* forest rather than a tree).
func (f *Forest) addRHSNode(rule *grammar.Rule, rhs []*SymbolNode, start, end uint64, cost int) *rhsNode {
	k := spanKey{start, end}
	bySerial := f.rhsNodes[k]
	if bySerial == nil {
		bySerial = make(map[int][]*rhsNode)
		f.rhsNodes[k] = bySerial
	}
	for _, cand := range bySerial[rule.Serial] {
		if sameChildren(f.andEdges[cand], rhs) {
			return cand
		}
	}
	rn := &rhsNode{Rule: rule, Start: start, End: end, Cost: cost}
	bySerial[rule.Serial] = append(bySerial[rule.Serial], rn)
	return rn
}

func sameChildren(a, b []*SymbolNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (f *Forest) addSymNode(sym *grammar.Symbol, start, end uint64, kind NodeKind) *SymbolNode {
	k := spanKey{start, end}
	bySym := f.symbolNodes[k]
	if bySym == nil {
		bySym = make(map[uint64][]*SymbolNode)
		f.symbolNodes[k] = bySym
	}
	for _, cand := range bySym[uint64(sym.Index)] {
		if cand.Symbol == sym {
			return cand
		}
	}
	sn := &SymbolNode{Symbol: sym, Extent: earley.Span{start, end}, Kind: kind}
	bySym[uint64(sym.Index)] = append(bySym[uint64(sym.Index)], sn)
	return sn
}

// Lookup returns the existing symbol node for (sym, start, end), without
// creating one, or (nil, false) if no such node has been added yet.
func (f *Forest) Lookup(sym *grammar.Symbol, start, end uint64) (*SymbolNode, bool) {
	bySym, ok := f.symbolNodes[spanKey{start, end}]
	if !ok {
		return nil, false
	}
	for _, cand := range bySym[uint64(sym.Index)] {
		if cand.Symbol == sym {
			return cand, true
		}
	}
	return nil, false
}

func (f *Forest) addOrEdge(sym *SymbolNode, rhs *rhsNode) {
	for _, existing := range f.orEdges[sym] {
		if existing == rhs {
			return
		}
	}
	f.orEdges[sym] = append(f.orEdges[sym], rhs)
}

// Alternatives returns every RHS alternative contributing to sym — more
// than one means sym is an ambiguity point.
func (f *Forest) Alternatives(sym *SymbolNode) []*grammar.Rule {
	edges := f.orEdges[sym]
	out := make([]*grammar.Rule, len(edges))
	for i, e := range edges {
		out[i] = e.Rule
	}
	return out
}

// Children returns sym's RHS children under its altIndex'th alternative.
func (f *Forest) Children(sym *SymbolNode, altIndex int) []*SymbolNode {
	edges := f.orEdges[sym]
	if altIndex < 0 || altIndex >= len(edges) {
		return nil
	}
	return f.andEdges[edges[altIndex]]
}

// AddEpsilonReduction adds a node for a reduced epsilon production: sym
// derives the empty string at position pos.
func (f *Forest) AddEpsilonReduction(sym *grammar.Symbol, rule *grammar.Rule, pos uint64) *SymbolNode {
	rn := f.addRHSNode(rule, nil, pos, pos, annoCost(rule.Anno))
	symnode := f.addSymNode(sym, pos, pos, KindNil)
	f.addOrEdge(symnode, rn)
	if sym.IsAugmentedStart() {
		f.root = symnode
	}
	return symnode
}

// AddTerminal adds a leaf node for terminal t, covering input span
// [pos, pos+width), carrying the scanner's token value.
func (f *Forest) AddTerminal(t *grammar.Symbol, pos, width uint64, value interface{}) *SymbolNode {
	sn := f.addSymNode(t, pos, pos+width, KindTerm)
	sn.Value = value
	return sn
}

// AddError adds an error-recovery splice marker covering the range of
// input tokens error recovery discarded (§4.9).
func (f *Forest) AddError(pos, end uint64) *SymbolNode {
	sn := &SymbolNode{Extent: earley.Span{pos, end}, Kind: KindError}
	return sn
}

// AddAbstractNode adds a KindAnode node named name, with the given cost
// and already-resolved children, replacing sym's structural RHS
// expansion with the rule's annotation projection (§4.3, §4.10).
func (f *Forest) AddAbstractNode(name string, cost int, span earley.Span, children []*SymbolNode) *SymbolNode {
	return &SymbolNode{Extent: span, Kind: KindAnode, AnodeName: name, AnodeCost: cost, AnodeChildren: children}
}

func (sn *SymbolNode) costContribution() int {
	if sn == nil {
		return 0
	}
	if sn.Kind == KindAnode {
		return sn.AnodeCost
	}
	return 0
}

// annoCost returns a rule annotation's cost contribution, or 0 for
// unannotated rules (Anno is nil whenever a rule carries no "# name cost
// trans*" clause).
func annoCost(a *grammar.Annotation) int {
	if a == nil {
		return 0
	}
	return a.Cost
}
