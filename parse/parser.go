// Package parse builds the Earley parser lists: bootstrap, per-token
// scan/predict/complete, lookahead filtering at three levels, and Leo's
// right-recursion optimization, then hands the recognized derivation to
// the sppf package's forest builder. Error recovery (recovery.go) and the
// translate step (translate.go) that turns a recognized derivation into
// an SPPF live alongside it in this package.
//
// The core loop is a direct generalization of the teacher's
// lr/earley/earley.go: the same bootstrap/setupNextState/innerLoop/scan/
// predict/complete decomposition, extended with lookahead contexts and
// Leo short-circuiting.
package parse

import (
	"fmt"

	"github.com/cnf/structhash"
	"github.com/npillmayer/schuko/tracing"

	"github.com/cforge/earley"
	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/lr"
	"github.com/cforge/earley/scanner"
	"github.com/cforge/earley/sppf"
)

func tracer() tracing.Trace {
	return tracing.Select("earley.parse")
}

// LookaheadLevel selects how much lookahead the parser uses to filter
// predictions, per §4.6.
type LookaheadLevel int

const (
	// LookaheadNone performs no filtering: every rule of a predicted
	// nonterminal is added regardless of the current token.
	LookaheadNone LookaheadLevel = 0
	// LookaheadStatic filters predictions against a once-computed, local
	// FIRST-of-tail set; it does not thread context through completion.
	LookaheadStatic LookaheadLevel = 1
	// LookaheadDynamic additionally tags situations with the context that
	// admitted them, propagating that context through completion.
	LookaheadDynamic LookaheadLevel = 2
)

// LeoStats reports usage of Leo's optimization for a completed parse
// (exposed at the public boundary as get_leo_stats).
type LeoStats struct {
	TransitiveChainsBuilt int
	TransitiveChainsUsed  int
}

// Parser is an Earley parser for one grammar; create one with NewParser
// and reuse it across many Parse calls (each Parse call resets the
// per-parse stores).
type Parser struct {
	g *grammar.Grammar

	lookahead     LookaheadLevel
	oneParse      bool
	costFlag      bool
	recovery      bool
	recoveryMatch int
	debugLevel    int

	situations *lr.SituationStore
	cores      *lr.SetCoreStore
	earleySets *lr.EarleySetStore
	csv        *lr.CoreSymbolStore

	building   []*stateBuilder
	finalized  []*lr.EarleySet
	tokens     []earley.Token

	backlinks map[string]grammar.Item
	leoStats  LeoStats

	forest *sppf.Forest

	lastError       error
	lastErrorCode   ErrorCode
	recoveredTokens []int // indices of tokens skipped by error recovery, most recent parse
}

// Option configures a Parser.
type Option func(*Parser)

// WithLookaheadLevel sets the lookahead filtering level (default:
// LookaheadNone).
func WithLookaheadLevel(level LookaheadLevel) Option {
	return func(p *Parser) { p.lookahead = level }
}

// WithOneParse restricts the recognized derivation to a single,
// minimum-cost parse rather than preserving the full ambiguous forest.
func WithOneParse(b bool) Option { return func(p *Parser) { p.oneParse = b } }

// WithCost records the cost flag (§4.10). The parser stores it but never
// reads it: WithOneParse selection picks the minimum-cost alternative
// whether or not the flag is set.
func WithCost(b bool) Option { return func(p *Parser) { p.costFlag = b } }

// WithErrorRecovery enables bounded resynchronization on a syntax error
// (§4.9) instead of failing the parse immediately.
func WithErrorRecovery(b bool) Option { return func(p *Parser) { p.recovery = b } }

// WithRecoveryMatch records the resynchronization threshold K (§4.9). The
// value is stored but not used: recovery does not check that tokens after
// a resume point parse cleanly before accepting it (see tryRecover).
func WithRecoveryMatch(k int) Option { return func(p *Parser) { p.recoveryMatch = k } }

// WithDebugLevel records a debug level. The parser stores it but never
// reads it; it does not change tracing output.
func WithDebugLevel(level int) Option { return func(p *Parser) { p.debugLevel = level } }

// NewParser creates a parser for the finalized grammar g.
func NewParser(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{g: g, recoveryMatch: 3}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LeoStats returns Leo-optimization usage counters for the most recent
// Parse call.
func (p *Parser) LeoStats() LeoStats { return p.leoStats }

// ParseForest returns the parse forest built by the most recent Parse
// call, or nil if none was built (e.g. the parse failed, or no forest was
// requested).
func (p *Parser) ParseForest() *sppf.Forest { return p.forest }

// stateBuilder accumulates the work-list of (situation, origin) pairs
// being discovered for one not-yet-finalized Earley set.
type stateBuilder struct {
	items      []workItem
	seen       map[workKey]struct{}
	sitOrder   []int
	origins    map[int][]int
	isStartSit map[int]bool
}

type workItem struct {
	sit    *lr.Situation
	origin int
}

type workKey struct{ sit, origin int }

func newStateBuilder() *stateBuilder {
	return &stateBuilder{
		seen:       make(map[workKey]struct{}),
		origins:    make(map[int][]int),
		isStartSit: make(map[int]bool),
	}
}

func (sb *stateBuilder) add(sit *lr.Situation, origin int, isStart bool) bool {
	k := workKey{sit.Index, origin}
	if _, ok := sb.seen[k]; ok {
		if isStart {
			sb.isStartSit[sit.Index] = true
		}
		return false
	}
	sb.seen[k] = struct{}{}
	sb.items = append(sb.items, workItem{sit, origin})
	if _, ok := sb.origins[sit.Index]; !ok {
		sb.sitOrder = append(sb.sitOrder, sit.Index)
	}
	sb.origins[sit.Index] = append(sb.origins[sit.Index], origin)
	if isStart {
		sb.isStartSit[sit.Index] = true
	}
	return true
}

// tokTypeOf converts a client token's type to the grammar's internal
// token-code type.
func tokTypeOf(t earley.Token) grammar.TokType {
	return grammar.TokType(t.TokType())
}

// Parse runs the parser over the token stream produced by scan. It
// returns whether the input was accepted; on rejection without error
// recovery, ErrorMessage/ErrorCode (via LastError) describe the failure.
func (p *Parser) Parse(scan scanner.Tokenizer) (accept bool, err error) {
	p.situations = lr.NewSituationStore()
	p.cores = lr.NewSetCoreStore()
	p.earleySets = lr.NewEarleySetStore()
	p.csv = lr.NewCoreSymbolStore()
	p.backlinks = make(map[string]grammar.Item)
	p.leoStats = LeoStats{}
	p.forest = nil
	p.lastError = nil
	p.recoveredTokens = nil

	scan.SetErrorHandler(func(e error) { err = e })

	startRule := p.g.AugmentedStartRule()
	startSit := p.situations.Intern(grammar.StartItem(startRule), p.initialCtx())

	p.building = []*stateBuilder{newStateBuilder()}
	p.building[0].add(startSit, 0, true)
	p.tokens = p.tokens[:0]
	p.finalized = p.finalized[:0]

	pos := 0
	tok := scan.NextToken()
	p.tokens = append(p.tokens, tok)
	for {
		for len(p.building) <= pos+1 {
			p.building = append(p.building, newStateBuilder())
		}
		p.runInnerLoop(pos, tok)
		core, eset := p.finalizeState(pos)
		if core.Situations.Size() == 0 && pos > 0 {
			if p.recovery {
				if recPos, ok := p.tryRecover(pos, scan); ok {
					pos = recPos
					continue
				}
			}
			p.lastErrorCode = ParseSyntax
			p.lastError = fmt.Errorf("parse: no viable continuation at token %d (%q)", pos, tok.Lexeme())
			return false, p.lastError
		}
		if pos < len(p.finalized) {
			p.finalized[pos] = eset
		} else {
			p.finalized = append(p.finalized, eset)
		}
		if int(tok.TokType()) == scanner.EOF {
			// tok (the EOF / $end terminal) was scanned out of
			// building[pos] into building[pos+1] by runInnerLoop above;
			// that successor state still needs its own predict/complete
			// closure before checkAccept can see the completed
			// augmented start item.
			pos++
			for len(p.building) <= pos {
				p.building = append(p.building, newStateBuilder())
			}
			p.runInnerLoop(pos, tok)
			_, eset = p.finalizeState(pos)
			p.finalized = append(p.finalized, eset)
			break
		}
		pos++
		tok = scan.NextToken()
		p.tokens = append(p.tokens, tok)
	}

	accept = p.checkAccept(pos)
	if !accept {
		p.lastErrorCode = ParseSyntax
		p.lastError = fmt.Errorf("parse: input rejected, no accepting item in final state")
		return false, p.lastError
	}
	if err == nil && accept {
		if buildErr := p.buildForest(); buildErr != nil {
			return true, buildErr
		}
	}
	return true, err
}

func (p *Parser) initialCtx() *grammar.TermSet {
	if p.lookahead < LookaheadDynamic {
		return nil
	}
	return p.g.TermSets().Empty()
}

// runInnerLoop drains the work-list for position pos, applying scan,
// predict, and complete to every (situation, origin) pair as it is
// discovered — mirroring the teacher's innerLoop over an iteratable.Set.
func (p *Parser) runInnerLoop(pos int, tok earley.Token) {
	sb := p.building[pos]
	for cursor := 0; cursor < len(sb.items); cursor++ {
		it := sb.items[cursor]
		p.scan(pos, it, tok)
		p.predict(pos, it)
		p.complete(pos, it)
	}
}

// scan: if [A -> ... . a ..., j] is in Si and a matches the current
// token, add [A -> ... a . ..., j] to Si+1.
func (p *Parser) scan(pos int, it workItem, tok earley.Token) {
	sym := it.sit.Item.PeekSymbol()
	if sym == nil || !sym.IsTerminal() {
		return
	}
	if sym.TokenType() != tokTypeOf(tok) {
		return
	}
	advanced := it.sit.Item.Advance()
	asit := p.situations.Intern(advanced, it.sit.Ctx)
	p.building[pos+1].add(asit, it.origin, true)
}

// predict: if [A -> ... . B ..., j] is in Si, add [B -> . gamma, i] to Si
// for every rule B -> gamma (filtered by lookahead level), plus
// [A -> ... B . ..., j] if B is nullable.
func (p *Parser) predict(pos int, it workItem) {
	B := it.sit.Item.PeekSymbol()
	if B == nil || B.IsTerminal() {
		return
	}
	filter := p.predictionFilter(it)
	for _, r := range B.Rules() {
		if filter != nil && !p.ruleSurvivesFilter(r, filter) {
			continue
		}
		ctx := it.sit.Ctx
		if p.lookahead >= LookaheadDynamic {
			ctx = filter
		}
		startSit := p.situations.Intern(grammar.StartItem(r), ctx)
		p.building[pos].add(startSit, pos, true)
	}
	if B.Nullable() {
		advanced := it.sit.Item.Advance()
		asit := p.situations.Intern(advanced, it.sit.Ctx)
		p.building[pos].add(asit, it.origin, false)
	}
}

// predictionFilter computes the local term set that must contain the
// current input's eventual token for a prediction to be worth making
// (§4.6), or nil if lookahead filtering is disabled.
func (p *Parser) predictionFilter(it workItem) *grammar.TermSet {
	if p.lookahead == LookaheadNone {
		return nil
	}
	tail := it.sit.Item.Tail()[1:] // symbols after B
	filter := p.g.TermSets().New()
	nullableTail := true
	for _, s := range tail {
		filter.Union(s.First())
		if s.IsTerminal() || !s.Nullable() {
			nullableTail = false
			break
		}
	}
	if nullableTail {
		if it.sit.Ctx != nil {
			filter.Union(it.sit.Ctx)
		} else {
			filter.Union(it.sit.Item.Rule.LHS.Follow())
		}
	}
	return p.g.TermSets().Intern(filter)
}

func (p *Parser) ruleSurvivesFilter(r *grammar.Rule, filter *grammar.TermSet) bool {
	if len(r.RHS()) == 0 {
		return true // epsilon rules always survive; their effect is nullable propagation
	}
	first := r.RHS()[0].First()
	if first == nil {
		return true
	}
	for i := 0; i < p.g.NumTerminals(); i++ {
		if first.Has(i) && filter.Has(i) {
			return true
		}
	}
	return r.RHS()[0].Nullable()
}

// complete: if [A -> ..., j] is in Si (dot at the end), add
// [B -> ... A . ..., k] to Si for every [B -> ... . A ..., k] in Sj.
func (p *Parser) complete(pos int, it workItem) {
	if it.sit.Item.PeekSymbol() != nil {
		return
	}
	A := it.sit.Item.Rule.LHS
	j := it.origin
	if j == pos {
		p.completeFromBuilding(pos, it, A)
		return
	}
	p.completeFromFinalized(pos, it, A, j)
}

func (p *Parser) completeFromBuilding(pos int, it workItem, A *grammar.Symbol) {
	sb := p.building[pos]
	// snapshot length: predecessors discovered later in this same pass
	// are picked up naturally since the cursor in runInnerLoop keeps
	// draining sb.items as it grows.
	n := len(sb.items)
	for k := 0; k < n; k++ {
		cand := sb.items[k]
		if cand.sit.Item.PeekSymbol() != A {
			continue
		}
		p.advanceAndAdd(pos, cand, it)
	}
}

func (p *Parser) completeFromFinalized(pos int, it workItem, A *grammar.Symbol, j int) {
	if sitIdx, origin, ok := p.leoShortcut(j, A); ok {
		cand := workItem{p.situations.Get(sitIdx), origin}
		p.advanceAndAdd(pos, cand, it)
		p.leoStats.TransitiveChainsUsed++
		return
	}
	core := p.finalized[j].Core
	vec := p.csv.GetOrCompute(core, A.Index, func() *lr.CoreSymbolVector {
		return p.computeCoreSymbolVector(core, A)
	})
	eset := p.finalized[j]
	for _, sitIdx := range vec.Transitions {
		k, ok := core.PositionOf(sitIdx)
		if !ok {
			continue
		}
		for _, dist := range eset.Distances[k] {
			origin := j - dist
			cand := workItem{p.situations.Get(sitIdx), origin}
			p.advanceAndAdd(pos, cand, it)
		}
	}
}

func (p *Parser) computeCoreSymbolVector(core *lr.SetCore, A *grammar.Symbol) *lr.CoreSymbolVector {
	vec := &lr.CoreSymbolVector{TransitiveTransition: -1}
	for _, v := range core.Situations.Values() {
		sitIdx := v.(int)
		sit := p.situations.Get(sitIdx)
		if sit.Item.PeekSymbol() == A {
			vec.Transitions = append(vec.Transitions, sitIdx)
		}
		if sit.Item.PeekSymbol() == nil && sit.Item.Rule.LHS == A {
			vec.Reduces = append(vec.Reduces, sitIdx)
		}
	}
	// A core with exactly one situation waiting on A is a candidate link
	// in a Leo deterministic-reduction chain (§4.8); leoShortcut decides,
	// position by position, how far the chain actually extends.
	if len(vec.Transitions) == 1 {
		vec.TransitiveTransition = vec.Transitions[0]
	}
	return vec
}

func (p *Parser) advanceAndAdd(pos int, predecessor, completing workItem) {
	advanced := predecessor.sit.Item.Advance()
	asit := p.situations.Intern(advanced, predecessor.sit.Ctx)
	added := p.building[pos].add(asit, predecessor.origin, false)
	if advanced.PeekSymbol() == nil {
		h := backlinkHash(asit.Index, pos)
		if _, exists := p.backlinks[h]; !exists {
			p.backlinks[h] = completing.sit.Item
		}
	}
	_ = added
}

func backlinkHash(situationIndex, pos int) string {
	h, err := structhash.Hash(struct {
		Sit int
		Pos int
	}{situationIndex, pos}, 1)
	if err != nil {
		panic(err)
	}
	return h
}

// finalizeState closes out position pos's work-list into an interned
// SetCore/EarleySet pair.
func (p *Parser) finalizeState(pos int) (*lr.SetCore, *lr.EarleySet) {
	sb := p.building[pos]
	b := lr.NewBuilder()
	for _, sitIdx := range sb.sitOrder {
		b.Add(sitIdx, sb.isStartSit[sitIdx])
	}
	core := p.cores.Intern(b)
	distances := make([][]int, len(sb.sitOrder))
	for k, sitIdx := range sb.sitOrder {
		origins := sb.origins[sitIdx]
		ds := make([]int, len(origins))
		for oi, org := range origins {
			ds[oi] = pos - org
		}
		distances[k] = ds
	}
	eset := p.earleySets.Intern(core, distances)
	tracer().Debugf("state %d: %d situations", pos, core.Situations.Size())
	return core, eset
}

// checkAccept reports whether the final state contains a completed
// augmented start item.
func (p *Parser) checkAccept(pos int) bool {
	sb := p.building[pos]
	start := p.g.AugmentedStart()
	for _, it := range sb.items {
		if it.sit.Item.PeekSymbol() == nil && it.sit.Item.Rule.LHS == start && it.origin == 0 {
			return true
		}
	}
	return false
}
