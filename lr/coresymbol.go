package lr

import "github.com/cforge/earley/internal/hashtab"

// coreSymbolKey identifies a (set core, grammar symbol) pair, the key a
// CoreSymbolVector is cached under.
type coreSymbolKey struct {
	core   int // SetCore.Index
	symbol int // grammar.Symbol.Index
}

// CoreSymbolVector caches, for one (set core, symbol) pair, the situation
// indices relevant to that symbol at that core: which situations transition
// on it (dot moves across an occurrence of symbol), which situations are
// reduces completing a rule whose LHS is symbol, and — for Leo's
// optimization — TransitiveTransition: the core's only situation that
// transitions on symbol, when there is exactly one (§4.8). It is a single
// hop; the parser's Leo step follows the chain across positions.
// A vector is computed once per (core, symbol) and reused for the whole
// parse, since set cores recur across many positions (§4.5's whole point).
type CoreSymbolVector struct {
	Transitions          []int
	Reduces              []int
	TransitiveTransition int // situation index, or -1 if none/not computed
}

// CoreSymbolStore caches CoreSymbolVectors across a parse.
type CoreSymbolStore struct {
	table *hashtab.Table
}

// NewCoreSymbolStore creates an empty, parse-scoped core-symbol cache.
func NewCoreSymbolStore() *CoreSymbolStore {
	return &CoreSymbolStore{table: hashtab.New(hashCoreSymbolEntry, eqCoreSymbolEntry, 128)}
}

type coreSymbolEntry struct {
	key coreSymbolKey
	vec *CoreSymbolVector
}

func hashCoreSymbolEntry(key interface{}) uint64 {
	k := entryKey(key)
	h := uint64(14695981039346656037)
	h = fnvMix(h, uint64(k.core))
	h = fnvMix(h, uint64(k.symbol))
	return h
}

func eqCoreSymbolEntry(a, b interface{}) bool {
	return entryKey(a) == entryKey(b)
}

// entryKey extracts the coreSymbolKey from either a bare query key or a
// stored *coreSymbolEntry, mirroring grammar's symbolKeyName pattern.
func entryKey(x interface{}) coreSymbolKey {
	switch v := x.(type) {
	case coreSymbolKey:
		return v
	case *coreSymbolEntry:
		return v.key
	default:
		panic("lr: unexpected core-symbol key type")
	}
}

// Get returns the cached vector for (core, symbol), or nil if nothing has
// been cached for that pair yet.
func (s *CoreSymbolStore) Get(core *SetCore, symbolIndex int) *CoreSymbolVector {
	k := coreSymbolKey{core: core.Index, symbol: symbolIndex}
	if found, ok := s.table.Find(k, false); ok {
		return found.(*coreSymbolEntry).vec
	}
	return nil
}

// Put caches vec for (core, symbol), overwriting any previous entry.
func (s *CoreSymbolStore) Put(core *SetCore, symbolIndex int, vec *CoreSymbolVector) {
	k := coreSymbolKey{core: core.Index, symbol: symbolIndex}
	s.table.Remove(k)
	s.table.Find(&coreSymbolEntry{key: k, vec: vec}, true)
}

// GetOrCompute returns the cached vector for (core, symbol), computing and
// caching it via compute if absent.
func (s *CoreSymbolStore) GetOrCompute(core *SetCore, symbolIndex int, compute func() *CoreSymbolVector) *CoreSymbolVector {
	if v := s.Get(core, symbolIndex); v != nil {
		return v
	}
	v := compute()
	s.Put(core, symbolIndex, v)
	return v
}
