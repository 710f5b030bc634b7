// Package lr implements the parser's per-parse working-set substrate:
// interned situations (dotted items plus an optional lookahead context),
// deduplicated set cores, Earley sets (core plus parent-distance vector),
// and core-symbol vectors caching per-(core,symbol) transition/reduction
// information, per §3 and §4.5.
//
// Everything here is built fresh for each parse and discarded at its end;
// identity (the Index fields) is only stable within one parse.
package lr

import (
	"github.com/cforge/earley/grammar"
	"github.com/cforge/earley/internal/hashtab"
)

// Situation is an Earley item with an optional lookahead context: the
// building block of a set core. Two situations are the same situation iff
// their (Rule, Dot, Ctx) triples are equal — Ctx participates in identity
// only at lookahead level 2; at levels 0/1 every situation carries a nil
// Ctx and dedup degenerates to plain dotted-item identity.
type Situation struct {
	Item  grammar.Item
	Ctx   *grammar.TermSet // nil unless level-2 lookahead is enabled
	Index int              // stable within this parse
}

// SituationStore interns situations for a single parse.
type SituationStore struct {
	table *hashtab.Table
	all   []*Situation
}

// NewSituationStore creates an empty, parse-scoped situation store.
func NewSituationStore() *SituationStore {
	return &SituationStore{table: hashtab.New(hashSituation, eqSituation, 256)}
}

func hashSituation(key interface{}) uint64 {
	s := key.(*Situation)
	h := uint64(14695981039346656037)
	h = fnvMix(h, uint64(s.Item.Rule.Serial))
	h = fnvMix(h, uint64(s.Item.Dot))
	if s.Ctx != nil {
		h = fnvMix(h, uint64(s.Ctx.Index)+1)
	}
	return h
}

func eqSituation(a, b interface{}) bool {
	x, y := a.(*Situation), b.(*Situation)
	if x.Item.Rule != y.Item.Rule || x.Item.Dot != y.Item.Dot {
		return false
	}
	if (x.Ctx == nil) != (y.Ctx == nil) {
		return false
	}
	return x.Ctx == nil || x.Ctx == y.Ctx || x.Ctx.Equal(y.Ctx)
}

func fnvMix(h, v uint64) uint64 {
	h ^= v
	h *= 1099511628211
	return h
}

// Intern returns the canonical situation for (item, ctx), assigning a
// fresh Index on first occurrence. ctx may be nil (lookahead levels 0/1).
func (s *SituationStore) Intern(item grammar.Item, ctx *grammar.TermSet) *Situation {
	probe := &Situation{Item: item, Ctx: ctx}
	if found, ok := s.table.Find(probe, true); ok {
		return found.(*Situation)
	}
	probe.Index = len(s.all)
	s.all = append(s.all, probe)
	return probe
}

// Get returns the situation with the given index.
func (s *SituationStore) Get(i int) *Situation { return s.all[i] }

// Len returns how many distinct situations have been interned so far.
func (s *SituationStore) Len() int { return len(s.all) }
