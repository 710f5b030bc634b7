package lr

import "github.com/cforge/earley/internal/hashtab"

// EarleySet is a fully identified Earley set: a set core plus a parallel
// parent-distance vector recording, for each situation in the core (in
// the core's situation order), how many positions back each of its
// originating sets lies (§3). A situation can have more than one distinct
// origin at the same position — that is exactly what ambiguity from two
// different split points looks like — so Distances[k] is itself a slice,
// not a single int, one entry per distinct origin the core's k'th
// situation was reached from. Two Earley sets sharing a core but differing
// in distances are distinct sets.
type EarleySet struct {
	Core      *SetCore
	Distances [][]int
	Index     int
}

// EarleySetStore interns Earley sets for a single parse.
type EarleySetStore struct {
	table *hashtab.Table
	all   []*EarleySet
}

// NewEarleySetStore creates an empty, parse-scoped Earley-set store.
func NewEarleySetStore() *EarleySetStore {
	return &EarleySetStore{table: hashtab.New(hashEarleySet, eqEarleySet, 64)}
}

func hashEarleySet(key interface{}) uint64 {
	e := key.(*EarleySet)
	h := uint64(14695981039346656037)
	h = fnvMix(h, uint64(e.Core.Index)+1)
	for _, ds := range e.Distances {
		for _, d := range ds {
			h = fnvMix(h, uint64(d)+1)
		}
		h = fnvMix(h, 0x9e3779b97f4a7c15)
	}
	return h
}

func eqEarleySet(a, b interface{}) bool {
	x, y := a.(*EarleySet), b.(*EarleySet)
	if x.Core != y.Core || len(x.Distances) != len(y.Distances) {
		return false
	}
	for i := range x.Distances {
		if len(x.Distances[i]) != len(y.Distances[i]) {
			return false
		}
		for k := range x.Distances[i] {
			if x.Distances[i][k] != y.Distances[i][k] {
				return false
			}
		}
	}
	return true
}

// Intern returns the canonical Earley set for (core, distances),
// assigning a fresh Index on first occurrence. distances is retained by
// reference and must not be mutated by the caller afterward.
func (s *EarleySetStore) Intern(core *SetCore, distances [][]int) *EarleySet {
	probe := &EarleySet{Core: core, Distances: distances}
	if found, ok := s.table.Find(probe, true); ok {
		return found.(*EarleySet)
	}
	probe.Index = len(s.all)
	s.all = append(s.all, probe)
	return probe
}

// Get returns the Earley set with the given index.
func (s *EarleySetStore) Get(i int) *EarleySet { return s.all[i] }

// Len returns how many distinct Earley sets have been interned so far.
func (s *EarleySetStore) Len() int { return len(s.all) }
