package lr

import (
	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/utils"

	"github.com/cforge/earley/internal/hashtab"
)

// SetCore is the structural identity of an Earley set: the (ordered,
// deduplicated) vector of situation indices it contains, plus the count of
// those that are "start" situations — situations added directly by
// predict/scan at this position rather than reached by completion (used
// downstream when building the Earley set's parent-distance vector; see
// EarleySet). Two set cores with equal situation vectors and start counts
// are the same core, independent of which Earley set(s) they back — this
// mirrors the teacher's CFSM state identity (`lr/tables.go`), which never
// depends on anything but its item set.
type SetCore struct {
	Situations *arraylist.List // of int (situation index), in first-added order
	StartCount int
	Index      int
	posOf      map[int]int // situation index -> position within Situations
}

// PositionOf returns the position of situationIndex within the core's
// situation vector (and hence the index to use into an EarleySet's
// Distances array for that situation), or (-1, false) if the core does
// not contain it.
func (c *SetCore) PositionOf(situationIndex int) (int, bool) {
	p, ok := c.posOf[situationIndex]
	return p, ok
}

func (c *SetCore) situationSlice() []int {
	vals := c.Situations.Values()
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = v.(int)
	}
	return out
}

// SetCoreStore interns set cores for a single parse, using a hashtab index
// for O(1) average dedup (the teacher's `treeset`-based CFSM state store
// resolves duplicates by an O(log n) ordered-set comparator walk; here a
// hash table gives flat lookup while gods/utils.IntComparator still backs
// the ordering used when the core's final situation vector needs to be
// compared or displayed deterministically).
type SetCoreStore struct {
	table *hashtab.Table
	all   []*SetCore
}

// NewSetCoreStore creates an empty, parse-scoped set-core store.
func NewSetCoreStore() *SetCoreStore {
	return &SetCoreStore{table: hashtab.New(hashSetCore, eqSetCore, 64)}
}

func hashSetCore(key interface{}) uint64 {
	c := key.(*SetCore)
	h := uint64(14695981039346656037)
	h = fnvMix(h, uint64(c.StartCount))
	for _, s := range c.situationSlice() {
		h = fnvMix(h, uint64(s)+1)
	}
	return h
}

func eqSetCore(a, b interface{}) bool {
	x, y := a.(*SetCore), b.(*SetCore)
	if x.StartCount != y.StartCount {
		return false
	}
	xs, ys := x.situationSlice(), y.situationSlice()
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if xs[i] != ys[i] {
			return false
		}
	}
	return true
}

// Builder accumulates situation indices for a not-yet-interned core.
type Builder struct {
	situations *arraylist.List
	seen       map[int]int // situation index -> position
	startCount int
}

// NewBuilder starts a fresh set-core builder.
func NewBuilder() *Builder {
	return &Builder{situations: arraylist.New(), seen: make(map[int]int)}
}

// Add appends a situation index to the core being built, if not already
// present. isStart marks a situation added directly (predict/scan) rather
// than produced by completion.
func (b *Builder) Add(situationIndex int, isStart bool) {
	if _, ok := b.seen[situationIndex]; ok {
		return
	}
	b.seen[situationIndex] = b.situations.Size()
	b.situations.Add(situationIndex)
	if isStart {
		b.startCount++
	}
}

// Contains reports whether situationIndex has already been added.
func (b *Builder) Contains(situationIndex int) bool {
	_, ok := b.seen[situationIndex]
	return ok
}

// Len reports how many distinct situations have been added so far.
func (b *Builder) Len() int { return b.situations.Size() }

// Intern finalizes the builder into a canonical *SetCore, deduplicating
// against every core built so far in this store.
func (s *SetCoreStore) Intern(b *Builder) *SetCore {
	probe := &SetCore{Situations: b.situations, StartCount: b.startCount}
	if found, ok := s.table.Find(probe, true); ok {
		return found.(*SetCore)
	}
	probe.Index = len(s.all)
	probe.posOf = b.seen
	s.all = append(s.all, probe)
	return probe
}

// Get returns the set core with the given index.
func (s *SetCoreStore) Get(i int) *SetCore { return s.all[i] }

// Len returns how many distinct set cores have been interned so far.
func (s *SetCoreStore) Len() int { return len(s.all) }

// sortedSituations is a convenience for debug dumps: the core's situations
// sorted by index (not insertion order).
func sortedSituations(c *SetCore) []int {
	boxed := intsToInterfaces(c.situationSlice())
	utils.Sort(boxed, utils.IntComparator)
	out := make([]int, len(boxed))
	for i, v := range boxed {
		out[i] = v.(int)
	}
	return out
}

func intsToInterfaces(xs []int) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
