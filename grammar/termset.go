package grammar

import "github.com/cforge/earley/internal/hashtab"

// TermSet is a deduplicated bitset over the terminal index space, used to
// encode lookahead contexts (§3, §4.6). Two term sets with equal bitsets
// share a single interned representative — callers get that guarantee by
// always going through a termSetInterner rather than constructing TermSets
// directly.
type TermSet struct {
	bits  []uint64
	Index int // stable identity, assigned on first interning
}

func newTermSet(nbits int) *TermSet {
	return &TermSet{bits: make([]uint64, (nbits+63)/64)}
}

// Set marks terminal index i as present.
func (t *TermSet) Set(i int) {
	w, b := i/64, uint(i%64)
	for len(t.bits) <= w {
		t.bits = append(t.bits, 0)
	}
	t.bits[w] |= 1 << b
}

// Has reports whether terminal index i is present.
func (t *TermSet) Has(i int) bool {
	w, b := i/64, uint(i%64)
	if w >= len(t.bits) {
		return false
	}
	return t.bits[w]&(1<<b) != 0
}

// Union destructively unions other into t, returning whether t changed.
func (t *TermSet) Union(other *TermSet) bool {
	if other == nil {
		return false
	}
	changed := false
	for len(t.bits) < len(other.bits) {
		t.bits = append(t.bits, 0)
	}
	for i, w := range other.bits {
		if t.bits[i]|w != t.bits[i] {
			t.bits[i] |= w
			changed = true
		}
	}
	return changed
}

// Equal reports whether t and other contain the same terminals.
func (t *TermSet) Equal(other *TermSet) bool {
	if t == other {
		return true
	}
	if other == nil {
		return t.Empty()
	}
	n := len(t.bits)
	if len(other.bits) > n {
		n = len(other.bits)
	}
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(t.bits) {
			a = t.bits[i]
		}
		if i < len(other.bits) {
			b = other.bits[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// Empty reports whether no terminal is set.
func (t *TermSet) Empty() bool {
	for _, w := range t.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// AppendTo appends every present terminal index to dst, in increasing
// order, and returns the extended slice.
func (t *TermSet) AppendTo(dst []int) []int {
	for w, word := range t.bits {
		for word != 0 {
			b := trailingZeros64(word)
			dst = append(dst, w*64+b)
			word &= word - 1
		}
	}
	return dst
}

func trailingZeros64(x uint64) int {
	if x == 0 {
		return 64
	}
	n := 0
	for x&1 == 0 {
		n++
		x >>= 1
	}
	return n
}

func (t *TermSet) hashKey() uint64 {
	h := uint64(1469598103934665603)
	for _, w := range t.bits {
		h ^= w
		h *= 1099511628211
	}
	return h
}

// termSetInterner deduplicates term sets by structural hash, per §4.6.
type termSetInterner struct {
	table  *hashtab.Table
	all    []*TermSet
	nbits  int
}

func newTermSetInterner(nbits int) *termSetInterner {
	i := &termSetInterner{nbits: nbits}
	i.table = hashtab.New(hashTermSet, eqTermSet, 64)
	return i
}

func hashTermSet(key interface{}) uint64 {
	return key.(*TermSet).hashKey()
}

func eqTermSet(a, b interface{}) bool {
	return a.(*TermSet).Equal(b.(*TermSet))
}

// Intern returns the canonical representative equal to t (which must not
// be reused by the caller afterwards), assigning it a stable Index on
// first occurrence.
func (i *termSetInterner) Intern(t *TermSet) *TermSet {
	if found, ok := i.table.Find(t, true); ok {
		return found.(*TermSet)
	}
	t.Index = len(i.all)
	i.all = append(i.all, t)
	return t
}

// Empty returns the canonical empty term set (lookahead level 0, or the
// seed context before any FIRST/FOLLOW contribution).
func (i *termSetInterner) Empty() *TermSet {
	return i.Intern(newTermSet(i.nbits))
}

// New starts a fresh, not-yet-interned term set with the right capacity.
func (i *termSetInterner) New() *TermSet {
	return newTermSet(i.nbits)
}
