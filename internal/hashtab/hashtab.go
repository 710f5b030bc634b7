// Package hashtab implements an open-addressed hash table with tombstone
// deletion, caller-supplied hash/equality callbacks, and a resize policy
// that doubles the table and discards tombstones once load (live entries
// plus tombstones) exceeds half of capacity.
//
// This mirrors the shape of a classic C hash-table package (size,
// number_of_elements, number_of_deleted_elements, searches, collisions
// counters, a hash_function/eq_function pair, find/remove/empty
// operations) rather than wrapping Go's builtin map, because the engine
// needs slot-stability guarantees a builtin map does not offer: a found
// slot's pointer (here: index) remains valid until the next resize.
package hashtab

// entryState tags a slot.
type entryState uint8

const (
	stateEmpty entryState = iota
	stateLive
	stateDeleted // tombstone
)

// HashFunc computes a hash for a key. Implementations need not be
// cryptographically strong; they must be deterministic for equal keys.
type HashFunc func(key interface{}) uint64

// EqFunc reports whether two keys are considered equal.
type EqFunc func(a, b interface{}) bool

// Table is an open-addressed hash table over opaque keys.
type Table struct {
	hash EqHashPair
	slots []slot
	live  int
	dead  int

	Searches   int // diagnostic: number of Find calls
	Collisions int // diagnostic: number of probe steps beyond the first
}

// EqHashPair bundles the two caller-supplied callbacks.
type EqHashPair struct {
	Hash HashFunc
	Eq   EqFunc
}

type slot struct {
	state entryState
	key   interface{}
}

const minSlots = 8

// New creates a table with the given callbacks and an initial size hint
// (rounded up to the next power of two, minimum 8).
func New(hash HashFunc, eq EqFunc, sizeHint int) *Table {
	n := minSlots
	for n < sizeHint {
		n <<= 1
	}
	return &Table{
		hash:  EqHashPair{Hash: hash, Eq: eq},
		slots: make([]slot, n),
	}
}

// Size returns the number of slots currently allocated.
func (t *Table) Size() int { return len(t.slots) }

// Len returns the number of live (non-deleted) entries.
func (t *Table) Len() int { return t.live }

// Find probes for key. If found, it returns the stored key and true. If
// not found and reserve is true, the slot is reserved (marked live with
// key stored) so the caller's key becomes canonical for future lookups;
// the returned bool is then false to signal "was not already present."
// If not found and reserve is false, Find leaves the table unchanged and
// returns (nil, false).
func (t *Table) Find(key interface{}, reserve bool) (interface{}, bool) {
	t.Searches++
	if t.live+t.dead > len(t.slots)/2 {
		t.grow()
	}
	mask := uint64(len(t.slots) - 1)
	h := t.hash.Hash(key)
	idx := h & mask
	firstTomb := -1
	probes := 0
	for {
		s := &t.slots[idx]
		switch s.state {
		case stateEmpty:
			if reserve {
				slotIdx := idx
				if firstTomb >= 0 {
					slotIdx = uint64(firstTomb)
					t.dead--
				}
				t.slots[slotIdx] = slot{state: stateLive, key: key}
				t.live++
			}
			if probes > 0 {
				t.Collisions += probes
			}
			return nil, false
		case stateDeleted:
			if firstTomb < 0 {
				firstTomb = int(idx)
			}
		case stateLive:
			if t.hash.Eq(s.key, key) {
				if probes > 0 {
					t.Collisions += probes
				}
				return s.key, true
			}
		}
		idx = (idx + 1) & mask
		probes++
		if probes > len(t.slots) {
			// Every slot probed (shouldn't happen given the 50% load
			// factor discipline); treat as not found.
			return nil, false
		}
	}
}

// Remove marks key's slot, if present, as a tombstone.
func (t *Table) Remove(key interface{}) bool {
	mask := uint64(len(t.slots) - 1)
	h := t.hash.Hash(key)
	idx := h & mask
	for probes := 0; probes <= len(t.slots); probes++ {
		s := &t.slots[idx]
		switch s.state {
		case stateEmpty:
			return false
		case stateLive:
			if t.hash.Eq(s.key, key) {
				s.state = stateDeleted
				s.key = nil
				t.live--
				t.dead++
				return true
			}
		}
		idx = (idx + 1) & mask
	}
	return false
}

// Empty clears all slots, discarding live entries and tombstones alike.
func (t *Table) Empty() {
	for i := range t.slots {
		t.slots[i] = slot{}
	}
	t.live, t.dead = 0, 0
}

// Each calls fn for every live entry, in slot order. fn must not mutate
// the table.
func (t *Table) Each(fn func(key interface{})) {
	for i := range t.slots {
		if t.slots[i].state == stateLive {
			fn(t.slots[i].key)
		}
	}
}

// grow doubles the table size and discards tombstones, rehashing every
// live entry into the fresh slot array.
func (t *Table) grow() {
	old := t.slots
	t.slots = make([]slot, len(old)*2)
	t.live, t.dead = 0, 0
	mask := uint64(len(t.slots) - 1)
	for _, s := range old {
		if s.state != stateLive {
			continue
		}
		h := t.hash.Hash(s.key)
		idx := h & mask
		for t.slots[idx].state == stateLive {
			idx = (idx + 1) & mask
		}
		t.slots[idx] = slot{state: stateLive, key: s.key}
		t.live++
	}
}

// CollisionPercentage returns the number of probes past the first slot per
// 100 Find calls (since creation or the last reset of the counters), for
// diagnostics parity with the source engine's instrumentation. It can
// exceed 100 when single calls probe several slots.
func (t *Table) CollisionPercentage() int {
	if t.Searches == 0 {
		return 0
	}
	return (t.Collisions * 100) / t.Searches
}
