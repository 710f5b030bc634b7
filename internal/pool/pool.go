// Package pool implements a fixed-size, intrusive free-list allocator over
// chunk blocks, modeled after a malloc-avoidance memory pool: items are
// pre-allocated in blocks of N, freed items are linked onto a free list for
// O(1) reuse, and the pool never returns memory to the host allocator
// until the whole pool is dropped.
//
// Unlike the C original this grounds on, Go items are values, not raw
// bytes, and the free list cannot be threaded through the item's own
// storage without unsafe code; instead each block is a slice of T and the
// free list holds indices into (block, slot) pairs.
package pool

// Pool is a fixed-size pool of items of type T, allocated in blocks.
type Pool[T any] struct {
	itemsPerBlock int
	blocks        [][]T
	freeList      []ref // free slots, LIFO
	next          ref   // next never-yet-used slot
}

type ref struct {
	block, slot int32
}

// New creates a pool that allocates in blocks of itemsPerBlock items
// (recommended 128–1024; values <= 0 default to 256).
func New[T any](itemsPerBlock int) *Pool[T] {
	if itemsPerBlock <= 0 {
		itemsPerBlock = 256
	}
	return &Pool[T]{itemsPerBlock: itemsPerBlock}
}

// Alloc returns a pointer to a fresh zero-valued T. Fast path: pop the free
// list. Slow path: bump within the current block, allocating a new block
// when the current one is exhausted.
func (p *Pool[T]) Alloc() *T {
	if n := len(p.freeList); n > 0 {
		r := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		item := &p.blocks[r.block][r.slot]
		var zero T
		*item = zero
		return item
	}
	if int(p.next.block) >= len(p.blocks) {
		p.blocks = append(p.blocks, make([]T, p.itemsPerBlock))
	}
	block := p.blocks[p.next.block]
	item := &block[p.next.slot]
	p.next.slot++
	if int(p.next.slot) == p.itemsPerBlock {
		p.next.slot = 0
		p.next.block++
	}
	return item
}

// Reset releases every item at once: it drops all blocks and the free
// list and starts allocation again from the first slot.
//
// Because Go has no pointer arithmetic, releasing a single item needs the
// (block, slot) coordinates that AllocIndexed hands out; items from plain
// Alloc cannot be released one by one. AllocIndexed/FreeIndex serve pools
// whose callers release individual items, and plain Alloc/Reset serve
// pools that are only ever torn down in bulk (the common case for
// per-parse situation/set-core pools, which are released all at once
// when a parse ends).
func (p *Pool[T]) Reset() {
	p.blocks = p.blocks[:0]
	p.freeList = p.freeList[:0]
	p.next = ref{}
}

// Handle is an opaque reference to a pool slot, returned by AllocIndexed.
type Handle struct{ r ref }

// AllocIndexed is like Alloc but also returns a Handle that can later be
// passed to FreeIndex to release the slot.
func (p *Pool[T]) AllocIndexed() (*T, Handle) {
	if n := len(p.freeList); n > 0 {
		r := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		item := &p.blocks[r.block][r.slot]
		var zero T
		*item = zero
		return item, Handle{r}
	}
	if int(p.next.block) >= len(p.blocks) {
		p.blocks = append(p.blocks, make([]T, p.itemsPerBlock))
	}
	r := p.next
	item := &p.blocks[r.block][r.slot]
	p.next.slot++
	if int(p.next.slot) == p.itemsPerBlock {
		p.next.slot = 0
		p.next.block++
	}
	return item, Handle{r}
}

// FreeIndex returns the slot identified by h to the free list in O(1).
func (p *Pool[T]) FreeIndex(h Handle) {
	p.freeList = append(p.freeList, h.r)
}

// Len reports how many blocks are currently allocated, for diagnostics.
func (p *Pool[T]) Len() int { return len(p.blocks) }
