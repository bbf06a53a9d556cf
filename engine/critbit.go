package engine

import (
	"math/big"

	"cosmossdk.io/math"
)

// SENTINEL represents a null slab index, matching the data model's
// u32::MAX convention.
const SENTINEL = ^uint32(0)

type nodeTag uint8

const (
	tagUninit nodeTag = iota
	tagInner
	tagLeaf
	tagFree
)

// node is the slab's tagged-union storage cell. Only the fields relevant
// to its tag are meaningful; this mirrors the discriminator-tagged byte
// layout the decoder reconstructs from raw account bytes.
type node struct {
	tag nodeTag

	// Inner
	prefixLen int
	children  [2]uint32

	// Leaf / Inner both carry a representative key; for a leaf it is
	// exactly the order's OrderID.
	key math.Int

	// Leaf
	ownerSlot     uint8
	tif           uint8
	owner         [32]byte
	quantity      uint64
	clientOrderID uint64

	// Free
	next uint32
}

// Leaf is the caller-facing view of a resting order, independent of its
// slab position.
type Leaf struct {
	NodeIndex     uint32
	OrderID       math.Int
	OwnerSlot     uint8
	TimeInForce   uint8
	Owner         [32]byte
	Quantity      uint64
	ClientOrderID uint64
}

func (n *node) toLeaf(idx uint32) Leaf {
	return Leaf{
		NodeIndex:     idx,
		OrderID:       n.key,
		OwnerSlot:     n.ownerSlot,
		TimeInForce:   n.tif,
		Owner:         n.owner,
		Quantity:      n.quantity,
		ClientOrderID: n.clientOrderID,
	}
}

// BookSide is a per-side critical-bit trie over 128-bit OrderIDs, backed
// by a slab of nodes with a free list instead of a pointer graph — the
// tree's parent/child relations are index lookups, never ownership.
type BookSide struct {
	MarketKey    [32]byte
	IsBids       bool
	LeafCount    uint32
	FreeListHead uint32
	Root         uint32
	nodes        []node
}

// NewBookSide constructs an empty side for the given market.
func NewBookSide(marketKey [32]byte, isBids bool) *BookSide {
	return &BookSide{
		MarketKey:    marketKey,
		IsBids:       isBids,
		Root:         SENTINEL,
		FreeListHead: SENTINEL,
	}
}

func (b *BookSide) alloc() uint32 {
	if b.FreeListHead != SENTINEL {
		idx := b.FreeListHead
		b.FreeListHead = b.nodes[idx].next
		return idx
	}
	b.nodes = append(b.nodes, node{})
	return uint32(len(b.nodes) - 1)
}

func (b *BookSide) free(idx uint32) {
	b.nodes[idx] = node{tag: tagFree, next: b.FreeListHead}
	b.FreeListHead = idx
}

// Insert places a new resting leaf in the tree. The in-memory slab grows
// as needed, so Insert always returns a nil error and never ErrTreeFull.
func (b *BookSide) Insert(leaf Leaf) (uint32, error) {
	newIdx := b.alloc()
	b.nodes[newIdx] = node{
		tag:           tagLeaf,
		key:           leaf.OrderID,
		ownerSlot:     leaf.OwnerSlot,
		tif:           leaf.TimeInForce,
		owner:         leaf.Owner,
		quantity:      leaf.Quantity,
		clientOrderID: leaf.ClientOrderID,
	}

	if b.Root == SENTINEL {
		b.Root = newIdx
		b.LeafCount++
		return newIdx, nil
	}

	newKey := leaf.OrderID

	// Find the existing leaf whose key shares the longest prefix with
	// newKey by walking guided purely by newKey's own bits.
	cur := b.Root
	for b.nodes[cur].tag == tagInner {
		bit := bitAt(newKey, b.nodes[cur].prefixLen)
		cur = b.nodes[cur].children[bit]
	}
	existingKey := b.nodes[cur].key

	cb := criticalBit(newKey, existingKey)

	// Re-walk from the root to find where the new inner node belongs:
	// the first point where the path's tested bit is no longer above cb.
	parent := SENTINEL
	parentDir := uint(0)
	cur = b.Root
	for b.nodes[cur].tag == tagInner && b.nodes[cur].prefixLen > cb {
		parent = cur
		dir := bitAt(newKey, b.nodes[cur].prefixLen)
		parentDir = dir
		cur = b.nodes[cur].children[dir]
	}

	innerIdx := b.alloc()
	dirNew := bitAt(newKey, cb)
	var children [2]uint32
	children[dirNew] = newIdx
	children[1-dirNew] = cur
	b.nodes[innerIdx] = node{tag: tagInner, prefixLen: cb, key: newKey, children: children}

	if parent == SENTINEL {
		b.Root = innerIdx
	} else {
		b.nodes[parent].children[parentDir] = innerIdx
	}
	b.LeafCount++
	return newIdx, nil
}

// Remove deletes the leaf with the given OrderID, collapsing the
// now-single-child inner node above it so the tree stays canonical.
func (b *BookSide) Remove(orderID math.Int) (quantity uint64, err error) {
	if b.Root == SENTINEL {
		return 0, ErrOrderNotFound
	}
	if b.nodes[b.Root].tag == tagLeaf {
		if !b.nodes[b.Root].key.Equal(orderID) {
			return 0, ErrOrderNotFound
		}
		qty := b.nodes[b.Root].quantity
		b.free(b.Root)
		b.Root = SENTINEL
		b.LeafCount--
		return qty, nil
	}

	grandparent := SENTINEL
	grandDir := uint(0)
	parent := SENTINEL
	parentDir := uint(0)
	cur := b.Root
	for b.nodes[cur].tag == tagInner {
		grandparent = parent
		grandDir = parentDir
		parent = cur
		dir := bitAt(orderID, b.nodes[cur].prefixLen)
		parentDir = dir
		cur = b.nodes[cur].children[dir]
	}
	if !b.nodes[cur].key.Equal(orderID) {
		return 0, ErrOrderNotFound
	}

	qty := b.nodes[cur].quantity
	sibling := b.nodes[parent].children[1-parentDir]
	if grandparent == SENTINEL {
		b.Root = sibling
	} else {
		b.nodes[grandparent].children[grandDir] = sibling
	}
	b.free(cur)
	b.free(parent)
	b.LeafCount--
	return qty, nil
}

// Best returns the leaf with the numerically smallest key on this side —
// the highest-priority resting order, regardless of side, since the
// OrderID codec already encodes bid/ask priority into key magnitude.
func (b *BookSide) Best() (Leaf, bool) {
	if b.Root == SENTINEL {
		return Leaf{}, false
	}
	cur := b.Root
	for b.nodes[cur].tag == tagInner {
		cur = b.nodes[cur].children[0]
	}
	return b.nodes[cur].toLeaf(cur), true
}

// Iterator is a lazy, non-restartable, in-order (best-first) walk over a
// BookSide's leaves, consumed one Next() call at a time.
type Iterator struct {
	side  *BookSide
	stack []uint32
}

// IterBestFirst begins a fresh traversal from the current tree state.
// Next reads the side's live node slab, so mutations made after this call
// are seen by, and can invalidate, the walk.
func (b *BookSide) IterBestFirst() *Iterator {
	it := &Iterator{side: b}
	if b.Root != SENTINEL {
		it.pushLeftSpine(b.Root)
	}
	return it
}

func (it *Iterator) pushLeftSpine(idx uint32) {
	for {
		it.stack = append(it.stack, idx)
		if it.side.nodes[idx].tag != tagInner {
			return
		}
		idx = it.side.nodes[idx].children[0]
	}
}

// Next returns the next leaf in best-first order, or false when exhausted.
func (it *Iterator) Next() (Leaf, bool) {
	for len(it.stack) > 0 {
		idx := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		n := &it.side.nodes[idx]
		if n.tag == tagLeaf {
			return n.toLeaf(idx), true
		}
		it.pushLeftSpine(n.children[1])
	}
	return Leaf{}, false
}

// criticalBit returns the position of the highest bit at which a and b
// disagree.
func criticalBit(a, b math.Int) int {
	x := new(big.Int).Xor(a.BigInt(), b.BigInt())
	return x.BitLen() - 1
}

// FreeListAcyclic walks the free list and reports whether it terminates
// at SENTINEL without revisiting a node — used by invariant tests.
func (b *BookSide) FreeListAcyclic() bool {
	seen := map[uint32]bool{}
	for cur := b.FreeListHead; cur != SENTINEL; cur = b.nodes[cur].next {
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return true
}
