// Package aggregator rebuilds per-market order book aggregations from
// decoded book-side leaves and serves top-of-book reads.
package aggregator

import (
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 32

// Side mirrors engine.Side but is defined independently: the aggregator
// consumes decoder output and has no compile-time dependency on the
// matching engine.
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

// OrderInput is one decoded leaf's contribution to a price level, as
// sourced from a decoder.BookSide leaf list.
type OrderInput struct {
	Price    uint64
	Quantity uint64
}

// PriceLevel is one aggregated rung of the book.
type PriceLevel struct {
	Price      uint64
	Quantity   uint64
	OrderCount uint32
}

// Change describes one price level's movement between two aggregations;
// NewQuantity == 0 denotes the level was removed entirely.
type Change struct {
	Side        Side
	Price       uint64
	NewQuantity uint64
	OrderCount  uint32
}

type priceLevelItem struct {
	price uint64
	level PriceLevel
}

func (a *priceLevelItem) Less(b btree.Item) bool {
	return a.price < b.(*priceLevelItem).price
}

// bookSide holds one side's aggregated price levels in a sorted tree;
// bids iterate descending, asks ascending.
type bookSide struct {
	tree *btree.BTree
	desc bool
}

func newBookSide(desc bool) *bookSide {
	return &bookSide{tree: btree.New(btreeDegree), desc: desc}
}

func (s *bookSide) get(price uint64) (PriceLevel, bool) {
	item := s.tree.Get(&priceLevelItem{price: price})
	if item == nil {
		return PriceLevel{}, false
	}
	return item.(*priceLevelItem).level, true
}

func (s *bookSide) set(level PriceLevel) {
	s.tree.ReplaceOrInsert(&priceLevelItem{price: level.Price, level: level})
}

func (s *bookSide) best() (PriceLevel, bool) {
	var item btree.Item
	if s.desc {
		item = s.tree.Max()
	} else {
		item = s.tree.Min()
	}
	if item == nil {
		return PriceLevel{}, false
	}
	return item.(*priceLevelItem).level, true
}

func (s *bookSide) top(depth int) []PriceLevel {
	out := make([]PriceLevel, 0)
	iter := func(item btree.Item) bool {
		out = append(out, item.(*priceLevelItem).level)
		return depth <= 0 || len(out) < depth
	}
	if s.desc {
		s.tree.Descend(iter)
	} else {
		s.tree.Ascend(iter)
	}
	return out
}

// FullBook is one market's live aggregation: two price-sorted trees plus
// the bookkeeping the read surface needs (last applied slot, monotone
// aggregator sequence).
type FullBook struct {
	mu       sync.RWMutex
	Market   [32]byte
	bids     *bookSide
	asks     *bookSide
	LastSlot uint64
	Seq      uint64
}

// NewFullBook constructs an empty aggregation for a market.
func NewFullBook(market [32]byte) *FullBook {
	return &FullBook{
		Market: market,
		bids:   newBookSide(true),
		asks:   newBookSide(false),
	}
}

func (b *FullBook) side(s Side) *bookSide {
	if s == SideBid {
		return b.bids
	}
	return b.asks
}

// ApplyUpdate rebuilds one side's aggregation from a replacement set of
// orders, computes the symmetric difference against the prior
// aggregation, bumps last_slot and seq, and returns the changes. The
// emitted order is implementation-defined — callers treat it as an
// unordered set.
func (b *FullBook) ApplyUpdate(s Side, orders []OrderInput, slot uint64) []Change {
	b.mu.Lock()
	defer b.mu.Unlock()

	grouped := make(map[uint64]*PriceLevel)
	order := make([]uint64, 0, len(orders))
	for _, o := range orders {
		lvl, ok := grouped[o.Price]
		if !ok {
			lvl = &PriceLevel{Price: o.Price}
			grouped[o.Price] = lvl
			order = append(order, o.Price)
		}
		lvl.Quantity += o.Quantity
		lvl.OrderCount++
	}

	cur := b.side(s)
	next := newBookSide(cur.desc)
	changes := make([]Change, 0)

	seen := make(map[uint64]bool, len(order))
	for _, price := range order {
		lvl := *grouped[price]
		seen[price] = true
		next.set(lvl)
		if old, ok := cur.get(price); !ok || old.Quantity != lvl.Quantity || old.OrderCount != lvl.OrderCount {
			changes = append(changes, Change{Side: s, Price: lvl.Price, NewQuantity: lvl.Quantity, OrderCount: lvl.OrderCount})
		}
	}
	for _, old := range cur.top(0) {
		if !seen[old.Price] {
			changes = append(changes, Change{Side: s, Price: old.Price, NewQuantity: 0, OrderCount: 0})
		}
	}

	if s == SideBid {
		b.bids = next
	} else {
		b.asks = next
	}
	b.LastSlot = slot
	b.Seq++
	return changes
}

// BestBid returns the highest bid level, if any.
func (b *FullBook) BestBid() (PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.best()
}

// BestAsk returns the lowest ask level, if any.
func (b *FullBook) BestAsk() (PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.best()
}

// Spread returns best_ask.price - best_bid.price, if both sides are
// non-empty and the book is not crossed (best ask below best bid).
func (b *FullBook) Spread() (uint64, bool) {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	if !ok1 || !ok2 || ask.Price < bid.Price {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// Mid returns (best_bid.price + best_ask.price) / 2, if both sides are non-empty.
func (b *FullBook) Mid() (uint64, bool) {
	bid, ok1 := b.BestBid()
	ask, ok2 := b.BestAsk()
	if !ok1 || !ok2 {
		return 0, false
	}
	return (bid.Price + ask.Price) / 2, true
}

// Snapshot returns aggregated top-depth bids (descending) and asks
// (ascending); depth == 0 means all levels.
func (b *FullBook) Snapshot(depth int) (bids, asks []PriceLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.top(depth), b.asks.top(depth)
}
