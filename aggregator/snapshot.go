package aggregator

import "sync"

// Delta wraps a caller-supplied change list with the aggregator's
// current per-market sequence, for publication to subscribers.
type Delta struct {
	Market  [32]byte
	Seq     uint64
	Slot    uint64
	Changes []Change
}

// Snapshot is a point-in-time read of a market's top-of-book.
type Snapshot struct {
	Market [32]byte
	Slot   uint64
	Seq    uint64
	Bids   []PriceLevel
	Asks   []PriceLevel
}

// Aggregator owns one FullBook per market behind a reader-writer guard:
// many concurrent snapshot reads, one exclusive applier per market.
type Aggregator struct {
	mu    sync.RWMutex
	books map[[32]byte]*FullBook
}

// NewAggregator constructs an empty multi-market aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{books: make(map[[32]byte]*FullBook)}
}

func (a *Aggregator) bookFor(market [32]byte) *FullBook {
	a.mu.RLock()
	b, ok := a.books[market]
	a.mu.RUnlock()
	if ok {
		return b
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.books[market]; ok {
		return b
	}
	b = NewFullBook(market)
	a.books[market] = b
	return b
}

// ApplyUpdate rebuilds one market's one side and returns the changes.
func (a *Aggregator) ApplyUpdate(market [32]byte, s Side, orders []OrderInput, slot uint64) []Change {
	return a.bookFor(market).ApplyUpdate(s, orders, slot)
}

// GetSnapshot returns the top-depth aggregation for a market, or false
// if the market has never been seen.
func (a *Aggregator) GetSnapshot(market [32]byte, depth int) (Snapshot, bool) {
	a.mu.RLock()
	b, ok := a.books[market]
	a.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	bids, asks := b.Snapshot(depth)
	b.mu.RLock()
	slot, seq := b.LastSlot, b.Seq
	b.mu.RUnlock()
	return Snapshot{Market: market, Slot: slot, Seq: seq, Bids: bids, Asks: asks}, true
}

// BestBid, BestAsk, Spread, Mid proxy to the named market's FullBook.
func (a *Aggregator) BestBid(market [32]byte) (PriceLevel, bool) {
	b, ok := a.existing(market)
	if !ok {
		return PriceLevel{}, false
	}
	return b.BestBid()
}

func (a *Aggregator) BestAsk(market [32]byte) (PriceLevel, bool) {
	b, ok := a.existing(market)
	if !ok {
		return PriceLevel{}, false
	}
	return b.BestAsk()
}

func (a *Aggregator) Spread(market [32]byte) (uint64, bool) {
	b, ok := a.existing(market)
	if !ok {
		return 0, false
	}
	return b.Spread()
}

func (a *Aggregator) Mid(market [32]byte) (uint64, bool) {
	b, ok := a.existing(market)
	if !ok {
		return 0, false
	}
	return b.Mid()
}

func (a *Aggregator) existing(market [32]byte) (*FullBook, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.books[market]
	return b, ok
}

// CreateDelta stamps a caller-supplied change list with the market's
// current sequence number, for publication.
func (a *Aggregator) CreateDelta(market [32]byte, changes []Change, slot uint64) Delta {
	b := a.bookFor(market)
	b.mu.RLock()
	seq := b.Seq
	b.mu.RUnlock()
	return Delta{Market: market, Seq: seq, Slot: slot, Changes: changes}
}

// RemoveMarket drops a market's aggregation entirely.
func (a *Aggregator) RemoveMarket(market [32]byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.books, market)
}

// Clear drops every market's aggregation.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.books = make(map[[32]byte]*FullBook)
}
