package engine

import "cosmossdk.io/math"

// MaxOrders bounds the fixed-size order slot array, matching the source
// program's account layout.
const MaxOrders = 128

var zeroPubkey [32]byte

// OrderSlot records a single active order belonging to an OpenOrders
// account; empty when it is the zero value (its occupied flag unset).
type OrderSlot struct {
	OrderID       math.Int
	ClientOrderID uint64
	Side          Side
	occupied      bool
}

func (s OrderSlot) IsEmpty() bool { return !s.occupied }

// OpenOrders is the per-(market, owner) account holding balances and the
// user's active order slots.
type OpenOrders struct {
	Bump            uint8
	Market          [32]byte
	Owner           [32]byte
	Delegate        [32]byte
	BaseLocked      uint64
	QuoteLocked     uint64
	BaseFree        uint64
	QuoteFree       uint64
	ReferrerRebates uint64
	NumOrders       int
	Orders          [MaxOrders]OrderSlot
}

// NewOpenOrders constructs an empty account for (market, owner).
func NewOpenOrders(market, owner [32]byte) *OpenOrders {
	return &OpenOrders{Market: market, Owner: owner}
}

// IsAuthorized reports whether signer may place or cancel on this account.
func (o *OpenOrders) IsAuthorized(signer [32]byte) bool {
	if signer == o.Owner {
		return true
	}
	return o.Delegate != zeroPubkey && signer == o.Delegate
}

// --- balance operations ---

// LockBase moves n from free to locked base balance. Returns false
// (no state change) when free is insufficient.
func (o *OpenOrders) LockBase(n uint64) bool {
	if o.BaseFree < n {
		return false
	}
	o.BaseFree -= n
	o.BaseLocked += n
	return true
}

// LockQuote is LockBase's quote-balance counterpart.
func (o *OpenOrders) LockQuote(n uint64) bool {
	if o.QuoteFree < n {
		return false
	}
	o.QuoteFree -= n
	o.QuoteLocked += n
	return true
}

// ReleaseBase moves n from locked back to free. Callers must never
// release more than was locked; this is enforced by the caller's
// bookkeeping (the lock/release pair is matched per order), not by a
// saturating clamp here.
func (o *OpenOrders) ReleaseBase(n uint64) {
	o.BaseLocked -= n
	o.BaseFree += n
}

// ReleaseQuote is ReleaseBase's quote-balance counterpart.
func (o *OpenOrders) ReleaseQuote(n uint64) {
	o.QuoteLocked -= n
	o.QuoteFree += n
}

// CreditBase adds n to free base balance (e.g. a fill proceeds or a deposit).
func (o *OpenOrders) CreditBase(n uint64) { o.BaseFree += n }

// CreditQuote is CreditBase's quote-balance counterpart.
func (o *OpenOrders) CreditQuote(n uint64) { o.QuoteFree += n }

// DebitBase removes n from free base balance. Returns false when
// insufficient.
func (o *OpenOrders) DebitBase(n uint64) bool {
	if o.BaseFree < n {
		return false
	}
	o.BaseFree -= n
	return true
}

// DebitQuote is DebitBase's quote-balance counterpart.
func (o *OpenOrders) DebitQuote(n uint64) bool {
	if o.QuoteFree < n {
		return false
	}
	o.QuoteFree -= n
	return true
}

// SettleMakerAsk applies a maker-ask fill: base locked is released (sold),
// quote is credited free.
func (o *OpenOrders) SettleMakerAsk(base, quote uint64) {
	o.BaseLocked -= base
	o.QuoteFree += quote
}

// SettleMakerBid applies a maker-bid fill: quote locked is released
// (spent), base is credited free.
func (o *OpenOrders) SettleMakerBid(base, quote uint64) {
	o.QuoteLocked -= quote
	o.BaseFree += base
}

// --- slot operations ---

// FindFreeSlot returns the index of an empty order slot, or -1 if full.
func (o *OpenOrders) FindFreeSlot() int {
	for i := range o.Orders {
		if o.Orders[i].IsEmpty() {
			return i
		}
	}
	return -1
}

// AddOrder binds a slot to a newly-resting order. Fails if the slot is
// already occupied or out of range.
func (o *OpenOrders) AddOrder(idx int, orderID math.Int, clientOrderID uint64, side Side) error {
	if idx < 0 || idx >= MaxOrders {
		return ErrTooManyOrders
	}
	if !o.Orders[idx].IsEmpty() {
		return ErrTooManyOrders
	}
	o.Orders[idx] = OrderSlot{OrderID: orderID, ClientOrderID: clientOrderID, Side: side, occupied: true}
	o.NumOrders++
	return nil
}

// RemoveOrder clears a slot.
func (o *OpenOrders) RemoveOrder(idx int) {
	if idx < 0 || idx >= MaxOrders || o.Orders[idx].IsEmpty() {
		return
	}
	o.Orders[idx] = OrderSlot{}
	o.NumOrders--
}

// FindOrder returns the slot index holding orderID, or -1.
func (o *OpenOrders) FindOrder(orderID math.Int) int {
	for i := range o.Orders {
		if !o.Orders[i].IsEmpty() && o.Orders[i].OrderID.Equal(orderID) {
			return i
		}
	}
	return -1
}

// GetOrder returns the slot at idx.
func (o *OpenOrders) GetOrder(idx int) OrderSlot {
	return o.Orders[idx]
}
