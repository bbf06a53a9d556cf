package engine

import (
	"cosmossdk.io/log"
	"cosmossdk.io/math"
)

// OrderType selects the matching/resting policy for a new order.
type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
	OrderTypePostOnly
	OrderTypeIOC
	OrderTypeFillOrKill
)

// Engine holds one market's mutable state: its config, both book sides,
// and its event queue. Every exported method is one instruction handler.
// A validation, authorization or funds failure returns an error having
// made no visible change; an error raised partway through matching (a
// full event queue) leaves the fills of earlier steps committed.
type Engine struct {
	Market *Market
	Bids   *BookSide
	Asks   *BookSide
	Events *EventQueue

	log log.Logger
}

// NewEngine wires together a freshly created market's book sides and
// event queue. This is the effect of the create_market instruction.
func NewEngine(market *Market, eventQueueCapacity int, logger log.Logger) *Engine {
	return &Engine{
		Market: market,
		Bids:   NewBookSide(market.BidsKey, true),
		Asks:   NewBookSide(market.AsksKey, false),
		Events: NewEventQueue(market.EventQueueKey, eventQueueCapacity),
		log:    logger,
	}
}

func (e *Engine) side(s Side) *BookSide {
	if s == SideBid {
		return e.Bids
	}
	return e.Asks
}

// CreateOpenOrders is the create_open_orders instruction: it has no
// engine-side state to mutate beyond returning a freshly initialized
// account for the caller to persist.
func (e *Engine) CreateOpenOrders(market, owner [32]byte, delegate [32]byte) *OpenOrders {
	oo := NewOpenOrders(market, owner)
	oo.Delegate = delegate
	return oo
}

// Deposit credits free balances. At least one amount must be positive.
func (e *Engine) Deposit(oo *OpenOrders, baseAmount, quoteAmount uint64) error {
	if baseAmount == 0 && quoteAmount == 0 {
		return ErrInvalidQuantity
	}
	oo.CreditBase(baseAmount)
	oo.CreditQuote(quoteAmount)
	return nil
}

// Withdraw debits free balances. Owner-signed only — delegates cannot
// withdraw.
func (e *Engine) Withdraw(oo *OpenOrders, signer [32]byte, baseAmount, quoteAmount uint64) error {
	if !e.Market.Status.AllowsWithdrawals() {
		return ErrMarketClosed
	}
	if signer != oo.Owner {
		return ErrNotOwner
	}
	if baseAmount > 0 && !oo.DebitBase(baseAmount) {
		return ErrInsufficientFunds
	}
	if quoteAmount > 0 && !oo.DebitQuote(quoteAmount) {
		return ErrInsufficientFunds
	}
	return nil
}

// PlaceOrderParams carries the place_order instruction's inputs.
type PlaceOrderParams struct {
	Side          Side
	Price         uint64
	Quantity      uint64
	OrderType     OrderType
	ClientOrderID uint64
}

// calculateLockAmount returns the base or quote amount a new order of
// this side/price/quantity must lock, using checked multiplication —
// overflow is reported as ErrArithmeticOverflow rather than wrapping.
func (e *Engine) calculateLockAmount(side Side, price, quantity uint64) (uint64, error) {
	m := e.Market
	if side == SideAsk {
		amt, overflow := mulOverflow(quantity, m.BaseLotSize)
		if overflow {
			return 0, ErrArithmeticOverflow
		}
		return amt, nil
	}
	notional, overflow := mulOverflow(quantity, price)
	if overflow {
		return 0, ErrArithmeticOverflow
	}
	notional, overflow = mulOverflow(notional, m.QuoteLotSize)
	if overflow {
		return 0, ErrArithmeticOverflow
	}
	if m.BaseLotSize == 0 {
		return 0, ErrArithmeticOverflow
	}
	return notional / m.BaseLotSize, nil
}

func mulOverflow(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	r := a * b
	if r/a != b {
		return 0, true
	}
	return r, false
}

// crosses reports whether an incoming order at (side, price) can trade
// against the opposite side's current best.
func (e *Engine) crosses(side Side, price uint64) bool {
	opp := e.side(side.Opposite())
	best, ok := opp.Best()
	if !ok {
		return false
	}
	bestPrice := DecodeOrderIDPrice(side.Opposite(), best.OrderID)
	if side == SideBid {
		return price >= bestPrice
	}
	return price <= bestPrice
}

// PlaceOrder validates, locks funds, runs the taker phase against the
// opposite side (skipped for PostOnly), and — for a Limit or PostOnly
// order with remaining quantity — rests the residual on the book.
func (e *Engine) PlaceOrder(oo *OpenOrders, signer [32]byte, p PlaceOrderParams) error {
	if !e.Market.Status.AllowsNewOrders() {
		return ErrMarketNotActive
	}
	if !oo.IsAuthorized(signer) {
		return ErrUnauthorized
	}
	if p.Price == 0 || p.Price%e.Market.TickSize != 0 {
		return ErrInvalidTickSize
	}
	if p.Quantity < e.Market.MinOrderSize || p.Quantity == 0 {
		return ErrOrderTooSmall
	}
	slotIdx := oo.FindFreeSlot()
	if slotIdx < 0 {
		return ErrTooManyOrders
	}
	// Peek that a seq number is available without consuming it; the
	// taker phase below does not need one, only a resting residual does,
	// but validation happens up front per the documented order.
	if e.Market.SeqNum == ^uint64(0) {
		return ErrArithmeticOverflow
	}

	lockAmt, err := e.calculateLockAmount(p.Side, p.Price, p.Quantity)
	if err != nil {
		return err
	}

	if p.OrderType == OrderTypePostOnly {
		if e.crosses(p.Side, p.Price) {
			return ErrPostOnlyWouldCross
		}
	}

	if p.OrderType == OrderTypeFillOrKill {
		if !e.simulateFullyFillable(p.Side, p.Price, p.Quantity) {
			return ErrFillOrKillCannotFill
		}
	}

	if p.Side == SideAsk {
		if !oo.LockBase(lockAmt) {
			return ErrInsufficientFunds
		}
	} else {
		if !oo.LockQuote(lockAmt) {
			return ErrInsufficientFunds
		}
	}

	remaining := p.Quantity
	if p.OrderType != OrderTypePostOnly {
		var takerErr error
		remaining, takerErr = e.runTakerPhase(signer, p)
		if takerErr != nil {
			// Fills already pushed in earlier taker steps of this same
			// instruction remain committed (their share of lockAmt stays
			// locked pending consume_events settlement); only the
			// still-unfilled remainder — which will never rest, since
			// this instruction is failing — is released back to free.
			residualLock, _ := e.calculateLockAmount(p.Side, p.Price, remaining)
			e.unlock(oo, p.Side, residualLock)
			return takerErr
		}
	}

	switch p.OrderType {
	case OrderTypeIOC, OrderTypeFillOrKill:
		if remaining > 0 {
			residualLock, _ := e.calculateLockAmount(p.Side, p.Price, remaining)
			e.unlock(oo, p.Side, residualLock)
		}
		return nil
	case OrderTypePostOnly:
		// never a taker; remaining == quantity always
	case OrderTypeLimit:
		if remaining == 0 {
			return nil
		}
	}

	if remaining == 0 {
		return nil
	}

	seq, ok := e.Market.NextSeqNum()
	if !ok {
		residualLock, _ := e.calculateLockAmount(p.Side, p.Price, remaining)
		e.unlock(oo, p.Side, residualLock)
		return ErrArithmeticOverflow
	}
	orderID := EncodeOrderID(p.Side, p.Price, seq)

	leaf := Leaf{
		OrderID:       orderID,
		OwnerSlot:     uint8(slotIdx),
		TimeInForce:   uint8(p.OrderType),
		Owner:         signer,
		Quantity:      remaining,
		ClientOrderID: p.ClientOrderID,
	}
	if _, err := e.side(p.Side).Insert(leaf); err != nil {
		residualLock, _ := e.calculateLockAmount(p.Side, p.Price, remaining)
		e.unlock(oo, p.Side, residualLock)
		return err
	}
	if err := oo.AddOrder(slotIdx, orderID, p.ClientOrderID, p.Side); err != nil {
		return err
	}
	return nil
}

func (e *Engine) unlock(oo *OpenOrders, side Side, amt uint64) {
	if side == SideAsk {
		oo.ReleaseBase(amt)
	} else {
		oo.ReleaseQuote(amt)
	}
}

// simulateFullyFillable reports whether a taker order of this size would
// be completely consumed by the current resting book, without mutating
// anything — used by FillOrKill.
func (e *Engine) simulateFullyFillable(side Side, price, quantity uint64) bool {
	opp := e.side(side.Opposite())
	it := opp.IterBestFirst()
	remaining := quantity
	for remaining > 0 {
		leaf, ok := it.Next()
		if !ok {
			break
		}
		restingPrice := DecodeOrderIDPrice(side.Opposite(), leaf.OrderID)
		if !priceCrosses(side, price, restingPrice) {
			break
		}
		if leaf.Quantity >= remaining {
			remaining = 0
		} else {
			remaining -= leaf.Quantity
		}
	}
	return remaining == 0
}

func priceCrosses(takerSide Side, takerPrice, restingPrice uint64) bool {
	if takerSide == SideBid {
		return takerPrice >= restingPrice
	}
	return takerPrice <= restingPrice
}

// makerFeeAdjustment returns the signed quote amount to add to the
// maker's credit: positive (rebate) when maker_fee_bps is negative,
// negative (fee charged) when it is positive, and zero when it is zero.
func (e *Engine) makerFeeAdjustment(notional uint64) int64 {
	return -(int64(notional) * int64(e.Market.MakerFeeBps)) / 10_000
}

// runTakerPhase repeatedly crosses the incoming order against the
// opposite side's best leaf, emitting Fill (and maker Out, when a maker
// is fully consumed) events, until no cross remains or quantity is
// exhausted. Returns the taker's remaining (unfilled) quantity.
//
// A QueueFull on a Fill push aborts the whole taker phase: the caller
// releases any lock for the full original quantity minus what was
// already filled in earlier steps (those steps' state stays committed).
//
// Balance settlement for both sides of a fill happens in ConsumeEvents,
// not here — this phase only mutates the book and the event queue.
func (e *Engine) runTakerPhase(signer [32]byte, p PlaceOrderParams) (uint64, error) {
	remaining := p.Quantity
	opp := e.side(p.Side.Opposite())

	for remaining > 0 {
		best, ok := opp.Best()
		if !ok {
			break
		}
		restingPrice := DecodeOrderIDPrice(p.Side.Opposite(), best.OrderID)
		if !priceCrosses(p.Side, p.Price, restingPrice) {
			break
		}

		fillQty := remaining
		if best.Quantity < fillQty {
			fillQty = best.Quantity
		}

		baseAmt, err := e.calculateLockAmount(SideAsk, restingPrice, fillQty)
		if err != nil {
			return remaining, err
		}
		quoteAmt, err := e.calculateLockAmount(SideBid, restingPrice, fillQty)
		if err != nil {
			return remaining, err
		}
		takerFee := quoteAmt * uint64(e.Market.TakerFeeBps) / 10_000
		makerRebate := e.makerFeeAdjustment(quoteAmt)

		fillEvent := Event{
			Kind:               EventFill,
			TakerSide:          p.Side,
			Maker:              best.Owner,
			MakerClientOrderID: best.ClientOrderID,
			Taker:              signer,
			TakerClientOrderID: p.ClientOrderID,
			Price:              restingPrice,
			Quantity:           fillQty,
			BaseSettle:         baseAmt,
			QuoteSettle:        quoteAmt,
			TakerFee:           takerFee,
			MakerRebate:        makerRebate,
		}
		fillEvent.MakerOrderID = orderIDBytes(best.OrderID)
		// The taker's own OrderID is only assigned if/when it rests (see
		// PlaceOrder); a fully- or IOC/FOK-consumed taker never gets one,
		// so TakerOrderID is left zero and correlation uses client_order_id.

		if _, err := e.Events.Push(fillEvent); err != nil {
			return remaining, err
		}

		remainingMakerQty := best.Quantity - fillQty
		if remainingMakerQty == 0 {
			if _, err := opp.Remove(best.OrderID); err != nil {
				e.log.Error("remove fully-filled maker leaf", "err", err)
			}
			// BaseReleased/QuoteReleased stay zero: the paired Fill event's
			// SettleMakerAsk/SettleMakerBid already moves the maker's locked
			// balance for this quantity, this Out event only signals removal.
			outEvent := Event{
				Kind:          EventOut,
				Side:          p.Side.Opposite(),
				Owner:         best.Owner,
				ClientOrderID: best.ClientOrderID,
				Reason:        OutReasonFilled,
			}
			outEvent.OrderID = orderIDBytes(best.OrderID)
			if _, err := e.Events.Push(outEvent); err != nil {
				e.log.Error("out event elided: queue full on maker-filled out", "err", err)
			}
		} else {
			if err := e.decrementRestingLeaf(opp, best, remainingMakerQty); err != nil {
				return remaining, err
			}
		}

		remaining -= fillQty
	}

	return remaining, nil
}

// decrementRestingLeaf removes and reinserts a partially-filled maker
// leaf with reduced quantity; the critbit tree carries no in-place
// mutable quantity field reachable without a remove+insert since the
// node slot is reused by this call.
func (e *Engine) decrementRestingLeaf(side *BookSide, leaf Leaf, newQuantity uint64) error {
	if _, err := side.Remove(leaf.OrderID); err != nil {
		return err
	}
	leaf.Quantity = newQuantity
	_, err := side.Insert(leaf)
	return err
}

func orderIDBytes(id math.Int) [16]byte {
	var out [16]byte
	b := id.BigInt().Bytes()
	copy(out[16-len(b):], b)
	return out
}

// CancelOrder removes a resting order, releases its locked funds, and
// pushes an Out{Cancelled} event. A QueueFull on the out-event is
// non-fatal: the cancellation still commits and the drop is logged.
func (e *Engine) CancelOrder(oo *OpenOrders, signer [32]byte, side Side, orderID math.Int) error {
	if !e.Market.Status.AllowsCancellations() {
		return ErrMarketNotActive
	}
	if !oo.IsAuthorized(signer) {
		return ErrUnauthorized
	}
	slotIdx := oo.FindOrder(orderID)
	if slotIdx < 0 {
		return ErrOrderNotFound
	}
	slot := oo.GetOrder(slotIdx)

	quantity, err := e.side(side).Remove(orderID)
	if err != nil {
		return err
	}
	price := DecodeOrderIDPrice(side, orderID)
	released, _ := e.calculateLockAmount(side, price, quantity)

	var baseReleased, quoteReleased uint64
	if side == SideAsk {
		oo.ReleaseBase(released)
		baseReleased = released
	} else {
		oo.ReleaseQuote(released)
		quoteReleased = released
	}
	oo.RemoveOrder(slotIdx)

	outEvent := Event{
		Kind:          EventOut,
		Side:          side,
		Owner:         oo.Owner,
		ClientOrderID: slot.ClientOrderID,
		BaseReleased:  baseReleased,
		QuoteReleased: quoteReleased,
		Reason:        OutReasonCancelled,
	}
	outEvent.OrderID = orderIDBytes(orderID)
	if _, err := e.Events.Push(outEvent); err != nil {
		e.log.Error("out event elided on cancel: queue full", "owner", oo.Owner, "err", err)
	}
	return nil
}

// CancelAllOrders cancels up to limit resting orders matching the
// optional side filter, returning the count cancelled.
func (e *Engine) CancelAllOrders(oo *OpenOrders, signer [32]byte, sideFilter *Side, limit uint8) (uint8, error) {
	if limit == 0 {
		return 0, ErrInvalidQuantity
	}
	var cancelled uint8
	for i := range oo.Orders {
		if cancelled >= limit {
			break
		}
		slot := oo.Orders[i]
		if slot.IsEmpty() {
			continue
		}
		if sideFilter != nil && slot.Side != *sideFilter {
			continue
		}
		if err := e.CancelOrder(oo, signer, slot.Side, slot.OrderID); err != nil {
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

// MatchOrders is the permissionless crank entry point: it re-checks both
// sides' bests for a cross that the resting orders' own placement never
// triggered (e.g. a PostOnly-adjacent state change), pushing Fill/Out
// events exactly like the taker phase until no cross remains or limit
// fills have executed.
func (e *Engine) MatchOrders(limit uint16) (uint16, error) {
	if !e.Market.Status.AllowsMatching() {
		return 0, ErrMarketNotActive
	}
	var filled uint16
	for filled < limit {
		bidLeaf, okBid := e.Bids.Best()
		askLeaf, okAsk := e.Asks.Best()
		if !okBid || !okAsk {
			break
		}
		bidPrice := DecodeOrderIDPrice(SideBid, bidLeaf.OrderID)
		askPrice := DecodeOrderIDPrice(SideAsk, askLeaf.OrderID)
		if bidPrice < askPrice {
			break
		}

		fillQty := bidLeaf.Quantity
		if askLeaf.Quantity < fillQty {
			fillQty = askLeaf.Quantity
		}
		baseAmt, err := e.calculateLockAmount(SideAsk, askPrice, fillQty)
		if err != nil {
			return filled, err
		}
		quoteAmt, err := e.calculateLockAmount(SideBid, askPrice, fillQty)
		if err != nil {
			return filled, err
		}
		takerFee := quoteAmt * uint64(e.Market.TakerFeeBps) / 10_000
		makerRebate := e.makerFeeAdjustment(quoteAmt)

		fillEvent := Event{
			Kind:                EventFill,
			TakerSide:           SideBid,
			Maker:               askLeaf.Owner,
			MakerClientOrderID:  askLeaf.ClientOrderID,
			Taker:               bidLeaf.Owner,
			TakerClientOrderID:  bidLeaf.ClientOrderID,
			Price:               askPrice,
			Quantity:            fillQty,
			BaseSettle:          baseAmt,
			QuoteSettle:         quoteAmt,
			TakerFee:            takerFee,
			MakerRebate:         makerRebate,
		}
		fillEvent.MakerOrderID = orderIDBytes(askLeaf.OrderID)
		fillEvent.TakerOrderID = orderIDBytes(bidLeaf.OrderID)
		if _, err := e.Events.Push(fillEvent); err != nil {
			return filled, err
		}

		if err := e.applyCrankSide(e.Bids, bidLeaf, fillQty, SideBid); err != nil {
			return filled, err
		}
		if err := e.applyCrankSide(e.Asks, askLeaf, fillQty, SideAsk); err != nil {
			return filled, err
		}
		filled++
	}
	return filled, nil
}

func (e *Engine) applyCrankSide(side *BookSide, leaf Leaf, fillQty uint64, s Side) error {
	remainingQty := leaf.Quantity - fillQty
	if remainingQty == 0 {
		if _, err := side.Remove(leaf.OrderID); err != nil {
			return err
		}
		// BaseReleased/QuoteReleased stay zero: the paired Fill event's
		// settlement already moves this side's locked balance for the
		// traded quantity, this Out event only signals removal.
		outEvent := Event{
			Kind:          EventOut,
			Side:          s,
			Owner:         leaf.Owner,
			ClientOrderID: leaf.ClientOrderID,
			Reason:        OutReasonFilled,
		}
		outEvent.OrderID = orderIDBytes(leaf.OrderID)
		if _, err := e.Events.Push(outEvent); err != nil {
			e.log.Error("out event elided in crank", "err", err)
		}
		return nil
	}
	return e.decrementRestingLeaf(side, leaf, remainingQty)
}

// ConsumeEvents drains up to limit events, settling each against the
// OpenOrders accounts the caller supplies in lookup. An event whose
// participant account is missing from lookup is left unconsumed (peek,
// do not pop) so a later caller can retry once the account is supplied.
func (e *Engine) ConsumeEvents(limit uint16, lookup func(owner [32]byte) (*OpenOrders, bool)) (uint16, error) {
	var consumed uint16
	for consumed < limit {
		ev, ok := e.Events.Peek()
		if !ok {
			break
		}
		switch ev.Kind {
		case EventFill:
			taker, okTaker := lookup(ev.Taker)
			maker, okMaker := lookup(ev.Maker)
			if !okTaker || !okMaker {
				return consumed, nil
			}
			makerQuoteCredit := uint64(int64(ev.QuoteSettle) + ev.MakerRebate)
			if ev.TakerSide == SideBid {
				taker.QuoteLocked -= ev.QuoteSettle + ev.TakerFee
				taker.BaseFree += ev.BaseSettle
				maker.SettleMakerAsk(ev.BaseSettle, makerQuoteCredit)
			} else {
				taker.BaseLocked -= ev.BaseSettle
				taker.QuoteFree += ev.QuoteSettle - ev.TakerFee
				maker.SettleMakerBid(ev.BaseSettle, makerQuoteCredit)
			}
		case EventOut:
			oo, okOwner := lookup(ev.Owner)
			if !okOwner {
				return consumed, nil
			}
			if ev.BaseReleased > 0 {
				oo.ReleaseBase(ev.BaseReleased)
			}
			if ev.QuoteReleased > 0 {
				oo.ReleaseQuote(ev.QuoteReleased)
			}
		}
		e.Events.Pop()
		consumed++
	}
	return consumed, nil
}
