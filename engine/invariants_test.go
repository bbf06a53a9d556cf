package engine

import (
	"math/rand"
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

// TestBookSideBestFirstOrderingInvariant asserts that IterBestFirst always
// yields bid leaves in descending price order and ask leaves in ascending
// price order, across a randomized sequence of inserts and removals.
func TestBookSideBestFirstOrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	marketKey := [32]byte{1}

	for _, side := range []Side{SideBid, SideAsk} {
		side := side
		t.Run(side.String(), func(t *testing.T) {
			bs := NewBookSide(marketKey, side == SideBid)

			var liveIDs []math.Int
			for i := 0; i < 200; i++ {
				price := uint64(rng.Intn(1000) + 1)
				seq := uint64(i + 1)
				id := EncodeOrderID(side, price, seq)
				_, err := bs.Insert(Leaf{OrderID: id, Quantity: 1, ClientOrderID: seq})
				require.NoError(t, err)
				liveIDs = append(liveIDs, id)

				if len(liveIDs) > 20 && rng.Intn(3) == 0 {
					idx := rng.Intn(len(liveIDs))
					_, err := bs.Remove(liveIDs[idx])
					require.NoError(t, err)
					liveIDs = append(liveIDs[:idx], liveIDs[idx+1:]...)
				}
			}

			require.True(t, bs.FreeListAcyclic(), "free list must remain acyclic after randomized churn")

			it := bs.IterBestFirst()
			var prices []uint64
			for {
				leaf, ok := it.Next()
				if !ok {
					break
				}
				prices = append(prices, DecodeOrderIDPrice(side, leaf.OrderID))
			}

			for i := 1; i < len(prices); i++ {
				if side == SideBid {
					require.GreaterOrEqual(t, prices[i-1], prices[i], "bid prices must be non-increasing in best-first order")
				} else {
					require.LessOrEqual(t, prices[i-1], prices[i], "ask prices must be non-decreasing in best-first order")
				}
			}
		})
	}
}

// TestEncodeDecodeOrderIDRoundTripInvariant asserts price/seq round-trip
// through EncodeOrderID/DecodeOrderIDPrice/DecodeOrderIDSeq for both sides
// across a spread of randomized inputs.
func TestEncodeDecodeOrderIDRoundTripInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		side := SideBid
		if i%2 == 1 {
			side = SideAsk
		}
		price := uint64(rng.Int63()) + 1
		seq := uint64(rng.Int63())

		id := EncodeOrderID(side, price, seq)
		require.Equal(t, price, DecodeOrderIDPrice(side, id))
		require.Equal(t, seq, DecodeOrderIDSeq(id))
	}
}

// TestOrderIDSortsBestFirstInvariant asserts that for a fixed side, a
// numerically smaller OrderId always corresponds to price/seq priority
// matching the book's best-first ordering rule.
func TestOrderIDSortsBestFirstInvariant(t *testing.T) {
	lowBid := EncodeOrderID(SideBid, 50, 1)
	highBid := EncodeOrderID(SideBid, 100, 1)
	require.True(t, highBid.LT(lowBid), "a higher bid price must encode to a numerically smaller OrderId")

	lowAsk := EncodeOrderID(SideAsk, 50, 1)
	highAsk := EncodeOrderID(SideAsk, 100, 1)
	require.True(t, lowAsk.LT(highAsk), "a lower ask price must encode to a numerically smaller OrderId")
}

// TestFillSettlementRespectsLotSizeInvariant asserts that settling a fill
// releases exactly the lot-scaled amount calculateLockAmount locked at
// order placement time, on both sides of the trade, when BaseLotSize and
// QuoteLotSize are not both 1. A regression that settles off raw
// quantity/price instead would leave maker.BaseLocked non-zero (or wrap
// around) and break base/quote conservation across the fill.
func TestFillSettlementRespectsLotSizeInvariant(t *testing.T) {
	market := &Market{
		Status:       MarketActive,
		BaseLotSize:  1000,
		QuoteLotSize: 100,
		TickSize:     1,
		MinOrderSize: 1,
	}
	e := NewEngine(market, 16, log.NewNopLogger())

	const price, qty = uint64(10), uint64(5)

	makerBaseLock, err := e.calculateLockAmount(SideAsk, price, qty)
	require.NoError(t, err)
	takerQuoteLock, err := e.calculateLockAmount(SideBid, price, qty)
	require.NoError(t, err)
	require.NotEqual(t, qty, makerBaseLock, "lot size must actually scale the locked amount for this test to be meaningful")

	maker := NewOpenOrders(market.BidsKey, [32]byte{1})
	maker.CreditBase(makerBaseLock)
	taker := NewOpenOrders(market.BidsKey, [32]byte{2})
	taker.CreditQuote(takerQuoteLock)

	require.NoError(t, e.PlaceOrder(maker, maker.Owner, PlaceOrderParams{
		Side: SideAsk, Price: price, Quantity: qty, OrderType: OrderTypeLimit,
	}))
	require.Equal(t, makerBaseLock, maker.BaseLocked)

	require.NoError(t, e.PlaceOrder(taker, taker.Owner, PlaceOrderParams{
		Side: SideBid, Price: price, Quantity: qty, OrderType: OrderTypeLimit,
	}))
	require.Equal(t, takerQuoteLock, taker.QuoteLocked)

	lookup := func(owner [32]byte) (*OpenOrders, bool) {
		switch owner {
		case maker.Owner:
			return maker, true
		case taker.Owner:
			return taker, true
		default:
			return nil, false
		}
	}
	consumed, err := e.ConsumeEvents(10, lookup)
	require.NoError(t, err)
	require.Equal(t, uint16(2), consumed, "expect a fill + maker out event")

	require.Equal(t, uint64(0), maker.BaseLocked, "maker's full lot-scaled lock must be released by the fill")
	require.Equal(t, uint64(0), taker.QuoteLocked, "taker's full lot-scaled lock must be released by the fill")

	totalBase := maker.BaseLocked + maker.BaseFree + taker.BaseLocked + taker.BaseFree
	totalQuote := maker.QuoteLocked + maker.QuoteFree + taker.QuoteLocked + taker.QuoteFree
	require.Equal(t, makerBaseLock, totalBase, "base locked+free must be conserved across the fill")
	require.Equal(t, takerQuoteLock, totalQuote, "quote locked+free must be conserved across the fill")
}
