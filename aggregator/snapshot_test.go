package aggregator

import "testing"

func TestAggregatorGetSnapshotUnknownMarket(t *testing.T) {
	a := NewAggregator()
	if _, ok := a.GetSnapshot([32]byte{1}, 0); ok {
		t.Error("GetSnapshot on a never-seen market must report false")
	}
}

func TestAggregatorApplyUpdateAndSnapshot(t *testing.T) {
	a := NewAggregator()
	market := [32]byte{1}

	a.ApplyUpdate(market, SideBid, []OrderInput{{Price: 100, Quantity: 5}}, 10)
	a.ApplyUpdate(market, SideAsk, []OrderInput{{Price: 105, Quantity: 3}}, 11)

	snap, ok := a.GetSnapshot(market, 0)
	if !ok {
		t.Fatal("expected a snapshot for a market with applied updates")
	}
	if snap.Slot != 11 {
		t.Errorf("Slot = %d, want 11 (last applied)", snap.Slot)
	}
	if snap.Seq != 2 {
		t.Errorf("Seq = %d, want 2 (one per ApplyUpdate call)", snap.Seq)
	}
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 100 {
		t.Errorf("Bids = %+v, want a single level at 100", snap.Bids)
	}
	if len(snap.Asks) != 1 || snap.Asks[0].Price != 105 {
		t.Errorf("Asks = %+v, want a single level at 105", snap.Asks)
	}
}

func TestAggregatorProxiesBestAndSpread(t *testing.T) {
	a := NewAggregator()
	market := [32]byte{1}

	if _, ok := a.BestBid(market); ok {
		t.Error("BestBid on an unseen market must report false")
	}

	a.ApplyUpdate(market, SideBid, []OrderInput{{Price: 98, Quantity: 1}}, 1)
	a.ApplyUpdate(market, SideAsk, []OrderInput{{Price: 102, Quantity: 1}}, 1)

	bid, ok := a.BestBid(market)
	if !ok || bid.Price != 98 {
		t.Errorf("BestBid = %+v, ok=%v, want price 98", bid, ok)
	}
	ask, ok := a.BestAsk(market)
	if !ok || ask.Price != 102 {
		t.Errorf("BestAsk = %+v, ok=%v, want price 102", ask, ok)
	}
	spread, ok := a.Spread(market)
	if !ok || spread != 4 {
		t.Errorf("Spread = %d, ok=%v, want 4", spread, ok)
	}
	mid, ok := a.Mid(market)
	if !ok || mid != 100 {
		t.Errorf("Mid = %d, ok=%v, want 100", mid, ok)
	}
}

func TestAggregatorCreateDeltaStampsSeq(t *testing.T) {
	a := NewAggregator()
	market := [32]byte{1}
	a.ApplyUpdate(market, SideBid, []OrderInput{{Price: 100, Quantity: 1}}, 1)
	a.ApplyUpdate(market, SideBid, []OrderInput{{Price: 100, Quantity: 2}}, 2)

	changes := []Change{{Side: SideBid, Price: 100, NewQuantity: 2, OrderCount: 1}}
	delta := a.CreateDelta(market, changes, 2)
	if delta.Market != market || delta.Slot != 2 {
		t.Errorf("delta = %+v, want market/slot set", delta)
	}
	if delta.Seq != 2 {
		t.Errorf("delta.Seq = %d, want 2 (current aggregator seq)", delta.Seq)
	}
	if len(delta.Changes) != 1 || delta.Changes[0].NewQuantity != 2 {
		t.Errorf("delta.Changes = %+v", delta.Changes)
	}
}

func TestAggregatorRemoveAndClear(t *testing.T) {
	a := NewAggregator()
	m1, m2 := [32]byte{1}, [32]byte{2}
	a.ApplyUpdate(m1, SideBid, []OrderInput{{Price: 1, Quantity: 1}}, 1)
	a.ApplyUpdate(m2, SideBid, []OrderInput{{Price: 1, Quantity: 1}}, 1)

	a.RemoveMarket(m1)
	if _, ok := a.GetSnapshot(m1, 0); ok {
		t.Error("expected m1 to be gone after RemoveMarket")
	}
	if _, ok := a.GetSnapshot(m2, 0); !ok {
		t.Error("expected m2 to remain after removing only m1")
	}

	a.Clear()
	if _, ok := a.GetSnapshot(m2, 0); ok {
		t.Error("expected every market to be gone after Clear")
	}
}
