package metrics

import "testing"

func TestParserBundleRecordAndSnapshot(t *testing.T) {
	var p ParserBundle
	p.RecordParse(true, 100)
	p.RecordParse(true, 300)
	p.RecordParse(false, 200)

	snap := p.Snapshot()
	if snap.ParseCount != 3 || snap.SuccessCount != 2 || snap.ErrorCount != 1 {
		t.Fatalf("snapshot = %+v, want ParseCount=3 SuccessCount=2 ErrorCount=1", snap)
	}
	if snap.AvgTimeNanos != 200 {
		t.Errorf("AvgTimeNanos = %d, want 200 ((100+300+200)/3)", snap.AvgTimeNanos)
	}
}

func TestParserBundleAvgTimeNanosZeroWhenEmpty(t *testing.T) {
	var p ParserBundle
	if got := p.AvgTimeNanos(); got != 0 {
		t.Errorf("AvgTimeNanos on empty bundle = %d, want 0", got)
	}
}

func TestParserBundleReset(t *testing.T) {
	var p ParserBundle
	p.RecordParse(true, 100)
	p.Reset()
	if snap := p.Snapshot(); snap != (ParserSnapshot{}) {
		t.Errorf("snapshot after Reset = %+v, want zero value", snap)
	}
}

func TestAggregatorBundleSnapshotAndReset(t *testing.T) {
	var a AggregatorBundle
	a.UpdateCount.Add(5)
	a.SnapshotCount.Add(2)
	a.TotalDepth.Add(40)
	a.CurrentSpread.Store(3)

	snap := a.Snapshot()
	want := AggregatorSnapshot{UpdateCount: 5, SnapshotCount: 2, TotalDepth: 40, CurrentSpread: 3}
	if snap != want {
		t.Errorf("snapshot = %+v, want %+v", snap, want)
	}

	a.Reset()
	if snap := a.Snapshot(); snap != (AggregatorSnapshot{}) {
		t.Errorf("snapshot after Reset = %+v, want zero value", snap)
	}
}

func TestCacheBundleHitRate(t *testing.T) {
	var c CacheBundle
	c.Gets.Add(4)
	c.Hits.Add(3)
	c.Misses.Add(1)
	c.Sets.Add(2)
	c.Deletes.Add(1)
	c.Publishes.Add(6)

	snap := c.Snapshot()
	if snap.Hits != 3 || snap.Misses != 1 || snap.Gets != 4 || snap.Sets != 2 || snap.Deletes != 1 || snap.Publishes != 6 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.HitRate != 0.75 {
		t.Errorf("HitRate = %v, want 0.75", snap.HitRate)
	}
}

func TestCacheBundleHitRateZeroWhenNoGets(t *testing.T) {
	var c CacheBundle
	if snap := c.Snapshot(); snap.HitRate != 0 {
		t.Errorf("HitRate with no gets = %v, want 0", snap.HitRate)
	}
}

func TestCacheBundleReset(t *testing.T) {
	var c CacheBundle
	c.Gets.Add(1)
	c.Hits.Add(1)
	c.Reset()
	if snap := c.Snapshot(); snap != (CacheSnapshot{}) {
		t.Errorf("snapshot after Reset = %+v, want zero value", snap)
	}
}

func TestFeedBundleSnapshotAndReset(t *testing.T) {
	var f FeedBundle
	f.UpdatesReceived.Add(10)
	f.Dropped.Add(1)
	f.Reconnects.Add(2)
	f.ConnectionState.Store(3)
	f.LagSlots.Add(5)

	snap := f.Snapshot()
	want := FeedSnapshot{UpdatesReceived: 10, Dropped: 1, Reconnects: 2, ConnectionState: 3, LagSlots: 5}
	if snap != want {
		t.Errorf("snapshot = %+v, want %+v", snap, want)
	}

	f.Reset()
	if snap := f.Snapshot(); snap != (FeedSnapshot{}) {
		t.Errorf("snapshot after Reset = %+v, want zero value", snap)
	}
}

func TestRegistryResetAllZeroesEverySubsystem(t *testing.T) {
	r := NewRegistry()
	r.Parser.RecordParse(true, 50)
	r.Aggregator.UpdateCount.Add(1)
	r.Cache.Gets.Add(1)
	r.Feed.UpdatesReceived.Add(1)

	r.ResetAll()

	if snap := r.Parser.Snapshot(); snap != (ParserSnapshot{}) {
		t.Errorf("Parser snapshot after ResetAll = %+v", snap)
	}
	if snap := r.Aggregator.Snapshot(); snap != (AggregatorSnapshot{}) {
		t.Errorf("Aggregator snapshot after ResetAll = %+v", snap)
	}
	if snap := r.Cache.Snapshot(); snap != (CacheSnapshot{}) {
		t.Errorf("Cache snapshot after ResetAll = %+v", snap)
	}
	if snap := r.Feed.Snapshot(); snap != (FeedSnapshot{}) {
		t.Errorf("Feed snapshot after ResetAll = %+v", snap)
	}
}
