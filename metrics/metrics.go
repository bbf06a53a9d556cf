// Package metrics holds lock-free atomic counter bundles for the
// off-chain subsystems (parser, aggregator, cache, feed); no ordering
// stronger than relaxed is required since every counter is a monotone
// approximation, not a committed ledger entry.
package metrics

import "sync/atomic"

// ParserBundle counts account-decoding activity.
type ParserBundle struct {
	ParseCount   atomic.Uint64
	SuccessCount atomic.Uint64
	ErrorCount   atomic.Uint64
	totalNanos   atomic.Uint64 // sum of observed durations, for AvgTimeNanos
}

// RecordParse folds one parse attempt's outcome and duration into the bundle.
func (p *ParserBundle) RecordParse(ok bool, durationNanos uint64) {
	p.ParseCount.Add(1)
	if ok {
		p.SuccessCount.Add(1)
	} else {
		p.ErrorCount.Add(1)
	}
	p.totalNanos.Add(durationNanos)
}

// AvgTimeNanos returns the mean observed parse duration, or 0 if none recorded.
func (p *ParserBundle) AvgTimeNanos() uint64 {
	n := p.ParseCount.Load()
	if n == 0 {
		return 0
	}
	return p.totalNanos.Load() / n
}

// ParserSnapshot is a point-in-time read of a ParserBundle.
type ParserSnapshot struct {
	ParseCount, SuccessCount, ErrorCount, AvgTimeNanos uint64
}

// Snapshot takes a point-in-time read of the bundle's counters.
func (p *ParserBundle) Snapshot() ParserSnapshot {
	return ParserSnapshot{
		ParseCount:   p.ParseCount.Load(),
		SuccessCount: p.SuccessCount.Load(),
		ErrorCount:   p.ErrorCount.Load(),
		AvgTimeNanos: p.AvgTimeNanos(),
	}
}

// Reset zeros every counter.
func (p *ParserBundle) Reset() {
	p.ParseCount.Store(0)
	p.SuccessCount.Store(0)
	p.ErrorCount.Store(0)
	p.totalNanos.Store(0)
}

// AggregatorBundle counts book-aggregation activity.
type AggregatorBundle struct {
	UpdateCount   atomic.Uint64
	SnapshotCount atomic.Uint64
	TotalDepth    atomic.Uint64 // sum of bid+ask level counts across updates
	CurrentSpread atomic.Uint64
}

// AggregatorSnapshot is a point-in-time read of an AggregatorBundle.
type AggregatorSnapshot struct {
	UpdateCount, SnapshotCount, TotalDepth, CurrentSpread uint64
}

func (a *AggregatorBundle) Snapshot() AggregatorSnapshot {
	return AggregatorSnapshot{
		UpdateCount:   a.UpdateCount.Load(),
		SnapshotCount: a.SnapshotCount.Load(),
		TotalDepth:    a.TotalDepth.Load(),
		CurrentSpread: a.CurrentSpread.Load(),
	}
}

func (a *AggregatorBundle) Reset() {
	a.UpdateCount.Store(0)
	a.SnapshotCount.Store(0)
	a.TotalDepth.Store(0)
	a.CurrentSpread.Store(0)
}

// CacheBundle counts cache and pub/sub activity.
type CacheBundle struct {
	Hits      atomic.Uint64
	Misses    atomic.Uint64
	Gets      atomic.Uint64
	Sets      atomic.Uint64
	Deletes   atomic.Uint64
	Publishes atomic.Uint64
}

// CacheSnapshot is a point-in-time read of a CacheBundle.
type CacheSnapshot struct {
	Hits, Misses, Gets, Sets, Deletes, Publishes uint64
	HitRate                                      float64
}

func (c *CacheBundle) Snapshot() CacheSnapshot {
	s := CacheSnapshot{
		Hits: c.Hits.Load(), Misses: c.Misses.Load(), Gets: c.Gets.Load(),
		Sets: c.Sets.Load(), Deletes: c.Deletes.Load(), Publishes: c.Publishes.Load(),
	}
	if s.Gets > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Gets)
	}
	return s
}

func (c *CacheBundle) Reset() {
	c.Hits.Store(0)
	c.Misses.Store(0)
	c.Gets.Store(0)
	c.Sets.Store(0)
	c.Deletes.Store(0)
	c.Publishes.Store(0)
}

// FeedBundle counts change-feed ingestion activity.
type FeedBundle struct {
	UpdatesReceived atomic.Uint64
	Dropped         atomic.Uint64
	Reconnects      atomic.Uint64
	ConnectionState atomic.Uint32 // mirrors feed.ConnectionState
	LagSlots        atomic.Uint64
}

// FeedSnapshot is a point-in-time read of a FeedBundle.
type FeedSnapshot struct {
	UpdatesReceived, Dropped, Reconnects, LagSlots uint64
	ConnectionState                                uint32
}

func (f *FeedBundle) Snapshot() FeedSnapshot {
	return FeedSnapshot{
		UpdatesReceived: f.UpdatesReceived.Load(),
		Dropped:         f.Dropped.Load(),
		Reconnects:      f.Reconnects.Load(),
		LagSlots:        f.LagSlots.Load(),
		ConnectionState: f.ConnectionState.Load(),
	}
}

func (f *FeedBundle) Reset() {
	f.UpdatesReceived.Store(0)
	f.Dropped.Store(0)
	f.Reconnects.Store(0)
	f.ConnectionState.Store(0)
	f.LagSlots.Store(0)
}

// Registry bundles one counter set per subsystem.
type Registry struct {
	Parser     ParserBundle
	Aggregator AggregatorBundle
	Cache      CacheBundle
	Feed       FeedBundle
}

// NewRegistry constructs a zeroed registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// ResetAll zeros every subsystem's counters.
func (r *Registry) ResetAll() {
	r.Parser.Reset()
	r.Aggregator.Reset()
	r.Cache.Reset()
	r.Feed.Reset()
}
