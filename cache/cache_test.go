package cache

import (
	"testing"
	"time"
)

func TestKeyFormat(t *testing.T) {
	id := [32]byte{1, 2, 3}
	key := Key(CategoryOrderbook, id)
	want := "orderbook:" + "AQIDAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	if key != want {
		t.Errorf("Key() = %q, want %q", key, want)
	}
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	c := New(nil)
	c.Set(CategoryMarket, "m1", 42)

	v, ok := c.Get("m1")
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if v.(int) != 42 {
		t.Errorf("Get() = %v, want 42", v)
	}
}

func TestCacheGetMissRecordsStats(t *testing.T) {
	c := New(nil)
	if _, ok := c.Get("missing"); ok {
		t.Error("expected a miss for an unset key")
	}
	stats := c.StatsSnapshot()
	if stats.Gets != 1 || stats.Misses != 1 || stats.Hits != 0 {
		t.Errorf("stats = %+v, want Gets=1 Misses=1 Hits=0", stats)
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New(nil)
	c.SetTTL("k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected the entry to have expired")
	}
}

func TestCacheDefaultTTLsMerge(t *testing.T) {
	c := New(map[Category]time.Duration{CategoryMarket: 30 * time.Second})
	if c.ttls[CategoryMarket] != 30*time.Second {
		t.Errorf("overridden TTL = %v, want 30s", c.ttls[CategoryMarket])
	}
	if c.ttls[CategoryOrderbook] != DefaultTTLs[CategoryOrderbook] {
		t.Errorf("un-overridden TTL = %v, want default %v", c.ttls[CategoryOrderbook], DefaultTTLs[CategoryOrderbook])
	}
}

func TestCacheUnavailableNoOps(t *testing.T) {
	c := New(nil)
	c.Set(CategoryMarket, "k", "v")
	c.SetAvailable(false)

	if c.Available() {
		t.Fatal("expected Available() to report false after SetAvailable(false)")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Get must miss while unavailable even for an existing key")
	}

	c.Set(CategoryMarket, "k2", "v2")
	c.SetAvailable(true)
	if _, ok := c.Get("k2"); ok {
		t.Error("Set while unavailable must be a no-op")
	}

	c.Delete("k")
	if _, ok := c.Get("k"); !ok {
		t.Error("original key should still resolve; a prior Delete attempt while unavailable was a no-op")
	}
}

func TestCacheDisabledNoOps(t *testing.T) {
	c := New(nil)
	c.Set(CategoryMarket, "k", "v")
	c.SetEnabled(false)

	if c.Enabled() {
		t.Fatal("expected Enabled() to report false after SetEnabled(false)")
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Get must miss while disabled even for an existing key")
	}

	c.Set(CategoryMarket, "k2", "v2")
	c.SetEnabled(true)
	if _, ok := c.Get("k2"); ok {
		t.Error("Set while disabled must be a no-op")
	}

	c.Delete("k")
	if _, ok := c.Get("k"); !ok {
		t.Error("original key should still resolve; a prior Delete attempt while disabled was a no-op")
	}
}

// TestCacheEnabledAndAvailableToggleIndependently asserts that enabled
// and available gate operations independently: either one alone being
// false is enough to blank all reads/writes, and flipping one back does
// not resurrect an op blocked solely by the other.
func TestCacheEnabledAndAvailableToggleIndependently(t *testing.T) {
	c := New(nil)

	c.SetAvailable(false)
	if c.Enabled() != true {
		t.Error("SetAvailable must not touch the enabled flag")
	}
	c.Set(CategoryMarket, "k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("Set must no-op when available=false even though enabled=true")
	}
	c.SetAvailable(true)

	c.SetEnabled(false)
	if c.Available() != true {
		t.Error("SetEnabled must not touch the available flag")
	}
	c.Set(CategoryMarket, "k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("Set must no-op when enabled=false even though available=true")
	}
	c.SetEnabled(true)

	c.Set(CategoryMarket, "k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Error("Set/Get must work again once both enabled and available are true")
	}
}

func TestCacheDeleteRemovesKey(t *testing.T) {
	c := New(nil)
	c.Set(CategoryMarket, "k", "v")
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected Get to miss after Delete")
	}
}

func TestCacheStatsHitRate(t *testing.T) {
	c := New(nil)
	c.Set(CategoryMarket, "k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.StatsSnapshot()
	if stats.Gets != 3 || stats.Hits != 2 || stats.Misses != 1 {
		t.Fatalf("stats = %+v, want Gets=3 Hits=2 Misses=1", stats)
	}
	want := 2.0 / 3.0
	if stats.HitRate != want {
		t.Errorf("HitRate = %v, want %v", stats.HitRate, want)
	}
}

func TestCacheResetStats(t *testing.T) {
	c := New(nil)
	c.Set(CategoryMarket, "k", "v")
	c.Get("k")
	c.ResetStats()

	stats := c.StatsSnapshot()
	if stats != (Stats{}) {
		t.Errorf("stats after reset = %+v, want zero value", stats)
	}
}
