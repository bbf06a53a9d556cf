// Command matchbookd runs the off-chain matching-engine service: an
// in-memory engine for a single demo market, a book aggregator
// and candle store fed from it, a cache/pub-sub layer for downstream
// subscribers, and a Prometheus scrape endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cosmossdk.io/log"

	"github.com/matchbook-labs/matchbook/aggregator"
	"github.com/matchbook-labs/matchbook/cache"
	"github.com/matchbook-labs/matchbook/engine"
	"github.com/matchbook-labs/matchbook/metrics"
)

// Config holds the daemon's runtime configuration.
type Config struct {
	MetricsAddr    string
	EventQueueSize int
	Demo           bool
}

func DefaultConfig() Config {
	return Config{
		MetricsAddr:    ":9090",
		EventQueueSize: 2048,
		Demo:           false,
	}
}

func main() {
	metricsAddr := flag.String("metrics-addr", "", "Prometheus scrape address")
	eventQueueSize := flag.Int("event-queue-size", 0, "Per-market event queue capacity")
	demo := flag.Bool("demo", false, "Place a handful of sample orders on startup")
	flag.Parse()

	cfg := DefaultConfig()
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *eventQueueSize > 0 {
		cfg.EventQueueSize = *eventQueueSize
	}
	if *demo {
		cfg.Demo = true
	}

	logger := log.NewLogger(os.Stderr)
	logger.Info("starting matchbookd", "metrics_addr", cfg.MetricsAddr, "demo", cfg.Demo)

	reg := metrics.NewRegistry()
	promReg := prometheus.NewRegistry()
	if err := promReg.Register(metrics.NewPrometheusCollector(reg)); err != nil {
		logger.Error("registering prometheus collector", "err", err)
		os.Exit(1)
	}

	agg := aggregator.NewAggregator()
	candles := aggregator.NewCandleStore(2000)
	store := cache.New(nil)
	ps := cache.NewPubSub(store)

	marketKey := [32]byte{'d', 'e', 'm', 'o'}
	market := &engine.Market{
		Status:       engine.MarketActive,
		BaseLotSize:  1,
		QuoteLotSize: 1,
		TickSize:     1,
		MinOrderSize: 1,
	}
	eng := engine.NewEngine(market, cfg.EventQueueSize, logger.With("market", "demo"))

	if cfg.Demo {
		if err := runDemo(eng, agg, candles, reg, logger); err != nil {
			logger.Error("demo sequence failed", "err", err)
		}
	}

	publishBook(eng, agg, ps, marketKey, reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	logger.Info("matchbookd is running", "metrics_endpoint", cfg.MetricsAddr+"/metrics")
	for {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := server.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown error", "err", err)
			}
			cancel()
			return
		case <-statsTicker.C:
			p := reg.Parser.Snapshot()
			c := reg.Cache.Snapshot()
			logger.Info("periodic stats", "parses", p.ParseCount, "cache_hit_rate", c.HitRate)
		}
	}
}

// runDemo places a resting book of asks and bids, then a crossing
// taker order, and settles the resulting fills.
func runDemo(eng *engine.Engine, agg *aggregator.Aggregator, candles *aggregator.CandleStore, reg *metrics.Registry, logger log.Logger) error {
	seller := [32]byte{1}
	buyer := [32]byte{2}
	taker := [32]byte{3}

	sellerOO := fundedOpenOrders(eng, seller, 0, 1_000_000)
	buyerOO := fundedOpenOrders(eng, buyer, 1_000_000, 0)
	takerOO := fundedOpenOrders(eng, taker, 0, 1_000_000)

	asks := []uint64{501, 502, 503}
	for i, price := range asks {
		if err := eng.PlaceOrder(buyerOO, buyer, engine.PlaceOrderParams{
			Side: engine.SideAsk, Price: price, Quantity: 10, ClientOrderID: uint64(i + 1),
		}); err != nil {
			return fmt.Errorf("placing demo ask at %d: %w", price, err)
		}
	}

	bids := []uint64{497, 498, 499}
	for i, price := range bids {
		if err := eng.PlaceOrder(sellerOO, seller, engine.PlaceOrderParams{
			Side: engine.SideBid, Price: price, Quantity: 10, ClientOrderID: uint64(i + 10),
		}); err != nil {
			return fmt.Errorf("placing demo bid at %d: %w", price, err)
		}
	}

	logger.Info("resting book seeded", "asks", asks, "bids", bids)

	if err := eng.PlaceOrder(takerOO, taker, engine.PlaceOrderParams{
		Side: engine.SideBid, Price: 502, Quantity: 15, ClientOrderID: 99,
	}); err != nil {
		return fmt.Errorf("placing demo taker order: %w", err)
	}

	lookup := func(owner [32]byte) (*engine.OpenOrders, bool) {
		switch owner {
		case seller:
			return sellerOO, true
		case buyer:
			return buyerOO, true
		case taker:
			return takerOO, true
		default:
			return nil, false
		}
	}
	consumed, err := eng.ConsumeEvents(100, lookup)
	if err != nil {
		return fmt.Errorf("consuming demo events: %w", err)
	}
	logger.Info("demo settlement complete", "events_consumed", consumed)

	candles.RecordTrade([32]byte{'d', 'e', 'm', 'o'}, 502, 10, time.Now().UTC())
	return nil
}

func fundedOpenOrders(eng *engine.Engine, owner [32]byte, base, quote uint64) *engine.OpenOrders {
	oo := eng.CreateOpenOrders([32]byte{'d', 'e', 'm', 'o'}, owner, [32]byte{})
	_ = eng.Deposit(oo, base, quote)
	return oo
}

// publishBook snapshots both book sides off the engine into the
// aggregator and broadcasts the resulting change set on the book topic.
func publishBook(eng *engine.Engine, agg *aggregator.Aggregator, ps *cache.PubSub, marketKey [32]byte, reg *metrics.Registry) {
	bidChanges := agg.ApplyUpdate(marketKey, aggregator.SideBid, leafInputs(eng.Bids, engine.SideBid), 1)
	askChanges := agg.ApplyUpdate(marketKey, aggregator.SideAsk, leafInputs(eng.Asks, engine.SideAsk), 1)
	reg.Aggregator.UpdateCount.Add(2)

	changes := append(append([]aggregator.Change{}, bidChanges...), askChanges...)
	if len(changes) == 0 {
		return
	}
	delta := agg.CreateDelta(marketKey, changes, 1)
	ps.Publish(cache.BookTopic(marketKey), delta)
	reg.Aggregator.SnapshotCount.Add(1)
}

// leafInputs flattens a book side's resting leaves into aggregator
// OrderInputs, recovering each leaf's price from its OrderID.
func leafInputs(side *engine.BookSide, s engine.Side) []aggregator.OrderInput {
	var out []aggregator.OrderInput
	it := side.IterBestFirst()
	for {
		leaf, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, aggregator.OrderInput{
			Price:    engine.DecodeOrderIDPrice(s, leaf.OrderID),
			Quantity: leaf.Quantity,
		})
	}
	return out
}
