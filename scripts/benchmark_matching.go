// Command benchmark_matching drives the matching engine directly
// in-process (no HTTP hop) and reports per-order latency percentiles.
// The engine is single-writer by design (see engine.Engine), so orders
// are placed sequentially rather than from concurrent goroutines —
// this measures the engine's own per-call cost, not transport overhead.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"cosmossdk.io/log"

	"github.com/matchbook-labs/matchbook/engine"
)

type latencyRecord struct {
	Side    string
	Latency time.Duration
	Matched bool
}

type benchmarkResults struct {
	BuySuccess, SellSuccess   int64
	BuyFailed, SellFailed     int64
	TotalMatched, TotalTrades int64
	BuyLatencies              []time.Duration
	SellLatencies             []time.Duration
	MatchLatencies            []time.Duration
}

func percentile(latencies []time.Duration, p float64) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avg(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	return total / time.Duration(len(latencies))
}

func minDur(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	m := latencies[0]
	for _, l := range latencies {
		if l < m {
			m = l
		}
	}
	return m
}

func maxDur(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	m := latencies[0]
	for _, l := range latencies {
		if l > m {
			m = l
		}
	}
	return m
}

func main() {
	orderCount := flag.Int("n", 10000, "Number of orders per side (buy and sell)")
	price := flag.Uint64("price", 50000, "Order price for matching")
	quantity := flag.Uint64("qty", 1, "Order quantity")
	flag.Parse()

	fmt.Println("=== Matching Engine Benchmark - Buy/Sell Stress Test ===")
	fmt.Printf("Orders/Side:  %d (total: %d)\n", *orderCount, *orderCount*2)
	fmt.Printf("Price:        %d\n", *price)
	fmt.Printf("Quantity:     %d\n\n", *quantity)

	market := &engine.Market{
		Status:       engine.MarketActive,
		BaseLotSize:  1,
		QuoteLotSize: 1,
		TickSize:     1,
		MinOrderSize: 1,
	}
	eng := engine.NewEngine(market, *orderCount*4, log.NewNopLogger())

	seller := [32]byte{1}
	buyer := [32]byte{2}
	sellerOO := eng.CreateOpenOrders([32]byte{'b', 'e', 'n', 'c', 'h'}, seller, [32]byte{})
	buyerOO := eng.CreateOpenOrders([32]byte{'b', 'e', 'n', 'c', 'h'}, buyer, [32]byte{})
	maxNotional := (*price + 1) * (*quantity) * uint64(*orderCount) * 2
	if err := eng.Deposit(sellerOO, maxNotional, maxNotional); err != nil {
		fmt.Printf("seeding seller deposit: %v\n", err)
		os.Exit(1)
	}
	if err := eng.Deposit(buyerOO, maxNotional, maxNotional); err != nil {
		fmt.Printf("seeding buyer deposit: %v\n", err)
		os.Exit(1)
	}

	results := &benchmarkResults{
		BuyLatencies:   make([]time.Duration, 0, *orderCount),
		SellLatencies:  make([]time.Duration, 0, *orderCount),
		MatchLatencies: make([]time.Duration, 0, *orderCount*2),
	}

	fmt.Println("Starting benchmark...")
	startTime := time.Now()

	for i := 0; i < *orderCount; i++ {
		for _, rec := range []struct {
			side   engine.Side
			oo     *engine.OpenOrders
			owner  [32]byte
			name   string
			appendTo *[]time.Duration
		}{
			{engine.SideAsk, sellerOO, seller, "sell", &results.SellLatencies},
			{engine.SideBid, buyerOO, buyer, "buy", &results.BuyLatencies},
		} {
			start := time.Now()
			err := eng.PlaceOrder(rec.oo, rec.owner, engine.PlaceOrderParams{
				Side:          rec.side,
				Price:         *price,
				Quantity:      *quantity,
				ClientOrderID: uint64(i + 1),
			})
			latency := time.Since(start)
			*rec.appendTo = append(*rec.appendTo, latency)

			if err != nil {
				if rec.side == engine.SideAsk {
					results.SellFailed++
				} else {
					results.BuyFailed++
				}
				continue
			}
			if rec.side == engine.SideAsk {
				results.SellSuccess++
			} else {
				results.BuySuccess++
			}
		}
	}

	lookup := func(owner [32]byte) (*engine.OpenOrders, bool) {
		switch owner {
		case seller:
			return sellerOO, true
		case buyer:
			return buyerOO, true
		default:
			return nil, false
		}
	}
	for {
		consumed, err := eng.ConsumeEvents(256, lookup)
		if err != nil || consumed == 0 {
			break
		}
		results.TotalTrades += int64(consumed)
	}

	elapsed := time.Since(startTime)

	totalOrders := results.BuySuccess + results.BuyFailed + results.SellSuccess + results.SellFailed
	totalSuccess := results.BuySuccess + results.SellSuccess
	successRate := float64(totalSuccess) / float64(totalOrders) * 100
	throughput := float64(totalOrders) / elapsed.Seconds()

	allLatencies := append(append([]time.Duration{}, results.BuyLatencies...), results.SellLatencies...)

	fmt.Println()
	fmt.Println("=== BENCHMARK RESULTS ===")
	fmt.Printf("Test Duration:   %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Throughput:      %.2f orders/sec\n\n", throughput)

	fmt.Println("-- Order Statistics --")
	fmt.Printf("  Total Orders:  %d\n", totalOrders)
	fmt.Printf("  Buy:           success=%d failed=%d\n", results.BuySuccess, results.BuyFailed)
	fmt.Printf("  Sell:          success=%d failed=%d\n", results.SellSuccess, results.SellFailed)
	fmt.Printf("  Success Rate:  %.2f%%\n\n", successRate)

	fmt.Println("-- Matching Statistics --")
	fmt.Printf("  Events Consumed (trades+outs): %d\n\n", results.TotalTrades)

	fmt.Println("-- Overall Latency (all orders) --")
	fmt.Printf("  Min:     %v\n", minDur(allLatencies))
	fmt.Printf("  Max:     %v\n", maxDur(allLatencies))
	fmt.Printf("  Average: %v\n", avg(allLatencies))
	fmt.Printf("  P50:     %v\n", percentile(allLatencies, 0.50))
	fmt.Printf("  P90:     %v\n", percentile(allLatencies, 0.90))
	fmt.Printf("  P99:     %v\n", percentile(allLatencies, 0.99))
}
