package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusCollectorDescribeEmitsAllDescriptors(t *testing.T) {
	c := NewPrometheusCollector(NewRegistry())
	ch := make(chan *prometheus.Desc, 64)
	c.Describe(ch)
	close(ch)

	var count int
	for range ch {
		count++
	}
	if count != 20 {
		t.Errorf("Describe emitted %d descriptors, want 20", count)
	}
}

func TestPrometheusCollectorCollectEmitsAllMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.Parser.RecordParse(true, 100)
	reg.Cache.Gets.Add(1)
	reg.Cache.Hits.Add(1)

	c := NewPrometheusCollector(reg)
	ch := make(chan prometheus.Metric, 64)
	c.Collect(ch)
	close(ch)

	var count int
	for range ch {
		count++
	}
	if count != 20 {
		t.Errorf("Collect emitted %d metrics, want 20", count)
	}
}

func TestPrometheusCollectorRegistersCleanly(t *testing.T) {
	promReg := prometheus.NewRegistry()
	c := NewPrometheusCollector(NewRegistry())
	if err := promReg.Register(c); err != nil {
		t.Fatalf("Register() = %v, want nil", err)
	}
}
