package history

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
)

// latency bounds in microseconds
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Stats summarizes a set of entries.
type Stats struct {
	Count  int                   `json:"count"`
	ByKind map[executor.Kind]int `json:"byKind"`
	P50    time.Duration         `json:"p50"`
	P95    time.Duration         `json:"p95"`
	P99    time.Duration         `json:"p99"`
	Min    time.Duration         `json:"min"`
	Max    time.Duration         `json:"max"`
	Mean   time.Duration         `json:"mean"`
}

// SuccessRate returns the share of successful executions in percent.
func (s Stats) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.ByKind[executor.KindSuccess]) / float64(s.Count) * 100
}

// Summarize computes latency statistics. Latencies are clamped to 1µs..60s.
func Summarize(entries []Entry) Stats {
	stats := Stats{
		Count:  len(entries),
		ByKind: make(map[executor.Kind]int),
	}
	if len(entries) == 0 {
		return stats
	}

	histogram := hdrhistogram.New(minLatencyUs, maxLatencyUs, 3)
	for _, e := range entries {
		stats.ByKind[e.Kind]++

		latencyUs := e.Duration.Microseconds()
		if latencyUs < minLatencyUs {
			latencyUs = minLatencyUs
		}
		if latencyUs > maxLatencyUs {
			latencyUs = maxLatencyUs
		}
		_ = histogram.RecordValue(latencyUs)
	}

	stats.P50 = time.Duration(histogram.ValueAtQuantile(50)) * time.Microsecond
	stats.P95 = time.Duration(histogram.ValueAtQuantile(95)) * time.Microsecond
	stats.P99 = time.Duration(histogram.ValueAtQuantile(99)) * time.Microsecond
	stats.Min = time.Duration(histogram.Min()) * time.Microsecond
	stats.Max = time.Duration(histogram.Max()) * time.Microsecond
	stats.Mean = time.Duration(histogram.Mean()) * time.Microsecond

	return stats
}
