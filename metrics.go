package goCampus

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goCampus APIs.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that were persisted and adopted.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins and logins that could not be persisted.
	MetricLoginFailure
	// MetricSessionCheckSuccess counts tokens confirmed by the backend.
	MetricSessionCheckSuccess
	// MetricSessionCheckFailure counts tokens dropped after a failed check.
	MetricSessionCheckFailure
	// MetricLogout counts explicit and implicit logouts.
	MetricLogout
	// MetricRedirect counts replace instructions issued to the router.
	MetricRedirect
	// MetricUnknownRole counts entries into the unknown-role state.
	MetricUnknownRole
	// MetricStorageFailure counts credential storage errors the store recovered from.
	MetricStorageFailure
	// MetricPushRegistered counts accepted push-token registrations.
	MetricPushRegistered
	// MetricSessionCheckLatency is the session check round-trip histogram.
	MetricSessionCheckLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and one latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the session check latency histogram. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricSessionCheckLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns a counter's current value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricSessionCheckLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricSessionCheckLatency].buckets[i])
		}
		s.Histograms[MetricSessionCheckLatency] = buckets
	}

	return s
}

// Session checks cross the network, so buckets run from 50ms to 10s.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 50:
		return 0
	case ms <= 100:
		return 1
	case ms <= 250:
		return 2
	case ms <= 500:
		return 3
	case ms <= 1000:
		return 4
	case ms <= 2500:
		return 5
	case ms <= 10000:
		return 6
	default:
		return 7
	}
}
