package goRecover

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goRecover/api"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	MetricRequestSubmitted MetricID = iota
	MetricRequestAccepted
	MetricRequestRejected
	MetricRequestTransportFault
	MetricRequestValidationFailed
	MetricRequestThrottled
	MetricThrottleUnavailable
	MetricVerifyValid
	MetricVerifyInvalid
	MetricVerifyTransportFault
	MetricMissingToken
	MetricResetSubmitted
	MetricResetSuccess
	MetricResetRejected
	MetricResetTransportFault
	MetricResetValidationFailed
	// MetricDuplicateSubmitBlocked counts submissions refused while a call was outstanding.
	MetricDuplicateSubmitBlocked
	// MetricLateResponseDiscarded counts results that arrived after Close.
	MetricLateResponseDiscarded
	MetricRequestResetLatency
	MetricVerifyTokenLatency
	MetricResetPasswordLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

var latencyMetrics = [...]MetricID{
	MetricRequestResetLatency,
	MetricVerifyTokenLatency,
	MetricResetPasswordLatency,
}

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free set of counters and per-operation latency
// histograms. A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics. Histogram slices
// hold per-bucket (non-cumulative) counts. Events is filled by
// Client.MetricsSnapshot even when counters are disabled.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	Events     EventStats
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only latency metrics carry
// histograms; other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || !isLatencyMetric(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// ObserveOperation records d against the histogram of an api operation name.
func (m *Metrics) ObserveOperation(op string, d time.Duration) {
	id, ok := latencyMetricForOp(op)
	if !ok {
		return
	}
	m.Observe(id, d)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, len(latencyMetrics)),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isLatencyMetric(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range latencyMetrics {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isLatencyMetric(id MetricID) bool {
	for _, l := range latencyMetrics {
		if l == id {
			return true
		}
	}
	return false
}

func latencyMetricForOp(op string) (MetricID, bool) {
	switch op {
	case api.OpRequestReset:
		return MetricRequestResetLatency, true
	case api.OpVerifyToken:
		return MetricVerifyTokenLatency, true
	case api.OpResetPassword:
		return MetricResetPasswordLatency, true
	default:
		return 0, false
	}
}

// Upper bounds must stay in step with internaldefs.HistogramBounds.
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
	case ms <= 5000:
		return 6
	default:
		return 7
	}
}
