package runtime

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/protoenclave/internal/runtime/envelope"
)

// Outcome labels recorded per boundary call.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeDecodeError = "decode_error"
	OutcomeSentinel    = "sentinel"
)

// Reasons for returning the null sentinel.
const (
	SentinelEncodeError      = "encode_error"
	SentinelPanic            = "panic"
	SentinelInvalidArguments = "invalid_arguments"
	SentinelAllocation       = "allocation"
)

// BoundaryMetrics tracks boundary calls by variant and outcome, null
// sentinels by reason and requests moved to the poison queue.
type BoundaryMetrics struct {
	mu sync.RWMutex

	variants  map[envelope.Variant]*VariantMetrics
	sentinels map[string]uint64
	poisoned  uint64

	// Prometheus collectors
	callsTotal      *prometheus.CounterVec
	sentinelTotal   *prometheus.CounterVec
	poisonedTotal   *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec

	registerer prometheus.Registerer
	registered bool
}

// VariantMetrics holds the in-process counters for one payload variant.
type VariantMetrics struct {
	Calls       uint64        `json:"calls"`
	Successes   uint64        `json:"successes"`
	Failures    uint64        `json:"failures"`
	Sentinels   uint64        `json:"sentinels"`
	TotalTime   time.Duration `json:"total_time"`
	LastCallAt  time.Time     `json:"last_call_at"`
	DecodeFails uint64        `json:"decode_failures"`
}

// BoundarySnapshot provides a point-in-time view of boundary metrics.
type BoundarySnapshot struct {
	TotalCalls     uint64                               `json:"total_calls"`
	TotalSentinels uint64                               `json:"total_sentinels"`
	TotalPoisoned  uint64                               `json:"total_poisoned"`
	Sentinels      map[string]uint64                    `json:"sentinels"`
	Variants       map[envelope.Variant]*VariantMetrics `json:"variants"`
	CollectedAt    time.Time                            `json:"collected_at"`
}

func newBoundaryCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "protoenclave",
			Subsystem: "boundary",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func newBoundaryHistogramVec(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "protoenclave",
			Subsystem: "boundary",
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// NewBoundaryMetrics creates a collector registering on registerer, or the
// Prometheus default registerer when nil.
func NewBoundaryMetrics(registerer prometheus.Registerer) *BoundaryMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BoundaryMetrics{
		variants:        make(map[envelope.Variant]*VariantMetrics),
		sentinels:       make(map[string]uint64),
		registerer:      registerer,
		callsTotal:      newBoundaryCounterVec("calls_total", "Boundary calls by payload variant and outcome", []string{"variant", "outcome"}),
		sentinelTotal:   newBoundaryCounterVec("sentinel_total", "Boundary calls answered with the null sentinel", []string{"reason"}),
		poisonedTotal:   newBoundaryCounterVec("poisoned_total", "Brokered requests moved to the poison queue", []string{"topic"}),
		durationSeconds: newBoundaryHistogramVec("duration_seconds", "Time spent inside the boundary per call", []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1, .5}, []string{"variant"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *BoundaryMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.callsTotal,
		m.sentinelTotal,
		m.poisonedTotal,
		m.durationSeconds,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordCall records one finished boundary call. A nil receiver is a no-op.
func (m *BoundaryMetrics) RecordCall(variant envelope.Variant, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateVariantMetrics(variant)
	metrics.Calls++
	metrics.TotalTime += elapsed
	metrics.LastCallAt = time.Now()
	switch outcome {
	case OutcomeSuccess:
		metrics.Successes++
	case OutcomeFailure:
		metrics.Failures++
	case OutcomeDecodeError:
		metrics.DecodeFails++
	case OutcomeSentinel:
		metrics.Sentinels++
	}

	m.callsTotal.WithLabelValues(string(variant), outcome).Inc()
	m.durationSeconds.WithLabelValues(string(variant)).Observe(elapsed.Seconds())
}

// RecordSentinel records a null-sentinel result and its reason.
func (m *BoundaryMetrics) RecordSentinel(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sentinels[reason]++
	m.sentinelTotal.WithLabelValues(reason).Inc()
}

// RecordPoisoned records a brokered request routed to the poison queue.
func (m *BoundaryMetrics) RecordPoisoned(topic string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.poisoned++
	m.poisonedTotal.WithLabelValues(topic).Inc()
}

// Snapshot returns a copy of the in-process counters.
func (m *BoundaryMetrics) Snapshot() BoundarySnapshot {
	snapshot := BoundarySnapshot{
		Sentinels:   make(map[string]uint64),
		Variants:    make(map[envelope.Variant]*VariantMetrics),
		CollectedAt: time.Now(),
	}
	if m == nil {
		return snapshot
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for variant, metrics := range m.variants {
		metricsCopy := *metrics
		snapshot.Variants[variant] = &metricsCopy
		snapshot.TotalCalls += metrics.Calls
	}
	for reason, count := range m.sentinels {
		snapshot.Sentinels[reason] = count
		snapshot.TotalSentinels += count
	}
	snapshot.TotalPoisoned = m.poisoned
	return snapshot
}

func (m *BoundaryMetrics) getOrCreateVariantMetrics(variant envelope.Variant) *VariantMetrics {
	if metrics, ok := m.variants[variant]; ok {
		return metrics
	}
	metrics := &VariantMetrics{}
	m.variants[variant] = metrics
	return metrics
}

// Reset clears all counters (useful for testing).
func (m *BoundaryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.variants = make(map[envelope.Variant]*VariantMetrics)
	m.sentinels = make(map[string]uint64)
	m.poisoned = 0
	m.callsTotal.Reset()
	m.sentinelTotal.Reset()
	m.poisonedTotal.Reset()
	m.durationSeconds.Reset()
}
