package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons recorded on events_skipped_total.
const (
	ReasonMalformed = "malformed"
	ReasonStale     = "outside_window"
)

// Manager owns the metrics of report runs. Each Manager has its own registry,
// so a run's numbers can be written out without Go runtime collectors.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	eventsFetched     prometheus.Counter
	eventsSkipped     *prometheus.CounterVec
	eventsDuplicate   prometheus.Counter
	reviewsJoined     *prometheus.CounterVec
	reviewsDropped    *prometheus.CounterVec
	reviewsSuperseded *prometheus.CounterVec
	annotators        *prometheus.GaugeVec
	runDuration       *prometheus.HistogramVec
	lastSuccess       *prometheus.GaugeVec
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "labelaudit",
		subsystem:        "report",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: m.constLabels,
		}
	}

	m.eventsFetched = auto.NewCounter(prometheus.CounterOpts(opts("events_fetched_total", "Label-log events returned by the source")))
	m.eventsSkipped = auto.NewCounterVec(prometheus.CounterOpts(opts("events_skipped_total", "Events dropped before joining, by reason")), []string{"reason"})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts(opts("events_duplicate_total", "Events delivered more than once")))
	m.reviewsJoined = auto.NewCounterVec(prometheus.CounterOpts(opts("reviews_joined_total", "Reviews attributed to a submission")), []string{"report"})
	m.reviewsDropped = auto.NewCounterVec(prometheus.CounterOpts(opts("reviews_dropped_total", "Reviews with no submission in the window")), []string{"report"})
	m.reviewsSuperseded = auto.NewCounterVec(prometheus.CounterOpts(opts("reviews_superseded_total", "Reviews replaced by a later review of the same submission")), []string{"report"})
	m.annotators = auto.NewGaugeVec(prometheus.GaugeOpts(opts("annotators_reported", "Annotators in the last report")), []string{"report"})
	m.lastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts(opts("last_success_timestamp_seconds", "Unix time of the last successful run")), []string{"report"})
	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Wall time of a report run",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"report"})
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// RecordFetched counts events returned by the source.
func (m *Manager) RecordFetched(n int) { m.eventsFetched.Add(float64(n)) }

// RecordSkipped counts one event dropped for reason.
func (m *Manager) RecordSkipped(reason string) { m.eventsSkipped.WithLabelValues(reason).Inc() }

// RecordDuplicates counts repeated event ids.
func (m *Manager) RecordDuplicates(n int) { m.eventsDuplicate.Add(float64(n)) }

// RecordJoin counts the result of a join.
func (m *Manager) RecordJoin(report string, joined, dropped, superseded int) {
	m.reviewsJoined.WithLabelValues(report).Add(float64(joined))
	m.reviewsDropped.WithLabelValues(report).Add(float64(dropped))
	m.reviewsSuperseded.WithLabelValues(report).Add(float64(superseded))
}

// SetAnnotators records how many annotators a report covered.
func (m *Manager) SetAnnotators(report string, n int) {
	m.annotators.WithLabelValues(report).Set(float64(n))
}

// ObserveRun records the duration of a run and, on success, its completion time.
func (m *Manager) ObserveRun(report string, d time.Duration, ok bool) {
	m.runDuration.WithLabelValues(report).Observe(d.Seconds())
	if ok {
		m.lastSuccess.WithLabelValues(report).SetToCurrentTime()
	}
}

// WriteTextfile writes all metrics in the text exposition format, suitable for
// the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
