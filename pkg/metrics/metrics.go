// Package metrics provides Prometheus metrics for the pp processor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the pp processor.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// osu.pp.startups
	startups *prometheus.CounterVec

	// osu.pp.score.*
	scoreProcessedNew       *prometheus.CounterVec
	scoreUpdated            *prometheus.CounterVec
	scoreAmountBehindNewest *prometheus.GaugeVec
	scoreNotableEvents      *prometheus.CounterVec

	// osu.pp.user.*
	userAmountProcessed *prometheus.CounterVec

	// osu.pp.difficulty.*
	difficultyRequiredRetrieval *prometheus.CounterVec
	difficultyRetrievalSuccess  *prometheus.CounterVec
	difficultyRetrievalNotFound *prometheus.CounterVec

	// osu.pp.db.*
	dbPendingQueries *prometheus.GaugeVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "osu",
		subsystem:        "pp",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.startups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "startups_total",
		Help: "Number of times a processor for a gamemode has started.",
	}, []string{"mode"})

	m.scoreProcessedNew = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "score_processed_new_total",
		Help: "Number of newly submitted scores processed by the live poller.",
	}, []string{"mode"})

	m.scoreUpdated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "score_updated_total",
		Help: "Number of scores whose stored pp value was updated.",
	}, []string{"mode"})

	m.scoreAmountBehindNewest = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "score_amount_behind_newest",
		Help: "Number of unprocessed scores found on the last poll.",
	}, []string{"mode"})

	m.scoreNotableEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "score_notable_events_total",
		Help: "Number of notable-event rows inserted.",
	}, []string{"mode"})

	m.userAmountProcessed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "user_amount_processed_total",
		Help: "Number of users whose rating was recomputed.",
	}, []string{"mode"})

	m.difficultyRequiredRetrieval = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "difficulty_required_retrieval_total",
		Help: "Number of times a beatmap difficulty load was triggered.",
	}, []string{"mode"})

	m.difficultyRetrievalSuccess = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "difficulty_retrieval_success_total",
		Help: "Number of beatmap difficulty loads that found a row.",
	}, []string{"mode"})

	m.difficultyRetrievalNotFound = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "difficulty_retrieval_not_found_total",
		Help: "Number of beatmap difficulty loads that found nothing.",
	}, []string{"mode"})

	m.dbPendingQueries = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "db_pending_queries",
		Help: "Number of queries currently pending on a connection.",
	}, []string{"mode", "connection"})
}

// Startups increments the startup counter for a mode.
func (m *Manager) Startups(mode string) { m.startups.WithLabelValues(mode).Inc() }

// ScoreProcessedNew increments the processed-new-score counter.
func (m *Manager) ScoreProcessedNew(mode string) { m.scoreProcessedNew.WithLabelValues(mode).Inc() }

// ScoreUpdated increments the updated-score counter by n.
func (m *Manager) ScoreUpdated(mode string, n int) {
	m.scoreUpdated.WithLabelValues(mode).Add(float64(n))
}

// SetScoreAmountBehindNewest sets the behind-newest gauge.
func (m *Manager) SetScoreAmountBehindNewest(mode string, n int) {
	m.scoreAmountBehindNewest.WithLabelValues(mode).Set(float64(n))
}

// NotableEvent increments the notable-event counter.
func (m *Manager) NotableEvent(mode string) { m.scoreNotableEvents.WithLabelValues(mode).Inc() }

// UserProcessed increments the processed-user counter.
func (m *Manager) UserProcessed(mode string) { m.userAmountProcessed.WithLabelValues(mode).Inc() }

// DifficultyRequiredRetrieval increments the required-retrieval counter.
func (m *Manager) DifficultyRequiredRetrieval(mode string) {
	m.difficultyRequiredRetrieval.WithLabelValues(mode).Inc()
}

// DifficultyRetrievalSuccess increments the retrieval-success counter.
func (m *Manager) DifficultyRetrievalSuccess(mode string) {
	m.difficultyRetrievalSuccess.WithLabelValues(mode).Inc()
}

// DifficultyRetrievalNotFound increments the retrieval-not-found counter.
func (m *Manager) DifficultyRetrievalNotFound(mode string) {
	m.difficultyRetrievalNotFound.WithLabelValues(mode).Inc()
}

// SetDBPendingQueries sets the pending-query gauge for a connection.
func (m *Manager) SetDBPendingQueries(mode, connection string, n int) {
	m.dbPendingQueries.WithLabelValues(mode, connection).Set(float64(n))
}

// Global convenience wrappers, mirroring the package-level API used by callers
// that don't hold their own Manager.

func Startups(mode string)                     { globalManager.Startups(mode) }
func ScoreProcessedNew(mode string)             { globalManager.ScoreProcessedNew(mode) }
func ScoreUpdated(mode string, n int)           { globalManager.ScoreUpdated(mode, n) }
func SetScoreAmountBehindNewest(mode string, n int) {
	globalManager.SetScoreAmountBehindNewest(mode, n)
}
func NotableEvent(mode string)       { globalManager.NotableEvent(mode) }
func UserProcessed(mode string)      { globalManager.UserProcessed(mode) }
func DifficultyRequiredRetrieval(mode string) { globalManager.DifficultyRequiredRetrieval(mode) }
func DifficultyRetrievalSuccess(mode string)  { globalManager.DifficultyRetrievalSuccess(mode) }
func DifficultyRetrievalNotFound(mode string) { globalManager.DifficultyRetrievalNotFound(mode) }
func SetDBPendingQueries(mode, connection string, n int) {
	globalManager.SetDBPendingQueries(mode, connection, n)
}

// Default returns the global manager, for callers that need direct access
// (e.g. tests constructing an isolated registry).
func Default() *Manager { return globalManager }

// GetRegistry returns the custom registry every global metric is registered
// against, for wiring a promhttp handler in main.
func GetRegistry() *prometheus.Registry { return customRegistry }
