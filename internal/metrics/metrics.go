// Package metrics provides Prometheus instrumentation and a JSON stats endpoint
// for the agentready scanner.
package metrics

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxTopEntries = 100

// Metrics collects Prometheus counters and histograms for scan runs.
type Metrics struct {
	registry *prometheus.Registry

	scansTotal      *prometheus.CounterVec
	detectionsTotal *prometheus.CounterVec
	gradesTotal     *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	probeDuration   *prometheus.HistogramVec
	activeScans     prometheus.Gauge

	mu           sync.Mutex
	startTime    time.Time
	topPlatforms map[string]int64
	topModels    map[string]int64
	scannedCount int64
	failedCount  int64
	scoreSum     int64
}

// New creates a Metrics instance with its own Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	scansTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentready",
		Name:      "scans_total",
		Help:      "Total number of domain scans by result.",
	}, []string{"result"})

	detectionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentready",
		Name:      "protocol_detections_total",
		Help:      "Protocol probe outcomes by protocol and status.",
	}, []string{"protocol", "status"})

	gradesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentready",
		Name:      "grades_total",
		Help:      "Readiness grades assigned to scanned domains.",
	}, []string{"grade"})

	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agentready",
		Name:      "scan_duration_seconds",
		Help:      "Full per-domain pipeline duration in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	probeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "agentready",
		Name:      "probe_duration_seconds",
		Help:      "Single protocol probe duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"protocol"})

	activeScans := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agentready",
		Name:      "active_scans",
		Help:      "Current number of in-flight domain scans.",
	})

	reg.MustRegister(scansTotal, detectionsTotal, gradesTotal,
		scanDuration, probeDuration, activeScans)

	return &Metrics{
		registry:        reg,
		scansTotal:      scansTotal,
		detectionsTotal: detectionsTotal,
		gradesTotal:     gradesTotal,
		scanDuration:    scanDuration,
		probeDuration:   probeDuration,
		activeScans:     activeScans,
		startTime:       time.Now(),
		topPlatforms:    make(map[string]int64),
		topModels:       make(map[string]int64),
	}
}

// RecordScan records a completed domain scan with its grade, platform, and
// business model. An empty platform means none was detected.
func (m *Metrics) RecordScan(grade, platform, model string, score int, duration time.Duration) {
	m.scansTotal.WithLabelValues("scanned").Inc()
	m.gradesTotal.WithLabelValues(grade).Inc()
	m.scanDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.scannedCount++
	m.scoreSum += int64(score)
	if platform != "" {
		if len(m.topPlatforms) < maxTopEntries {
			m.topPlatforms[platform]++
		} else if _, exists := m.topPlatforms[platform]; exists {
			m.topPlatforms[platform]++
		}
	}
	if len(m.topModels) < maxTopEntries {
		m.topModels[model]++
	} else if _, exists := m.topModels[model]; exists {
		m.topModels[model]++
	}
	m.mu.Unlock()
}

// RecordScanFailed records a domain whose probe phase failed and degraded
// to default results.
func (m *Metrics) RecordScanFailed(duration time.Duration) {
	m.scansTotal.WithLabelValues("failed").Inc()
	m.scanDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.failedCount++
	m.mu.Unlock()
}

// RecordDetection records one protocol probe outcome.
func (m *Metrics) RecordDetection(protocol, status string, duration time.Duration) {
	m.detectionsTotal.WithLabelValues(protocol, status).Inc()
	m.probeDuration.WithLabelValues(protocol).Observe(duration.Seconds())
}

// IncrActiveScans increments the active scan gauge.
func (m *Metrics) IncrActiveScans() {
	m.activeScans.Inc()
}

// DecrActiveScans decrements the active scan gauge.
func (m *Metrics) DecrActiveScans() {
	m.activeScans.Dec()
}

// PrometheusHandler returns an HTTP handler that serves /metrics in Prometheus text format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StatsHandler returns an HTTP handler that serves a JSON stats summary.
func (m *Metrics) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		total := m.scannedCount + m.failedCount
		stats := statsResponse{
			UptimeSeconds: time.Since(m.startTime).Seconds(),
			Scans: scanStats{
				Total:   total,
				Scanned: m.scannedCount,
				Failed:  m.failedCount,
			},
			TopPlatforms: topN(m.topPlatforms),
			TopModels:    topN(m.topModels),
		}
		if m.scannedCount > 0 {
			stats.Scans.AverageScore = float64(m.scoreSum) / float64(m.scannedCount)
		}
		if total > 0 {
			stats.Scans.FailureRate = float64(m.failedCount) / float64(total)
		}
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}

type statsResponse struct {
	UptimeSeconds float64       `json:"uptime_seconds"`
	Scans         scanStats     `json:"scans"`
	TopPlatforms  []rankedEntry `json:"top_platforms"`
	TopModels     []rankedEntry `json:"top_business_models"`
}

type scanStats struct {
	Total        int64   `json:"total"`
	Scanned      int64   `json:"scanned"`
	Failed       int64   `json:"failed"`
	FailureRate  float64 `json:"failure_rate"`
	AverageScore float64 `json:"average_score"`
}

type rankedEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func topN(m map[string]int64) []rankedEntry {
	entries := make([]rankedEntry, 0, len(m))
	for name, count := range m {
		entries = append(entries, rankedEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}
