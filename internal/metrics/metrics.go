// Package metrics provides Prometheus instrumentation for fan verification.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document and profile verification.
type Metrics struct {
	// Identity verdicts by outcome: "matched", "not_matched", "no_text"
	DocumentVerdicts *prometheus.CounterVec

	// OCR degradations by declared content type
	OCRFailures *prometheus.CounterVec

	// Profile extractions by platform and the strategy that produced text
	ProfileExtractions *prometheus.CounterVec

	// Relevance verdicts by platform and relevant=true|false
	RelevanceVerdicts *prometheus.CounterVec

	// End-to-end latency by operation: "document", "profile"
	OperationLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DocumentVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fanverify_document_verdicts_total",
			Help: "Identity document verdicts by outcome",
		}, []string{"outcome"}),

		OCRFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fanverify_ocr_failures_total",
			Help: "Documents whose text could not be extracted, by content type",
		}, []string{"content_type"}),

		ProfileExtractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fanverify_profile_extractions_total",
			Help: "Profile content extractions by platform and winning strategy",
		}, []string{"platform", "strategy"}),

		RelevanceVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fanverify_relevance_verdicts_total",
			Help: "Profile relevance verdicts by platform",
		}, []string{"platform", "relevant"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fanverify_operation_duration_seconds",
			Help:    "Duration of verification operations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		}, []string{"operation"}),
	}
}

// Document verdict outcomes.
const (
	OutcomeMatched    = "matched"
	OutcomeNotMatched = "not_matched"
	OutcomeNoText     = "no_text"
)

// Operation labels.
const (
	OperationDocument = "document"
	OperationProfile  = "profile"
)

// IncrementDocumentVerdict records an identity verdict.
func (m *Metrics) IncrementDocumentVerdict(outcome string) {
	if m != nil {
		m.DocumentVerdicts.WithLabelValues(outcome).Inc()
	}
}

// IncrementOCRFailure records a document whose text could not be extracted.
func (m *Metrics) IncrementOCRFailure(contentType string) {
	if m != nil {
		m.OCRFailures.WithLabelValues(contentType).Inc()
	}
}

// IncrementProfileExtraction records which strategy produced a profile's text.
func (m *Metrics) IncrementProfileExtraction(platform, strategy string) {
	if m != nil {
		m.ProfileExtractions.WithLabelValues(platform, strategy).Inc()
	}
}

// IncrementRelevanceVerdict records a relevance verdict.
func (m *Metrics) IncrementRelevanceVerdict(platform string, relevant bool) {
	if m != nil {
		m.RelevanceVerdicts.WithLabelValues(platform, strconv.FormatBool(relevant)).Inc()
	}
}

// ObserveOperationLatency records the duration of a verification operation.
func (m *Metrics) ObserveOperationLatency(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
