package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/insurly/claim-processor/internal/core/domain"
)

// PipelineMetrics records claim pipeline telemetry. It satisfies the
// pipeline's observer port.
type PipelineMetrics struct {
	service string

	workflowTotal      *prometheus.CounterVec
	workflowDuration   *prometheus.HistogramVec
	stageDuration      *prometheus.HistogramVec
	classifiedTotal    *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	workflowTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "workflow_total",
			Help:      "Total claim workflows by terminal status.",
		},
		[]string{"service", "status"},
	)
	workflowDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "workflow_duration_seconds",
			Help:      "End-to-end claim workflow duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	classifiedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "classified_documents_total",
			Help:      "Total classified documents by assigned type.",
		},
		[]string{"service", "document_type"},
	)
	extractionFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "claims",
			Subsystem: "pipeline",
			Name:      "extraction_failures_total",
			Help:      "Total degraded field extraction calls by document type.",
		},
		[]string{"service", "document_type"},
	)

	registerer.MustRegister(workflowTotal, workflowDuration, stageDuration, classifiedTotal, extractionFailures)

	return &PipelineMetrics{
		service:            service,
		workflowTotal:      workflowTotal,
		workflowDuration:   workflowDuration,
		stageDuration:      stageDuration,
		classifiedTotal:    classifiedTotal,
		extractionFailures: extractionFailures,
	}
}

func (m *PipelineMetrics) ObserveWorkflow(status domain.WorkflowStatus, duration time.Duration) {
	m.workflowTotal.WithLabelValues(m.service, string(status)).Inc()
	m.workflowDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveClassification(docType domain.DocumentType) {
	m.classifiedTotal.WithLabelValues(m.service, string(docType)).Inc()
}

func (m *PipelineMetrics) ObserveExtractionFailure(docType domain.DocumentType) {
	m.extractionFailures.WithLabelValues(m.service, string(docType)).Inc()
}
