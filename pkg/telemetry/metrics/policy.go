package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/policy"
)

// OperationMetrics tracks policy service calls.
//
// Metrics:
//   - ferry_policy_operations_total: Operations by kind and result
//   - ferry_policy_operation_duration_seconds: Operation duration, including
//     notification dispatch
//   - ferry_policy_payload_bytes: Payload sizes passed to set and ingest
type OperationMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payloadBytes      *prometheus.HistogramVec
}

// NewOperationMetrics creates and registers operation metrics with the
// provided registry.
func NewOperationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OperationMetrics {
	om := &OperationMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operations_total",
				Help:      "Total number of policy service operations",
			},
			[]string{"op", "result"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Duration of policy service operations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"op"},
		),

		payloadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "payload_bytes",
				Help:      "Size of policy payloads written",
				Buckets:   prometheus.ExponentialBuckets(16, 4, 7), // 16B to 64KiB
			},
			[]string{"op"},
		),
	}

	registry.MustRegister(
		om.operationsTotal,
		om.operationDuration,
		om.payloadBytes,
	)

	return om
}

// RecordOperation records one completed operation.
func (om *OperationMetrics) RecordOperation(op, result string, duration time.Duration, size int) {
	om.operationsTotal.WithLabelValues(op, result).Inc()
	om.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if size > 0 && result == "ok" && (op == "set" || op == "ingest") {
		om.payloadBytes.WithLabelValues(op).Observe(float64(size))
	}
}

// resultLabel maps an operation error to a bounded label value.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, policy.ErrNotFound):
		return "not_found"
	case errors.Is(err, policy.ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, policy.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, policy.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, policy.ErrOutOfResources):
		return "out_of_resources"
	default:
		return "error"
	}
}
