package ledger

import (
	"strings"
	"time"

	"github.com/gaze-network/collectible-ledger/common/errs"
	"github.com/gaze-network/collectible-ledger/pkg/errorhandler"
	"github.com/gaze-network/collectible-ledger/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Ledger calls by operation and result.",
	}, []string{"operation", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: "ledger",
		Name:      "operation_duration_seconds",
		Help:      "Ledger call latency, including the datastore transaction.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})
)

func observeOperation(operation string, start time.Time, err error) {
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	operationsTotal.WithLabelValues(operation, result(err)).Inc()
}

// result maps err to a stable snake_case label, the lowercase form of the API error code.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := errs.KindOf(err); ok {
		return strings.ToLower(errorhandler.Code(kind))
	}
	return "error"
}
