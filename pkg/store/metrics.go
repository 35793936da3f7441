package store

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convostore",
		Subsystem: "store",
		Name:      "ops_total",
		Help:      "Backend operations attempted, by operation.",
	}, []string{"op"})
	opErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convostore",
		Subsystem: "store",
		Name:      "op_errors_total",
		Help:      "Backend operations that failed, by operation. Not-found lookups are not errors.",
	}, []string{"op"})
	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "convostore",
		Subsystem: "store",
		Name:      "op_duration_seconds",
		Help:      "Backend operation latency, by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(opTotal, opErrors, opDuration)
}

func observe(op string, start time.Time, err error) {
	opTotal.WithLabelValues(op).Inc()
	opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		opErrors.WithLabelValues(op).Inc()
	}
}
