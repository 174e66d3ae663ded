package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"meatdash/internal/models"
)

var (
	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meatdash_interactions_total",
		Help: "Dashboard interactions by outcome (all, rendered, empty, incomplete).",
	}, []string{"outcome"})

	planSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meatdash_plan_seconds",
		Help:    "Time spent filtering and aggregating one interaction.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

func observePlan(plan *models.RenderPlan, took time.Duration) {
	planSeconds.Observe(took.Seconds())
	interactionsTotal.WithLabelValues(outcome(plan)).Inc()
}

func outcome(plan *models.RenderPlan) string {
	switch {
	case plan.Incomplete != nil:
		return "incomplete"
	case plan.Mode == "all":
		return "all"
	case plan.Empty:
		return "empty"
	default:
		return "rendered"
	}
}
