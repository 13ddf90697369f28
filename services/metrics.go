// ABOUTME: Prometheus metrics for distribution runs and inventory scans
// ABOUTME: Registered on the default registry and served from /metrics

package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sqlnova/migration-planner/models"
)

var (
	distributionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlnova_distribution_runs_total",
		Help: "Distribution engine runs by source (computed or cached)",
	}, []string{"source"})

	distributionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sqlnova_distribution_duration_seconds",
		Help:    "Distribution engine run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	})

	distributionInstances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlnova_distribution_instances_total",
		Help: "Destination instances produced by status",
	}, []string{"status"})

	inventoryScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqlnova_inventory_scans_total",
		Help: "SQL Server inventory scans by kind and result",
	}, []string{"kind", "result"})
)

// ObserveDistribution records one engine run
func ObserveDistribution(elapsed time.Duration, instances []models.SuggestedInstance) {
	distributionRuns.WithLabelValues("computed").Inc()
	distributionDuration.Observe(elapsed.Seconds())
	for _, inst := range instances {
		distributionInstances.WithLabelValues(inst.Status).Inc()
	}
}

// ObserveCachedDistribution records a run answered from the result cache
func ObserveCachedDistribution() {
	distributionRuns.WithLabelValues("cached").Inc()
}

func observeScan(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	inventoryScans.WithLabelValues(kind, result).Inc()
}
