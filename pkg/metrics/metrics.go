package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionEvaluations counts row-level permission evaluations by resource kind,
	// action (view|edit|download) and result (allow|deny|error).
	PermissionEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaplatform_permission_evaluations_total",
			Help: "Total number of permission evaluations",
		},
		[]string{"kind", "action", "result"},
	)

	// DirectoryLookups counts person lookups against the directory by backend and
	// result (hit|miss|error|cached).
	DirectoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaplatform_directory_lookups_total",
			Help: "Total number of directory lookups",
		},
		[]string{"backend", "result"},
	)

	// PurgedResources counts resources hard-deleted by the maintenance job.
	PurgedResources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaplatform_purged_resources_total",
			Help: "Total number of soft-deleted resources purged",
		},
		[]string{"kind"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaplatform_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
