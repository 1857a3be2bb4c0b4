package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civictrack_status_transitions_total",
			Help: "Issue status changes written to the store",
		},
		[]string{"from", "to"},
	)

	auditLogFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civictrack_audit_log_failures_total",
			Help: "Status changes whose audit log entry could not be written",
		},
	)

	issuesReportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civictrack_issues_reported_total",
			Help: "Issues created, by category and reporter type",
		},
		[]string{"category", "reporter_type"},
	)
)
