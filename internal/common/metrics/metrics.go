// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_status_transitions_total",
			Help: "Total number of application status transitions by target status",
		},
		[]string{"status"},
	)

	SeatsAllocated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_seats_allocated_total",
			Help: "Applications moved by the seat allocator, by outcome",
		},
		[]string{"outcome"},
	)

	WaitlistPromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_waitlist_promotions_total",
			Help: "Waitlisted applications promoted after a rejection freed a seat",
		},
	)

	AccountsProvisioned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admission_accounts_provisioned_total",
			Help: "Student accounts created for accepted applications",
		},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_notification_failures_total",
			Help: "Notifications that failed to send, by kind (best-effort, never fatal)",
		},
		[]string{"kind"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "admission_operation_duration_seconds",
			Help: "Duration of engine operations in seconds",
		},
		[]string{"operation"},
	)
)
