// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_submissions_total",
			Help: "Total number of loan application submissions by outcome",
		},
		[]string{"outcome"},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_upload_bytes",
			Help:    "Size of stored loan documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_attempts_total",
			Help: "Total number of admin login attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of outbound notifications by kind and status",
		},
		[]string{"kind", "status"},
	)

	DispatchTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_tasks_active",
			Help: "Number of post-response tasks currently running",
		},
	)
)

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"

	KindNotificationEmail = "notification_email"
	KindAutoReplyEmail    = "auto_reply_email"
	KindStaffSMS          = "staff_sms"

	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeRateLimited = "rate_limited"
)

var CircuitBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state by component (0=closed, 1=half-open, 2=open)",
	},
	[]string{"component"},
)
