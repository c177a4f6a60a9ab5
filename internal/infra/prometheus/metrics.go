package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationAttempts counts delivery attempts by channel and final
	// status, fallback rows included.
	NotificationAttempts = promauto.NewCounterVec(prom.CounterOpts{
		Name: "prooflink_notification_attempts_total",
		Help: "Notification delivery attempts by channel and status",
	}, []string{"channel", "status"})

	// ShortLinkResolutions counts short-code lookups by outcome.
	ShortLinkResolutions = promauto.NewCounterVec(prom.CounterOpts{
		Name: "prooflink_shortlink_resolutions_total",
		Help: "Short link resolutions by outcome",
	}, []string{"outcome"})

	// ProofUploads counts accepted proof uploads by type.
	ProofUploads = promauto.NewCounterVec(prom.CounterOpts{
		Name: "prooflink_proof_uploads_total",
		Help: "Accepted proof uploads by proof type",
	}, []string{"proof_type"})
)
