// Package metrics defines all custom Prometheus metrics for the quotes API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default registry at import time (promauto);
// the router exposes them on /metrics together with the echoprometheus
// request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quotes"

// SignupsTotal counts successful self-service registrations.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of successful user signups.",
	},
)

// QuotesCreatedTotal counts quotes accepted for moderation.
var QuotesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of quotes submitted and stored (unvalidated).",
	},
)

// QuotesModeratedTotal counts moderation actions.
// Label:
//   - action: "validate" or "unvalidate"
var QuotesModeratedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderated_total",
		Help:      "Total number of moderation actions applied to quotes.",
	},
	[]string{"action"},
)

// CaptchaChecksTotal counts captcha verification outcomes.
// Label:
//   - result: "passed" or "rejected"
var CaptchaChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captcha_checks_total",
		Help:      "Total number of captcha verifications, labelled by result.",
	},
	[]string{"result"},
)

// ConfirmationMailsTotal counts confirmation email deliveries.
// Label:
//   - result: "sent" or "error"
var ConfirmationMailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmation_mails_total",
		Help:      "Total number of confirmation emails attempted, labelled by result.",
	},
	[]string{"result"},
)
