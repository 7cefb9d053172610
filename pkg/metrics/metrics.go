package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "reelforge"

	vendorRequestsTotal   = "vendor_requests_total"
	stageTransitionsTotal = "video_stage_transitions_total"
	webhookDeliveryTotal  = "webhook_deliveries_total"
	creditsDebitedTotal   = "credits_debited_total"
	creditsRefundedTotal  = "credits_refunded_total"

	vendorLabel    = "vendor"
	operationLabel = "operation"
	outcomeLabel   = "outcome"
	stageLabel     = "stage"
	statusLabel    = "status"
)

var vendorRequestsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      vendorRequestsTotal,
		Help:      "number of vendor API calls partitioned by vendor, operation and outcome",
	},
	[]string{vendorLabel, operationLabel, outcomeLabel},
)

var stageTransitionsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      stageTransitionsTotal,
		Help:      "number of persisted video job transitions partitioned by pipeline stage and resulting status",
	},
	[]string{stageLabel, statusLabel},
)

var webhookDeliveriesMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      webhookDeliveryTotal,
		Help:      "number of vendor webhook deliveries partitioned by vendor and outcome",
	},
	[]string{vendorLabel, outcomeLabel},
)

var creditsDebitedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      creditsDebitedTotal,
		Help:      "total credits charged for submitted jobs",
	},
)

var creditsRefundedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      creditsRefundedTotal,
		Help:      "total credits returned for jobs the primary vendor failed",
	},
)

func IncreaseVendorRequests(vendor, operation, outcome string) {
	vendorRequestsMetric.With(prometheus.Labels{
		vendorLabel:    vendor,
		operationLabel: operation,
		outcomeLabel:   outcome,
	}).Inc()
}

func IncreaseStageTransitions(stage, status string) {
	stageTransitionsMetric.With(prometheus.Labels{
		stageLabel:  stage,
		statusLabel: status,
	}).Inc()
}

func IncreaseWebhookDeliveries(vendor, outcome string) {
	webhookDeliveriesMetric.With(prometheus.Labels{
		vendorLabel:  vendor,
		outcomeLabel: outcome,
	}).Inc()
}

func AddCreditsDebited(amount int) {
	creditsDebitedMetric.Add(float64(amount))
}

func AddCreditsRefunded(amount int) {
	creditsRefundedMetric.Add(float64(amount))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(vendorRequestsMetric)
	prometheus.MustRegister(stageTransitionsMetric)
	prometheus.MustRegister(webhookDeliveriesMetric)
	prometheus.MustRegister(creditsDebitedMetric)
	prometheus.MustRegister(creditsRefundedMetric)
}
