package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_voice_commands_total",
		Help: "Total number of resolved voice commands by intent",
	}, []string{"intent"})

	ClassifierFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_classifier_fallback_total",
		Help: "Total number of times the keyword fallback ran after the remote classifier yielded nothing usable",
	})

	DisambiguationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_disambiguations_total",
		Help: "Total number of disambiguation prompts issued",
	})

	ConfirmationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_confirmations_total",
		Help: "Total number of low-confidence yes/no confirmations issued",
	})

	UnresolvedUtterancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_unresolved_total",
		Help: "Total number of utterances that ended in a please-repeat response",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_orders_created_total",
		Help: "Total number of orders created at checkout",
	})

	OrderAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kiosk_order_amount_won",
		Help:    "Order totals in won",
		Buckets: []float64{2000, 5000, 10000, 20000, 50000},
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
