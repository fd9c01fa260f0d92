package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operatorRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_operator",
			Name:      "requests_total",
			Help:      "Total number of exchanges with the SMS operator API.",
		},
		[]string{"request_type", "outcome"}, // outcome: "success", or the failure kind
	)

	operatorRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sms_operator",
			Name:      "request_duration_seconds",
			Help:      "Duration of full operator exchanges including persistence.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"request_type"},
	)

	messageStatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sms_operator",
			Name:      "message_states_total",
			Help:      "Delivery states recorded after reconciliation.",
		},
		[]string{"state"},
	)
)
