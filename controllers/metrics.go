package controller

import "github.com/prometheus/client_golang/prometheus"

var (
	analyzeOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusdesk_analyze_total",
			Help: "Ticket analyses by outcome.",
		},
		[]string{"outcome"},
	)

	sendOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexusdesk_replies_total",
			Help: "Reply deliveries by platform and outcome.",
		},
		[]string{"platform", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(analyzeOutcomes)
	prometheus.MustRegister(sendOutcomes)
}
