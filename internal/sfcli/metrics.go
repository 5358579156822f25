package sfcli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_sf_commands_total",
		Help: "Salesforce CLI invocations by command and result",
	}, []string{"command", "result"})

	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sflens_sf_command_duration_seconds",
		Help:    "Wall time of Salesforce CLI invocations",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"command"})
)
