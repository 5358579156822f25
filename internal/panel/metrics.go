package panel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sflens_panel_sessions_active",
		Help: "Open panel sessions.",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_panel_commands_total",
		Help: "Inbound panel commands, by command.",
	}, []string{"command"})

	messagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_panel_messages_sent_total",
		Help: "Outbound panel messages, by command.",
	}, []string{"command"})
)
