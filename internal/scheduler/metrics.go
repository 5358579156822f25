package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sflens_auth_changes_total",
	Help: "Debounced changes seen in the CLI auth directory.",
})
