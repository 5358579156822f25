package devhub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_streams_total",
		Help: "DevHub streams started, by path (cached, cold or forced).",
	}, []string{"path"})

	orgRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_org_refreshes_total",
		Help: "Org list fetches from the CLI, by trigger and result.",
	}, []string{"trigger", "result"})

	deletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_deletions_total",
		Help: "Deletion attempts, by kind and result.",
	}, []string{"kind", "result"})
)
