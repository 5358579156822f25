package mw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sflens_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern and status code.",
		Buckets: []float64{.005, .025, .1, .5, 1, 2.5, 10, 30, 60},
	}, []string{"method", "route", "status"})

	httpRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sflens_http_rejected_total",
		Help: "Requests refused by access middlewares (cidr, host, origin, content_type, rate).",
	}, []string{"reason"})
)
