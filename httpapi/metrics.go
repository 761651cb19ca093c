package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests     *prometheus.CounterVec
	estimateTime *prometheus.HistogramVec
	iterations   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagerank_api_requests_total",
			Help: "The total number of API requests by route and status code",
		}, []string{"route", "code"}),
		estimateTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagerank_api_estimate_seconds",
			Help:    "The time spent computing rank vectors by estimator",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"estimator"}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pagerank_api_solver_iterations",
			Help:    "The number of iterations the solver needed per request",
			Buckets: prometheus.LinearBuckets(5, 5, 20),
		}),
	}
}
