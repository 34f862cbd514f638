/* metrics.go
 * Contains the prometheus collectors exported on /metrics
 * Authors: Zachary Bower
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamehub_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamehub_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	GraphQLErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamehub_graphql_errors_total",
		Help: "GraphQL resolver errors by code",
	}, []string{"code"})

	Subscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gamehub_graphql_subscriptions",
		Help: "Open GraphQL subscriptions",
	})

	LeaguesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamehub_leagues_started_total",
		Help: "Custom leagues whose bracket was generated",
	})

	LeaguesEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamehub_leagues_ended_total",
		Help: "Custom leagues whose final was decided",
	})

	MatchesReported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamehub_match_reports_total",
		Help: "Match result reports by outcome",
	}, []string{"outcome"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamehub_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})
)
