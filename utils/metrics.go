package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	ErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_errors_total",
			Help: "Total app errors",
		},
		[]string{"handler", "type"},
	)

	CompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_habit_completions_total",
			Help: "Total habit completions recorded",
		},
	)

	// mode is "manual" (player-initiated) or "auto" (decay pass)
	FreezesUsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_habit_freezes_used_total",
			Help: "Total streak freezes consumed",
		},
		[]string{"mode"},
	)

	StreakResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_habit_streak_resets_total",
			Help: "Total hard streak resets from missed days",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(
		ReqCount, ReqDuration, ErrorCount,
		CompletionsTotal, FreezesUsedTotal, StreakResetsTotal,
	)
}
