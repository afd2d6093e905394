package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	HabitToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_toggles_total",
			Help: "Completion toggles applied to habits",
		},
		[]string{"source"}, // source: weekday, calendar
	)

	RemindersPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_reminders_published_total",
			Help: "Reminder events handed to the publisher",
		},
		[]string{"type", "status"}, // status: success, failed
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_cache_lookups_total",
			Help: "Habit list cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementHabitToggle(source string) {
	HabitToggles.WithLabelValues(source).Inc()
}

func IncrementReminderPublished(eventType string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	RemindersPublished.WithLabelValues(eventType, status).Inc()
}

func IncrementCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}
