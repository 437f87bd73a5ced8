// Package metrics регистрирует Prometheus-метрики платформы и HTTP middleware для них.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "courseplatform"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result",
		},
		[]string{"result"},
	)

	webhookNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "webhook_notifications_total",
			Help:      "Payment notifications by gateway status and reconciliation outcome",
		},
		[]string{"transaction_status", "outcome"},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Subscription events sent to the broker by result",
		},
		[]string{"routing_key", "result"},
	)

	planCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "plan_lookups_total",
			Help:      "Plan catalogue cache lookups by result",
		},
		[]string{"result"},
	)
)

// Результаты для счётчиков.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, routePattern, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern).Observe(time.Since(start).Seconds())
	})
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCheckout учитывает попытку оформления подписки.
func RecordCheckout(result string) {
	checkoutsTotal.WithLabelValues(result).Inc()
}

// RecordWebhook учитывает обработанное уведомление шлюза.
func RecordWebhook(transactionStatus, outcome string) {
	webhookNotificationsTotal.WithLabelValues(transactionStatus, outcome).Inc()
}

// RecordEventPublished учитывает публикацию события подписки.
func RecordEventPublished(routingKey, result string) {
	eventsPublishedTotal.WithLabelValues(routingKey, result).Inc()
}

// RecordPlanCache учитывает обращение к кешу тарифов.
func RecordPlanCache(result string) {
	planCacheTotal.WithLabelValues(result).Inc()
}
