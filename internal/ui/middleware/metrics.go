// metrics.go — Prometheus HTTP-метрики Roster Admin UI:
// ra_http_requests_total, ra_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ra_http_requests_total",
			Help: "Общее количество HTTP-запросов к Roster Admin",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ra_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Roster Admin в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware собирает количество и длительность запросов по маршрутам.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

// knownPaths — маршруты без параметров.
var knownPaths = map[string]bool{
	"/": true, "/login": true, "/logout": true, "/set-language": true,
	"/list/page-size": true, "/list/sort": true, "/list/next": true, "/list/prev": true,
	"/partials/employee-table": true, "/print": true, "/unauthorized": true,
	"/employees": true, "/employees/new": true, "/employees/lookup": true,
	"/health/live": true, "/health/ready": true, "/metrics": true,
}

// normalizePath заменяет идентификаторы сотрудников на {id}, а неизвестные
// пути — на "other", чтобы ограничить кардинальность лейбла path.
//
//	/employees/42/edit → /employees/{id}/edit
func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	rest, ok := strings.CutPrefix(path, "/employees/")
	if !ok {
		return "other"
	}
	id, suffix, _ := strings.Cut(rest, "/")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "other"
	}
	switch suffix {
	case "":
		return "/employees/{id}"
	case "edit", "delete":
		return "/employees/{id}/" + suffix
	default:
		return "other"
	}
}
