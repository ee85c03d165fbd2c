// health.go — обработчики health endpoints Roster Admin.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (REST API реестра доступен)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teymur54/custom-login-project-full-tail/internal/config"
	"github.com/teymur54/custom-login-project-full-tail/internal/service"
)

// serviceName — имя сервиса в ответах health endpoints.
const serviceName = "roster-admin"

// DependencyHealth — текущее состояние зависимостей (dephealth).
type DependencyHealth interface {
	Health() map[string]bool
}

// WorkspaceCounter — количество активных рабочих пространств.
type WorkspaceCounter interface {
	Len() int
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	deps        DependencyHealth
	workspaces  WorkspaceCounter
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// deps может быть nil (мониторинг зависимостей не запущен) —
// readiness вернёт "degraded".
func NewHealthHandler(deps DependencyHealth, workspaces WorkspaceCounter) *HealthHandler {
	return &HealthHandler{
		deps:        deps,
		workspaces:  workspaces,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
	Service    string `json:"service"`
	Workspaces int    `json:"workspaces"`
	Checks     struct {
		API healthCheckResult `json:"api"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. Проверяет REST API по данным dephealth.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
	if h.workspaces != nil {
		resp.Workspaces = h.workspaces.Len()
	}

	resp.Checks.API = h.checkAPI()
	resp.Status = resp.Checks.API.Status

	status := http.StatusOK
	if resp.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *HealthHandler) checkAPI() healthCheckResult {
	if h.deps == nil {
		return healthCheckResult{Status: statusDegraded, Message: "мониторинг зависимостей не запущен"}
	}
	healthy, known := dependencyHealth(h.deps.Health(), service.APIDependencyName)
	switch {
	case !known:
		return healthCheckResult{Status: statusDegraded, Message: "проверка ещё не выполнялась"}
	case !healthy:
		return healthCheckResult{Status: statusFail, Message: "REST API недоступен"}
	default:
		return healthCheckResult{Status: statusOK}
	}
}

// dependencyHealth ищет состояние зависимости name. Ключи Health() имеют
// формат "dependency:host:port"; при нескольких ключах зависимость здорова,
// только если здоровы все.
func dependencyHealth(health map[string]bool, name string) (healthy, known bool) {
	healthy = true
	for key, ok := range health {
		if key == name || strings.HasPrefix(key, name+":") {
			known = true
			healthy = healthy && ok
		}
	}
	return healthy && known, known
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)
