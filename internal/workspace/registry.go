package workspace

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
)

var (
	activeWorkspaces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ra_workspaces_active",
		Help: "Количество рабочих пространств в памяти.",
	})
	workspacesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ra_workspaces_created_total",
		Help: "Количество созданных рабочих пространств (restored — по cookie после рестарта или вытеснения, transient — запрос без сессии).",
	}, []string{"origin"})
)

// Registry — рабочие пространства по идентификатору. Пространства,
// к которым не обращались дольше idle, и лишние сверх limit вытесняются.
type Registry struct {
	mu      sync.Mutex
	lru     *expirable.LRU[string, *Workspace]
	factory *Factory
	codec   *tokenstore.Codec
	logger  *slog.Logger
}

// NewRegistry создаёт реестр.
func NewRegistry(factory *Factory, codec *tokenstore.Codec, limit int, idle time.Duration, logger *slog.Logger) *Registry {
	r := &Registry{
		factory: factory,
		codec:   codec,
		logger:  logger.With(slog.String("component", "workspace_registry")),
	}
	r.lru = expirable.NewLRU[string, *Workspace](limit, r.onEvict, idle)
	return r
}

func (r *Registry) onEvict(id string, ws *Workspace) {
	ws.Close()
	activeWorkspaces.Dec()
	r.logger.Debug("Рабочее пространство вытеснено", slog.String("workspace_id", id))
}

// Resolve возвращает пространство для запроса и запускает проверку его сессии.
//
// Cookie с известным идентификатором — существующее пространство. Cookie с
// неизвестным идентификатором (рестарт процесса, вытеснение) — новое
// пространство, восстановленное из cookie. Нет cookie или cookie
// повреждён — новое пустое пространство; для GET, HEAD и OPTIONS оно
// временное и в реестр не попадает (страница входа, 404 от роботов).
// Пространство регистрируется первым изменяющим запросом (вход, выбор языка).
func (r *Registry) Resolve(req *http.Request) *Workspace {
	payload, ok := r.codec.Read(req)

	var ws *Workspace
	if !ok && isSafeMethod(req.Method) {
		ws = r.factory.Transient(uuid.NewString())
		workspacesCreatedTotal.WithLabelValues("transient").Inc()
	} else {
		r.mu.Lock()
		ws = r.resolveLocked(payload, ok)
		r.mu.Unlock()
	}

	ws.Session.Start(req.Context())
	return ws
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (r *Registry) resolveLocked(payload tokenstore.Payload, ok bool) *Workspace {
	if ok {
		if ws, found := r.lru.Get(payload.WorkspaceID); found {
			// Add продлевает срок жизни записи
			r.lru.Add(ws.ID, ws)
			return ws
		}
		// Запись с истёкшим сроком ещё может лежать в LRU
		r.lru.Remove(payload.WorkspaceID)
		ws := r.factory.New(payload.WorkspaceID)
		ws.Store.Restore(payload)
		r.add(ws, "restored")
		return ws
	}

	ws := r.factory.New(uuid.NewString())
	r.add(ws, "new")
	return ws
}

func (r *Registry) add(ws *Workspace, origin string) {
	r.lru.Add(ws.ID, ws)
	activeWorkspaces.Inc()
	workspacesCreatedTotal.WithLabelValues(origin).Inc()
	r.logger.Debug("Рабочее пространство создано",
		slog.String("workspace_id", ws.ID),
		slog.String("origin", origin),
	)
}

// Get возвращает пространство по идентификатору без создания.
func (r *Registry) Get(id string) (*Workspace, bool) {
	return r.lru.Get(id)
}

// Len возвращает количество пространств.
func (r *Registry) Len() int {
	return r.lru.Len()
}

// Close вытесняет все пространства (остановка сервера).
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lru.Purge()
}
