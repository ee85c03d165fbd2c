// Пакет workspace — рабочее пространство браузера: состояние сессии, кэш
// запросов, поиск с задержкой, уведомления и контроллеры списка и изменений.
// Пространство живёт в памяти процесса и находится по идентификатору из
// зашифрованного cookie.
package workspace

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/teymur54/custom-login-project-full-tail/internal/config"
	"github.com/teymur54/custom-login-project-full-tail/internal/debounce"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
	"github.com/teymur54/custom-login-project-full-tail/internal/service"
	"github.com/teymur54/custom-login-project-full-tail/internal/session"
	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
)

// API — REST API, которым пользуется пространство (реализуется apiclient.Client).
type API interface {
	service.EmployeeAPI
	service.AuthAPI
	session.Verifier
}

// Settings — параметры компонентов пространства.
type Settings struct {
	CacheSize    int
	CacheTTL     time.Duration
	PageSize     int
	SearchQuiet  time.Duration
	NotifyWindow time.Duration
}

// SettingsFromConfig извлекает параметры пространства из конфигурации.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
		PageSize:     cfg.DefaultPageSize,
		SearchQuiet:  cfg.SearchDebounce,
		NotifyWindow: cfg.NotifyWindow,
	}
}

// Workspace — состояние одного браузера.
type Workspace struct {
	ID string
	// Transient — пространство запроса без сессии: не хранится в реестре
	// и не выдаёт cookie
	Transient bool

	Store    *tokenstore.CookieStore
	Session  *session.Context
	Cache    *querycache.Cache
	Search   *debounce.Debouncer
	Notifier *notify.Notifier

	List       *service.EmployeeList
	Mutations  *service.Mutations
	References *service.References
	Records    *service.Records
	Auth       *service.Authenticator

	logger      *slog.Logger
	unsubscribe func()
}

// Factory собирает рабочие пространства.
type Factory struct {
	api       API
	codec     *tokenstore.Codec
	sanitizer *debounce.Sanitizer
	clock     clockwork.Clock
	settings  Settings
	logger    *slog.Logger
}

// NewFactory создаёт фабрику пространств.
func NewFactory(
	api API,
	codec *tokenstore.Codec,
	sanitizer *debounce.Sanitizer,
	clock clockwork.Clock,
	settings Settings,
	logger *slog.Logger,
) *Factory {
	return &Factory{
		api:       api,
		codec:     codec,
		sanitizer: sanitizer,
		clock:     clock,
		settings:  settings,
		logger:    logger,
	}
}

// Transient создаёт временное пространство без учётных данных и без cookie.
func (f *Factory) Transient(id string) *Workspace {
	ws := f.New(id)
	ws.Transient = true
	ws.Store.Restore(tokenstore.Payload{WorkspaceID: id})
	return ws
}

// New создаёт пространство с идентификатором id. Проверка сессии не запускается.
func (f *Factory) New(id string) *Workspace {
	logger := f.logger.With(slog.String("workspace_id", id))

	store := tokenstore.NewCookieStore(f.codec, id)
	sess := session.New(store, f.api, logger)
	cache := querycache.New(querycache.Options{
		Size:   f.settings.CacheSize,
		TTL:    f.settings.CacheTTL,
		Pinned: service.PinnedResources,
		Clock:  f.clock,
		Logger: logger,
	})
	notifier := notify.New(f.clock, f.settings.NotifyWindow)

	ws := &Workspace{
		ID:         id,
		Store:      store,
		Session:    sess,
		Cache:      cache,
		Search:     debounce.New(f.clock, f.settings.SearchQuiet, f.sanitizer),
		Notifier:   notifier,
		List:       service.NewEmployeeList(f.api, sess, cache, notifier, f.settings.PageSize, logger),
		Mutations:  service.NewMutations(f.api, sess, cache, notifier, logger),
		References: service.NewReferences(f.api, sess, cache, notifier, logger),
		Records:    service.NewRecords(f.api, sess, cache, notifier, logger),
		Auth:       service.NewAuthenticator(f.api, sess, notifier, logger),
		logger:     logger.With(slog.String("component", "workspace")),
	}
	ws.unsubscribe = sess.Subscribe(ws.onSessionChange)
	return ws
}

// onSessionChange сбрасывает данные пространства после выхода.
func (w *Workspace) onSessionChange(snap session.Snapshot) {
	if snap.State != session.StateUnauthenticated {
		return
	}
	w.Cache.Clear()
	w.List.Reset()
	w.Search.Reset()
	w.logger.Debug("Данные пространства сброшены")
}

// Close освобождает ресурсы пространства (вытеснение из реестра).
func (w *Workspace) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	w.Cache.Clear()
}
