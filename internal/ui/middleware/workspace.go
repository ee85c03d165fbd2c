// Пакет middleware — HTTP middleware Roster Admin UI.
// workspace.go — привязка запроса к рабочему пространству и проверка входа.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

type contextKey string

// ContextKeyWorkspace — рабочее пространство в контексте запроса.
const ContextKeyWorkspace contextKey = "workspace"

// Workspace находит рабочее пространство браузера и помещает его в контекст.
// Изменения учётных данных записываются в cookie до отправки заголовков ответа.
func Workspace(registry *workspace.Registry, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "workspace_middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws := registry.Resolve(r)

			sw := &syncWriter{ResponseWriter: w, store: ws.Store, logger: logger}
			ctx := context.WithValue(r.Context(), ContextKeyWorkspace, ws)
			next.ServeHTTP(sw, r.WithContext(ctx))

			// Обработчик ничего не записал — cookie уходит с неявным 200
			sw.sync()
		})
	}
}

// WorkspaceFromContext извлекает рабочее пространство из контекста.
// nil — запрос не прошёл через Workspace middleware.
func WorkspaceFromContext(ctx context.Context) *workspace.Workspace {
	ws, _ := ctx.Value(ContextKeyWorkspace).(*workspace.Workspace)
	return ws
}

// RequireAuth пропускает только запросы с выполненным входом.
// Ждёт завершения проверки сессии. Без входа: страницы — redirect на
// /login?from=..., частичные ответы и JSON — 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws := WorkspaceFromContext(r.Context())
		if ws == nil {
			http.Error(w, "рабочее пространство не найдено", http.StatusInternalServerError)
			return
		}
		if err := ws.Session.Wait(r.Context()); err != nil {
			return
		}
		if !ws.Session.Snapshot().Authenticated() {
			if isFragmentRequest(r) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL — адрес страницы входа с возвратом на from.
func LoginURL(from string) string {
	if from == "" || from == "/" {
		return "/login"
	}
	return "/login?from=" + url.QueryEscape(from)
}

// SafeRedirect возвращает from, если это локальный путь, иначе "/".
func SafeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	return from
}

// isFragmentRequest — запрос частичного ответа (поиск) или JSON.
func isFragmentRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/partials/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// syncWriter записывает cookie сессии перед первой записью ответа.
type syncWriter struct {
	http.ResponseWriter
	store  *tokenstore.CookieStore
	logger *slog.Logger
	synced bool
}

func (sw *syncWriter) sync() {
	if sw.synced {
		return
	}
	sw.synced = true
	if err := sw.store.Sync(sw.ResponseWriter); err != nil {
		sw.logger.Error("Ошибка записи cookie сессии", slog.String("error", err.Error()))
	}
}

func (sw *syncWriter) WriteHeader(code int) {
	sw.sync()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *syncWriter) Write(b []byte) (int, error) {
	sw.sync()
	return sw.ResponseWriter.Write(b)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (sw *syncWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
