// Пакет handlers — HTTP-обработчики Roster Admin UI.
package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/teymur54/custom-login-project-full-tail/internal/ui/i18n"
	uimiddleware "github.com/teymur54/custom-login-project-full-tail/internal/ui/middleware"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/pages"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

// pageBase собирает общие данные страницы. Уведомления пространства
// извлекаются из очереди и показываются один раз.
func pageBase(r *http.Request, ws *workspace.Workspace) pages.Base {
	lang := i18n.LangFromContext(r.Context())

	var toasts []pages.Toast
	for _, n := range ws.Notifier.Drain() {
		toasts = append(toasts, pages.Toast{
			Level: string(n.Level),
			Text:  i18n.Translate(lang, n.Key),
		})
	}

	var user string
	if snap := ws.Session.Snapshot(); snap.Authenticated() {
		user = snap.Name
	}
	return pages.NewBase(r.Context(), user, r.URL.Path, toasts)
}

// render отрисовывает компонент со статусом status. Страница собирается
// в буфер: при ошибке шаблона клиент получает 500, а не обрывок HTML.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		logger.Error("Ошибка отрисовки страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect — переход после POST (303 See Other).
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// workspaceOf возвращает пространство запроса.
func workspaceOf(r *http.Request) *workspace.Workspace {
	return uimiddleware.WorkspaceFromContext(r.Context())
}
