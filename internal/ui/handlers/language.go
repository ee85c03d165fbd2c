// language.go — переключение языка интерфейса и служебные страницы.
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/teymur54/custom-login-project-full-tail/internal/ui/i18n"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/pages"
)

// HandleSetLanguage обрабатывает POST /set-language.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Неподдерживаемый язык заменяется языком по умолчанию.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLang
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	redirect(w, r, backTo(r))
}

// backTo — путь страницы из Referer того же хоста или "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

// PagesHandler — страницы без данных: нет прав, не найдено.
type PagesHandler struct {
	logger *slog.Logger
}

// NewPagesHandler создаёт PagesHandler.
func NewPagesHandler(logger *slog.Logger) *PagesHandler {
	return &PagesHandler{
		logger: logger.With(slog.String("component", "ui.pages")),
	}
}

// HandleUnauthorized — GET /unauthorized.
func (h *PagesHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusForbidden, pages.Unauthorized(pageBase(r, workspaceOf(r))))
}

// HandleNotFound — любой неизвестный путь.
func (h *PagesHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusNotFound, pages.NotFound(pageBase(r, workspaceOf(r))))
}
