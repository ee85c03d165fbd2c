// auth.go — вход и выход.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	uimiddleware "github.com/teymur54/custom-login-project-full-tail/internal/ui/middleware"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/pages"
)

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	logger *slog.Logger
}

// NewAuthHandler создаёт AuthHandler.
func NewAuthHandler(logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger: logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage — GET /login.
// Пользователь с выполненным входом перенаправляется на from (или /).
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	from := uimiddleware.SafeRedirect(r.URL.Query().Get("from"))

	if err := ws.Session.Wait(r.Context()); err != nil {
		return
	}
	if ws.Session.Snapshot().Authenticated() {
		http.Redirect(w, r, from, http.StatusFound)
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.LoginPage(pages.LoginData{
		Base:     pageBase(r, ws),
		From:     from,
		Username: r.URL.Query().Get("username"),
	}))
}

// HandleLogin — POST /login.
// Успех — переход на from. Ошибка — обратно на страницу входа
// с уведомлением (неверный пароль, сервер не отвечает, ...).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректная форма", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	from := uimiddleware.SafeRedirect(r.PostForm.Get("from"))

	if err := ws.Auth.Login(r.Context(), username, password); err != nil {
		h.logger.Debug("Вход не выполнен",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		redirect(w, r, uimiddleware.LoginURL(from))
		return
	}

	h.logger.Info("Пользователь вошёл", slog.String("username", username))
	redirect(w, r, from)
}

// HandleLogout — POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	ws.Auth.Logout()
	redirect(w, r, "/login")
}
