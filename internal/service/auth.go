package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
)

// Authenticator — вход и выход пользователя рабочего пространства.
type Authenticator struct {
	api      AuthAPI
	session  Session
	notifier Notifier
	logger   *slog.Logger
}

// NewAuthenticator создаёт сервис входа.
func NewAuthenticator(api AuthAPI, sess Session, notifier Notifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		api:      api,
		session:  sess,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "authenticator")),
	}
}

// Login выполняет вход. При ошибке сессия остаётся (или становится)
// unauthenticated, пользователь получает одно уведомление на серию попыток.
func (a *Authenticator) Login(ctx context.Context, username, password string) error {
	resp, err := a.api.Login(ctx, model.LoginRequest{Username: username, Password: password})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		a.logger.Info("Вход отклонён",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		if !a.session.Snapshot().Authenticated() {
			a.session.Logout()
		}
		a.notifier.Push(notify.LevelError, loginMessageFor(err))
		return err
	}

	if err := a.session.Login(*resp); err != nil {
		a.notifier.Push(notify.LevelError, MsgReloadPage)
		return fmt.Errorf("сохранение сессии: %w", err)
	}
	a.notifier.Push(notify.LevelSuccess, MsgLoggedIn)
	return nil
}

// Logout выполняет выход.
func (a *Authenticator) Logout() {
	a.session.Logout()
	a.notifier.Push(notify.LevelSuccess, MsgLoggedOut)
}
