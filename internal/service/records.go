package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
)

// ResourceByName — ресурс ключей кэша быстрого поиска по имени.
const ResourceByName = "byName"

// Records — чтение отдельных записей: предзаполнение формы и быстрый поиск.
type Records struct {
	api      EmployeeAPI
	session  Session
	cache    *querycache.Cache
	notifier Notifier
	logger   *slog.Logger
}

// NewRecords создаёт сервис записей.
func NewRecords(api EmployeeAPI, sess Session, cache *querycache.Cache, notifier Notifier, logger *slog.Logger) *Records {
	return &Records{
		api:      api,
		session:  sess,
		cache:    cache,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "records")),
	}
}

// Employee возвращает запись сотрудника (ключ кэша ("employee", id)).
// 404 не порождает уведомления: страница показывает «не найдено».
func (r *Records) Employee(ctx context.Context, id int64) (*model.Employee, error) {
	token, err := credential(ctx, r.session)
	if err != nil {
		return nil, err
	}

	e, err := querycache.Get(ctx, r.cache, EmployeeKey(id), func(ctx context.Context) (*model.Employee, error) {
		return r.api.GetEmployee(ctx, token, id)
	})
	if err != nil {
		if apiclient.StatusOf(err) != http.StatusNotFound {
			r.report(ctx, err)
		}
		return nil, err
	}
	return e, nil
}

// FindByName — быстрый поиск сотрудников по имени.
func (r *Records) FindByName(ctx context.Context, name string) ([]model.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	token, err := credential(ctx, r.session)
	if err != nil {
		return nil, err
	}

	found, err := querycache.Get(ctx, r.cache, querycache.NewKey(ResourceByName, name),
		func(ctx context.Context) ([]model.Employee, error) {
			return r.api.FindByName(ctx, token, name)
		})
	if err != nil {
		r.report(ctx, err)
		return nil, err
	}
	return found, nil
}

func (r *Records) report(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	r.logger.Warn("Ошибка чтения записи", slog.String("error", err.Error()))
	if apiclient.KindOf(err) == apiclient.KindUnauthenticated {
		r.session.Logout()
	}
	r.notifier.Push(notify.LevelError, messageFor(err))
}
