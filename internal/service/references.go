package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
)

// Ресурсы справочников. Записи справочников закреплены в кэше на время сессии.
const (
	ResourceDepartments = "departments"
	ResourcePositions   = "positions"
	ResourceRanks       = "ranks"
)

// PinnedResources — ресурсы, не вытесняемые из кэша.
var PinnedResources = []string{ResourceDepartments, ResourcePositions, ResourceRanks}

// ReferenceLists — справочники для формы сотрудника.
type ReferenceLists struct {
	Departments []model.Reference
	Positions   []model.Reference
	Ranks       []model.Reference
}

// References — загрузка справочников через кэш.
type References struct {
	api      EmployeeAPI
	session  Session
	cache    *querycache.Cache
	notifier Notifier
	logger   *slog.Logger
}

// NewReferences создаёт сервис справочников.
func NewReferences(api EmployeeAPI, sess Session, cache *querycache.Cache, notifier Notifier, logger *slog.Logger) *References {
	return &References{
		api:      api,
		session:  sess,
		cache:    cache,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "references")),
	}
}

// Load загружает три справочника параллельно.
func (r *References) Load(ctx context.Context) (ReferenceLists, error) {
	token, err := credential(ctx, r.session)
	if err != nil {
		return ReferenceLists{}, err
	}

	var lists ReferenceLists
	g, gctx := errgroup.WithContext(ctx)
	load := func(resource string, dst *[]model.Reference, fn func(context.Context, string) ([]model.Reference, error)) {
		g.Go(func() error {
			refs, err := querycache.Get(gctx, r.cache, querycache.NewKey(resource),
				func(ctx context.Context) ([]model.Reference, error) {
					return fn(ctx, token)
				})
			if err != nil {
				return fmt.Errorf("справочник %s: %w", resource, err)
			}
			*dst = refs
			return nil
		})
	}
	load(ResourceDepartments, &lists.Departments, r.api.Departments)
	load(ResourcePositions, &lists.Positions, r.api.Positions)
	load(ResourceRanks, &lists.Ranks, r.api.Ranks)

	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("Ошибка загрузки справочников", slog.String("error", err.Error()))
			if apiclient.KindOf(err) == apiclient.KindUnauthenticated {
				r.session.Logout()
			}
			r.notifier.Push(notify.LevelError, messageFor(err))
		}
		return ReferenceLists{}, err
	}
	return lists, nil
}
