package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
)

// ResourceEmployee — ресурс ключей кэша для отдельной записи.
const ResourceEmployee = "employee"

// EmployeeKey — ключ кэша записи сотрудника.
func EmployeeKey(id int64) querycache.Key {
	return querycache.NewKey(ResourceEmployee, id)
}

// Outcome — результат успешного изменения.
type Outcome struct {
	// Redirect — куда перейти после изменения (пусто — остаться на странице)
	Redirect string
}

// Mutations — создание, обновление и удаление сотрудников.
// Каждая операция — ровно один запрос к API, без оптимистичных изменений
// кэша и без повторов.
type Mutations struct {
	api      EmployeeAPI
	session  Session
	cache    *querycache.Cache
	notifier Notifier
	logger   *slog.Logger
}

// NewMutations создаёт контроллер изменений.
func NewMutations(api EmployeeAPI, sess Session, cache *querycache.Cache, notifier Notifier, logger *slog.Logger) *Mutations {
	return &Mutations{
		api:      api,
		session:  sess,
		cache:    cache,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "mutations")),
	}
}

// ValidateInput проверяет обязательные поля формы сотрудника.
func ValidateInput(input model.EmployeeInput) error {
	var missing []string
	if strings.TrimSpace(input.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(input.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if input.Department.ID <= 0 {
		missing = append(missing, "department")
	}
	if input.Position.ID <= 0 {
		missing = append(missing, "position")
	}
	if input.Rank.ID <= 0 {
		missing = append(missing, "rank")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// Create создаёт сотрудника. После успеха список инвалидируется,
// переход — на главную страницу.
func (m *Mutations) Create(ctx context.Context, input model.EmployeeInput) (Outcome, error) {
	if err := ValidateInput(input); err != nil {
		return Outcome{}, m.fail(ctx, "create", err)
	}
	token, err := credential(ctx, m.session)
	if err != nil {
		return Outcome{}, m.fail(ctx, "create", err)
	}

	if err := m.api.CreateEmployee(ctx, token, input); err != nil {
		return Outcome{}, m.fail(ctx, "create", err)
	}

	m.invalidateListings()
	m.notifier.Push(notify.LevelSuccess, MsgEmployeeCreated)
	m.logger.Info("Сотрудник создан",
		slog.String("first_name", input.FirstName),
		slog.String("last_name", input.LastName),
	)
	return Outcome{Redirect: "/"}, nil
}

// Update обновляет сотрудника id. После успеха инвалидируются список и запись.
func (m *Mutations) Update(ctx context.Context, id int64, input model.EmployeeInput) (Outcome, error) {
	if err := ValidateInput(input); err != nil {
		return Outcome{}, m.fail(ctx, "update", err)
	}
	token, err := credential(ctx, m.session)
	if err != nil {
		return Outcome{}, m.fail(ctx, "update", err)
	}

	if err := m.api.UpdateEmployee(ctx, token, id, input); err != nil {
		return Outcome{}, m.fail(ctx, "update", err)
	}

	m.invalidateListings()
	m.cache.Invalidate(EmployeeKey(id))
	m.notifier.Push(notify.LevelSuccess, MsgEmployeeUpdated)
	m.logger.Info("Сотрудник обновлён", slog.Int64("id", id))
	return Outcome{Redirect: "/"}, nil
}

// Delete удаляет сотрудника id. 403 — уведомление о недостатке прав.
func (m *Mutations) Delete(ctx context.Context, id int64) error {
	token, err := credential(ctx, m.session)
	if err != nil {
		return m.fail(ctx, "delete", err)
	}

	if err := m.api.DeleteEmployee(ctx, token, id); err != nil {
		if apiclient.KindOf(err) == apiclient.KindForbidden {
			m.logger.Info("Нет прав на удаление сотрудника", slog.Int64("id", id))
			m.notifier.Push(notify.LevelError, MsgDeleteForbidden)
			return err
		}
		return m.fail(ctx, "delete", err)
	}

	m.invalidateListings()
	m.cache.Invalidate(EmployeeKey(id))
	m.notifier.Push(notify.LevelSuccess, MsgEmployeeDeleted)
	m.logger.Info("Сотрудник удалён", slog.Int64("id", id))
	return nil
}

// invalidateListings сбрасывает страницы списка и результаты поиска по имени.
func (m *Mutations) invalidateListings() {
	m.cache.Invalidate(querycache.NewKey(ResourceEmployees))
	m.cache.Invalidate(querycache.NewKey(ResourceByName))
}

// fail классифицирует ошибку изменения: уведомление, при 401 — выход.
func (m *Mutations) fail(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return err
	}
	if !errors.Is(err, ErrInvalidInput) {
		m.logger.Warn("Ошибка изменения сотрудника",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
	if apiclient.KindOf(err) == apiclient.KindUnauthenticated && !errors.Is(err, ErrNoCredential) {
		m.session.Logout()
	}
	m.notifier.Push(notify.LevelError, messageFor(err))
	return err
}
