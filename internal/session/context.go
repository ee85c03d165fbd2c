package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
)

// ErrEmptyToken — ответ входа не содержит токена.
var ErrEmptyToken = errors.New("ответ входа не содержит токена")

// Verifier проверяет сохранённый токен на стороне backend.
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

// Snapshot — неизменяемый снимок состояния сессии.
type Snapshot struct {
	State State
	// Name — отображаемое имя (пусто, если вход не выполнен)
	Name string
}

// Authenticated сообщает, выполнен ли вход.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Context — контейнер состояния сессии одного рабочего пространства.
// Учётные данные меняются только через Login, Logout и проверку при старте.
type Context struct {
	mu       sync.RWMutex
	state    State
	store    tokenstore.Store
	verifier Verifier
	logger   *slog.Logger

	once  sync.Once
	ready chan struct{}

	subs   map[int]func(Snapshot)
	nextID int
}

// New создаёт контекст сессии поверх хранилища токена.
// Начальное состояние — unverified; проверка запускается через Start.
func New(store tokenstore.Store, verifier Verifier, logger *slog.Logger) *Context {
	return &Context{
		state:    StateUnverified,
		store:    store,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "session")),
		ready:    make(chan struct{}),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Start запускает однократную проверку сохранённого токена.
// Повторные вызовы ничего не делают. Проверка выполняется в фоне на контексте,
// не зависящем от отмены запроса, который её инициировал.
func (c *Context) Start(ctx context.Context) {
	c.once.Do(func() {
		go c.verify(context.WithoutCancel(ctx))
	})
}

// Ready возвращает канал, закрываемый после завершения проверки сессии.
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

// Wait ожидает завершения проверки сессии или отмены ctx.
func (c *Context) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// verify — проверка сохранённого токена (unverified → verifying → итог).
func (c *Context) verify(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateUnverified {
		// Вход или выход уже выполнен до старта проверки
		c.mu.Unlock()
		return
	}
	cred, ok := c.store.Get()
	if !ok {
		snap := c.transitionLocked(StateUnauthenticated)
		c.mu.Unlock()
		c.publish(snap)
		return
	}
	c.transitionLocked(StateVerifying)
	c.mu.Unlock()

	identity, err := c.verifier.Verify(ctx, cred.Token)

	c.mu.Lock()
	if c.state != StateVerifying {
		// Результат устарел: за время проверки выполнен вход или выход
		c.mu.Unlock()
		c.logger.Debug("Результат проверки сессии отброшен")
		return
	}

	var snap Snapshot
	if err != nil {
		c.logger.Info("Сохранённый токен отклонён", slog.String("error", err.Error()))
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Warn("Ошибка очистки токена", slog.String("error", clearErr.Error()))
		}
		snap = c.transitionLocked(StateUnauthenticated)
	} else {
		if identity != nil && identity.Name != "" && identity.Name != cred.Name {
			cred.Name = identity.Name
			if setErr := c.store.Set(cred); setErr != nil {
				c.logger.Warn("Ошибка сохранения имени пользователя", slog.String("error", setErr.Error()))
			}
		}
		snap = c.transitionLocked(StateAuthenticated)
	}
	c.mu.Unlock()

	c.publish(snap)
}

// Login сохраняет учётные данные из ответа POST /auth/login.
func (c *Context) Login(resp model.LoginResponse) error {
	if resp.JWTToken == "" {
		return ErrEmptyToken
	}

	cred := tokenstore.Credential{Token: resp.JWTToken, Name: resp.Name}
	if claims, err := tokenstore.ParseClaims(resp.JWTToken); err == nil {
		cred.Subject = claims.Subject
		if cred.Name == "" {
			cred.Name = claims.Name
		}
	}
	if cred.Name == "" {
		cred.Name = resp.Username
	}

	c.mu.Lock()
	if !CanTransition(c.state, StateAuthenticated) {
		err := &TransitionError{From: c.state, To: StateAuthenticated}
		c.mu.Unlock()
		return err
	}
	if err := c.store.Set(cred); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	snap := c.transitionLocked(StateAuthenticated)
	c.mu.Unlock()

	c.logger.Info("Пользователь вошёл", slog.String("name", cred.Name))
	c.publish(snap)
	return nil
}

// Logout удаляет учётные данные и переводит сессию в unauthenticated.
func (c *Context) Logout() {
	c.mu.Lock()
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("Ошибка очистки токена", slog.String("error", err.Error()))
	}
	snap := c.transitionLocked(StateUnauthenticated)
	c.mu.Unlock()

	c.logger.Info("Пользователь вышел")
	c.publish(snap)
}

// Credential возвращает учётные данные, если вход выполнен.
func (c *Context) Credential() (tokenstore.Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateAuthenticated {
		return tokenstore.Credential{}, false
	}
	return c.store.Get()
}

// State возвращает текущее состояние.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot возвращает снимок состояния.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Subscribe регистрирует обработчик изменений состояния.
// Возвращает функцию отписки.
func (c *Context) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// transitionLocked выполняет переход. Вызывается под c.mu.
// Все вызовы внутри пакета используют допустимые переходы.
func (c *Context) transitionLocked(to State) Snapshot {
	c.state = to
	if to.settled() {
		select {
		case <-c.ready:
		default:
			close(c.ready)
		}
	}
	return c.snapshotLocked()
}

func (c *Context) snapshotLocked() Snapshot {
	snap := Snapshot{State: c.state}
	if c.state == StateAuthenticated {
		if cred, ok := c.store.Get(); ok {
			snap.Name = cred.Name
		}
	}
	return snap
}

// publish уведомляет подписчиков вне блокировки.
func (c *Context) publish(snap Snapshot) {
	c.mu.RLock()
	handlers := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.mu.RUnlock()

	for _, fn := range handlers {
		fn(snap)
	}
}
