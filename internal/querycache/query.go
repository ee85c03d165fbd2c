package querycache

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisabled — запрос отключён (Query.Enabled == false).
var ErrDisabled = errors.New("запрос отключён")

// Get — типизированная обёртка над Cache.Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("значение ключа %s имеет тип %T, ожидается %T", key, v, zero)
	}
	return typed, nil
}

// Status — состояние выполнения запроса.
type Status int

const (
	// StatusIdle — запрос отключён и не выполнялся
	StatusIdle Status = iota
	// StatusSuccess — данные получены
	StatusSuccess
	// StatusError — запрос завершился ошибкой
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Query — описание запроса: ключ, функция загрузки и признак включения.
type Query[T any] struct {
	Key     Key
	Fn      func(ctx context.Context) (T, error)
	Enabled bool
}

// Result — результат выполнения Query.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Run выполняет запрос через кэш. Отключённый запрос возвращает StatusIdle
// без вызова Fn.
func Run[T any](ctx context.Context, c *Cache, q Query[T]) Result[T] {
	if !q.Enabled {
		return Result[T]{Status: StatusIdle, Err: ErrDisabled}
	}
	data, err := Get(ctx, c, q.Key, q.Fn)
	if err != nil {
		return Result[T]{Status: StatusError, Err: err}
	}
	return Result[T]{Status: StatusSuccess, Data: data}
}
