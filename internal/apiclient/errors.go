package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken — защищённый запрос без токена. Такой запрос не отправляется.
var ErrNoToken = errors.New("запрос к API без токена")

// Kind — класс ошибки REST API, определяющий реакцию интерфейса.
type Kind string

const (
	// KindNetworkUnreachable — ответ не получен (сеть, таймаут)
	KindNetworkUnreachable Kind = "network_unreachable"
	// KindBadRequest — 400
	KindBadRequest Kind = "bad_request"
	// KindUnauthenticated — 401
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden — 403
	KindForbidden Kind = "forbidden"
	// KindServerError — 5xx и любой другой неожиданный статус
	KindServerError Kind = "server_error"
)

// Error — ошибка вызова REST API.
type Error struct {
	// Kind — класс ошибки
	Kind Kind
	// Status — HTTP-статус (0, если ответ не получен)
	Status int
	// Op — имя операции клиента (login, list_employees, ...)
	Op string
	// Body — начало тела ответа (для логов)
	Body string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: API вернул статус %d (%s): %s", e.Op, e.Status, e.Kind, e.Body)
	default:
		return fmt.Sprintf("%s: API вернул статус %d (%s)", e.Op, e.Status, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf классифицирует ошибку. Ошибки, не относящиеся к API, считаются
// KindServerError; ErrNoToken — KindUnauthenticated.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrNoToken) {
		return KindUnauthenticated
	}
	return KindServerError
}

// StatusOf возвращает HTTP-статус ошибки API (0, если его нет).
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// kindForStatus сопоставляет HTTP-статус классу ошибки.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthenticated
	case http.StatusForbidden:
		return KindForbidden
	default:
		return KindServerError
	}
}
