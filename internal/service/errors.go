package service

import (
	"errors"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
)

// Ошибки сервисного слоя.
var (
	// ErrNoCredential — операция требует входа, токена нет
	ErrNoCredential = errors.New("требуется вход в систему")
	// ErrInvalidPageSize — недопустимый размер страницы
	ErrInvalidPageSize = errors.New("недопустимый размер страницы")
	// ErrInvalidSort — недопустимое поле сортировки
	ErrInvalidSort = errors.New("недопустимое поле сортировки")
	// ErrInvalidInput — не заполнены обязательные поля сотрудника
	ErrInvalidInput = errors.New("не заполнены обязательные поля")
)

// Ключи уведомлений в каталоге переводов.
const (
	MsgServerUnavailable  = "notify.server_unavailable"
	MsgMissingCredentials = "notify.missing_credentials"
	MsgWrongCredentials   = "notify.wrong_credentials"
	MsgReloadPage         = "notify.reload_page"
	MsgDeleteForbidden    = "notify.delete_forbidden"
	MsgForbidden          = "notify.forbidden"
	MsgSessionExpired     = "notify.session_expired"
	MsgLoggedIn           = "notify.logged_in"
	MsgLoggedOut          = "notify.logged_out"
	MsgEmployeeCreated    = "notify.employee_created"
	MsgEmployeeUpdated    = "notify.employee_updated"
	MsgEmployeeDeleted    = "notify.employee_deleted"
	MsgInvalidInput       = "notify.invalid_input"
)

// messageFor возвращает ключ уведомления об ошибке запроса данных или изменения.
func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return MsgInvalidInput
	case errors.Is(err, ErrNoCredential):
		return MsgSessionExpired
	}
	switch apiclient.KindOf(err) {
	case apiclient.KindNetworkUnreachable:
		return MsgServerUnavailable
	case apiclient.KindUnauthenticated:
		return MsgSessionExpired
	case apiclient.KindForbidden:
		return MsgForbidden
	default:
		return MsgReloadPage
	}
}

// loginMessageFor возвращает ключ уведомления об ошибке входа.
func loginMessageFor(err error) string {
	switch apiclient.KindOf(err) {
	case apiclient.KindNetworkUnreachable:
		return MsgServerUnavailable
	case apiclient.KindBadRequest:
		return MsgMissingCredentials
	case apiclient.KindUnauthenticated:
		return MsgWrongCredentials
	default:
		return MsgReloadPage
	}
}
