// Пакет service — прикладная логика рабочего пространства Roster Admin:
// список сотрудников, изменения, справочники, вход и выход.
package service

import (
	"context"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/session"
	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
)

// EmployeeAPI — операции REST API над сотрудниками и справочниками.
type EmployeeAPI interface {
	ListEmployees(ctx context.Context, token string, p apiclient.PageParams) (*model.EmployeePage, error)
	SearchEmployees(ctx context.Context, token, term string, p apiclient.PageParams) (*model.EmployeePage, error)
	FindByName(ctx context.Context, token, name string) ([]model.Employee, error)
	GetEmployee(ctx context.Context, token string, id int64) (*model.Employee, error)
	CreateEmployee(ctx context.Context, token string, input model.EmployeeInput) error
	UpdateEmployee(ctx context.Context, token string, id int64, input model.EmployeeInput) error
	DeleteEmployee(ctx context.Context, token string, id int64) error
	Departments(ctx context.Context, token string) ([]model.Reference, error)
	Positions(ctx context.Context, token string) ([]model.Reference, error)
	Ranks(ctx context.Context, token string) ([]model.Reference, error)
}

// AuthAPI — вход через REST API.
type AuthAPI interface {
	Login(ctx context.Context, creds model.LoginRequest) (*model.LoginResponse, error)
}

// Session — состояние сессии рабочего пространства (реализуется session.Context).
type Session interface {
	Wait(ctx context.Context) error
	Credential() (tokenstore.Credential, bool)
	Login(resp model.LoginResponse) error
	Logout()
	Snapshot() session.Snapshot
}

// Notifier — очередь уведомлений (реализуется notify.Notifier).
type Notifier interface {
	Push(level notify.Level, key string) bool
}

// credential ожидает завершения проверки сессии и возвращает токен.
func credential(ctx context.Context, s Session) (string, error) {
	if err := s.Wait(ctx); err != nil {
		return "", err
	}
	cred, ok := s.Credential()
	if !ok {
		return "", ErrNoCredential
	}
	return cred.Token, nil
}
