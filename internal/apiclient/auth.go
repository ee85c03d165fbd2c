package apiclient

import (
	"context"
	"net/http"

	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
)

// Login — POST /auth/login.
// 400 — не заполнены логин или пароль, 401 — неверные учётные данные.
func (c *Client) Login(ctx context.Context, creds model.LoginRequest) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/login",
		public: true,
		body:   creds,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify — POST /auth/verify {jwt}. Подтверждает сохранённый токен.
func (c *Client) Verify(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var identity model.Identity
	err := c.do(ctx, request{
		op:     "verify",
		method: http.MethodPost,
		path:   "/auth/verify",
		public: true,
		body:   map[string]string{"jwt": token},
		out:    &identity,
	})
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
