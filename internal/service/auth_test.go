package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
)

func TestAuthenticator_LoginSuccess(t *testing.T) {
	api := &fakeAuthAPI{resp: &model.LoginResponse{JWTToken: "tok", Name: "Admin"}}
	sess := &fakeSession{}
	n := &fakeNotifier{}
	a := NewAuthenticator(api, sess, n, testLogger())

	if err := a.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login() вернул ошибку: %v", err)
	}
	if !sess.Snapshot().Authenticated() {
		t.Error("После входа сессия должна быть authenticated")
	}
	if cred, _ := sess.Credential(); cred.Token != "tok" {
		t.Errorf("Token = %q, ожидается tok", cred.Token)
	}
	if keys := n.keys(); len(keys) != 1 || keys[0] != MsgLoggedIn {
		t.Errorf("Уведомления = %v", keys)
	}
}

func TestAuthenticator_LoginErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantKey string
	}{
		{"сервер не отвечает", &apiclient.Error{Kind: apiclient.KindNetworkUnreachable}, MsgServerUnavailable},
		{"400", &apiclient.Error{Kind: apiclient.KindBadRequest, Status: 400}, MsgMissingCredentials},
		{"401", &apiclient.Error{Kind: apiclient.KindUnauthenticated, Status: 401}, MsgWrongCredentials},
		{"500", &apiclient.Error{Kind: apiclient.KindServerError, Status: 500}, MsgReloadPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{}
			n := &fakeNotifier{}
			a := NewAuthenticator(&fakeAuthAPI{err: tt.err}, sess, n, testLogger())

			if err := a.Login(context.Background(), "admin", "x"); err == nil {
				t.Fatal("Ожидалась ошибка")
			}
			if sess.Snapshot().Authenticated() {
				t.Error("После ошибки входа сессия не должна быть authenticated")
			}
			if keys := n.keys(); len(keys) != 1 || keys[0] != tt.wantKey {
				t.Errorf("Уведомления = %v, ожидается [%s]", keys, tt.wantKey)
			}
		})
	}
}

// Двойная отправка формы с неверным паролем даёт одно уведомление.
func TestAuthenticator_DoubleSubmitSingleNotification(t *testing.T) {
	clock := clockwork.NewFakeClock()
	notifier := notify.New(clock, notify.DefaultWindow)
	api := &fakeAuthAPI{err: &apiclient.Error{Kind: apiclient.KindUnauthenticated, Status: 401}}
	a := NewAuthenticator(api, &fakeSession{}, notifier, testLogger())
	ctx := context.Background()

	_ = a.Login(ctx, "admin", "wrong")
	clock.Advance(100 * time.Millisecond)
	_ = a.Login(ctx, "admin", "wrong")

	got := notifier.Drain()
	if len(got) != 1 || got[0].Key != MsgWrongCredentials {
		t.Errorf("Уведомления = %+v, ожидается одно %s", got, MsgWrongCredentials)
	}
	if api.calls != 2 {
		t.Errorf("Запросов входа: %d, ожидается 2", api.calls)
	}
}

func TestAuthenticator_EmptyTokenResponse(t *testing.T) {
	a := NewAuthenticator(&fakeAuthAPI{resp: &model.LoginResponse{}}, &fakeSession{}, &fakeNotifier{}, testLogger())
	if err := a.Login(context.Background(), "admin", "secret"); err == nil {
		t.Error("Ответ без токена должен приводить к ошибке")
	}
}

func TestAuthenticator_Logout(t *testing.T) {
	sess := &fakeSession{token: "tok"}
	n := &fakeNotifier{}
	a := NewAuthenticator(&fakeAuthAPI{}, sess, n, testLogger())

	a.Logout()
	if _, ok := sess.Credential(); ok {
		t.Error("После выхода токена быть не должно")
	}
	if keys := n.keys(); len(keys) != 1 || keys[0] != MsgLoggedOut {
		t.Errorf("Уведомления = %v", keys)
	}
}

func TestReferences_LoadConcurrentAndPinned(t *testing.T) {
	api := newFakeAPI(0)
	sess := &fakeSession{token: "tok"}
	cache := newTestCache()
	r := NewReferences(api, sess, cache, &fakeNotifier{}, testLogger())
	ctx := context.Background()

	lists, err := r.Load(ctx)
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if len(lists.Departments) != 2 || len(lists.Positions) != 2 || len(lists.Ranks) != 2 {
		t.Errorf("Справочники = %+v", lists)
	}

	// Повторная загрузка — из кэша
	if _, err := r.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for _, op := range []string{"departments", "positions", "ranks"} {
		if c := len(api.callsOf(op)); c != 1 {
			t.Errorf("Вызовов %s: %d, ожидается 1", op, c)
		}
	}

	// Инвалидация списка сотрудников справочники не затрагивает
	cache.Invalidate(querycache.NewKey(ResourceEmployees))
	if _, ok := cache.Peek(querycache.NewKey(ResourceRanks)); !ok {
		t.Error("Справочник должен остаться в кэше")
	}
	if _, err := r.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if c := len(api.callsOf("ranks")); c != 1 {
		t.Errorf("Вызовов ranks после инвалидации списка: %d, ожидается 1", c)
	}
}

func TestReferences_Error(t *testing.T) {
	api := newFakeAPI(0)
	api.setErr("positions", &apiclient.Error{Kind: apiclient.KindServerError, Status: 500})
	n := &fakeNotifier{}
	r := NewReferences(api, &fakeSession{token: "tok"}, newTestCache(), n, testLogger())

	if _, err := r.Load(context.Background()); err == nil {
		t.Fatal("Ожидалась ошибка")
	}
	if keys := n.keys(); len(keys) != 1 || keys[0] != MsgReloadPage {
		t.Errorf("Уведомления = %v", keys)
	}
}

func TestReferences_NoCredential(t *testing.T) {
	r := NewReferences(newFakeAPI(0), &fakeSession{}, newTestCache(), &fakeNotifier{}, testLogger())
	if _, err := r.Load(context.Background()); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Load() = %v, ожидается ErrNoCredential", err)
	}
}

func TestRecords_FindByNameAndNotFound(t *testing.T) {
	api := newFakeAPI(13)
	n := &fakeNotifier{}
	r := NewRecords(api, &fakeSession{token: "tok"}, newTestCache(), n, testLogger())
	ctx := context.Background()

	found, err := r.FindByName(ctx, " Ali ")
	if err != nil {
		t.Fatalf("FindByName() вернул ошибку: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("Найдено %d, ожидается 2", len(found))
	}

	if found, err := r.FindByName(ctx, "  "); err != nil || found != nil {
		t.Errorf("Пустое имя: %v, %v", found, err)
	}

	if _, err := r.Employee(ctx, 999); apiclient.StatusOf(err) != 404 {
		t.Errorf("Employee(999) = %v, ожидается 404", err)
	}
	if len(n.keys()) != 0 {
		t.Errorf("404 не порождает уведомлений: %v", n.keys())
	}
}
