package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
	"github.com/teymur54/custom-login-project-full-tail/internal/session"
	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache() *querycache.Cache {
	return querycache.New(querycache.Options{Size: 64, Pinned: PinnedResources, Logger: testLogger()})
}

// fakeSession — управляемая реализация Session.
type fakeSession struct {
	mu      sync.Mutex
	token   string
	name    string
	logouts int
	logins  int
}

func (s *fakeSession) Wait(ctx context.Context) error { return ctx.Err() }

func (s *fakeSession) Credential() (tokenstore.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return tokenstore.Credential{}, false
	}
	return tokenstore.Credential{Token: s.token, Name: s.name}, true
}

func (s *fakeSession) Login(resp model.LoginResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.JWTToken == "" {
		return session.ErrEmptyToken
	}
	s.token, s.name = resp.JWTToken, resp.Name
	s.logins++
	return nil
}

func (s *fakeSession) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.name = "", ""
	s.logouts++
}

func (s *fakeSession) Snapshot() session.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return session.Snapshot{State: session.StateUnauthenticated}
	}
	return session.Snapshot{State: session.StateAuthenticated, Name: s.name}
}

// fakeNotifier запоминает уведомления.
type fakeNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (n *fakeNotifier) Push(level notify.Level, key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notify.Notification{Level: level, Key: key})
	return true
}

func (n *fakeNotifier) keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.items))
	for _, it := range n.items {
		out = append(out, it.Key)
	}
	return out
}

// apiCall — запись о вызове fakeAPI.
type apiCall struct {
	op     string
	token  string
	term   string
	params apiclient.PageParams
}

// fakeAPI — REST API в памяти с реальной пагинацией и сортировкой.
type fakeAPI struct {
	mu        sync.Mutex
	employees []model.Employee
	nextID    int64
	calls     []apiCall
	// errs — ошибка, возвращаемая операцией (по имени)
	errs map[string]error
	// listGate — если задан, ListEmployees/SearchEmployees ждут значения из канала
	listGate chan struct{}
}

func newFakeAPI(n int) *fakeAPI {
	api := &fakeAPI{errs: make(map[string]error)}
	names := []string{"Ali", "Vəli", "Aysel", "Nigar", "Rauf", "Leyla", "Tural", "Kamran", "Sevda", "Orxan", "Günel", "Elvin"}
	for i := range n {
		api.nextID++
		api.employees = append(api.employees, model.Employee{
			ID:         api.nextID,
			FirstName:  names[i%len(names)],
			LastName:   strings.Repeat("Z", i%3) + names[(i+5)%len(names)] + "ov",
			Department: model.Reference{ID: 1, Name: "IT"},
			Rank:       model.Reference{ID: 1, Name: "Mayor"},
			Position:   model.Reference{ID: 1, Name: "Rəis"},
		})
	}
	return api
}

func (a *fakeAPI) record(c apiCall) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, c)
	return a.errs[c.op]
}

func (a *fakeAPI) setErr(op string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[op] = err
}

func (a *fakeAPI) callsOf(op string) []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []apiCall
	for _, c := range a.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (a *fakeAPI) page(filter string, p apiclient.PageParams) *model.EmployeePage {
	a.mu.Lock()
	defer a.mu.Unlock()

	var rows []model.Employee
	for _, e := range a.employees {
		if filter == "" || strings.Contains(e.FirstName+e.LastName, filter) {
			rows = append(rows, e)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if p.SortBy == "firstName" {
			return rows[i].FirstName < rows[j].FirstName
		}
		return rows[i].LastName < rows[j].LastName
	})

	total := len(rows)
	totalPages := (total + p.PageSize - 1) / p.PageSize
	start := min(p.PageNumber*p.PageSize, total)
	end := min(start+p.PageSize, total)
	return &model.EmployeePage{
		Content:       append([]model.Employee(nil), rows[start:end]...),
		First:         p.PageNumber == 0,
		Last:          p.PageNumber >= totalPages-1,
		TotalElements: int64(total),
		TotalPages:    totalPages,
		Number:        p.PageNumber,
		Size:          p.PageSize,
	}
}

func (a *fakeAPI) waitGate(ctx context.Context) error {
	a.mu.Lock()
	gate := a.listGate
	a.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *fakeAPI) ListEmployees(ctx context.Context, token string, p apiclient.PageParams) (*model.EmployeePage, error) {
	if err := a.record(apiCall{op: "list", token: token, params: p}); err != nil {
		return nil, err
	}
	if err := a.waitGate(ctx); err != nil {
		return nil, err
	}
	return a.page("", p), nil
}

func (a *fakeAPI) SearchEmployees(ctx context.Context, token, term string, p apiclient.PageParams) (*model.EmployeePage, error) {
	if err := a.record(apiCall{op: "search", token: token, term: term, params: p}); err != nil {
		return nil, err
	}
	if err := a.waitGate(ctx); err != nil {
		return nil, err
	}
	return a.page(term, p), nil
}

func (a *fakeAPI) FindByName(_ context.Context, token, name string) ([]model.Employee, error) {
	if err := a.record(apiCall{op: "byName", token: token, term: name}); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.Employee
	for _, e := range a.employees {
		if e.FirstName == name {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *fakeAPI) GetEmployee(_ context.Context, token string, id int64) (*model.Employee, error) {
	if err := a.record(apiCall{op: "get", token: token}); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.employees {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, &apiclient.Error{Kind: apiclient.KindServerError, Status: 404, Op: "get_employee"}
}

func (a *fakeAPI) CreateEmployee(_ context.Context, token string, in model.EmployeeInput) error {
	if err := a.record(apiCall{op: "create", token: token}); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.employees = append(a.employees, model.Employee{
		ID:         a.nextID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Department: model.Reference{ID: in.Department.ID},
		Position:   model.Reference{ID: in.Position.ID},
		Rank:       model.Reference{ID: in.Rank.ID},
	})
	return nil
}

func (a *fakeAPI) UpdateEmployee(_ context.Context, token string, id int64, in model.EmployeeInput) error {
	if err := a.record(apiCall{op: "update", token: token}); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.employees {
		if a.employees[i].ID == id {
			a.employees[i].FirstName = in.FirstName
			a.employees[i].LastName = in.LastName
		}
	}
	return nil
}

func (a *fakeAPI) DeleteEmployee(_ context.Context, token string, id int64) error {
	if err := a.record(apiCall{op: "delete", token: token}); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.employees {
		if a.employees[i].ID == id {
			a.employees = append(a.employees[:i], a.employees[i+1:]...)
			break
		}
	}
	return nil
}

func (a *fakeAPI) refs(op, token string) ([]model.Reference, error) {
	if err := a.record(apiCall{op: op, token: token}); err != nil {
		return nil, err
	}
	return []model.Reference{{ID: 1, Name: op + "-1"}, {ID: 2, Name: op + "-2"}}, nil
}

func (a *fakeAPI) Departments(_ context.Context, token string) ([]model.Reference, error) {
	return a.refs("departments", token)
}

func (a *fakeAPI) Positions(_ context.Context, token string) ([]model.Reference, error) {
	return a.refs("positions", token)
}

func (a *fakeAPI) Ranks(_ context.Context, token string) ([]model.Reference, error) {
	return a.refs("ranks", token)
}

// fakeAuthAPI — ответ POST /auth/login.
type fakeAuthAPI struct {
	mu    sync.Mutex
	calls int
	resp  *model.LoginResponse
	err   error
}

func (f *fakeAuthAPI) Login(_ context.Context, _ model.LoginRequest) (*model.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.resp, f.err
}
