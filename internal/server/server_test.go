package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/debounce"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/tokenstore"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/handlers"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/i18n"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

const (
	testToken   = "tok-admin"
	forbiddenID = 2
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rosterBackend — REST API реестра в памяти.
// Удаление сотрудника forbiddenID запрещено (403).
type rosterBackend struct {
	mu        sync.Mutex
	nextID    int64
	employees map[int64]model.Employee
}

var (
	testDepartments = []model.Reference{{ID: 1, Name: "IT"}, {ID: 2, Name: "HR"}}
	testPositions   = []model.Reference{{ID: 1, Name: "Mühəndis"}}
	testRanks       = []model.Reference{{ID: 1, Name: "Leytenant"}}
)

func newRosterBackend() *rosterBackend {
	b := &rosterBackend{nextID: 4, employees: map[int64]model.Employee{}}
	for i, name := range []string{"Ali", "Vüqar", "Nərmin"} {
		id := int64(i + 1)
		b.employees[id] = model.Employee{
			ID: id, FirstName: name, LastName: "Həsənov",
			Department: testDepartments[0], Position: testPositions[0], Rank: testRanks[0],
		}
	}
	return b
}

func (b *rosterBackend) handler() http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch {
		case req.Username == "" || req.Password == "":
			w.WriteHeader(http.StatusBadRequest)
		case req.Password != "secret":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			writeJSON(w, model.LoginResponse{JWTToken: testToken, Name: "Admin", Username: req.Username})
		}
	})
	r.Post("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["jwt"] != testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, model.Identity{Name: "Admin", Username: "admin"})
	})

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer "+testToken {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			})
		})

		r.Get("/pageEmployees", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, b.page(r, ""))
		})
		r.Get("/employees/allFields/{term}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, b.page(r, chi.URLParam(r, "term")))
		})
		r.Get("/employees/byName/{name}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, b.filter(chi.URLParam(r, "name")))
		})
		r.Get("/employees/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			b.mu.Lock()
			e, ok := b.employees[id]
			b.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeJSON(w, e)
		})
		r.Post("/employees", func(w http.ResponseWriter, r *http.Request) {
			var in model.EmployeeInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.mu.Lock()
			b.employees[b.nextID] = model.Employee{ID: b.nextID, FirstName: in.FirstName, LastName: in.LastName}
			b.nextID++
			b.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		})
		r.Put("/update/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			var in model.EmployeeInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.mu.Lock()
			e := b.employees[id]
			e.FirstName, e.LastName = in.FirstName, in.LastName
			b.employees[id] = e
			b.mu.Unlock()
		})
		r.Delete("/delete/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if id == forbiddenID {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			b.mu.Lock()
			delete(b.employees, id)
			b.mu.Unlock()
		})
		r.Get("/departments", func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, testDepartments) })
		r.Get("/positions", func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, testPositions) })
		r.Get("/ranks", func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, testRanks) })
	})
	return r
}

func (b *rosterBackend) filter(term string) []model.Employee {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []model.Employee{}
	for _, e := range b.employees {
		if term == "" || strings.Contains(e.FirstName+" "+e.LastName, term) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *rosterBackend) page(r *http.Request, term string) model.EmployeePage {
	all := b.filter(term)
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	number, _ := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	if size <= 0 {
		size = 10
	}
	pages := (len(all) + size - 1) / size
	start := min(number*size, len(all))
	end := min(start+size, len(all))
	return model.EmployeePage{
		Content:       all[start:end],
		First:         number == 0,
		Last:          number >= pages-1,
		TotalElements: int64(len(all)),
		TotalPages:    pages,
		Number:        number,
		Size:          size,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fakeDeps — состояние зависимостей для readiness.
type fakeDeps map[string]bool

func (d fakeDeps) Health() map[string]bool { return d }

// testApp — UI поверх rosterBackend и клиент браузера с cookie.
type testApp struct {
	backend *rosterBackend
	ui      *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T, deps handlers.DependencyHealth) *testApp {
	t.Helper()
	i18nLoad(t)

	backend := newRosterBackend()
	api := httptest.NewServer(backend.handler())
	t.Cleanup(api.Close)

	client, err := apiclient.New(api.URL, "", 5*time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	codec, err := tokenstore.NewCodec("server-test", false)
	if err != nil {
		t.Fatal(err)
	}
	factory := workspace.NewFactory(client, codec, debounce.NewSanitizer(debounce.DefaultExtraChars),
		clockwork.NewRealClock(), workspace.Settings{
			CacheSize:   64,
			PageSize:    10,
			SearchQuiet: 20 * time.Millisecond,
		}, testLogger())
	registry := workspace.NewRegistry(factory, codec, 16, time.Hour, testLogger())
	t.Cleanup(registry.Close)

	ui := httptest.NewServer(NewRouter(testLogger(), registry, deps))
	t.Cleanup(ui.Close)

	jar, _ := cookiejar.New(nil)
	u, _ := url.Parse(ui.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: i18n.LangCookieName, Value: "en", Path: "/"}})

	return &testApp{
		backend: backend,
		ui:      ui,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

var i18nOnce sync.Once

func i18nLoad(t *testing.T) {
	t.Helper()
	i18nOnce.Do(func() {
		if err := i18n.LoadFromEmbedFS(i18n.Init(testLogger()), testLogger()); err != nil {
			t.Fatal(err)
		}
	})
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.ui.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.ui.URL+path, form)
	if err != nil {
		t.Fatal(err)
	}
	return resp, readBody(t, resp)
}

func (a *testApp) login(t *testing.T) {
	t.Helper()
	resp, _ := a.post(t, "/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("Вход: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		deps       handlers.DependencyHealth
		wantStatus int
		wantValue  string
	}{
		{"без мониторинга", nil, http.StatusOK, "degraded"},
		{"API доступен", fakeDeps{"roster-api:api.local:8081": true}, http.StatusOK, "ok"},
		{"API недоступен", fakeDeps{"roster-api:api.local:8081": false}, http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.deps)

			resp, body := app.get(t, "/health/ready")
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, ожидается %d", resp.StatusCode, tt.wantStatus)
			}
			var got struct {
				Status  string `json:"status"`
				Service string `json:"service"`
			}
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatalf("Ответ не JSON: %v", err)
			}
			if got.Status != tt.wantValue || got.Service != "roster-admin" {
				t.Errorf("Ответ = %+v, ожидается status %q", got, tt.wantValue)
			}
			if len(resp.Cookies()) != 0 {
				t.Error("Health endpoint не должен создавать сессию")
			}
		})
	}

	app := newTestApp(t, nil)
	if resp, _ := app.get(t, "/health/live"); resp.StatusCode != http.StatusOK {
		t.Errorf("Liveness status = %d", resp.StatusCode)
	}
	if resp, body := app.get(t, "/metrics"); resp.StatusCode != http.StatusOK || !strings.Contains(body, "ra_http_requests_total") {
		t.Errorf("Метрики не отданы: status = %d", resp.StatusCode)
	}
}

func TestStatic(t *testing.T) {
	app := newTestApp(t, nil)
	resp, body := app.get(t, "/static/js/app.js")
	if resp.StatusCode != http.StatusOK || body == "" {
		t.Errorf("Status = %d, ожидается встроенный app.js", resp.StatusCode)
	}
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t, nil)

	resp, _ := app.get(t, "/print")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login?from=%2Fprint" {
		t.Fatalf("Без входа: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = app.post(t, "/login", url.Values{"username": {"admin"}, "password": {"wrong"}, "from": {"/print"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login?from=%2Fprint" {
		t.Fatalf("Неверный пароль: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body := app.get(t, "/login?from=%2Fprint")
	if !strings.Contains(body, "Wrong username or password") {
		t.Error("Страница входа не показывает ошибку неверного пароля")
	}

	resp, _ = app.post(t, "/login", url.Values{"username": {"admin"}, "password": {"secret"}, "from": {"/print"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/print" {
		t.Fatalf("Вход: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = app.get(t, "/print")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Печать: status = %d", resp.StatusCode)
	}
	for _, want := range []string{"Ali", "Nərmin", "Userdata"} {
		if !strings.Contains(body, want) {
			t.Errorf("Страница печати не содержит %q", want)
		}
	}
	if strings.Contains(body, "/employees/1/edit") {
		t.Error("Страница печати не должна содержать действий")
	}

	// С выполненным входом страница входа перенаправляет дальше
	resp, _ = app.get(t, "/login?from=%2Fprint")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/print" {
		t.Errorf("Повторный вход: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = app.post(t, "/logout", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("Выход: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, _ = app.get(t, "/")
	if resp.StatusCode != http.StatusFound {
		t.Errorf("После выхода: status = %d, ожидается redirect", resp.StatusCode)
	}
}

func TestListControls(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	for _, step := range []struct {
		path string
		form url.Values
	}{
		{"/list/page-size", url.Values{"pageSize": {"5"}}},
		{"/list/sort", url.Values{"sortBy": {"lastName"}}},
		{"/list/page-size", url.Values{"pageSize": {"7"}}},
		{"/list/sort", url.Values{"sortBy": {"salary"}}},
		{"/list/next", nil},
		{"/list/prev", nil},
	} {
		resp, _ := app.post(t, step.path, step.form)
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
			t.Errorf("%s: status = %d, Location = %q", step.path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	resp, body := app.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Список: status = %d", resp.StatusCode)
	}
	for _, want := range []string{`value="5" selected`, `value="lastName" selected`, "Vüqar"} {
		if !strings.Contains(body, want) {
			t.Errorf("Список не содержит %q", want)
		}
	}
}

func TestListNextWithoutRenderedPage(t *testing.T) {
	app := newTestApp(t, nil)
	app.backend.mu.Lock()
	for _, name := range []string{"Leyla", "Kamran", "Orxan"} {
		app.backend.employees[app.backend.nextID] = model.Employee{ID: app.backend.nextID, FirstName: name, LastName: "Əliyev"}
		app.backend.nextID++
	}
	app.backend.mu.Unlock()
	app.login(t)

	// Переход вперёд до первой отрисовки списка (например, после рестарта)
	app.post(t, "/list/page-size", url.Values{"pageSize": {"5"}})
	resp, _ := app.post(t, "/list/next", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("Следующая страница: status = %d", resp.StatusCode)
	}

	_, body := app.get(t, "/")
	if !strings.Contains(body, "Orxan") || strings.Contains(body, ">Ali<") {
		t.Error("Ожидается вторая страница списка")
	}
}

func TestSearchPartial(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, body := app.get(t, "/partials/employee-table?q=Ali")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Поиск: status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Ali") || strings.Contains(body, "Nərmin") {
		t.Errorf("Поиск Ali вернул неверную таблицу:\n%s", body)
	}
	if strings.Contains(body, "<html") {
		t.Error("Частичный ответ не должен содержать разметку страницы")
	}

	// Состояние поиска сохраняется в пространстве
	_, body = app.get(t, "/")
	if !strings.Contains(body, `value="Ali"`) || strings.Contains(body, "Nərmin") {
		t.Error("Главная страница не учитывает поисковый запрос")
	}

	// Пустой запрос возвращает полный список
	_, body = app.get(t, "/partials/employee-table?q=")
	if !strings.Contains(body, "Nərmin") {
		t.Error("Пустой запрос должен вернуть полный список")
	}

	// Без входа — 401 вместо redirect
	anon := newTestApp(t, nil)
	if resp, _ := anon.get(t, "/partials/employee-table?q=Ali"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Без входа: status = %d, ожидается 401", resp.StatusCode)
	}
}

func TestEmployeeMutations(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, body := app.get(t, "/employees/new")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Leytenant") {
		t.Fatalf("Форма создания: status = %d", resp.StatusCode)
	}

	// Незаполненные поля — форма остаётся с введёнными значениями
	resp, body = app.post(t, "/employees", url.Values{"firstName": {"Rəşad"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Неполная форма: status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `value="Rəşad"`) || !strings.Contains(body, "Fill in all fields") {
		t.Error("Форма не сохранила значения или не показала ошибку")
	}

	form := url.Values{
		"firstName": {"Rəşad"}, "lastName": {"Quliyev"},
		"department": {"1"}, "position": {"1"}, "rank": {"1"},
	}
	resp, _ = app.post(t, "/employees", form)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("Создание: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body = app.get(t, "/")
	if !strings.Contains(body, "Quliyev") || !strings.Contains(body, "Employee added successfully") {
		t.Error("Новый сотрудник не появился в списке после создания")
	}

	resp, body = app.get(t, "/employees/1/edit")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `value="Ali"`) {
		t.Fatalf("Форма изменения: status = %d", resp.StatusCode)
	}
	form.Set("firstName", "Əli")
	resp, _ = app.post(t, "/employees/1", form)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("Изменение: status = %d", resp.StatusCode)
	}
	_, body = app.get(t, "/employees/1/edit")
	if !strings.Contains(body, `value="Əli"`) {
		t.Error("Форма изменения показывает устаревшую запись")
	}

	if resp, _ := app.get(t, "/employees/999/edit"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Несуществующий сотрудник: status = %d, ожидается 404", resp.StatusCode)
	}
}

func TestDelete(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, _ := app.post(t, "/employees/3/delete", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("Удаление: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body := app.get(t, "/")
	if strings.Contains(body, "Nərmin") || !strings.Contains(body, "Employee deleted") {
		t.Error("Удалённый сотрудник остался в списке")
	}

	resp, _ = app.post(t, "/employees/"+strconv.Itoa(forbiddenID)+"/delete", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("Запрещённое удаление: status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body = app.get(t, "/")
	if !strings.Contains(body, "Vüqar") || !strings.Contains(body, "You are not permitted to delete employees") {
		t.Error("Запрещённое удаление: ожидается уведомление и сохранённая запись")
	}
}

func TestLookup(t *testing.T) {
	app := newTestApp(t, nil)
	app.login(t)

	resp, body := app.get(t, "/employees/lookup?name=Ali")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d", resp.StatusCode)
	}
	var got []struct {
		ID        int64  `json:"id"`
		FirstName string `json:"firstName"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("Ответ не JSON: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Найдено %+v, ожидается сотрудник 1", got)
	}
}

func TestSetLanguage(t *testing.T) {
	app := newTestApp(t, nil)

	req, _ := http.NewRequest(http.MethodPost, app.ui.URL+"/set-language",
		strings.NewReader(url.Values{"lang": {"ru"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", app.ui.URL+"/login?from=%2Fprint")
	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login?from=%2Fprint" {
		t.Errorf("Status = %d, Location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	var lang string
	for _, c := range resp.Cookies() {
		if c.Name == i18n.LangCookieName {
			lang = c.Value
		}
	}
	if lang != "ru" {
		t.Errorf("Cookie lang = %q, ожидается ru", lang)
	}
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	resp, _ := app.get(t, "/no-such-page")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Status = %d, ожидается 404", resp.StatusCode)
	}
}
