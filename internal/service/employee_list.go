package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/notify"
	"github.com/teymur54/custom-login-project-full-tail/internal/querycache"
)

// Значения по умолчанию для списка сотрудников.
const (
	DefaultPageSize = 10
	DefaultSortBy   = "lastName"
)

// ResourceEmployees — ресурс ключей кэша для страниц списка.
const ResourceEmployees = "employees"

// PageSizes — допустимые размеры страницы (в порядке показа).
var PageSizes = []int{5, 10, 15, 20}

// SortFields — допустимые поля сортировки.
var SortFields = []string{"firstName", "lastName"}

// ValidPageSize проверяет размер страницы.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// ValidSortField проверяет поле сортировки.
func ValidSortField(f string) bool {
	for _, s := range SortFields {
		if s == f {
			return true
		}
	}
	return false
}

// ListState — параметры списка.
type ListState struct {
	PageSize   int
	PageNumber int
	SortBy     string
	// Search — применённая (очищенная, после задержки) строка поиска
	Search string
}

// ListQuery — запрос, соответствующий состоянию списка.
type ListQuery struct {
	Key    querycache.Key
	Params apiclient.PageParams
	// Filtered — запрос идёт в /employees/allFields/{Term}
	Filtered bool
	Term     string
}

// queryFor строит запрос для состояния. Пустой после TrimSpace поиск —
// нефильтрованный список.
func queryFor(s ListState) ListQuery {
	q := ListQuery{
		Params: apiclient.PageParams{
			PageSize:   s.PageSize,
			PageNumber: s.PageNumber,
			SortBy:     s.SortBy,
		},
	}
	term := strings.TrimSpace(s.Search)
	if term == "" {
		q.Key = querycache.NewKey(ResourceEmployees, s.PageSize, s.PageNumber, s.SortBy)
		return q
	}
	q.Filtered = true
	q.Term = term
	q.Key = querycache.NewKey(ResourceEmployees, s.PageSize, s.PageNumber, s.SortBy, "search:"+term)
	return q
}

// ViewStatus — состояние отображения списка.
type ViewStatus int

const (
	// ViewIdle — запрос не выполнялся (нет токена)
	ViewIdle ViewStatus = iota
	// ViewReady — страница получена
	ViewReady
	// ViewError — запрос завершился ошибкой
	ViewError
)

// View — результат загрузки списка.
type View struct {
	Status ViewStatus
	State  ListState
	Page   *model.EmployeePage
	Err    error
	// Stale — состояние списка изменилось во время загрузки, результат отброшен
	Stale bool
}

// EmployeeList — контроллер списка сотрудников одного рабочего пространства.
type EmployeeList struct {
	mu    sync.Mutex
	state ListState
	// page — последняя полученная страница и её ключ
	page    *model.EmployeePage
	pageKey querycache.Key

	api      EmployeeAPI
	session  Session
	cache    *querycache.Cache
	notifier Notifier
	logger   *slog.Logger
}

// NewEmployeeList создаёт контроллер списка. pageSize — начальный размер
// страницы (недопустимое значение заменяется на DefaultPageSize).
func NewEmployeeList(
	api EmployeeAPI,
	sess Session,
	cache *querycache.Cache,
	notifier Notifier,
	pageSize int,
	logger *slog.Logger,
) *EmployeeList {
	if !ValidPageSize(pageSize) {
		pageSize = DefaultPageSize
	}
	return &EmployeeList{
		state: ListState{
			PageSize: pageSize,
			SortBy:   DefaultSortBy,
		},
		api:      api,
		session:  sess,
		cache:    cache,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "employee_list")),
	}
}

// State возвращает текущие параметры списка.
func (l *EmployeeList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// CurrentQuery возвращает запрос для текущего состояния.
func (l *EmployeeList) CurrentQuery() ListQuery {
	l.mu.Lock()
	defer l.mu.Unlock()
	return queryFor(l.state)
}

// SetPageSize меняет размер страницы и возвращает на первую страницу.
func (l *EmployeeList) SetPageSize(n int) error {
	if !ValidPageSize(n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.PageSize = n
	l.state.PageNumber = 0
	return nil
}

// SetSortBy меняет поле сортировки и возвращает на первую страницу.
func (l *EmployeeList) SetSortBy(field string) error {
	if !ValidSortField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidSort, field)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.SortBy = field
	l.state.PageNumber = 0
	return nil
}

// SetSearch применяет строку поиска. При изменении — возврат на первую страницу.
func (l *EmployeeList) SetSearch(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Search == term {
		return
	}
	l.state.Search = term
	l.state.PageNumber = 0
}

// NextPage переходит на следующую страницу. Ничего не делает, если текущая
// страница последняя или о ней ничего не известно (не загружена и нет в кэше).
// Возвращает true при переходе.
func (l *EmployeeList) NextPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	page := l.currentPageLocked()
	if page == nil || page.Last {
		return false
	}
	l.state.PageNumber++
	return true
}

// currentPageLocked — страница для текущего состояния: последняя загруженная
// либо готовая запись кэша (после восстановления пространства).
func (l *EmployeeList) currentPageLocked() *model.EmployeePage {
	key := queryFor(l.state).Key
	if l.page != nil && l.pageKey.Equal(key) {
		return l.page
	}
	if v, ok := l.cache.Peek(key); ok {
		if page, ok := v.(*model.EmployeePage); ok {
			return page
		}
	}
	return nil
}

// PreviousPage переходит на предыдущую страницу. На первой странице ничего не делает.
func (l *EmployeeList) PreviousPage() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.PageNumber == 0 {
		return false
	}
	l.state.PageNumber--
	return true
}

// Reset возвращает параметры списка к значениям по умолчанию (выход).
func (l *EmployeeList) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.PageNumber = 0
	l.state.SortBy = DefaultSortBy
	l.state.Search = ""
	l.page, l.pageKey = nil, nil
}

// Load загружает страницу для текущего состояния через кэш.
//
// Запрос ждёт завершения проверки сессии; без токена он не выполняется (ViewIdle).
// Если за время загрузки состояние списка изменилось, результат не
// сохраняется и View.Stale == true.
func (l *EmployeeList) Load(ctx context.Context) View {
	if err := l.session.Wait(ctx); err != nil {
		return View{Status: ViewError, State: l.State(), Err: err}
	}

	l.mu.Lock()
	state := l.state
	q := queryFor(state)
	l.mu.Unlock()

	cred, ok := l.session.Credential()
	res := querycache.Run(ctx, l.cache, querycache.Query[*model.EmployeePage]{
		Key:     q.Key,
		Enabled: ok,
		Fn: func(ctx context.Context) (*model.EmployeePage, error) {
			if q.Filtered {
				return l.api.SearchEmployees(ctx, cred.Token, q.Term, q.Params)
			}
			return l.api.ListEmployees(ctx, cred.Token, q.Params)
		},
	})

	switch res.Status {
	case querycache.StatusIdle:
		return View{Status: ViewIdle, State: state}
	case querycache.StatusError:
		return l.fail(ctx, state, res.Err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !queryFor(l.state).Key.Equal(q.Key) {
		l.logger.Debug("Устаревший результат списка отброшен", slog.String("key", q.Key.String()))
		return View{Status: ViewReady, State: state, Page: res.Data, Stale: true}
	}
	l.page, l.pageKey = res.Data, q.Key
	return View{Status: ViewReady, State: state, Page: res.Data}
}

// fail обрабатывает ошибку загрузки: уведомление, при 401 — выход.
func (l *EmployeeList) fail(ctx context.Context, state ListState, err error) View {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return View{Status: ViewError, State: state, Err: err}
	}

	l.logger.Warn("Ошибка загрузки списка сотрудников", slog.String("error", err.Error()))
	if apiclient.KindOf(err) == apiclient.KindUnauthenticated {
		l.session.Logout()
	}
	l.notifier.Push(notify.LevelError, messageFor(err))
	return View{Status: ViewError, State: state, Err: err}
}
