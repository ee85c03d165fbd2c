// employees.go — список сотрудников: страница, управление списком,
// частичный ответ для поиска, печать и быстрый поиск по имени.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/service"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/pages"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

// EmployeesHandler — обработчики списка сотрудников.
type EmployeesHandler struct {
	logger *slog.Logger
}

// NewEmployeesHandler создаёт EmployeesHandler.
func NewEmployeesHandler(logger *slog.Logger) *EmployeesHandler {
	return &EmployeesHandler{
		logger: logger.With(slog.String("component", "ui.employees")),
	}
}

// HandleList — GET /.
func (h *EmployeesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	view := ws.List.Load(r.Context())
	data := listData(pageBase(r, ws), ws, view)
	render(w, r, h.logger, http.StatusOK, pages.EmployeesPage(data))
}

// HandleTable — GET /partials/employee-table?q=.
//
// Каждое нажатие клавиши приходит отдельным запросом. Значение применяется
// после периода тишины; запрос, вытесненный более новым вводом, получает 204.
// Без параметра q возвращается таблица для текущего состояния.
func (h *EmployeesHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	ctx := r.Context()

	if r.URL.Query().Has("q") {
		_, seq := ws.Search.Update(r.URL.Query().Get("q"))
		value, ok := ws.Search.Await(ctx, seq)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		ws.List.SetSearch(value)
	}

	view := ws.List.Load(ctx)
	if view.Stale {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if view.Status == service.ViewError && ctx.Err() != nil {
		return
	}
	render(w, r, h.logger, http.StatusOK, pages.EmployeeTable(listData(pageBase(r, ws), ws, view)))
}

// HandlePageSize — POST /list/page-size.
func (h *EmployeesHandler) HandlePageSize(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	n, err := strconv.Atoi(r.FormValue("pageSize"))
	if err == nil {
		err = ws.List.SetPageSize(n)
	}
	if err != nil {
		h.logger.Debug("Размер страницы отклонён", slog.String("error", err.Error()))
	}
	redirect(w, r, "/")
}

// HandleSort — POST /list/sort.
func (h *EmployeesHandler) HandleSort(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	if err := ws.List.SetSortBy(r.FormValue("sortBy")); err != nil {
		h.logger.Debug("Поле сортировки отклонено", slog.String("error", err.Error()))
	}
	redirect(w, r, "/")
}

// HandleNext — POST /list/next. На последней странице ничего не меняет.
func (h *EmployeesHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	// Признак последней страницы берётся из текущей страницы (обычно из кэша)
	ws.List.Load(r.Context())
	ws.List.NextPage()
	redirect(w, r, "/")
}

// HandlePrev — POST /list/prev. На первой странице ничего не меняет.
func (h *EmployeesHandler) HandlePrev(w http.ResponseWriter, r *http.Request) {
	workspaceOf(r).List.PreviousPage()
	redirect(w, r, "/")
}

// HandlePrint — GET /print. Текущая страница списка без колонки действий.
func (h *EmployeesHandler) HandlePrint(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	view := ws.List.Load(r.Context())
	render(w, r, h.logger, http.StatusOK, pages.PrintPage(listData(pageBase(r, ws), ws, view)))
}

// lookupItem — элемент ответа быстрого поиска.
type lookupItem struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// HandleLookup — GET /employees/lookup?name=. JSON-список сотрудников с именем name.
func (h *EmployeesHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)

	found, err := ws.Records.FindByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		status := http.StatusBadGateway
		switch apiclient.KindOf(err) {
		case apiclient.KindUnauthenticated:
			status = http.StatusUnauthorized
		case apiclient.KindForbidden:
			status = http.StatusForbidden
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	items := make([]lookupItem, 0, len(found))
	for _, e := range found {
		items = append(items, lookupItem{ID: e.ID, FirstName: e.FirstName, LastName: e.LastName})
	}
	writeJSON(w, http.StatusOK, items)
}

// listData преобразует результат загрузки в данные шаблона.
func listData(base pages.Base, ws *workspace.Workspace, view service.View) pages.ListData {
	d := pages.ListData{
		Base:       base,
		PageSize:   view.State.PageSize,
		PageSizes:  service.PageSizes,
		SortBy:     view.State.SortBy,
		SortFields: service.SortFields,
		Search:     ws.Search.Pending(),
		PageNumber: view.State.PageNumber,
		First:      view.State.PageNumber == 0,
		Last:       true,
	}

	switch view.Status {
	case service.ViewError:
		d.Failed = true
		return d
	case service.ViewIdle:
		d.Loading = true
		return d
	}

	page := view.Page
	d.Rows = rows(page.Content)
	d.TotalPages = page.TotalPages
	d.TotalElements = page.TotalElements
	d.First = page.First
	d.Last = page.Last
	return d
}

func rows(employees []model.Employee) []pages.Row {
	out := make([]pages.Row, 0, len(employees))
	for _, e := range employees {
		out = append(out, pages.Row{
			ID:         e.ID,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Department: e.Department.Name,
			Position:   e.Position.Name,
			Rank:       e.Rank.Name,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
