// forms.go — создание, изменение и удаление сотрудников.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/teymur54/custom-login-project-full-tail/internal/apiclient"
	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
	"github.com/teymur54/custom-login-project-full-tail/internal/service"
	"github.com/teymur54/custom-login-project-full-tail/internal/ui/pages"
	"github.com/teymur54/custom-login-project-full-tail/internal/workspace"
)

// FormsHandler — обработчики формы сотрудника и удаления.
type FormsHandler struct {
	logger *slog.Logger
}

// NewFormsHandler создаёт FormsHandler.
func NewFormsHandler(logger *slog.Logger) *FormsHandler {
	return &FormsHandler{
		logger: logger.With(slog.String("component", "ui.forms")),
	}
}

// HandleNew — GET /employees/new.
func (h *FormsHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, workspaceOf(r), "/employees", false, model.EmployeeInput{})
}

// HandleCreate — POST /employees.
func (h *FormsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	input := inputFromForm(r)

	out, err := ws.Mutations.Create(r.Context(), input)
	if err != nil {
		h.afterFailure(w, r, ws, err, func() {
			h.renderForm(w, r, ws, "/employees", false, input)
		})
		return
	}
	redirect(w, r, out.Redirect)
}

// HandleEdit — GET /employees/{id}/edit. Форма предзаполнена текущей записью.
func (h *FormsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	id, ok := employeeID(r)
	if !ok {
		h.notFound(w, r, ws)
		return
	}

	e, err := ws.Records.Employee(r.Context(), id)
	if err != nil {
		if apiclient.StatusOf(err) == http.StatusNotFound {
			h.notFound(w, r, ws)
			return
		}
		h.afterFailure(w, r, ws, err, func() { redirect(w, r, "/") })
		return
	}
	h.renderForm(w, r, ws, editAction(id), true, model.InputFromEmployee(e))
}

// HandleUpdate — POST /employees/{id}.
func (h *FormsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	id, ok := employeeID(r)
	if !ok {
		h.notFound(w, r, ws)
		return
	}
	input := inputFromForm(r)

	out, err := ws.Mutations.Update(r.Context(), id, input)
	if err != nil {
		h.afterFailure(w, r, ws, err, func() {
			h.renderForm(w, r, ws, editAction(id), true, input)
		})
		return
	}
	redirect(w, r, out.Redirect)
}

// HandleDelete — POST /employees/{id}/delete.
// Результат (успех или отказ) показывается уведомлением на списке.
func (h *FormsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ws := workspaceOf(r)
	id, ok := employeeID(r)
	if !ok {
		h.notFound(w, r, ws)
		return
	}

	if err := ws.Mutations.Delete(r.Context(), id); err != nil {
		h.logger.Debug("Удаление не выполнено",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		if apiclient.KindOf(err) == apiclient.KindUnauthenticated || errors.Is(err, service.ErrNoCredential) {
			redirect(w, r, "/login")
			return
		}
	}
	redirect(w, r, "/")
}

// afterFailure выбирает реакцию на ошибку изменения или чтения.
// Уведомление уже поставлено в очередь сервисом; stay — остаться на форме.
func (h *FormsHandler) afterFailure(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, err error, stay func()) {
	if r.Context().Err() != nil {
		return
	}
	switch {
	case errors.Is(err, service.ErrNoCredential), apiclient.KindOf(err) == apiclient.KindUnauthenticated:
		redirect(w, r, "/login")
	case apiclient.KindOf(err) == apiclient.KindForbidden:
		redirect(w, r, "/unauthorized")
	default:
		stay()
	}
}

// renderForm отрисовывает форму с выбранными значениями input.
// Без справочников форма не имеет смысла: уведомление и переход на список.
func (h *FormsHandler) renderForm(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, action string, editing bool, input model.EmployeeInput) {
	refs, err := ws.References.Load(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.logger.Warn("Справочники недоступны", slog.String("error", err.Error()))
		redirect(w, r, "/")
		return
	}

	render(w, r, h.logger, http.StatusOK, pages.EmployeeForm(pages.FormData{
		Base:        pageBase(r, ws),
		Action:      action,
		Editing:     editing,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Departments: options(refs.Departments, input.Department.ID),
		Positions:   options(refs.Positions, input.Position.ID),
		Ranks:       options(refs.Ranks, input.Rank.ID),
	}))
}

func (h *FormsHandler) notFound(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	render(w, r, h.logger, http.StatusNotFound, pages.NotFound(pageBase(r, ws)))
}

func options(refs []model.Reference, selected int64) []pages.Option {
	out := make([]pages.Option, 0, len(refs))
	for _, ref := range refs {
		out = append(out, pages.Option{ID: ref.ID, Name: ref.Name, Selected: ref.ID == selected})
	}
	return out
}

// inputFromForm читает поля формы. Нечисловой идентификатор справочника
// остаётся нулевым и отклоняется проверкой полей.
func inputFromForm(r *http.Request) model.EmployeeInput {
	refID := func(name string) model.RefID {
		id, _ := strconv.ParseInt(r.FormValue(name), 10, 64)
		return model.RefID{ID: id}
	}
	return model.EmployeeInput{
		FirstName:  strings.TrimSpace(r.FormValue("firstName")),
		LastName:   strings.TrimSpace(r.FormValue("lastName")),
		Department: refID("department"),
		Position:   refID("position"),
		Rank:       refID("rank"),
	}
}

func employeeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func editAction(id int64) string {
	return "/employees/" + strconv.FormatInt(id, 10)
}
