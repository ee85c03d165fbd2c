// Пакет pages — страницы Roster Admin UI.
// Каждая страница — templ.Component поверх встроенного html/template.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/teymur54/custom-login-project-full-tail/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// templates — набор шаблонов на страницу: layout + страница + общие части.
var templates = map[string]*template.Template{
	"login":        parsePage("login.html"),
	"employees":    parsePage("employees.html", "table.html"),
	"table":        parsePartial("table.html"),
	"print":        parsePartial("print.html"),
	"form":         parsePage("form.html"),
	"unauthorized": parsePage("message.html"),
	"notfound":     parsePage("message.html"),
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

func parsePage(files ...string) *template.Template {
	paths := []string{"templates/layout.html", "templates/toasts.html"}
	for _, f := range files {
		paths = append(paths, "templates/"+f)
	}
	return template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFS, paths...))
}

func parsePartial(file string) *template.Template {
	return template.Must(template.New(file).Funcs(funcs).ParseFS(templateFS,
		"templates/toasts.html", "templates/"+file))
}

// render — компонент, выполняющий именованный шаблон из набора page.
func render(page, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		t, ok := templates[page]
		if !ok {
			return fmt.Errorf("pages: неизвестная страница %q", page)
		}
		if err := t.ExecuteTemplate(w, name, data); err != nil {
			return fmt.Errorf("pages: ошибка отрисовки %s: %w", page, err)
		}
		return nil
	})
}

// Toast — уведомление для показа.
type Toast struct {
	Level string
	Text  string
}

// Base — общие данные страниц.
type Base struct {
	Lang      string
	Languages []string
	// User — отображаемое имя (пусто — вход не выполнен)
	User   string
	Path   string
	Toasts []Toast
}

// NewBase создаёт общие данные страницы для контекста запроса.
func NewBase(ctx context.Context, user, path string, toasts []Toast) Base {
	return Base{
		Lang:      i18n.LangFromContext(ctx),
		Languages: i18n.Languages,
		User:      user,
		Path:      path,
		Toasts:    toasts,
	}
}

// T — перевод для шаблонов: {{.T "key"}}.
func (b Base) T(key string) string {
	return i18n.Translate(b.Lang, key)
}

// Tf — перевод с аргументами: {{.Tf "key" 1 2}}.
func (b Base) Tf(key string, args ...any) string {
	return i18n.Translatef(b.Lang, key, args...)
}

// --- Вход ---

// LoginData — данные страницы входа.
type LoginData struct {
	Base
	// From — страница, на которую вернуться после входа
	From     string
	Username string
}

// LoginPage — страница входа.
func LoginPage(d LoginData) templ.Component {
	return render("login", "layout.html", d)
}

// --- Список ---

// Row — строка таблицы сотрудников.
type Row struct {
	ID         int64
	FirstName  string
	LastName   string
	Department string
	Position   string
	Rank       string
}

// ListData — данные страницы списка, таблицы и печати.
type ListData struct {
	Base
	Rows          []Row
	PageSize      int
	PageSizes     []int
	SortBy        string
	SortFields    []string
	Search        string
	PageNumber    int
	TotalPages    int
	TotalElements int64
	First         bool
	Last          bool
	// Failed — загрузка завершилась ошибкой
	Failed bool
	// Loading — сессия ещё проверяется или запрос не выполнялся
	Loading bool
}

// EmployeesPage — главная страница со списком сотрудников.
func EmployeesPage(d ListData) templ.Component {
	return render("employees", "layout.html", d)
}

// EmployeeTable — таблица сотрудников (частичный ответ для поиска).
func EmployeeTable(d ListData) templ.Component {
	return render("table", "partial", d)
}

// PrintPage — печатная версия списка без колонки действий.
func PrintPage(d ListData) templ.Component {
	return render("print", "print.html", d)
}

// --- Форма ---

// Option — элемент выпадающего списка.
type Option struct {
	ID       int64
	Name     string
	Selected bool
}

// FormData — данные формы сотрудника.
type FormData struct {
	Base
	// Action — адрес отправки формы
	Action string
	// Editing — форма изменения (иначе создания)
	Editing     bool
	FirstName   string
	LastName    string
	Departments []Option
	Positions   []Option
	Ranks       []Option
}

// EmployeeForm — форма создания или изменения сотрудника.
func EmployeeForm(d FormData) templ.Component {
	return render("form", "layout.html", d)
}

// --- Сообщения ---

// MessageData — страница с заголовком и текстом.
type MessageData struct {
	Base
	TitleKey string
	TextKey  string
}

// Unauthorized — страница «нет прав».
func Unauthorized(b Base) templ.Component {
	return render("unauthorized", "layout.html", MessageData{Base: b, TitleKey: "unauthorized.title", TextKey: "unauthorized.text"})
}

// NotFound — страница «не найдено».
func NotFound(b Base) templ.Component {
	return render("notfound", "layout.html", MessageData{Base: b, TitleKey: "notfound.title"})
}
