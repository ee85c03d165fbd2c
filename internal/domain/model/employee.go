// Пакет model — доменные модели Roster Admin.
// Структуры повторяют JSON-формат REST API реестра сотрудников (owned by backend),
// клиент хранит их только как кэш состояния сервера.
package model

// Reference — элемент справочника (отдел, звание, должность).
type Reference struct {
	// ID — идентификатор записи справочника
	ID int64 `json:"id"`
	// Name — отображаемое название
	Name string `json:"name"`
}

// RefID — ссылка на элемент справочника при создании/обновлении сотрудника.
type RefID struct {
	ID int64 `json:"id"`
}

// Employee — запись сотрудника в том виде, в котором её возвращает REST API.
type Employee struct {
	// ID — идентификатор сотрудника
	ID int64 `json:"id"`
	// FirstName — имя
	FirstName string `json:"firstName"`
	// LastName — фамилия
	LastName string `json:"lastName"`
	// Department — отдел (id + name, разрешается сервером)
	Department Reference `json:"department"`
	// Rank — звание
	Rank Reference `json:"rank"`
	// Position — должность
	Position Reference `json:"position"`
}

// EmployeeInput — тело запроса создания/обновления сотрудника.
type EmployeeInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Department RefID  `json:"department"`
	Position   RefID  `json:"position"`
	Rank       RefID  `json:"rank"`
}

// InputFromEmployee строит EmployeeInput из существующей записи
// (предзаполнение формы редактирования).
func InputFromEmployee(e *Employee) EmployeeInput {
	return EmployeeInput{
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Department: RefID{ID: e.Department.ID},
		Position:   RefID{ID: e.Position.ID},
		Rank:       RefID{ID: e.Rank.ID},
	}
}

// EmployeePage — страница списка сотрудников с метаданными пагинации.
type EmployeePage struct {
	// Content — сотрудники текущей страницы (в порядке сортировки)
	Content []Employee `json:"content"`
	// First — текущая страница первая
	First bool `json:"first"`
	// Last — текущая страница последняя
	Last bool `json:"last"`
	// TotalElements — общее количество сотрудников
	TotalElements int64 `json:"totalElements"`
	// TotalPages — общее количество страниц
	TotalPages int `json:"totalPages"`
	// Number — номер страницы (с 0)
	Number int `json:"number"`
	// Size — размер страницы
	Size int `json:"size"`
}

// Contains проверяет, есть ли на странице сотрудник с указанным ID.
func (p *EmployeePage) Contains(id int64) bool {
	if p == nil {
		return false
	}
	for i := range p.Content {
		if p.Content[i].ID == id {
			return true
		}
	}
	return false
}
