package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/teymur54/custom-login-project-full-tail/internal/domain/model"
)

// PageParams — параметры пагинации и сортировки списка.
type PageParams struct {
	PageSize   int
	PageNumber int
	SortBy     string
}

func (p PageParams) values() (url.Values, error) {
	q := url.Values{}
	if err := addQueryParam(q, "pageSize", p.PageSize); err != nil {
		return nil, err
	}
	if err := addQueryParam(q, "pageNumber", p.PageNumber); err != nil {
		return nil, err
	}
	if err := addQueryParam(q, "sortBy", p.SortBy); err != nil {
		return nil, err
	}
	return q, nil
}

// ListEmployees — GET /pageEmployees?pageSize&pageNumber&sortBy.
func (c *Client) ListEmployees(ctx context.Context, token string, p PageParams) (*model.EmployeePage, error) {
	q, err := p.values()
	if err != nil {
		return nil, err
	}

	var page model.EmployeePage
	err = c.do(ctx, request{
		op:     "list_employees",
		method: http.MethodGet,
		path:   "/pageEmployees",
		query:  q,
		token:  token,
		out:    &page,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchEmployees — GET /employees/allFields/{term}?pageSize&pageNumber&sortBy.
// Поиск по всем полям с пагинацией.
func (c *Client) SearchEmployees(ctx context.Context, token, term string, p PageParams) (*model.EmployeePage, error) {
	termParam, err := pathParam("term", term)
	if err != nil {
		return nil, err
	}
	q, err := p.values()
	if err != nil {
		return nil, err
	}

	var page model.EmployeePage
	err = c.do(ctx, request{
		op:     "search_employees",
		method: http.MethodGet,
		path:   "/employees/allFields/" + termParam,
		query:  q,
		token:  token,
		out:    &page,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// FindByName — GET /employees/byName/{name}.
func (c *Client) FindByName(ctx context.Context, token, name string) ([]model.Employee, error) {
	nameParam, err := pathParam("name", name)
	if err != nil {
		return nil, err
	}

	var employees []model.Employee
	err = c.do(ctx, request{
		op:     "find_by_name",
		method: http.MethodGet,
		path:   "/employees/byName/" + nameParam,
		token:  token,
		out:    &employees,
	})
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// GetEmployee — GET /employees/{id}.
func (c *Client) GetEmployee(ctx context.Context, token string, id int64) (*model.Employee, error) {
	idParam, err := pathParam("id", id)
	if err != nil {
		return nil, err
	}

	var e model.Employee
	err = c.do(ctx, request{
		op:     "get_employee",
		method: http.MethodGet,
		path:   "/employees/" + idParam,
		token:  token,
		out:    &e,
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEmployee — POST /employees.
func (c *Client) CreateEmployee(ctx context.Context, token string, input model.EmployeeInput) error {
	return c.do(ctx, request{
		op:     "create_employee",
		method: http.MethodPost,
		path:   "/employees",
		token:  token,
		body:   input,
	})
}

// UpdateEmployee — PUT /update/{id}.
func (c *Client) UpdateEmployee(ctx context.Context, token string, id int64, input model.EmployeeInput) error {
	idParam, err := pathParam("id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "update_employee",
		method: http.MethodPut,
		path:   "/update/" + idParam,
		token:  token,
		body:   input,
	})
}

// DeleteEmployee — DELETE /delete/{id}. 403 — нет прав на удаление.
func (c *Client) DeleteEmployee(ctx context.Context, token string, id int64) error {
	idParam, err := pathParam("id", id)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "delete_employee",
		method: http.MethodDelete,
		path:   "/delete/" + idParam,
		token:  token,
	})
}

// Departments — GET /departments.
func (c *Client) Departments(ctx context.Context, token string) ([]model.Reference, error) {
	return c.references(ctx, token, "departments")
}

// Positions — GET /positions.
func (c *Client) Positions(ctx context.Context, token string) ([]model.Reference, error) {
	return c.references(ctx, token, "positions")
}

// Ranks — GET /ranks.
func (c *Client) Ranks(ctx context.Context, token string) ([]model.Reference, error) {
	return c.references(ctx, token, "ranks")
}

func (c *Client) references(ctx context.Context, token, resource string) ([]model.Reference, error) {
	var refs []model.Reference
	err := c.do(ctx, request{
		op:     resource,
		method: http.MethodGet,
		path:   "/" + resource,
		token:  token,
		out:    &refs,
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}
