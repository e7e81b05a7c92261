package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"example.com/timetracking/internal/domain"
)

// EmployeeRepository provides read access to employee reference records.
type EmployeeRepository struct {
	store *Store
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(store *Store) *EmployeeRepository {
	return &EmployeeRepository{store: store}
}

// FindByIDs bulk-loads employees by ID; missing IDs are simply absent from
// the result.
func (r *EmployeeRepository) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]domain.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := newActivityQuery(r.store.d)
	tenant := q.bind(tenantID)
	stmt := "SELECT id, organization_id, full_name FROM employee WHERE tenant_id = " + tenant +
		" AND " + q.in("id", ids)

	rows, err := r.store.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.FullName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OrganizationID resolves the organization an employee belongs to.
func (r *EmployeeRepository) OrganizationID(ctx context.Context, tenantID, employeeID string) (string, error) {
	d := r.store.d
	stmt := "SELECT organization_id FROM employee WHERE tenant_id = " + d.Placeholder(1) +
		" AND id = " + d.Placeholder(2)

	var organizationID string
	err := r.store.db.QueryRowContext(ctx, stmt, tenantID, employeeID).Scan(&organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("employee %s not found", employeeID)
	}
	return organizationID, err
}

// ProjectRepository provides read access to project reference records.
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// FindByIDs bulk-loads projects by ID; missing IDs are simply absent from
// the result.
func (r *ProjectRepository) FindByIDs(ctx context.Context, tenantID string, ids []string) ([]domain.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := newActivityQuery(r.store.d)
	tenant := q.bind(tenantID)
	stmt := "SELECT id, name FROM project WHERE tenant_id = " + tenant +
		" AND " + q.in("id", ids)

	rows, err := r.store.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
