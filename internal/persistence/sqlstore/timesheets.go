package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"example.com/timetracking/internal/domain"
)

// TimesheetRepository is the sqlstore implementation of
// domain.TimesheetRepository.
type TimesheetRepository struct {
	store *Store
}

// NewTimesheetRepository constructs a TimesheetRepository.
func NewTimesheetRepository(store *Store) *TimesheetRepository {
	return &TimesheetRepository{store: store}
}

// Get fetches a timesheet by ID, returning nil when it does not exist.
func (r *TimesheetRepository) Get(ctx context.Context, tenantID, timesheetID string) (*domain.Timesheet, error) {
	d := r.store.d
	stmt := `SELECT id, tenant_id, organization_id, employee_id, started_at, stopped_at,
		duration, keyboard, mouse, overall
		FROM timesheet
		WHERE tenant_id = ` + d.Placeholder(1) + ` AND id = ` + d.Placeholder(2)

	sheet, err := scanTimesheet(r.store.db.QueryRowContext(ctx, stmt, tenantID, timesheetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// ListInRange returns timesheets whose start falls in [start, end) for the
// employee, oldest first. An empty employeeID spans the whole tenant.
func (r *TimesheetRepository) ListInRange(ctx context.Context, tenantID, employeeID string, start, end time.Time) ([]domain.Timesheet, error) {
	d := r.store.d
	stmt := `SELECT id, tenant_id, organization_id, employee_id, started_at, stopped_at,
		duration, keyboard, mouse, overall
		FROM timesheet
		WHERE tenant_id = ` + d.Placeholder(1) + `
		  AND started_at >= ` + d.Placeholder(2) + `
		  AND started_at < ` + d.Placeholder(3)
	args := []any{tenantID, fmtTime(start), fmtTime(end)}
	if employeeID != "" {
		stmt += ` AND employee_id = ` + d.Placeholder(4)
		args = append(args, employeeID)
	}
	stmt += ` ORDER BY started_at ASC`

	rows, err := r.store.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Timesheet
	for rows.Next() {
		sheet, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sheet)
	}
	return out, rows.Err()
}

// UpdateAggregates persists the recomputed duration and activity scores.
func (r *TimesheetRepository) UpdateAggregates(ctx context.Context, timesheet domain.Timesheet) error {
	d := r.store.d
	stmt := `UPDATE timesheet SET
		duration = ` + d.Placeholder(1) + `,
		keyboard = ` + d.Placeholder(2) + `,
		mouse = ` + d.Placeholder(3) + `,
		overall = ` + d.Placeholder(4) + `
		WHERE tenant_id = ` + d.Placeholder(5) + ` AND id = ` + d.Placeholder(6)

	result, err := r.store.db.ExecContext(ctx, stmt,
		timesheet.Duration, timesheet.Keyboard, timesheet.Mouse, timesheet.Overall,
		timesheet.TenantID, timesheet.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("timesheet %s not updated", timesheet.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimesheet(row rowScanner) (*domain.Timesheet, error) {
	var (
		sheet                domain.Timesheet
		startedAt, stoppedAt string
	)
	err := row.Scan(&sheet.ID, &sheet.TenantID, &sheet.OrganizationID, &sheet.EmployeeID,
		&startedAt, &stoppedAt, &sheet.Duration, &sheet.Keyboard, &sheet.Mouse, &sheet.Overall)
	if err != nil {
		return nil, err
	}
	if sheet.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if sheet.StoppedAt, err = parseTime(stoppedAt); err != nil {
		return nil, err
	}
	return &sheet, nil
}
