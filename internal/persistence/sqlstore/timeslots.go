package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"example.com/timetracking/internal/domain"
)

// TimeSlotRepository is the sqlstore implementation of
// domain.TimeSlotRepository.
type TimeSlotRepository struct {
	store *Store
}

// NewTimeSlotRepository constructs a TimeSlotRepository.
func NewTimeSlotRepository(store *Store) *TimeSlotRepository {
	return &TimeSlotRepository{store: store}
}

// FindInWindow returns the slot whose start falls in [start, end) for the
// employee, or nil when no such slot exists.
func (r *TimeSlotRepository) FindInWindow(ctx context.Context, tenantID, organizationID, employeeID string, start, end time.Time) (*domain.TimeSlot, error) {
	d := r.store.d
	stmt := `SELECT id, tenant_id, organization_id, employee_id, started_at, duration, keyboard, mouse, overall
		FROM time_slot
		WHERE tenant_id = ` + d.Placeholder(1) + `
		  AND organization_id = ` + d.Placeholder(2) + `
		  AND employee_id = ` + d.Placeholder(3) + `
		  AND started_at >= ` + d.Placeholder(4) + `
		  AND started_at < ` + d.Placeholder(5) + `
		LIMIT 1`

	row := r.store.db.QueryRowContext(ctx, stmt, tenantID, organizationID, employeeID, fmtTime(start), fmtTime(end))

	var (
		slot      domain.TimeSlot
		startedAt string
	)
	err := row.Scan(&slot.ID, &slot.TenantID, &slot.OrganizationID, &slot.EmployeeID,
		&startedAt, &slot.Duration, &slot.Keyboard, &slot.Mouse, &slot.Overall)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if slot.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new slot. A unique-index collision on the employee window
// maps to domain.ErrDuplicateTimeSlot so the caller can re-read the winner.
func (r *TimeSlotRepository) Create(ctx context.Context, slot domain.TimeSlot) error {
	stmt := `INSERT INTO time_slot
		(id, tenant_id, organization_id, employee_id, started_at, duration, keyboard, mouse, overall)
		VALUES ` + valuesRow(r.store.d, 1, 9)

	_, err := r.store.db.ExecContext(ctx, stmt,
		slot.ID, slot.TenantID, slot.OrganizationID, slot.EmployeeID,
		fmtTime(slot.StartedAt), slot.Duration, slot.Keyboard, slot.Mouse, slot.Overall)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateTimeSlot
	}
	return err
}

// AggregateWindow computes the raw aggregates over every slot whose start
// falls in [start, end) for the employee.
func (r *TimeSlotRepository) AggregateWindow(ctx context.Context, tenantID, organizationID, employeeID string, start, end time.Time) (domain.SlotAggregate, error) {
	d := r.store.d
	stmt := `SELECT COALESCE(SUM(duration), 0), COALESCE(AVG(keyboard), 0),
		COALESCE(AVG(mouse), 0), COALESCE(AVG(overall), 0)
		FROM time_slot
		WHERE tenant_id = ` + d.Placeholder(1) + `
		  AND organization_id = ` + d.Placeholder(2) + `
		  AND employee_id = ` + d.Placeholder(3) + `
		  AND started_at >= ` + d.Placeholder(4) + `
		  AND started_at < ` + d.Placeholder(5)

	var agg domain.SlotAggregate
	err := r.store.db.QueryRowContext(ctx, stmt, tenantID, organizationID, employeeID, fmtTime(start), fmtTime(end)).
		Scan(&agg.Duration, &agg.Keyboard, &agg.Mouse, &agg.Overall)
	return agg, err
}
