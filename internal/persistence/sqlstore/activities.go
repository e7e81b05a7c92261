package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"example.com/timetracking/internal/domain"
)

// ActivityRepository is the sqlstore implementation of
// domain.ActivityRepository.
type ActivityRepository struct {
	store *Store
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(store *Store) *ActivityRepository {
	return &ActivityRepository{store: store}
}

const activityColumns = 16

const insertActivityStmt = `INSERT INTO activity
	(id, tenant_id, organization_id, employee_id, project_id, task_id, time_slot_id,
	 title, type, date, time, duration, metadata, description, source, log_type)
	VALUES `

// activityUpdateCols are the columns refreshed when ingestion re-sends an
// activity under an existing ID.
var activityUpdateCols = []string{
	"project_id", "task_id", "time_slot_id", "title", "type", "date", "time",
	"duration", "metadata", "description", "source", "log_type",
}

// Insert persists one activity row.
func (r *ActivityRepository) Insert(ctx context.Context, activity domain.Activity) error {
	args, err := activityArgs(activity)
	if err != nil {
		return err
	}
	stmt := insertActivityStmt + valuesRow(r.store.d, 1, activityColumns) +
		r.store.d.UpsertClause("id", activityUpdateCols)
	_, err = r.store.db.ExecContext(ctx, stmt, args...)
	return err
}

// BulkInsert writes the whole batch in one multi-row statement, so a batch
// is either fully inserted or the error propagates.
func (r *ActivityRepository) BulkInsert(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	rows := make([]string, len(activities))
	args := make([]any, 0, len(activities)*activityColumns)
	for i, activity := range activities {
		rowArgs, err := activityArgs(activity)
		if err != nil {
			return err
		}
		rows[i] = valuesRow(r.store.d, i*activityColumns+1, activityColumns)
		args = append(args, rowArgs...)
	}
	stmt := insertActivityStmt + strings.Join(rows, ", ") +
		r.store.d.UpsertClause("id", activityUpdateCols)
	_, err := r.store.db.ExecContext(ctx, stmt, args...)
	return err
}

// Find returns raw activity rows, most active first. When the actor has
// cross-employee visibility the employee reference is joined in.
func (r *ActivityRepository) Find(ctx context.Context, actor domain.Actor, filter domain.ActivityFilter) ([]domain.Activity, error) {
	q := newActivityQuery(r.store.d)
	q.scope(actor, filter)
	q.apply(filter)

	selectCols := `activity.id, activity.tenant_id, activity.organization_id, activity.employee_id,
		activity.project_id, activity.task_id, activity.time_slot_id, activity.title, activity.type,
		activity.date, activity.time, activity.duration, activity.metadata, activity.description,
		activity.source, activity.log_type`
	joinEmployee := actor.AllowAllEmployees
	if joinEmployee {
		selectCols += ", employee.full_name"
		q.joins = append(q.joins, "LEFT JOIN employee ON employee.id = activity.employee_id")
	}

	stmt := "SELECT " + selectCols + " FROM activity" + q.joinClause() + q.whereClause() +
		" ORDER BY activity.duration DESC" + q.pageClause()

	rows, err := r.store.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var (
			a                                        domain.Activity
			projectID, taskID, metadata, description sql.NullString
			source, logType, name                    sql.NullString
		)
		dest := []any{
			&a.ID, &a.TenantID, &a.OrganizationID, &a.EmployeeID,
			&projectID, &taskID, &a.TimeSlotID, &a.Title, &a.Type,
			&a.Date, &a.Time, &a.Duration, &metadata, &description,
			&source, &logType,
		}
		if joinEmployee {
			dest = append(dest, &name)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		a.ProjectID = projectID.String
		a.TaskID = taskID.String
		a.Description = description.String
		a.Source = source.String
		a.LogType = logType.String
		if metadata.Valid && metadata.String != "" {
			var meta domain.ActivityMetadata
			if err := json.Unmarshal([]byte(metadata.String), &meta); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for activity %s: %w", a.ID, err)
			}
			a.Metadata = &meta
		}
		if joinEmployee && name.Valid {
			a.Employee = &domain.Employee{ID: a.EmployeeID, OrganizationID: a.OrganizationID, FullName: name.String}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindDaily aggregates activities per date, hour bucket, title and employee.
// The hour bucket expression is dialect-specific.
func (r *ActivityRepository) FindDaily(ctx context.Context, actor domain.Actor, filter domain.ActivityFilter) ([]domain.DailyActivity, error) {
	q := newActivityQuery(r.store.d)
	q.scope(actor, filter)
	q.apply(filter)

	hour := r.store.d.HourBucket("activity.time")
	stmt := fmt.Sprintf(`SELECT activity.date, %s AS hour, activity.title, activity.employee_id,
		COUNT(activity.id) AS sessions, SUM(activity.duration) AS duration
		FROM activity%s%s
		GROUP BY activity.date, %s, activity.title, activity.employee_id
		ORDER BY %s ASC, SUM(activity.duration) DESC`,
		hour, q.joinClause(), q.whereClause(), hour, hour)

	rows, err := r.store.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyActivity
	for rows.Next() {
		var row domain.DailyActivity
		if err := rows.Scan(&row.Date, &row.Hour, &row.Title, &row.EmployeeID, &row.Sessions, &row.Duration); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FindDailyReport aggregates activities per date, title, employee and
// project, capped at the report row limit and ordered by total duration.
func (r *ActivityRepository) FindDailyReport(ctx context.Context, actor domain.Actor, filter domain.ActivityFilter) ([]domain.DailyActivity, error) {
	q := newActivityQuery(r.store.d)
	q.scope(actor, filter)
	q.apply(filter)

	stmt := fmt.Sprintf(`SELECT activity.date, activity.title, activity.employee_id, activity.project_id,
		COUNT(activity.id) AS sessions, SUM(activity.duration) AS duration
		FROM activity%s%s
		GROUP BY activity.date, activity.title, activity.employee_id, activity.project_id
		ORDER BY SUM(activity.duration) DESC
		LIMIT %d`, q.joinClause(), q.whereClause(), reportRowLimit)

	rows, err := r.store.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyActivity
	for rows.Next() {
		var (
			row       domain.DailyActivity
			projectID sql.NullString
		)
		if err := rows.Scan(&row.Date, &row.Title, &row.EmployeeID, &projectID, &row.Sessions, &row.Duration); err != nil {
			return nil, err
		}
		row.ProjectID = projectID.String
		out = append(out, row)
	}
	return out, rows.Err()
}

func activityArgs(a domain.Activity) ([]any, error) {
	var metadata any
	if a.Metadata != nil {
		body, err := json.Marshal(a.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata for activity %s: %w", a.ID, err)
		}
		metadata = string(body)
	}
	return []any{
		a.ID, a.TenantID, a.OrganizationID, a.EmployeeID,
		nullIfEmpty(a.ProjectID), nullIfEmpty(a.TaskID), a.TimeSlotID,
		a.Title, string(a.Type), a.Date, a.Time, a.Duration,
		metadata, nullIfEmpty(a.Description), nullIfEmpty(a.Source), nullIfEmpty(a.LogType),
	}, nil
}

// valuesRow renders one parenthesized placeholder tuple starting at the
// given 1-based parameter position.
func valuesRow(d interface{ Placeholder(int) string }, start, n int) string {
	marks := make([]string, n)
	for i := 0; i < n; i++ {
		marks[i] = d.Placeholder(start + i)
	}
	return "(" + strings.Join(marks, ", ") + ")"
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
