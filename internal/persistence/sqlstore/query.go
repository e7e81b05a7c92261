package sqlstore

import (
	"fmt"
	"strings"

	"example.com/timetracking/internal/domain"
	"example.com/timetracking/internal/persistence/dialect"
)

// reportRowLimit caps the daily report query; the only explicit safeguard
// against unbounded aggregate scans over large time windows.
const reportRowLimit = 200

// activityLevelScale converts the caller-facing 0-100 activity range into
// the 1/6-percent units the overall score is stored in.
const activityLevelScale = 6

// activityQuery accumulates filter predicates for the activity table and
// renders them with dialect-correct placeholders and time expressions.
type activityQuery struct {
	d     dialect.Dialect
	joins []string
	where []string
	args  []any
	limit int
	page  int
}

func newActivityQuery(d dialect.Dialect) *activityQuery {
	return &activityQuery{d: d}
}

// bind registers an argument and returns its placeholder.
func (q *activityQuery) bind(v any) string {
	q.args = append(q.args, v)
	return q.d.Placeholder(len(q.args))
}

func (q *activityQuery) in(col string, vals []string) string {
	marks := make([]string, len(vals))
	for i, v := range vals {
		marks[i] = q.bind(v)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(marks, ", "))
}

// scope applies the mandatory tenant filter, the permission-scoped employee
// filter and the optional organization filter. A caller without
// cross-employee visibility is always restricted to its own employee,
// whatever employee list the filter asked for.
func (q *activityQuery) scope(actor domain.Actor, filter domain.ActivityFilter) {
	q.where = append(q.where, fmt.Sprintf("activity.tenant_id = %s", q.bind(actor.TenantID)))
	if filter.OrganizationID != "" {
		q.where = append(q.where, fmt.Sprintf("activity.organization_id = %s", q.bind(filter.OrganizationID)))
	}
	if !actor.AllowAllEmployees {
		q.where = append(q.where, fmt.Sprintf("activity.employee_id = %s", q.bind(actor.EmployeeID)))
	} else if len(filter.EmployeeIDs) > 0 {
		q.where = append(q.where, q.in("activity.employee_id", filter.EmployeeIDs))
	}
}

// apply translates the remaining optional filters.
func (q *activityQuery) apply(filter domain.ActivityFilter) {
	if len(filter.ProjectIDs) > 0 {
		q.where = append(q.where, q.in("activity.project_id", filter.ProjectIDs))
	}

	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() {
		expr := q.d.ConcatDateTime("activity.date", "activity.time")
		q.where = append(q.where, fmt.Sprintf("%s BETWEEN %s AND %s",
			expr, q.bind(fmtTime(filter.StartDate)), q.bind(fmtTime(filter.EndDate))))
	}

	if lv := filter.ActivityLevel; lv != nil {
		q.joins = append(q.joins, "INNER JOIN time_slot ON time_slot.id = activity.time_slot_id")
		q.where = append(q.where, fmt.Sprintf("time_slot.overall BETWEEN %s AND %s",
			q.bind(lv.Start*activityLevelScale), q.bind(lv.End*activityLevelScale)))
	}

	q.oneOrMany("activity.source", filter.Sources)
	q.oneOrMany("activity.log_type", filter.LogTypes)

	if len(filter.Titles) > 0 {
		q.where = append(q.where, q.in("activity.title", filter.Titles))
	}
	if len(filter.Types) > 0 {
		q.where = append(q.where, q.in("activity.type", filter.Types))
	}

	q.limit = filter.Limit
	q.page = filter.Page
}

// oneOrMany renders an equality for a single value and an IN for a list.
func (q *activityQuery) oneOrMany(col string, vals []string) {
	switch len(vals) {
	case 0:
	case 1:
		q.where = append(q.where, fmt.Sprintf("%s = %s", col, q.bind(vals[0])))
	default:
		q.where = append(q.where, q.in(col, vals))
	}
}

func (q *activityQuery) joinClause() string {
	if len(q.joins) == 0 {
		return ""
	}
	return " " + strings.Join(q.joins, " ")
}

func (q *activityQuery) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// pageClause renders LIMIT/OFFSET only when a positive limit was supplied.
func (q *activityQuery) pageClause() string {
	if q.limit <= 0 {
		return ""
	}
	clause := fmt.Sprintf(" LIMIT %s", q.bind(q.limit))
	if q.page > 0 {
		clause += fmt.Sprintf(" OFFSET %s", q.bind(q.page*q.limit))
	}
	return clause
}
