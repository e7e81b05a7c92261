// Package report reshapes flat daily activity aggregates into the nested
// groupings the reporting screens consume. The mapper is pure in-memory
// transformation: deterministic, idempotent, and free of I/O. Group keys
// appear in first-seen order; no additional sorting is imposed.
package report

import (
	"math"

	"example.com/timetracking/internal/domain"
)

// GroupBy selects the outer pivot of the report.
type GroupBy string

const (
	GroupByDate     GroupBy = "date"
	GroupByEmployee GroupBy = "employee"
	GroupByProject  GroupBy = "project"
)

// Entry is one aggregate row with its share of the group total.
type Entry struct {
	Title              string  `json:"title"`
	Sessions           int     `json:"sessions"`
	Duration           int     `json:"duration"`
	DurationPercentage float64 `json:"duration_percentage"`
}

// ProjectGroup nests entries under a project.
type ProjectGroup struct {
	ProjectID  string          `json:"projectId"`
	Project    *domain.Project `json:"project,omitempty"`
	Activities []Entry         `json:"activities"`
}

// EmployeeGroup nests entries under an employee.
type EmployeeGroup struct {
	EmployeeID string           `json:"employeeId"`
	Employee   *domain.Employee `json:"employee,omitempty"`
	Activities []Entry          `json:"activities"`
}

// DateReport is the date → employee → project view. Percentages are
// relative to the total duration of the date group.
type DateReport struct {
	Date      string         `json:"date"`
	Employees []DateEmployee `json:"employees"`
}

// DateEmployee is one employee partition inside a DateReport.
type DateEmployee struct {
	EmployeeID string           `json:"employeeId"`
	Employee   *domain.Employee `json:"employee,omitempty"`
	Projects   []ProjectGroup   `json:"projects"`
}

// EmployeeReport is the employee → date → project view. Percentages are
// relative to the employee's total duration across all their activities.
type EmployeeReport struct {
	EmployeeID string           `json:"employeeId"`
	Employee   *domain.Employee `json:"employee,omitempty"`
	Dates      []EmployeeDate   `json:"dates"`
}

// EmployeeDate is one date partition inside an EmployeeReport.
type EmployeeDate struct {
	Date     string         `json:"date"`
	Projects []ProjectGroup `json:"projects"`
}

// ProjectReport is the project → date → employee view. Percentages are
// relative to the project's total duration.
type ProjectReport struct {
	ProjectID string          `json:"projectId"`
	Project   *domain.Project `json:"project,omitempty"`
	Dates     []ProjectDate   `json:"dates"`
}

// ProjectDate is one date partition inside a ProjectReport.
type ProjectDate struct {
	Date      string          `json:"date"`
	Employees []EmployeeGroup `json:"employees"`
}

// ByDate pivots the rows into date → employee → project.
func ByDate(rows []domain.DailyActivity) []DateReport {
	dates, byDate := groupBy(rows, func(r domain.DailyActivity) string { return r.Date })
	out := make([]DateReport, 0, len(dates))
	for _, date := range dates {
		group := byDate[date]
		total := totalDuration(group)

		employees, byEmployee := groupBy(group, func(r domain.DailyActivity) string { return r.EmployeeID })
		dateReport := DateReport{Date: date, Employees: make([]DateEmployee, 0, len(employees))}
		for _, employeeID := range employees {
			employeeRows := byEmployee[employeeID]
			dateReport.Employees = append(dateReport.Employees, DateEmployee{
				EmployeeID: employeeID,
				Employee:   employeeRows[0].Employee,
				Projects:   projectGroups(employeeRows, total),
			})
		}
		out = append(out, dateReport)
	}
	return out
}

// ByEmployee pivots the rows into employee → date → project.
func ByEmployee(rows []domain.DailyActivity) []EmployeeReport {
	employees, byEmployee := groupBy(rows, func(r domain.DailyActivity) string { return r.EmployeeID })
	out := make([]EmployeeReport, 0, len(employees))
	for _, employeeID := range employees {
		group := byEmployee[employeeID]
		total := totalDuration(group)

		dates, byDate := groupBy(group, func(r domain.DailyActivity) string { return r.Date })
		employeeReport := EmployeeReport{
			EmployeeID: employeeID,
			Employee:   group[0].Employee,
			Dates:      make([]EmployeeDate, 0, len(dates)),
		}
		for _, date := range dates {
			employeeReport.Dates = append(employeeReport.Dates, EmployeeDate{
				Date:     date,
				Projects: projectGroups(byDate[date], total),
			})
		}
		out = append(out, employeeReport)
	}
	return out
}

// ByProject pivots the rows into project → date → employee.
func ByProject(rows []domain.DailyActivity) []ProjectReport {
	projects, byProject := groupBy(rows, func(r domain.DailyActivity) string { return r.ProjectID })
	out := make([]ProjectReport, 0, len(projects))
	for _, projectID := range projects {
		group := byProject[projectID]
		total := totalDuration(group)

		dates, byDate := groupBy(group, func(r domain.DailyActivity) string { return r.Date })
		projectReport := ProjectReport{
			ProjectID: projectID,
			Project:   group[0].Project,
			Dates:     make([]ProjectDate, 0, len(dates)),
		}
		for _, date := range dates {
			dateRows := byDate[date]
			employees, byEmployee := groupBy(dateRows, func(r domain.DailyActivity) string { return r.EmployeeID })
			projectDate := ProjectDate{Date: date, Employees: make([]EmployeeGroup, 0, len(employees))}
			for _, employeeID := range employees {
				employeeRows := byEmployee[employeeID]
				projectDate.Employees = append(projectDate.Employees, EmployeeGroup{
					EmployeeID: employeeID,
					Employee:   employeeRows[0].Employee,
					Activities: entries(employeeRows, total),
				})
			}
			projectReport.Dates = append(projectReport.Dates, projectDate)
		}
		out = append(out, projectReport)
	}
	return out
}

// groupBy partitions items by key, returning keys in first-seen order.
func groupBy[T any, K comparable](items []T, key func(T) K) ([]K, map[K][]T) {
	keys := make([]K, 0)
	groups := make(map[K][]T)
	for _, item := range items {
		k := key(item)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], item)
	}
	return keys, groups
}

func projectGroups(rows []domain.DailyActivity, total int) []ProjectGroup {
	projects, byProject := groupBy(rows, func(r domain.DailyActivity) string { return r.ProjectID })
	out := make([]ProjectGroup, 0, len(projects))
	for _, projectID := range projects {
		projectRows := byProject[projectID]
		out = append(out, ProjectGroup{
			ProjectID:  projectID,
			Project:    projectRows[0].Project,
			Activities: entries(projectRows, total),
		})
	}
	return out
}

func entries(rows []domain.DailyActivity, total int) []Entry {
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, Entry{
			Title:              row.Title,
			Sessions:           row.Sessions,
			Duration:           row.Duration,
			DurationPercentage: percentage(row.Duration, total),
		})
	}
	return out
}

func totalDuration(rows []domain.DailyActivity) int {
	total := 0
	for _, row := range rows {
		total += row.Duration
	}
	return total
}

// percentage is the row's share of the group total, rounded to two
// decimals. A zero total yields zero rather than dividing by zero.
func percentage(duration, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(duration)*100/float64(total)*100) / 100
}
