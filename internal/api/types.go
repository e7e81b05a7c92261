package api

import (
	"errors"
	"time"

	"example.com/timetracking/internal/domain"
)

var (
	errTimesheetIDRequired  = errors.New("timesheetId is required")
	errTitleRequired        = errors.New("title is required")
	errOrganizationRequired = errors.New("organizationId is required")
	errActivityTimeRequired = errors.New("activityTimestamp is required")
	errUnknownActivityType  = errors.New("type must be APP or URL")
)

// ActivityPayload is the wire form of one activity event.
type ActivityPayload struct {
	ID          string                   `json:"id,omitempty"`
	Title       string                   `json:"title"`
	Type        string                   `json:"type"`
	ProjectID   string                   `json:"projectId,omitempty"`
	TaskID      string                   `json:"taskId,omitempty"`
	Date        string                   `json:"date"`
	Time        string                   `json:"time"`
	Duration    int                      `json:"duration"`
	Source      string                   `json:"source,omitempty"`
	LogType     string                   `json:"logType,omitempty"`
	Metadata    *domain.ActivityMetadata `json:"metaData,omitempty"`
	Description string                   `json:"description,omitempty"`
}

func (p ActivityPayload) toDomain() domain.Activity {
	return domain.Activity{
		ID:          p.ID,
		Title:       p.Title,
		Type:        domain.ActivityType(p.Type),
		ProjectID:   p.ProjectID,
		TaskID:      p.TaskID,
		Date:        p.Date,
		Time:        p.Time,
		Duration:    p.Duration,
		Source:      p.Source,
		LogType:     p.LogType,
		Metadata:    p.Metadata,
		Description: p.Description,
	}
}

// CreateActivityRequest is the payload for POST /v1/activities.
type CreateActivityRequest struct {
	ActivityPayload
	EmployeeID        string    `json:"employeeId,omitempty"`
	OrganizationID    string    `json:"organizationId"`
	ActivityTimestamp time.Time `json:"activityTimestamp"`
}

// Validate ensures request correctness.
func (r CreateActivityRequest) Validate() error {
	if r.Title == "" {
		return errTitleRequired
	}
	if r.OrganizationID == "" {
		return errOrganizationRequired
	}
	if r.ActivityTimestamp.IsZero() {
		return errActivityTimeRequired
	}
	switch domain.ActivityType(r.Type) {
	case domain.ActivityTypeApp, domain.ActivityTypeURL:
		return nil
	default:
		return errUnknownActivityType
	}
}

func (r CreateActivityRequest) toInput() domain.CreateActivityInput {
	return domain.CreateActivityInput{
		Title:             r.Title,
		Duration:          r.Duration,
		Type:              domain.ActivityType(r.Type),
		ProjectID:         r.ProjectID,
		TaskID:            r.TaskID,
		Date:              r.Date,
		Time:              r.Time,
		EmployeeID:        r.EmployeeID,
		OrganizationID:    r.OrganizationID,
		ActivityTimestamp: r.ActivityTimestamp,
		Metadata:          r.Metadata,
		Description:       r.Description,
	}
}

// BulkSaveRequest is the payload for POST /v1/activities/bulk.
type BulkSaveRequest struct {
	EmployeeID     string            `json:"employeeId,omitempty"`
	OrganizationID string            `json:"organizationId,omitempty"`
	ProjectID      string            `json:"projectId,omitempty"`
	Activities     []ActivityPayload `json:"activities"`
}

func (r BulkSaveRequest) toInput() domain.BulkActivitiesInput {
	activities := make([]domain.Activity, 0, len(r.Activities))
	for _, payload := range r.Activities {
		activities = append(activities, payload.toDomain())
	}
	return domain.BulkActivitiesInput{
		EmployeeID:     r.EmployeeID,
		OrganizationID: r.OrganizationID,
		ProjectID:      r.ProjectID,
		Activities:     activities,
	}
}

// BulkSaveResponse reports how many activities were inserted.
type BulkSaveResponse struct {
	Inserted int `json:"inserted"`
}

// RecalculateRequest is the payload for POST /v1/timesheets/recalculate.
type RecalculateRequest struct {
	TimesheetID string `json:"timesheetId"`
}

// Validate ensures request correctness.
func (r RecalculateRequest) Validate() error {
	if r.TimesheetID == "" {
		return errTimesheetIDRequired
	}
	return nil
}

// ActivityView exposes full details about an activity row.
type ActivityView struct {
	ID          string                   `json:"id"`
	EmployeeID  string                   `json:"employeeId"`
	ProjectID   string                   `json:"projectId,omitempty"`
	TaskID      string                   `json:"taskId,omitempty"`
	TimeSlotID  string                   `json:"timeSlotId"`
	Title       string                   `json:"title"`
	Type        string                   `json:"type"`
	Date        string                   `json:"date"`
	Time        string                   `json:"time"`
	Duration    int                      `json:"duration"`
	Source      string                   `json:"source,omitempty"`
	LogType     string                   `json:"logType,omitempty"`
	Metadata    *domain.ActivityMetadata `json:"metaData,omitempty"`
	Description string                   `json:"description,omitempty"`
	Employee    *domain.Employee         `json:"employee,omitempty"`
}

func toActivityView(a domain.Activity) ActivityView {
	return ActivityView{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		ProjectID:   a.ProjectID,
		TaskID:      a.TaskID,
		TimeSlotID:  a.TimeSlotID,
		Title:       a.Title,
		Type:        string(a.Type),
		Date:        a.Date,
		Time:        a.Time,
		Duration:    a.Duration,
		Source:      a.Source,
		LogType:     a.LogType,
		Metadata:    a.Metadata,
		Description: a.Description,
		Employee:    a.Employee,
	}
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// DailyActivityView is one hourly-bucketed aggregate row.
type DailyActivityView struct {
	Date       string `json:"date"`
	Hour       string `json:"hour"`
	Title      string `json:"title"`
	EmployeeID string `json:"employeeId"`
	Sessions   int    `json:"sessions"`
	Duration   int    `json:"duration"`
}

// DailyActivitiesResponse packages hourly aggregates.
type DailyActivitiesResponse struct {
	Items []DailyActivityView `json:"items"`
}

// TimesheetView is the response body after recalculation.
type TimesheetView struct {
	TimesheetID string    `json:"timesheetId"`
	EmployeeID  string    `json:"employeeId"`
	StartedAt   time.Time `json:"startedAt"`
	StoppedAt   time.Time `json:"stoppedAt"`
	Duration    int       `json:"duration"`
	Keyboard    int       `json:"keyboard"`
	Mouse       int       `json:"mouse"`
	Overall     int       `json:"overall"`
}
