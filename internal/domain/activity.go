package domain

import "time"

// SlotWindow is the fixed observation window anchored by a TimeSlot. Every
// activity event belongs to the slot whose window contains its timestamp.
const SlotWindow = 10 * time.Minute

// ActivityType distinguishes application usage from URL visits.
type ActivityType string

const (
	ActivityTypeApp ActivityType = "APP"
	ActivityTypeURL ActivityType = "URL"
)

// ActivityMetadata carries structured details captured for URL activities.
type ActivityMetadata struct {
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Activity is one observed application or URL usage event within a time slot.
type Activity struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	ProjectID      string
	TaskID         string
	TimeSlotID     string
	Title          string
	Type           ActivityType
	Date           string // calendar day, YYYY-MM-DD
	Time           string // clock time within the day, HH:MM:SS
	Duration       int    // seconds
	Metadata       *ActivityMetadata
	Description    string
	Source         string // recording client, e.g. DESKTOP or BROWSER
	LogType        string // tracking mode of the owning time log

	// Employee is populated on reads when the caller has cross-employee
	// visibility; it never round-trips to storage.
	Employee *Employee
}

// isEmpty reports whether a bulk entry carries no usable data. Desktop agents
// occasionally flush batches padded with empty records; those are discarded
// rather than failing the whole batch.
func (a Activity) isEmpty() bool {
	return a.Title == "" && a.Type == "" && a.Duration == 0 &&
		a.Date == "" && a.Time == "" && a.ProjectID == "" && a.TaskID == ""
}

// timestamp derives the event time from the date and time columns.
func (a Activity) timestamp() (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", a.Date+" "+a.Time)
}

// TimeSlot anchors the 10-minute window [StartedAt, StartedAt+SlotWindow).
// Keyboard, Mouse and Overall are activity scores stored in 1/6-percent
// units, so the full 0-100 scale maps onto 0-600.
type TimeSlot struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	StartedAt      time.Time
	Duration       int
	Keyboard       int
	Mouse          int
	Overall        int
}

// Timesheet is a bounded container of tracked time for one employee. Its
// aggregate fields are recomputed from time slots, never user-edited.
type Timesheet struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	StartedAt      time.Time
	StoppedAt      time.Time
	Duration       int
	Keyboard       int
	Mouse          int
	Overall        int
}

// Employee is the read-only reference record attached to report rows.
type Employee struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	FullName       string `json:"fullName"`
}

// Project is the read-only reference record attached to report rows.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DailyActivity is an ephemeral aggregate row, recomputed per request.
// Hour is only set by the hourly-bucketed query.
type DailyActivity struct {
	EmployeeID string
	ProjectID  string
	Date       string
	Hour       string
	Title      string
	Sessions   int
	Duration   int
	Employee   *Employee
	Project    *Project
}

// Actor identifies the caller of a service operation and the employee scope
// its permissions allow. It is passed explicitly into every entry point.
type Actor struct {
	TenantID   string
	EmployeeID string
	// AllowAllEmployees is the cross-employee visibility permission. Without
	// it every read and write collapses to the actor's own employee.
	AllowAllEmployees bool
}

// ActivityLevel bounds the 0-100 overall activity score of the owning slot.
type ActivityLevel struct {
	Start int
	End   int
}

// ActivityFilter narrows activity queries. Zero values mean "no restriction"
// except for the mandatory tenant scope carried by the Actor.
type ActivityFilter struct {
	OrganizationID string
	EmployeeIDs    []string
	ProjectIDs     []string
	StartDate      time.Time
	EndDate        time.Time
	ActivityLevel  *ActivityLevel
	Sources        []string
	LogTypes       []string
	Titles         []string
	Types          []string
	Limit          int
	Page           int
}
