// Package domain defines the business logic for the time tracking service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"example.com/timetracking/internal/observability"
)

var (
	// ErrDuplicateTimeSlot indicates a concurrent ingestion already created
	// the slot for the same employee and window.
	ErrDuplicateTimeSlot = errors.New("time slot already exists for window")
	// ErrTimesheetNotFound is returned when a timesheet cannot be located.
	ErrTimesheetNotFound = errors.New("timesheet not found")
)

// ActivityRepository captures activity persistence and aggregation queries.
type ActivityRepository interface {
	Insert(ctx context.Context, activity Activity) error
	BulkInsert(ctx context.Context, activities []Activity) error
	Find(ctx context.Context, actor Actor, filter ActivityFilter) ([]Activity, error)
	FindDaily(ctx context.Context, actor Actor, filter ActivityFilter) ([]DailyActivity, error)
	FindDailyReport(ctx context.Context, actor Actor, filter ActivityFilter) ([]DailyActivity, error)
}

// TimeSlotRepository captures time slot persistence operations.
type TimeSlotRepository interface {
	FindInWindow(ctx context.Context, tenantID, organizationID, employeeID string, start, end time.Time) (*TimeSlot, error)
	Create(ctx context.Context, slot TimeSlot) error
	AggregateWindow(ctx context.Context, tenantID, organizationID, employeeID string, start, end time.Time) (SlotAggregate, error)
}

// EmployeeRepository provides read access to employee reference records.
type EmployeeRepository interface {
	FindByIDs(ctx context.Context, tenantID string, ids []string) ([]Employee, error)
	OrganizationID(ctx context.Context, tenantID, employeeID string) (string, error)
}

// ProjectRepository provides read access to project reference records.
type ProjectRepository interface {
	FindByIDs(ctx context.Context, tenantID string, ids []string) ([]Project, error)
}

// SlotAggregate is the raw aggregate over a window of time slots.
type SlotAggregate struct {
	Duration float64
	Keyboard float64
	Mouse    float64
	Overall  float64
}

// ActivityService orchestrates activity ingestion and aggregation workflows.
type ActivityService struct {
	activities ActivityRepository
	slots      TimeSlotRepository
	employees  EmployeeRepository
	projects   ProjectRepository
	log        zerolog.Logger
}

// NewActivityService constructs an ActivityService.
func NewActivityService(activities ActivityRepository, slots TimeSlotRepository, employees EmployeeRepository, projects ProjectRepository, log zerolog.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		slots:      slots,
		employees:  employees,
		projects:   projects,
		log:        log.With().Str("component", "activity-service").Logger(),
	}
}

// CreateActivityInput captures the payload for a single activity event.
type CreateActivityInput struct {
	Title             string
	Duration          int
	Type              ActivityType
	ProjectID         string
	TaskID            string
	Date              string
	Time              string
	EmployeeID        string
	OrganizationID    string
	ActivityTimestamp time.Time
	Metadata          *ActivityMetadata
	Description       string
}

// CreateActivity persists one activity event, resolving or lazily creating
// the time slot whose window contains the activity timestamp.
func (s *ActivityService) CreateActivity(ctx context.Context, actor Actor, input CreateActivityInput) (*Activity, error) {
	employeeID := input.EmployeeID
	if !actor.AllowAllEmployees || employeeID == "" {
		employeeID = actor.EmployeeID
	}

	slot, err := s.resolveSlot(ctx, actor.TenantID, input.OrganizationID, employeeID, input.ActivityTimestamp)
	if err != nil {
		return nil, err
	}

	activity := Activity{
		ID:             uuid.NewString(),
		TenantID:       actor.TenantID,
		OrganizationID: input.OrganizationID,
		EmployeeID:     employeeID,
		ProjectID:      input.ProjectID,
		TaskID:         input.TaskID,
		TimeSlotID:     slot.ID,
		Title:          input.Title,
		Type:           input.Type,
		Date:           input.Date,
		Time:           input.Time,
		Duration:       input.Duration,
		Metadata:       input.Metadata,
		Description:    input.Description,
	}

	if err := s.activities.Insert(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity for time slot %s: %w", slot.ID, err)
	}
	observability.RecordActivitiesIngested(1)
	return &activity, nil
}

// resolveSlot returns the slot whose window the timestamp falls into,
// lazily creating one when none exists. Slots are anchored on ten-minute
// boundaries, so every timestamp maps to exactly one window and concurrent
// creates collide on the unique window index instead of proliferating slots.
func (s *ActivityService) resolveSlot(ctx context.Context, tenantID, organizationID, employeeID string, ts time.Time) (*TimeSlot, error) {
	start := ts.UTC().Truncate(SlotWindow)
	end := start.Add(SlotWindow)

	slot, err := s.slots.FindInWindow(ctx, tenantID, organizationID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve time slot for activity: %w", err)
	}
	if slot != nil {
		return slot, nil
	}

	created := TimeSlot{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		OrganizationID: organizationID,
		EmployeeID:     employeeID,
		StartedAt:      start,
	}
	if err := s.slots.Create(ctx, created); err != nil {
		if !errors.Is(err, ErrDuplicateTimeSlot) {
			return nil, fmt.Errorf("failed to create time slot for activity: %w", err)
		}
		// Lost the race against a concurrent ingestion; the winner's
		// slot is the one to attach to.
		slot, err = s.slots.FindInWindow(ctx, tenantID, organizationID, employeeID, start, end)
		if err != nil || slot == nil {
			return nil, fmt.Errorf("failed to resolve time slot after concurrent create: %w", err)
		}
		return slot, nil
	}
	return &created, nil
}

// BulkActivitiesInput is one ingestion batch, typically flushed by a desktop
// agent. Batch-level IDs override the per-activity values.
type BulkActivitiesInput struct {
	EmployeeID     string
	OrganizationID string
	ProjectID      string
	Activities     []Activity
}

// BulkSave stamps, filters and inserts a batch of activities in one write.
// Entries without a slot reference are attached to the slot covering their
// date and time, creating it when missing. Empty entries are discarded with
// a log line; everything else is inserted atomically or the underlying error
// propagates.
func (s *ActivityService) BulkSave(ctx context.Context, actor Actor, input BulkActivitiesInput) ([]Activity, error) {
	employeeID := input.EmployeeID
	if !actor.AllowAllEmployees || employeeID == "" {
		employeeID = actor.EmployeeID
	}

	organizationID := input.OrganizationID
	if organizationID == "" && employeeID != "" {
		resolved, err := s.employees.OrganizationID(ctx, actor.TenantID, employeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve organization for employee %s: %w", employeeID, err)
		}
		organizationID = resolved
	}

	stamped := make([]Activity, 0, len(input.Activities))
	discarded := 0
	var resolved []*TimeSlot
	for _, activity := range input.Activities {
		if activity.isEmpty() {
			discarded++
			continue
		}
		if activity.ID == "" {
			activity.ID = uuid.NewString()
		}
		activity.TenantID = actor.TenantID
		activity.OrganizationID = organizationID
		activity.EmployeeID = employeeID
		if input.ProjectID != "" {
			activity.ProjectID = input.ProjectID
		}
		if activity.TimeSlotID == "" {
			ts, err := activity.timestamp()
			if err != nil {
				s.log.Warn().
					Str("employeeId", employeeID).
					Str("title", activity.Title).
					Msg("discarded batch entry with unparseable date and time")
				continue
			}
			slot := slotContaining(resolved, ts)
			if slot == nil {
				slot, err = s.resolveSlot(ctx, actor.TenantID, organizationID, employeeID, ts)
				if err != nil {
					return nil, err
				}
				resolved = append(resolved, slot)
			}
			activity.TimeSlotID = slot.ID
		}
		stamped = append(stamped, activity)
	}

	if discarded > 0 {
		s.log.Info().
			Int("discarded", discarded).
			Str("employeeId", employeeID).
			Msg("discarded empty entries from activity batch")
		observability.RecordEmptyActivitiesDiscarded(discarded)
	}

	if len(stamped) == 0 {
		return []Activity{}, nil
	}

	if err := s.activities.BulkInsert(ctx, stamped); err != nil {
		return nil, fmt.Errorf("failed to bulk save %d activities for employee %s: %w", len(stamped), employeeID, err)
	}
	observability.RecordActivitiesIngested(len(stamped))
	observability.RecordBulkBatchSize(len(stamped))
	return stamped, nil
}

// slotContaining returns the already-resolved slot whose window covers the
// timestamp. Batch entries cluster in the same window, so resolving each slot
// once per batch avoids a lookup per activity.
func slotContaining(slots []*TimeSlot, ts time.Time) *TimeSlot {
	for _, slot := range slots {
		if !ts.Before(slot.StartedAt) && ts.Before(slot.StartedAt.Add(SlotWindow)) {
			return slot
		}
	}
	return nil
}

// GetActivities returns raw activity rows ordered by duration descending.
func (s *ActivityService) GetActivities(ctx context.Context, actor Actor, filter ActivityFilter) ([]Activity, error) {
	return s.activities.Find(ctx, actor, filter)
}

// GetDailyActivities returns per-hour aggregates for each date, title and
// employee combination.
func (s *ActivityService) GetDailyActivities(ctx context.Context, actor Actor, filter ActivityFilter) ([]DailyActivity, error) {
	return s.activities.FindDaily(ctx, actor, filter)
}

// GetDailyActivitiesReport returns per-day aggregates denormalized with
// employee and project reference records. Reference lookups are batched; a
// missing record leaves the field unset rather than failing the report.
func (s *ActivityService) GetDailyActivitiesReport(ctx context.Context, actor Actor, filter ActivityFilter) ([]DailyActivity, error) {
	rows, err := s.activities.FindDailyReport(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	employeeIDs := distinct(rows, func(r DailyActivity) string { return r.EmployeeID })
	projectIDs := distinct(rows, func(r DailyActivity) string { return r.ProjectID })

	employeesByID := map[string]Employee{}
	if len(employeeIDs) > 0 {
		employees, err := s.employees.FindByIDs(ctx, actor.TenantID, employeeIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load employees for report: %w", err)
		}
		for _, e := range employees {
			employeesByID[e.ID] = e
		}
	}

	projectsByID := map[string]Project{}
	if len(projectIDs) > 0 {
		projects, err := s.projects.FindByIDs(ctx, actor.TenantID, projectIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load projects for report: %w", err)
		}
		for _, p := range projects {
			projectsByID[p.ID] = p
		}
	}

	for i := range rows {
		if employee, ok := employeesByID[rows[i].EmployeeID]; ok {
			e := employee
			rows[i].Employee = &e
		}
		if project, ok := projectsByID[rows[i].ProjectID]; ok {
			p := project
			rows[i].Project = &p
		}
	}
	return rows, nil
}

// distinct collects the unique non-empty keys from rows, preserving
// first-seen order.
func distinct(rows []DailyActivity, key func(DailyActivity) string) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
