package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"example.com/timetracking/internal/observability"
)

// TimesheetRepository captures timesheet persistence operations.
type TimesheetRepository interface {
	Get(ctx context.Context, tenantID, timesheetID string) (*Timesheet, error)
	ListInRange(ctx context.Context, tenantID, employeeID string, start, end time.Time) ([]Timesheet, error)
	UpdateAggregates(ctx context.Context, timesheet Timesheet) error
}

// TimesheetService recomputes timesheet aggregates from time slots.
type TimesheetService struct {
	timesheets TimesheetRepository
	slots      TimeSlotRepository
	log        zerolog.Logger
}

// NewTimesheetService constructs a TimesheetService.
func NewTimesheetService(timesheets TimesheetRepository, slots TimeSlotRepository, log zerolog.Logger) *TimesheetService {
	return &TimesheetService{
		timesheets: timesheets,
		slots:      slots,
		log:        log.With().Str("component", "timesheet-service").Logger(),
	}
}

// Recalculate re-aggregates a timesheet's duration and activity scores from
// the time slots whose start falls inside the sheet's calendar date range.
// Always a full re-aggregation over the window, never incremental.
func (s *TimesheetService) Recalculate(ctx context.Context, tenantID, timesheetID string) (*Timesheet, error) {
	timesheet, err := s.timesheets.Get(ctx, tenantID, timesheetID)
	if err != nil {
		return nil, err
	}
	if timesheet == nil {
		return nil, ErrTimesheetNotFound
	}

	start := dayStart(timesheet.StartedAt)
	end := dayEnd(timesheet.StoppedAt)

	aggregate, err := s.slots.AggregateWindow(ctx, timesheet.TenantID, timesheet.OrganizationID, timesheet.EmployeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate time slots for employee %s in organization %s: %w",
			timesheet.EmployeeID, timesheet.OrganizationID, err)
	}

	timesheet.Duration = int(math.Round(aggregate.Duration))
	timesheet.Keyboard = int(math.Round(aggregate.Keyboard))
	timesheet.Mouse = int(math.Round(aggregate.Mouse))
	timesheet.Overall = int(math.Round(aggregate.Overall))

	if err := s.timesheets.UpdateAggregates(ctx, *timesheet); err != nil {
		return nil, fmt.Errorf("failed to update timesheet aggregates for employee %s in organization %s: %w",
			timesheet.EmployeeID, timesheet.OrganizationID, err)
	}

	s.log.Debug().
		Str("timesheetId", timesheet.ID).
		Int("duration", timesheet.Duration).
		Msg("timesheet recalculated")
	observability.RecordTimesheetRecalculated(time.Now().UTC())
	return timesheet, nil
}

// RecalculateRange recalculates every timesheet of an employee whose window
// intersects [start, end). Used by the batch job; failures abort the run so
// the operator can retry the whole range.
func (s *TimesheetService) RecalculateRange(ctx context.Context, tenantID, employeeID string, start, end time.Time) (int, error) {
	timesheets, err := s.timesheets.ListInRange(ctx, tenantID, employeeID, dayStart(start), dayEnd(end))
	if err != nil {
		return 0, err
	}
	for i, timesheet := range timesheets {
		if _, err := s.Recalculate(ctx, tenantID, timesheet.ID); err != nil {
			return i, err
		}
	}
	return len(timesheets), nil
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return dayStart(t).Add(24 * time.Hour)
}
