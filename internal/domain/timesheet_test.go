package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubTimesheetRepo struct {
	sheets    map[string]*Timesheet
	listed    []Timesheet
	updated   []Timesheet
	updateErr error
}

func (r *stubTimesheetRepo) Get(_ context.Context, _ string, timesheetID string) (*Timesheet, error) {
	sheet, ok := r.sheets[timesheetID]
	if !ok {
		return nil, nil
	}
	copied := *sheet
	return &copied, nil
}

func (r *stubTimesheetRepo) ListInRange(context.Context, string, string, time.Time, time.Time) ([]Timesheet, error) {
	return r.listed, nil
}

func (r *stubTimesheetRepo) UpdateAggregates(_ context.Context, timesheet Timesheet) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = append(r.updated, timesheet)
	return nil
}

func TestRecalculateRoundsAggregates(t *testing.T) {
	sheets := &stubTimesheetRepo{sheets: map[string]*Timesheet{
		"sheet-1": {
			ID:             "sheet-1",
			TenantID:       "tenant-1",
			OrganizationID: "org-1",
			EmployeeID:     "emp-1",
			StartedAt:      time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
			StoppedAt:      time.Date(2024, 3, 7, 17, 0, 0, 0, time.UTC),
		},
	}}
	slots := &stubSlotRepo{aggregate: SlotAggregate{
		Duration: 3599.6,
		Keyboard: 120.4,
		Mouse:    99.5,
		Overall:  210.49,
	}}
	service := NewTimesheetService(sheets, slots, zerolog.Nop())

	sheet, err := service.Recalculate(context.Background(), "tenant-1", "sheet-1")
	require.NoError(t, err)

	require.Equal(t, 3600, sheet.Duration)
	require.Equal(t, 120, sheet.Keyboard)
	require.Equal(t, 100, sheet.Mouse)
	require.Equal(t, 210, sheet.Overall)

	require.Len(t, sheets.updated, 1)
	require.Equal(t, 3600, sheets.updated[0].Duration)
}

func TestRecalculateUnknownTimesheet(t *testing.T) {
	service := NewTimesheetService(&stubTimesheetRepo{}, &stubSlotRepo{}, zerolog.Nop())

	_, err := service.Recalculate(context.Background(), "tenant-1", "sheet-missing")
	require.ErrorIs(t, err, ErrTimesheetNotFound)
}

func TestRecalculateUpdateErrorNamesEmployeeAndOrganization(t *testing.T) {
	sheets := &stubTimesheetRepo{
		sheets: map[string]*Timesheet{
			"sheet-1": {
				ID: "sheet-1", TenantID: "tenant-1", OrganizationID: "org-1", EmployeeID: "emp-1",
				StartedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				StoppedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			},
		},
		updateErr: errors.New("connection reset"),
	}
	service := NewTimesheetService(sheets, &stubSlotRepo{}, zerolog.Nop())

	_, err := service.Recalculate(context.Background(), "tenant-1", "sheet-1")
	require.ErrorContains(t, err, "failed to update timesheet aggregates for employee emp-1 in organization org-1")
}

func TestRecalculateRange(t *testing.T) {
	sheetA := Timesheet{
		ID: "sheet-a", TenantID: "tenant-1", OrganizationID: "org-1", EmployeeID: "emp-1",
		StartedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StoppedAt: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	}
	sheetB := sheetA
	sheetB.ID = "sheet-b"
	sheetB.StartedAt = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	sheetB.StoppedAt = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	sheets := &stubTimesheetRepo{
		sheets: map[string]*Timesheet{"sheet-a": &sheetA, "sheet-b": &sheetB},
		listed: []Timesheet{sheetA, sheetB},
	}
	service := NewTimesheetService(sheets, &stubSlotRepo{}, zerolog.Nop())

	count, err := service.RecalculateRange(context.Background(), "tenant-1", "emp-1",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Len(t, sheets.updated, 2)
}
