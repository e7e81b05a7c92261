package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/timetracking/internal/domain"
)

type recordingActivityRepo struct {
	bulk [][]domain.Activity
}

func (r *recordingActivityRepo) Insert(context.Context, domain.Activity) error { return nil }

func (r *recordingActivityRepo) BulkInsert(_ context.Context, activities []domain.Activity) error {
	r.bulk = append(r.bulk, activities)
	return nil
}

func (r *recordingActivityRepo) Find(context.Context, domain.Actor, domain.ActivityFilter) ([]domain.Activity, error) {
	return nil, nil
}

func (r *recordingActivityRepo) FindDaily(context.Context, domain.Actor, domain.ActivityFilter) ([]domain.DailyActivity, error) {
	return nil, nil
}

func (r *recordingActivityRepo) FindDailyReport(context.Context, domain.Actor, domain.ActivityFilter) ([]domain.DailyActivity, error) {
	return nil, nil
}

type noopSlotRepo struct{}

func (noopSlotRepo) FindInWindow(context.Context, string, string, string, time.Time, time.Time) (*domain.TimeSlot, error) {
	return nil, nil
}

func (noopSlotRepo) Create(context.Context, domain.TimeSlot) error { return nil }

func (noopSlotRepo) AggregateWindow(context.Context, string, string, string, time.Time, time.Time) (domain.SlotAggregate, error) {
	return domain.SlotAggregate{}, nil
}

type noopEmployeeRepo struct{}

func (noopEmployeeRepo) FindByIDs(context.Context, string, []string) ([]domain.Employee, error) {
	return nil, nil
}

func (noopEmployeeRepo) OrganizationID(context.Context, string, string) (string, error) {
	return "org-resolved", nil
}

type noopProjectRepo struct{}

func (noopProjectRepo) FindByIDs(context.Context, string, []string) ([]domain.Project, error) {
	return nil, nil
}

func newBulkSaveHandler(repo *recordingActivityRepo) *BulkSaveHandler {
	service := domain.NewActivityService(repo, noopSlotRepo{}, noopEmployeeRepo{}, noopProjectRepo{}, zerolog.Nop())
	return NewBulkSaveHandler(service, zerolog.Nop())
}

func TestBulkSaveHandlerPersistsBatch(t *testing.T) {
	repo := &recordingActivityRepo{}
	handler := newBulkSaveHandler(repo)

	payload := `{
		"organizationId": "org-1",
		"projectId": "proj-1",
		"activities": [
			{"title": "Chrome", "type": "APP", "duration": 120, "date": "2024-03-01", "time": "09:12:00"},
			{}
		]
	}`
	msg := Message{
		TenantID:   "tenant-1",
		EmployeeID: "emp-1",
		Payload:    json.RawMessage(payload),
	}

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.Len(t, repo.bulk, 1)
	require.Len(t, repo.bulk[0], 1, "empty agent entries are dropped")

	saved := repo.bulk[0][0]
	require.Equal(t, "tenant-1", saved.TenantID)
	require.Equal(t, "emp-1", saved.EmployeeID)
	require.Equal(t, "org-1", saved.OrganizationID)
	require.Equal(t, "proj-1", saved.ProjectID)
	require.NotEmpty(t, saved.TimeSlotID, "ingestion attaches the owning slot")
}

func TestBulkSaveHandlerRejectsMalformedPayload(t *testing.T) {
	handler := newBulkSaveHandler(&recordingActivityRepo{})

	msg := Message{
		TenantID:   "tenant-1",
		EmployeeID: "emp-1",
		Payload:    json.RawMessage(`{"activities": not-json`),
	}
	err := handler.Handle(context.Background(), msg)
	require.ErrorContains(t, err, "failed to decode activity batch")
}

func TestBulkSaveHandlerRequiresEmployeeHeader(t *testing.T) {
	handler := newBulkSaveHandler(&recordingActivityRepo{})

	msg := Message{
		TenantID: "tenant-1",
		Offset:   12,
		Payload:  json.RawMessage(`{"activities": []}`),
	}
	err := handler.Handle(context.Background(), msg)
	require.ErrorContains(t, err, "no employee_id header")
}

func TestBulkSaveHandlerParsesMetadata(t *testing.T) {
	repo := &recordingActivityRepo{}
	handler := newBulkSaveHandler(repo)

	payload := `{
		"organizationId": "org-1",
		"activities": [
			{"title": "Docs", "type": "URL", "duration": 45, "date": "2024-03-01", "time": "10:00:00",
			 "metaData": {"url": "https://example.com/docs", "title": "Docs"}}
		]
	}`
	msg := Message{
		TenantID:   "tenant-1",
		EmployeeID: "emp-1",
		Payload:    json.RawMessage(payload),
	}

	require.NoError(t, handler.Handle(context.Background(), msg))
	saved := repo.bulk[0][0]
	require.NotNil(t, saved.Metadata)
	require.Equal(t, "https://example.com/docs", saved.Metadata.URL)
	require.Equal(t, domain.ActivityTypeURL, saved.Type)
}
