package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/timetracking/internal/auth"
	"example.com/timetracking/internal/domain"
	"example.com/timetracking/internal/report"
)

type mockActivityRepo struct {
	activities []domain.Activity
	reportRows []domain.DailyActivity
	daily      []domain.DailyActivity
	bulk       [][]domain.Activity
	lastActor  domain.Actor
	lastFilter domain.ActivityFilter
}

func (r *mockActivityRepo) Insert(context.Context, domain.Activity) error { return nil }

func (r *mockActivityRepo) BulkInsert(_ context.Context, activities []domain.Activity) error {
	r.bulk = append(r.bulk, activities)
	return nil
}

func (r *mockActivityRepo) Find(_ context.Context, actor domain.Actor, filter domain.ActivityFilter) ([]domain.Activity, error) {
	r.lastActor = actor
	r.lastFilter = filter
	return r.activities, nil
}

func (r *mockActivityRepo) FindDaily(context.Context, domain.Actor, domain.ActivityFilter) ([]domain.DailyActivity, error) {
	return r.daily, nil
}

func (r *mockActivityRepo) FindDailyReport(context.Context, domain.Actor, domain.ActivityFilter) ([]domain.DailyActivity, error) {
	return r.reportRows, nil
}

type mockSlotRepo struct {
	aggregate domain.SlotAggregate
}

func (r *mockSlotRepo) FindInWindow(context.Context, string, string, string, time.Time, time.Time) (*domain.TimeSlot, error) {
	return nil, nil
}

func (r *mockSlotRepo) Create(context.Context, domain.TimeSlot) error { return nil }

func (r *mockSlotRepo) AggregateWindow(context.Context, string, string, string, time.Time, time.Time) (domain.SlotAggregate, error) {
	return r.aggregate, nil
}

type mockEmployeeRepo struct{}

func (mockEmployeeRepo) FindByIDs(context.Context, string, []string) ([]domain.Employee, error) {
	return nil, nil
}

func (mockEmployeeRepo) OrganizationID(context.Context, string, string) (string, error) {
	return "org-1", nil
}

type mockProjectRepo struct{}

func (mockProjectRepo) FindByIDs(context.Context, string, []string) ([]domain.Project, error) {
	return nil, nil
}

type mockTimesheetRepo struct {
	sheet *domain.Timesheet
}

func (r *mockTimesheetRepo) Get(context.Context, string, string) (*domain.Timesheet, error) {
	return r.sheet, nil
}

func (r *mockTimesheetRepo) ListInRange(context.Context, string, string, time.Time, time.Time) ([]domain.Timesheet, error) {
	return nil, nil
}

func (r *mockTimesheetRepo) UpdateAggregates(context.Context, domain.Timesheet) error { return nil }

func newTestHandler(activities *mockActivityRepo, slots *mockSlotRepo, sheets *mockTimesheetRepo) *Handler {
	log := zerolog.Nop()
	activityService := domain.NewActivityService(activities, slots, mockEmployeeRepo{}, mockProjectRepo{}, log)
	timesheetService := domain.NewTimesheetService(sheets, slots, log)
	return NewHandler(activityService, timesheetService)
}

func claimsWith(scopes ...string) *auth.Claims {
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	return &auth.Claims{
		Subject:    "user-1",
		TenantID:   "tenant-1",
		EmployeeID: "emp-1",
		Scopes:     set,
	}
}

func doRequest(t *testing.T, handler *Handler, method, target string, body string, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	return recorder
}

func TestListActivitiesRequiresToken(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/v1/activities", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListActivitiesRequiresReadScope(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/v1/activities", "", claimsWith())
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListActivitiesSuccess(t *testing.T) {
	activities := &mockActivityRepo{
		activities: []domain.Activity{
			{
				ID: "act-1", EmployeeID: "emp-1", TimeSlotID: "slot-1",
				Title: "Chrome", Type: domain.ActivityTypeApp,
				Date: "2024-03-01", Time: "09:12:00", Duration: 120,
			},
		},
	}
	handler := newTestHandler(activities, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet,
		"/v1/activities?projectIds=proj-1,proj-2&limit=10&page=2", "",
		claimsWith(auth.ScopeTimeTrackingRead))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListActivitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, "act-1", resp.Items[0].ID)

	require.Equal(t, []string{"proj-1", "proj-2"}, activities.lastFilter.ProjectIDs)
	require.Equal(t, 10, activities.lastFilter.Limit)
	require.Equal(t, 2, activities.lastFilter.Page)
	require.Equal(t, "tenant-1", activities.lastActor.TenantID)
	require.False(t, activities.lastActor.AllowAllEmployees)
}

func TestListActivitiesAllScopeGrantsVisibility(t *testing.T) {
	activities := &mockActivityRepo{}
	handler := newTestHandler(activities, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/v1/activities", "",
		claimsWith(auth.ScopeTimeTrackingRead, auth.ScopeTimeTrackingAll))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, activities.lastActor.AllowAllEmployees)
}

func TestListActivitiesRejectsBadDates(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/v1/activities?startDate=yesterday", "",
		claimsWith(auth.ScopeTimeTrackingRead))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyReportValidatesGroupBy(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/v1/activities/report?groupBy=task", "",
		claimsWith(auth.ScopeTimeTrackingRead))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyReportGroupsByEmployee(t *testing.T) {
	activities := &mockActivityRepo{
		reportRows: []domain.DailyActivity{
			{Date: "2024-03-01", EmployeeID: "emp-1", ProjectID: "proj-1", Title: "Chrome", Sessions: 2, Duration: 300},
			{Date: "2024-03-01", EmployeeID: "emp-1", ProjectID: "proj-1", Title: "VS Code", Sessions: 1, Duration: 700},
		},
	}
	handler := newTestHandler(activities, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/v1/activities/report?groupBy=employee", "",
		claimsWith(auth.ScopeTimeTrackingRead))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []report.EmployeeReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "emp-1", resp[0].EmployeeID)
	require.Len(t, resp[0].Dates, 1)
	entries := resp[0].Dates[0].Projects[0].Activities
	require.Equal(t, 30.0, entries[0].DurationPercentage)
	require.Equal(t, 70.0, entries[1].DurationPercentage)
}

func TestCreateActivityValidation(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{"type":"APP","organizationId":"org-1","activityTimestamp":"2024-03-01T09:03:00Z"}`, "title is required"},
		{"missing organization", `{"title":"Chrome","type":"APP","activityTimestamp":"2024-03-01T09:03:00Z"}`, "organizationId is required"},
		{"missing timestamp", `{"title":"Chrome","type":"APP","organizationId":"org-1"}`, "activityTimestamp is required"},
		{"bad type", `{"title":"Chrome","type":"WINDOW","organizationId":"org-1","activityTimestamp":"2024-03-01T09:03:00Z"}`, "type must be APP or URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, handler, http.MethodPost, "/v1/activities", tc.body,
				claimsWith(auth.ScopeTimeTrackingWrite))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestCreateActivitySuccess(t *testing.T) {
	activities := &mockActivityRepo{}
	handler := newTestHandler(activities, &mockSlotRepo{}, &mockTimesheetRepo{})

	body := `{
		"title": "Chrome",
		"type": "APP",
		"duration": 120,
		"date": "2024-03-01",
		"time": "09:03:00",
		"organizationId": "org-1",
		"activityTimestamp": "2024-03-01T09:03:00Z"
	}`
	rec := doRequest(t, handler, http.MethodPost, "/v1/activities", body,
		claimsWith(auth.ScopeTimeTrackingWrite))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ActivityView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Chrome", resp.Title)
	require.Equal(t, "emp-1", resp.EmployeeID)
	require.NotEmpty(t, resp.ID)
	require.NotEmpty(t, resp.TimeSlotID)
}

func TestBulkSaveRequiresWriteScope(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodPost, "/v1/activities/bulk",
		`{"activities":[]}`, claimsWith(auth.ScopeTimeTrackingRead))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBulkSaveInsertsBatch(t *testing.T) {
	activities := &mockActivityRepo{}
	handler := newTestHandler(activities, &mockSlotRepo{}, &mockTimesheetRepo{})

	body := `{
		"organizationId": "org-1",
		"activities": [
			{"title": "Chrome", "type": "APP", "duration": 120, "date": "2024-03-01", "time": "09:12:00"},
			{},
			{"title": "VS Code", "type": "APP", "duration": 300, "date": "2024-03-01", "time": "09:14:00"}
		]
	}`
	rec := doRequest(t, handler, http.MethodPost, "/v1/activities/bulk", body,
		claimsWith(auth.ScopeTimeTrackingWrite))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp BulkSaveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Inserted, "empty entries are discarded, not inserted")

	require.Len(t, activities.bulk, 1)
	require.Len(t, activities.bulk[0], 2)
	require.Equal(t, "emp-1", activities.bulk[0][0].EmployeeID)
}

func TestRecalculateTimesheetValidation(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodPost, "/v1/timesheets/recalculate",
		`{}`, claimsWith(auth.ScopeTimeTrackingWrite))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "timesheetId is required")
}

func TestRecalculateTimesheetNotFound(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodPost, "/v1/timesheets/recalculate",
		`{"timesheetId":"sheet-missing"}`, claimsWith(auth.ScopeTimeTrackingWrite))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecalculateTimesheetSuccess(t *testing.T) {
	sheets := &mockTimesheetRepo{sheet: &domain.Timesheet{
		ID:             "sheet-1",
		TenantID:       "tenant-1",
		OrganizationID: "org-1",
		EmployeeID:     "emp-1",
		StartedAt:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StoppedAt:      time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	}}
	slots := &mockSlotRepo{aggregate: domain.SlotAggregate{Duration: 3600, Overall: 240.6}}
	handler := newTestHandler(&mockActivityRepo{}, slots, sheets)

	rec := doRequest(t, handler, http.MethodPost, "/v1/timesheets/recalculate",
		`{"timesheetId":"sheet-1"}`, claimsWith(auth.ScopeTimeTrackingWrite))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TimesheetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "sheet-1", resp.TimesheetID)
	require.Equal(t, 3600, resp.Duration)
	require.Equal(t, 241, resp.Overall)
}

func TestHealthzIsOpen(t *testing.T) {
	handler := newTestHandler(&mockActivityRepo{}, &mockSlotRepo{}, &mockTimesheetRepo{})

	rec := doRequest(t, handler, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
