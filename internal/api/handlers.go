// Package api exposes HTTP handlers for the time tracking service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/timetracking/internal/auth"
	"example.com/timetracking/internal/domain"
	"example.com/timetracking/internal/report"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	activities *domain.ActivityService
	timesheets *domain.TimesheetService
}

// NewHandler builds a Handler.
func NewHandler(activities *domain.ActivityService, timesheets *domain.TimesheetService) *Handler {
	return &Handler{activities: activities, timesheets: timesheets}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activitiesRoot)
	mux.HandleFunc("/v1/activities/daily", h.dailyActivities)
	mux.HandleFunc("/v1/activities/report", h.dailyReport)
	mux.HandleFunc("/v1/activities/bulk", h.bulkSave)
	mux.HandleFunc("/v1/timesheets/recalculate", h.recalculateTimesheet)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// activitiesRoot dispatches /v1/activities by method: GET lists, POST
// ingests a single event.
func (h *Handler) activitiesRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listActivities(w, r)
	case http.MethodPost:
		h.createActivity(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	created, err := h.activities.CreateActivity(r.Context(), claims.Actor(), req.toInput())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toActivityView(*created))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activities, err := h.activities.GetActivities(r.Context(), claims.Actor(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, activity := range activities {
		items = append(items, toActivityView(activity))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) dailyActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	rows, err := h.activities.GetDailyActivities(r.Context(), claims.Actor(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]DailyActivityView, 0, len(rows))
	for _, row := range rows {
		items = append(items, DailyActivityView{
			Date:       row.Date,
			Hour:       row.Hour,
			Title:      row.Title,
			EmployeeID: row.EmployeeID,
			Sessions:   row.Sessions,
			Duration:   row.Duration,
		})
	}
	writeJSON(w, http.StatusOK, DailyActivitiesResponse{Items: items})
}

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.requireRead(w, r)
	if !ok {
		return
	}

	groupBy := report.GroupBy(r.URL.Query().Get("groupBy"))
	switch groupBy {
	case "":
		groupBy = report.GroupByDate
	case report.GroupByDate, report.GroupByEmployee, report.GroupByProject:
	default:
		writeError(w, http.StatusBadRequest, "validation_failed", "groupBy must be one of date, employee, project")
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	rows, err := h.activities.GetDailyActivitiesReport(r.Context(), claims.Actor(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	switch groupBy {
	case report.GroupByEmployee:
		writeJSON(w, http.StatusOK, report.ByEmployee(rows))
	case report.GroupByProject:
		writeJSON(w, http.StatusOK, report.ByProject(rows))
	default:
		writeJSON(w, http.StatusOK, report.ByDate(rows))
	}
}

func (h *Handler) bulkSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	var req BulkSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	saved, err := h.activities.BulkSave(r.Context(), claims.Actor(), req.toInput())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, BulkSaveResponse{Inserted: len(saved)})
}

func (h *Handler) recalculateTimesheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	var req RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	timesheet, err := h.timesheets.Recalculate(r.Context(), claims.TenantID, req.TimesheetID)
	if err != nil {
		if errors.Is(err, domain.ErrTimesheetNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "timesheet not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TimesheetView{
		TimesheetID: timesheet.ID,
		EmployeeID:  timesheet.EmployeeID,
		StartedAt:   timesheet.StartedAt,
		StoppedAt:   timesheet.StoppedAt,
		Duration:    timesheet.Duration,
		Keyboard:    timesheet.Keyboard,
		Mouse:       timesheet.Mouse,
		Overall:     timesheet.Overall,
	})
}

func (h *Handler) requireRead(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return nil, false
	}
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeTimeTrackingRead) && !claims.HasScope(auth.ScopeTimeTrackingWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope time-tracking:read required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) requireWrite(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeTimeTrackingWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope time-tracking:write required")
		return nil, false
	}
	return claims, true
}

// parseFilter translates the shared query parameters into an ActivityFilter.
func parseFilter(r *http.Request) (domain.ActivityFilter, error) {
	query := r.URL.Query()
	filter := domain.ActivityFilter{
		OrganizationID: query.Get("organizationId"),
		EmployeeIDs:    splitParams(query["employeeIds"]),
		ProjectIDs:     splitParams(query["projectIds"]),
		Sources:        splitParams(query["source"]),
		LogTypes:       splitParams(query["logType"]),
		Titles:         splitParams(query["titles"]),
		Types:          splitParams(query["types"]),
	}

	if raw := query.Get("startDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("startDate must be RFC3339")
		}
		filter.StartDate = parsed
	}
	if raw := query.Get("endDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("endDate must be RFC3339")
		}
		filter.EndDate = parsed
	}

	start, startSet, err := intParam(query.Get("activityLevelStart"))
	if err != nil {
		return filter, errors.New("activityLevelStart must be an integer")
	}
	end, endSet, err := intParam(query.Get("activityLevelEnd"))
	if err != nil {
		return filter, errors.New("activityLevelEnd must be an integer")
	}
	if startSet || endSet {
		if !endSet {
			end = 100
		}
		filter.ActivityLevel = &domain.ActivityLevel{Start: start, End: end}
	}

	if limit, set, err := intParam(query.Get("limit")); err != nil {
		return filter, errors.New("limit must be an integer")
	} else if set && limit > 0 {
		filter.Limit = limit
	}
	if page, set, err := intParam(query.Get("page")); err != nil {
		return filter, errors.New("page must be an integer")
	} else if set && page > 0 {
		filter.Page = page
	}

	return filter, nil
}

// splitParams accepts both repeated parameters and comma-separated lists.
func splitParams(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(raw string) (int, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return parsed, true, nil
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
