package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"example.com/timetracking/internal/domain"
)

// activityPayload mirrors the JSON an agent publishes for one activity.
type activityPayload struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	Source         string          `json:"source"`
	LogType        string          `json:"logType"`
	Duration       int             `json:"duration"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	OrganizationID string          `json:"organizationId"`
	ProjectID      string          `json:"projectId"`
	TaskID         string          `json:"taskId"`
	Metadata       json.RawMessage `json:"metaData"`
}

// batchPayload is the envelope for one published batch.
type batchPayload struct {
	OrganizationID string            `json:"organizationId"`
	ProjectID      string            `json:"projectId"`
	Activities     []activityPayload `json:"activities"`
}

// BulkSaveHandler decodes batch payloads and saves them through the
// activity service, sharing validation and slot assignment with the API.
type BulkSaveHandler struct {
	activities *domain.ActivityService
	log        zerolog.Logger
}

// NewBulkSaveHandler constructs a handler backed by the activity service.
func NewBulkSaveHandler(activities *domain.ActivityService, log zerolog.Logger) *BulkSaveHandler {
	return &BulkSaveHandler{
		activities: activities,
		log:        log.With().Str("component", "bulk_save_handler").Logger(),
	}
}

// Handle decodes one batch and persists it for the employee named in the
// message headers.
func (h *BulkSaveHandler) Handle(ctx context.Context, msg Message) error {
	var batch batchPayload
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		return fmt.Errorf("failed to decode activity batch: %w", err)
	}
	if msg.EmployeeID == "" {
		return fmt.Errorf("activity batch at offset %d has no employee_id header", msg.Offset)
	}

	actor := domain.Actor{
		TenantID:   msg.TenantID,
		EmployeeID: msg.EmployeeID,
	}

	input := domain.BulkActivitiesInput{
		EmployeeID:     msg.EmployeeID,
		OrganizationID: batch.OrganizationID,
		ProjectID:      batch.ProjectID,
		Activities:     make([]domain.Activity, 0, len(batch.Activities)),
	}
	for _, p := range batch.Activities {
		input.Activities = append(input.Activities, p.toDomain())
	}

	inserted, err := h.activities.BulkSave(ctx, actor, input)
	if err != nil {
		return err
	}

	h.log.Debug().
		Str("tenantId", msg.TenantID).
		Str("employeeId", msg.EmployeeID).
		Int("inserted", len(inserted)).
		Msg("activity batch saved")
	return nil
}

func (p activityPayload) toDomain() domain.Activity {
	var metadata *domain.ActivityMetadata
	if len(p.Metadata) > 0 {
		var m domain.ActivityMetadata
		if err := json.Unmarshal(p.Metadata, &m); err == nil {
			metadata = &m
		}
	}
	return domain.Activity{
		Title:          p.Title,
		Description:    p.Description,
		Type:           domain.ActivityType(p.Type),
		Source:         p.Source,
		LogType:        p.LogType,
		Duration:       p.Duration,
		Date:           p.Date,
		Time:           p.Time,
		OrganizationID: p.OrganizationID,
		ProjectID:      p.ProjectID,
		TaskID:         p.TaskID,
		Metadata:       metadata,
	}
}
