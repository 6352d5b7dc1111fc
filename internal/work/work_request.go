package work

import (
	"time"

	"stockatelier/pkg/models"

	domain_error "stockatelier/pkg/errors"
)

type CreateEquipmentRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=120"`
	DeliveryDate string `json:"delivery_date" binding:"required"`
}

type UpdateEquipmentRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=2,max=120"`
	DeliveryDate *string `json:"delivery_date"`
}

type ArchiveRequest struct {
	Archived *bool `json:"archived"`
}

// IsArchived defaults to true so a bare archive call archives.
func (r ArchiveRequest) IsArchived() bool {
	return r.Archived == nil || *r.Archived
}

type CreateTaskRequest struct {
	Title         string               `json:"title" binding:"required,min=2,max=160"`
	Status        *models.TaskStatus   `json:"status"`
	DueDate       *string              `json:"due_date"`
	EstimatedDays *float64             `json:"estimated_days" binding:"omitempty,gte=0,lte=365"`
	Priority      *models.TaskPriority `json:"priority"`
	Notes         *string              `json:"notes" binding:"omitempty,max=1500"`
	AssigneeIDs   []int                `json:"assignee_ids" binding:"omitempty,max=20"`
}

// UpdateTaskRequest is a partial patch: nil means the field was not
// sent and must be excluded from the diff entirely.
type UpdateTaskRequest struct {
	Title         *string              `json:"title" binding:"omitempty,min=2,max=160"`
	Status        *models.TaskStatus   `json:"status"`
	DueDate       *string              `json:"due_date"`
	EstimatedDays *float64             `json:"estimated_days" binding:"omitempty,gte=0,lte=365"`
	Priority      *models.TaskPriority `json:"priority"`
	Notes         *string              `json:"notes" binding:"omitempty,max=1500"`
	AssigneeIDs   *[]int               `json:"assignee_ids" binding:"omitempty,max=20"`
}

type TaskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required"`
}

// parseDateOnly accepts YYYY-MM-DD or a full RFC 3339 timestamp and
// normalizes to midnight UTC so due dates carry no time-of-day.
func parseDateOnly(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		day := parsed.UTC()
		return &day, nil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, &domain_error.ValidationError{Message: "Date invalide: " + value}
	}

	day := time.Date(parsed.UTC().Year(), parsed.UTC().Month(), parsed.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}
