package models

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusControl    TaskStatus = "CONTROL"
	StatusDone       TaskStatus = "DONE"
)

// TaskStatuses lists the statuses in board order. The order is advisory
// for next/previous navigation; the API accepts any target status.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusControl, StatusDone}

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusControl, StatusDone:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

type HistoryAction string

const (
	ActionCreate        HistoryAction = "CREATE"
	ActionUpdateField   HistoryAction = "UPDATE_FIELD"
	ActionStatusChanged HistoryAction = "STATUS_CHANGED"
	ActionArchived      HistoryAction = "ARCHIVED"
	ActionUnarchived    HistoryAction = "UNARCHIVED"
)

type WorkEquipment struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	DeliveryDate time.Time  `json:"delivery_date" db:"delivery_date"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByID  *int       `json:"created_by_id,omitempty" db:"created_by_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type EquipmentTaskSummary struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Control    int `json:"control"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

type EquipmentView struct {
	WorkEquipment
	IsOverdue   bool                 `json:"is_overdue"`
	TaskSummary EquipmentTaskSummary `json:"task_summary"`
}

type WorkTask struct {
	ID            int          `json:"id" db:"id"`
	EquipmentID   int          `json:"equipment_id" db:"equipment_id"`
	Title         string       `json:"title" db:"title"`
	Status        TaskStatus   `json:"status" db:"status"`
	DueDate       *time.Time   `json:"due_date,omitempty" db:"due_date"`
	EstimatedDays *float64     `json:"estimated_days,omitempty" db:"estimated_days"`
	Priority      TaskPriority `json:"priority" db:"priority"`
	Notes         *string      `json:"notes,omitempty" db:"notes"`
	ArchivedAt    *time.Time   `json:"archived_at,omitempty" db:"archived_at"`
	CreatedByID   int          `json:"created_by_id" db:"created_by_id"`
	UpdatedByID   int          `json:"updated_by_id" db:"updated_by_id"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

type EquipmentRef struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	DeliveryDate time.Time  `json:"delivery_date" db:"delivery_date"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

type TaskView struct {
	WorkTask
	IsOverdue bool         `json:"is_overdue"`
	Equipment EquipmentRef `json:"equipment"`
	Assignees []Agent      `json:"assignees"`
}

type TaskHistoryEntry struct {
	ID         int           `json:"id" db:"id"`
	TaskID     int           `json:"task_id" db:"task_id"`
	ActorID    int           `json:"actor_id" db:"actor_id"`
	ActionType HistoryAction `json:"action_type" db:"action_type"`
	Field      *string       `json:"field,omitempty" db:"field"`
	FromValue  *string       `json:"from_value,omitempty" db:"from_value"`
	ToValue    *string       `json:"to_value,omitempty" db:"to_value"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// FlatHistoryEntry joins the actor name for the audit endpoint.
type FlatHistoryEntry struct {
	TaskHistoryEntry
	ActorFullName string `db:"actor_full_name"`
}

type ActorRef struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
}

type HistoryView struct {
	ID         int           `json:"id"`
	ActionType HistoryAction `json:"action_type"`
	Field      *string       `json:"field,omitempty"`
	FromValue  *string       `json:"from_value,omitempty"`
	ToValue    *string       `json:"to_value,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	Actor      ActorRef      `json:"actor"`
}
