package work

import (
	"time"

	"stockatelier/pkg/models"
)

// isOverdueAt is the single overdue rule: nothing archived or DONE is
// overdue, and comparison happens on calendar days in UTC, strictly
// before today.
func isOverdueAt(due *time.Time, status models.TaskStatus, archivedAt *time.Time, now time.Time) bool {
	if due == nil || archivedAt != nil {
		return false
	}
	if status == models.StatusDone {
		return false
	}

	dueDay := truncateToDay(*due)
	today := truncateToDay(now)

	return dueDay.Before(today)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func IsTaskOverdue(task *models.WorkTask) bool {
	return isOverdueAt(task.DueDate, task.Status, task.ArchivedAt, time.Now())
}

// IsEquipmentOverdue applies the same rule to the delivery date; status
// is irrelevant at equipment granularity.
func IsEquipmentOverdue(equipment *models.WorkEquipment) bool {
	due := equipment.DeliveryDate
	return isOverdueAt(&due, "", equipment.ArchivedAt, time.Now())
}

func summarizeTasks(tasks []models.WorkTask) models.EquipmentTaskSummary {
	summary := models.EquipmentTaskSummary{Total: len(tasks)}

	for i := range tasks {
		switch tasks[i].Status {
		case models.StatusTodo:
			summary.Todo++
		case models.StatusInProgress:
			summary.InProgress++
		case models.StatusControl:
			summary.Control++
		case models.StatusDone:
			summary.Done++
		}

		if IsTaskOverdue(&tasks[i]) {
			summary.Overdue++
		}
	}

	return summary
}

type KanbanColumn struct {
	Status models.TaskStatus `json:"status"`
	Tasks  []models.TaskView `json:"tasks"`
}

type KanbanBoard struct {
	Agent   models.Agent   `json:"agent"`
	Columns []KanbanColumn `json:"columns"`
}

// groupTasksByStatus builds the board columns in status order. Input
// tasks are expected already sorted by status, due date, creation.
func groupTasksByStatus(tasks []models.TaskView) []KanbanColumn {
	columns := make([]KanbanColumn, 0, len(models.TaskStatuses))

	for _, status := range models.TaskStatuses {
		column := KanbanColumn{Status: status, Tasks: []models.TaskView{}}
		for _, task := range tasks {
			if task.Status == status {
				column.Tasks = append(column.Tasks, task)
			}
		}
		columns = append(columns, column)
	}

	return columns
}
