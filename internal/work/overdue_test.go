package work

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockatelier/pkg/models"
)

func TestIsOverdueAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	archivedAt := now

	tests := []struct {
		name       string
		due        *time.Time
		status     models.TaskStatus
		archivedAt *time.Time
		expected   bool
	}{
		{"no due date", nil, models.StatusTodo, nil, false},
		{"due yesterday", &yesterday, models.StatusTodo, nil, true},
		{"due today is not overdue", &today, models.StatusTodo, nil, false},
		{"due tomorrow", &tomorrow, models.StatusTodo, nil, false},
		{"done task never overdue", &yesterday, models.StatusDone, nil, false},
		{"in control past due", &yesterday, models.StatusControl, nil, true},
		{"archived task never overdue", &yesterday, models.StatusTodo, &archivedAt, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isOverdueAt(tt.due, tt.status, tt.archivedAt, now))
		})
	}
}

func TestIsOverdueAtComparesCalendarDays(t *testing.T) {
	// Due late yesterday evening, checked early this morning: overdue,
	// even though less than 24 hours separate the two instants.
	due := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	assert.True(t, isOverdueAt(&due, models.StatusInProgress, nil, now))
}

func TestSummarizeTasks(t *testing.T) {
	past := time.Now().AddDate(0, 0, -3)
	future := time.Now().AddDate(0, 0, 3)

	tasks := []models.WorkTask{
		{Status: models.StatusTodo, DueDate: &past},
		{Status: models.StatusTodo, DueDate: &future},
		{Status: models.StatusInProgress, DueDate: &past},
		{Status: models.StatusControl},
		{Status: models.StatusDone, DueDate: &past},
	}

	summary := summarizeTasks(tasks)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, summary.Todo)
	assert.Equal(t, 1, summary.InProgress)
	assert.Equal(t, 1, summary.Control)
	assert.Equal(t, 1, summary.Done)
	assert.Equal(t, 2, summary.Overdue)
}

func TestGroupTasksByStatus(t *testing.T) {
	tasks := []models.TaskView{
		{WorkTask: models.WorkTask{ID: 1, Status: models.StatusDone}},
		{WorkTask: models.WorkTask{ID: 2, Status: models.StatusTodo}},
		{WorkTask: models.WorkTask{ID: 3, Status: models.StatusTodo}},
	}

	columns := groupTasksByStatus(tasks)

	assert.Len(t, columns, 4)
	assert.Equal(t, models.StatusTodo, columns[0].Status)
	assert.Len(t, columns[0].Tasks, 2)
	assert.Empty(t, columns[1].Tasks)
	assert.Empty(t, columns[2].Tasks)
	assert.Len(t, columns[3].Tasks, 1)
	assert.Equal(t, 1, columns[3].Tasks[0].ID)
}
