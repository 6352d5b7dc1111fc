package work

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockatelier/pkg/models"
)

func baseTask() *models.WorkTask {
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	estimate := 2.5
	notes := "prévoir le pont roulant"
	return &models.WorkTask{
		ID:            7,
		Title:         "Soudure châssis",
		Status:        models.StatusTodo,
		DueDate:       &due,
		EstimatedDays: &estimate,
		Priority:      models.PriorityMedium,
		Notes:         &notes,
	}
}

func strPtr(s string) *string { return &s }

func TestDiffTaskEmptyPatch(t *testing.T) {
	changes := diffTask(baseTask(), []int{3, 5}, TaskPatch{})

	assert.True(t, changes.isEmpty())
	assert.Empty(t, changes.updates)
}

func TestDiffTaskUnchangedValuesProduceNoEntries(t *testing.T) {
	task := baseTask()
	sameDue := time.Date(2026, 4, 10, 16, 45, 0, 0, time.UTC) // same calendar day
	sameEstimate := 2.5
	status := models.StatusTodo
	priority := models.PriorityMedium

	changes := diffTask(task, []int{3, 5}, TaskPatch{
		Title:            strPtr("Soudure châssis"),
		Status:           &status,
		DueDate:          &sameDue,
		DueDateSet:       true,
		EstimatedDays:    &sameEstimate,
		EstimatedDaysSet: true,
		Priority:         &priority,
		Notes:            strPtr("  prévoir le pont roulant  "),
		NotesSet:         true,
		AssigneeIDs:      []int{5, 3, 5}, // order and duplicates are irrelevant
		AssigneesSet:     true,
	})

	assert.True(t, changes.isEmpty())
}

func TestDiffTaskOneEntryPerChangedField(t *testing.T) {
	task := baseTask()
	newDue := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	newEstimate := 4.0
	status := models.StatusInProgress
	priority := models.PriorityHigh

	changes := diffTask(task, []int{3, 5}, TaskPatch{
		Title:            strPtr("Soudure châssis complet"),
		Status:           &status,
		DueDate:          &newDue,
		DueDateSet:       true,
		EstimatedDays:    &newEstimate,
		EstimatedDaysSet: true,
		Priority:         &priority,
		Notes:            strPtr("contrôle dimensionnel avant peinture"),
		NotesSet:         true,
		AssigneeIDs:      []int{5, 8},
		AssigneesSet:     true,
	})

	assert.Len(t, changes.entries, 7)
	assert.True(t, changes.assigneesChanged)

	byField := map[string]models.TaskHistoryEntry{}
	for _, entry := range changes.entries {
		byField[*entry.Field] = entry
	}

	assert.Equal(t, models.ActionStatusChanged, byField["status"].ActionType)
	assert.Equal(t, "TODO", *byField["status"].FromValue)
	assert.Equal(t, "IN_PROGRESS", *byField["status"].ToValue)

	assert.Equal(t, models.ActionUpdateField, byField["title"].ActionType)
	assert.Equal(t, "Soudure châssis", *byField["title"].FromValue)

	assert.Equal(t, "2026-04-10", *byField["due_date"].FromValue)
	assert.Equal(t, "2026-04-20", *byField["due_date"].ToValue)

	assert.Equal(t, "2.5", *byField["estimated_days"].FromValue)
	assert.Equal(t, "4", *byField["estimated_days"].ToValue)

	assert.Equal(t, "[3,5]", *byField["assignees"].FromValue)
	assert.Equal(t, "[5,8]", *byField["assignees"].ToValue)
}

func TestDiffTaskClearingOptionalFields(t *testing.T) {
	task := baseTask()

	changes := diffTask(task, []int{3}, TaskPatch{
		DueDateSet:       true,
		EstimatedDaysSet: true,
		NotesSet:         true,
		AssigneeIDs:      []int{},
		AssigneesSet:     true,
	})

	assert.Len(t, changes.entries, 4)

	byField := map[string]models.TaskHistoryEntry{}
	for _, entry := range changes.entries {
		byField[*entry.Field] = entry
	}

	assert.Equal(t, "2026-04-10", *byField["due_date"].FromValue)
	assert.Nil(t, byField["due_date"].ToValue)
	assert.Nil(t, byField["notes"].ToValue)
	assert.Equal(t, "[]", *byField["assignees"].ToValue)
}

func TestDiffTaskBlankNotesMeansCleared(t *testing.T) {
	task := baseTask()

	changes := diffTask(task, nil, TaskPatch{
		Notes:    strPtr("   "),
		NotesSet: true,
	})

	assert.Len(t, changes.entries, 1)
	assert.Nil(t, changes.updates["notes"])
}
