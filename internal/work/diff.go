package work

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"stockatelier/pkg/models"
)

// TaskPatch is the closed set of diffable task fields. Each Set flag
// records whether the caller sent the field at all; a field that was
// not sent never contributes to the diff.
type TaskPatch struct {
	Title *string

	Status *models.TaskStatus

	DueDate    *time.Time
	DueDateSet bool

	EstimatedDays    *float64
	EstimatedDaysSet bool

	Priority *models.TaskPriority

	Notes    *string
	NotesSet bool

	AssigneeIDs  []int
	AssigneesSet bool
}

type taskChanges struct {
	updates          goqu.Record
	entries          []models.TaskHistoryEntry
	assigneesChanged bool
}

func (c taskChanges) isEmpty() bool {
	return len(c.entries) == 0
}

// diffTask compares a patch against the current task field by field,
// with one explicit equality rule per field: calendar-day equality for
// due dates, numeric-string equality for estimates, trimmed-string
// equality for text, sorted-set equality for assignees. Unchanged
// fields are excluded from both the update record and the history.
func diffTask(current *models.WorkTask, currentAssignees []int, patch TaskPatch) taskChanges {
	changes := taskChanges{updates: goqu.Record{}}

	if patch.Title != nil {
		next := strings.TrimSpace(*patch.Title)
		if next != current.Title {
			changes.updates["title"] = next
			changes.entries = append(changes.entries, fieldEntry(models.ActionUpdateField, "title", &current.Title, &next))
		}
	}

	if patch.Status != nil && *patch.Status != current.Status {
		from := string(current.Status)
		to := string(*patch.Status)
		changes.updates["status"] = *patch.Status
		changes.entries = append(changes.entries, fieldEntry(models.ActionStatusChanged, "status", &from, &to))
	}

	if patch.DueDateSet {
		from := dateOnly(current.DueDate)
		to := dateOnly(patch.DueDate)
		if !equalStringPtr(from, to) {
			changes.updates["due_date"] = patch.DueDate
			changes.entries = append(changes.entries, fieldEntry(models.ActionUpdateField, "due_date", from, to))
		}
	}

	if patch.EstimatedDaysSet {
		from := estimateString(current.EstimatedDays)
		to := estimateString(patch.EstimatedDays)
		if !equalStringPtr(from, to) {
			changes.updates["estimated_days"] = patch.EstimatedDays
			changes.entries = append(changes.entries, fieldEntry(models.ActionUpdateField, "estimated_days", from, to))
		}
	}

	if patch.Priority != nil && *patch.Priority != current.Priority {
		from := string(current.Priority)
		to := string(*patch.Priority)
		changes.updates["priority"] = *patch.Priority
		changes.entries = append(changes.entries, fieldEntry(models.ActionUpdateField, "priority", &from, &to))
	}

	if patch.NotesSet {
		to := normalizedNotes(patch.Notes)
		from := current.Notes
		if !equalStringPtr(from, to) {
			changes.updates["notes"] = to
			changes.entries = append(changes.entries, fieldEntry(models.ActionUpdateField, "notes", from, to))
		}
	}

	if patch.AssigneesSet {
		from := sortedUnique(currentAssignees)
		to := sortedUnique(patch.AssigneeIDs)
		if !equalIntSlices(from, to) {
			fromValue := intsJSON(from)
			toValue := intsJSON(to)
			changes.assigneesChanged = true
			changes.entries = append(changes.entries, fieldEntry(models.ActionUpdateField, "assignees", &fromValue, &toValue))
		}
	}

	return changes
}

func fieldEntry(action models.HistoryAction, field string, from, to *string) models.TaskHistoryEntry {
	return models.TaskHistoryEntry{
		ActionType: action,
		Field:      &field,
		FromValue:  from,
		ToValue:    to,
	}
}

// dateOnly serializes a timestamp to its UTC calendar day, the unit of
// comparison for due dates.
func dateOnly(t *time.Time) *string {
	if t == nil {
		return nil
	}
	day := t.UTC().Format("2006-01-02")
	return &day
}

func estimateString(days *float64) *string {
	if days == nil {
		return nil
	}
	s := strconv.FormatFloat(*days, 'f', -1, 64)
	return &s
}

func normalizedNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sortedUnique(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Ints(unique)
	return unique
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsJSON(ids []int) string {
	raw, _ := json.Marshal(ids)
	return string(raw)
}
