package work

import (
	"sort"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"

	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
	"stockatelier/pkg/roles"
)

type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

// fakeWorkRepository keeps the whole board in memory. Updates handle
// only the columns the service writes.
type fakeWorkRepository struct {
	equipments map[int]*models.WorkEquipment
	tasks      map[int]*models.WorkTask
	assignees  map[int][]int
	history    []models.TaskHistoryEntry
	users      map[int]*models.Agent

	nextEquipmentID int
	nextTaskID      int
	nextHistoryID   int
}

func newFakeWorkRepository() *fakeWorkRepository {
	return &fakeWorkRepository{
		equipments: map[int]*models.WorkEquipment{},
		tasks:      map[int]*models.WorkTask{},
		assignees:  map[int][]int{},
		users: map[int]*models.Agent{
			3: {ID: 3, FullName: "Jean Morel", Role: roles.User, Active: true},
			5: {ID: 5, FullName: "Sofia Leroy", Role: roles.User, Active: true},
			8: {ID: 8, FullName: "Paul Girard", Role: roles.User, Active: false},
		},
		nextEquipmentID: 1,
		nextTaskID:      1,
		nextHistoryID:   1,
	}
}

func (f *fakeWorkRepository) GetEquipment(id int) (*models.WorkEquipment, error) {
	equipment, ok := f.equipments[id]
	if !ok {
		return nil, nil
	}
	copied := *equipment
	return &copied, nil
}

func (f *fakeWorkRepository) InsertEquipment(equipment *models.WorkEquipment) (*models.WorkEquipment, error) {
	equipment.ID = f.nextEquipmentID
	f.nextEquipmentID++
	equipment.CreatedAt = time.Now()
	equipment.UpdatedAt = equipment.CreatedAt
	stored := *equipment
	f.equipments[equipment.ID] = &stored
	return equipment, nil
}

func (f *fakeWorkRepository) UpdateEquipment(id int, updates goqu.Record) error {
	equipment, ok := f.equipments[id]
	if !ok {
		return &domain_error.NotFoundError{Resource: "equipment"}
	}
	if name, ok := updates["name"].(string); ok {
		equipment.Name = name
	}
	if date, ok := updates["delivery_date"].(time.Time); ok {
		equipment.DeliveryDate = date
	}
	if raw, ok := updates["archived_at"]; ok {
		if raw == nil {
			equipment.ArchivedAt = nil
		} else {
			now := time.Now()
			equipment.ArchivedAt = &now
		}
	}
	return nil
}

func (f *fakeWorkRepository) ListEquipments(archived bool) ([]models.WorkEquipment, error) {
	var equipments []models.WorkEquipment
	for _, equipment := range f.equipments {
		if archived != (equipment.ArchivedAt != nil) {
			continue
		}
		equipments = append(equipments, *equipment)
	}
	return equipments, nil
}

func (f *fakeWorkRepository) equipmentArchived(equipmentID int) bool {
	equipment, ok := f.equipments[equipmentID]
	return ok && equipment.ArchivedAt != nil
}

func (f *fakeWorkRepository) ListEquipmentTasks(equipmentIDs []int) (map[int][]models.WorkTask, error) {
	grouped := map[int][]models.WorkTask{}
	for _, task := range f.tasks {
		if task.ArchivedAt != nil {
			continue
		}
		for _, id := range equipmentIDs {
			if task.EquipmentID == id {
				grouped[id] = append(grouped[id], *task)
			}
		}
	}
	return grouped, nil
}

func (f *fakeWorkRepository) GetTask(id int) (*models.WorkTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (f *fakeWorkRepository) GetTaskAssigneeIDs(id int) ([]int, error) {
	return append([]int{}, f.assignees[id]...), nil
}

func (f *fakeWorkRepository) GetTaskView(id int) (*models.TaskView, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}

	assignees := []models.Agent{}
	for _, userID := range f.assignees[id] {
		if user, ok := f.users[userID]; ok {
			assignees = append(assignees, *user)
		}
	}

	view := models.TaskView{
		WorkTask:  *task,
		IsOverdue: IsTaskOverdue(task),
		Assignees: assignees,
	}
	if equipment, ok := f.equipments[task.EquipmentID]; ok {
		view.Equipment = models.EquipmentRef{
			ID:           equipment.ID,
			Name:         equipment.Name,
			DeliveryDate: equipment.DeliveryDate,
			ArchivedAt:   equipment.ArchivedAt,
		}
	}
	return &view, nil
}

func (f *fakeWorkRepository) ListTaskViews(archived bool) ([]models.TaskView, error) {
	var views []models.TaskView
	for id, task := range f.tasks {
		inArchivedView := task.ArchivedAt != nil || f.equipmentArchived(task.EquipmentID)
		if archived != inArchivedView {
			continue
		}
		view, _ := f.GetTaskView(id)
		views = append(views, *view)
	}
	return views, nil
}

func (f *fakeWorkRepository) ListTaskViewsByEquipment(equipmentID int, includeArchived bool) ([]models.TaskView, error) {
	var ids []int
	for id, task := range f.tasks {
		if task.EquipmentID != equipmentID {
			continue
		}
		if !includeArchived && task.ArchivedAt != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	views := []models.TaskView{}
	for _, id := range ids {
		view, _ := f.GetTaskView(id)
		views = append(views, *view)
	}
	return views, nil
}

func (f *fakeWorkRepository) ListAgentTaskViews(agentID int) ([]models.TaskView, error) {
	var views []models.TaskView
	for taskID, userIDs := range f.assignees {
		for _, userID := range userIDs {
			if userID != agentID {
				continue
			}
			task := f.tasks[taskID]
			if task.ArchivedAt != nil || f.equipmentArchived(task.EquipmentID) {
				continue
			}
			view, _ := f.GetTaskView(taskID)
			views = append(views, *view)
		}
	}
	return views, nil
}

func (f *fakeWorkRepository) InsertTask(_ *goqu.TxDatabase, task *models.WorkTask, assigneeIDs []int) (*models.WorkTask, error) {
	task.ID = f.nextTaskID
	f.nextTaskID++
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := *task
	f.tasks[task.ID] = &stored
	f.assignees[task.ID] = append([]int{}, assigneeIDs...)
	return task, nil
}

func (f *fakeWorkRepository) UpdateTask(_ *goqu.TxDatabase, id int, updates goqu.Record) error {
	task, ok := f.tasks[id]
	if !ok {
		return &domain_error.NotFoundError{Resource: "task"}
	}
	if title, ok := updates["title"].(string); ok {
		task.Title = title
	}
	if status, ok := updates["status"].(models.TaskStatus); ok {
		task.Status = status
	}
	if priority, ok := updates["priority"].(models.TaskPriority); ok {
		task.Priority = priority
	}
	if due, ok := updates["due_date"].(*time.Time); ok {
		task.DueDate = due
	}
	if estimate, ok := updates["estimated_days"].(*float64); ok {
		task.EstimatedDays = estimate
	}
	if notes, ok := updates["notes"].(*string); ok {
		task.Notes = notes
	}
	if raw, ok := updates["archived_at"]; ok {
		if raw == nil {
			task.ArchivedAt = nil
		} else {
			now := time.Now()
			task.ArchivedAt = &now
		}
	}
	if actorID, ok := updates["updated_by_id"].(int); ok {
		task.UpdatedByID = actorID
	}
	return nil
}

func (f *fakeWorkRepository) ReplaceAssignees(_ *goqu.TxDatabase, id int, assigneeIDs []int) error {
	f.assignees[id] = append([]int{}, assigneeIDs...)
	return nil
}

func (f *fakeWorkRepository) InsertHistory(_ *goqu.TxDatabase, entries []models.TaskHistoryEntry) error {
	for _, entry := range entries {
		entry.ID = f.nextHistoryID
		f.nextHistoryID++
		entry.CreatedAt = time.Now()
		f.history = append(f.history, entry)
	}
	return nil
}

func (f *fakeWorkRepository) ListHistory(taskID int) ([]models.FlatHistoryEntry, error) {
	var entries []models.FlatHistoryEntry
	for _, entry := range f.history {
		if entry.TaskID != taskID {
			continue
		}
		flat := models.FlatHistoryEntry{TaskHistoryEntry: entry}
		if user, ok := f.users[entry.ActorID]; ok {
			flat.ActorFullName = user.FullName
		}
		entries = append(entries, flat)
	}
	return entries, nil
}

func (f *fakeWorkRepository) FindActiveUserIDs(userIDs []int) ([]int, error) {
	var active []int
	for _, id := range userIDs {
		if user, ok := f.users[id]; ok && user.Active {
			active = append(active, id)
		}
	}
	return active, nil
}

func (f *fakeWorkRepository) GetAgent(id int) (*models.Agent, error) {
	agent, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *agent
	return &copied, nil
}

func (f *fakeWorkRepository) ListAgents() ([]models.Agent, error) {
	var agents []models.Agent
	for _, agent := range f.users {
		if agent.Active {
			agents = append(agents, *agent)
		}
	}
	return agents, nil
}

func (f *fakeWorkRepository) historyFor(taskID int) []models.TaskHistoryEntry {
	var entries []models.TaskHistoryEntry
	for _, entry := range f.history {
		if entry.TaskID == taskID {
			entries = append(entries, entry)
		}
	}
	return entries
}

var (
	manager  = models.Principal{ID: 1, Role: roles.Admin, Active: true}
	teamLead = models.Principal{ID: 2, Role: roles.User, Active: true, IsTeamLead: true}
	agent    = models.Principal{ID: 3, Role: roles.User, Active: true}
	outsider = models.Principal{ID: 5, Role: roles.User, Active: true}
)

func newBoard(t *testing.T) (*TaskService, *fakeWorkRepository, *models.TaskView) {
	t.Helper()
	repo := newFakeWorkRepository()
	service := NewTaskService(repo, fakeUnitOfWork{})

	equipment, err := service.CreateEquipment(manager, CreateEquipmentRequest{
		Name:         "Portail coulissant",
		DeliveryDate: "2026-05-01",
	})
	assert.NoError(t, err)

	due := "2026-04-20"
	view, err := service.CreateTask(manager, equipment.ID, CreateTaskRequest{
		Title:       "Découpe des montants",
		DueDate:     &due,
		AssigneeIDs: []int{3},
	})
	assert.NoError(t, err)

	return service, repo, view
}

func TestCreateEquipmentRequiresWorkManager(t *testing.T) {
	repo := newFakeWorkRepository()
	service := NewTaskService(repo, fakeUnitOfWork{})

	_, err := service.CreateEquipment(agent, CreateEquipmentRequest{
		Name: "Portail", DeliveryDate: "2026-05-01",
	})

	var forbidden *domain_error.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
	assert.Empty(t, repo.equipments)
}

func TestTeamLeadIsWorkManager(t *testing.T) {
	repo := newFakeWorkRepository()
	service := NewTaskService(repo, fakeUnitOfWork{})

	equipment, err := service.CreateEquipment(teamLead, CreateEquipmentRequest{
		Name: "Escalier hélicoïdal", DeliveryDate: "2026-06-15",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Escalier hélicoïdal", equipment.Name)
	assert.Equal(t, teamLead.ID, *equipment.CreatedByID)
}

func TestCreateTaskWritesCreateHistory(t *testing.T) {
	_, repo, view := newBoard(t)

	assert.Equal(t, models.StatusTodo, view.Status)
	assert.Equal(t, models.PriorityMedium, view.Priority)
	assert.Len(t, view.Assignees, 1)
	assert.Equal(t, "Jean Morel", view.Assignees[0].FullName)

	entries := repo.historyFor(view.ID)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreate, entries[0].ActionType)
	assert.Equal(t, manager.ID, entries[0].ActorID)
	assert.Contains(t, *entries[0].ToValue, `"title":"Découpe des montants"`)
	assert.Contains(t, *entries[0].ToValue, `"due_date":"2026-04-20"`)
}

func TestCreateTaskRejectsInactiveAssignee(t *testing.T) {
	service, repo, view := newBoard(t)

	due := "2026-04-25"
	_, err := service.CreateTask(manager, view.Equipment.ID, CreateTaskRequest{
		Title:       "Pose des gonds",
		DueDate:     &due,
		AssigneeIDs: []int{3, 8}, // 8 is deactivated
	})

	var invalid *domain_error.InvalidAssigneesError
	assert.ErrorAs(t, err, &invalid)
	assert.Len(t, repo.tasks, 1)
}

func TestCreateTaskOnArchivedEquipmentConflicts(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	_, err = service.CreateTask(manager, view.Equipment.ID, CreateTaskRequest{Title: "Tâche tardive"})

	var conflict *domain_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestUpdateTaskRequiresWorkManager(t *testing.T) {
	service, _, view := newBoard(t)

	title := "Autre titre"
	_, err := service.UpdateTask(agent, view.ID, UpdateTaskRequest{Title: &title})

	var forbidden *domain_error.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestUpdateTaskEmptyDiffConflicts(t *testing.T) {
	service, repo, view := newBoard(t)

	title := view.Title
	_, err := service.UpdateTask(manager, view.ID, UpdateTaskRequest{Title: &title})

	var conflict *domain_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Len(t, repo.historyFor(view.ID), 1) // only the CREATE entry
}

func TestUpdateTaskRecordsOneEntryPerField(t *testing.T) {
	service, repo, view := newBoard(t)

	title := "Découpe et ébavurage des montants"
	priority := models.PriorityHigh
	assignees := []int{3, 5}
	updated, err := service.UpdateTask(teamLead, view.ID, UpdateTaskRequest{
		Title:       &title,
		Priority:    &priority,
		AssigneeIDs: &assignees,
	})

	assert.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Len(t, updated.Assignees, 2)
	assert.Equal(t, teamLead.ID, updated.UpdatedByID)

	entries := repo.historyFor(view.ID)
	assert.Len(t, entries, 4) // CREATE + title + priority + assignees

	fields := map[string]bool{}
	for _, entry := range entries[1:] {
		fields[*entry.Field] = true
		assert.Equal(t, teamLead.ID, entry.ActorID)
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["priority"])
	assert.True(t, fields["assignees"])
}

func TestSetTaskStatusByAssignee(t *testing.T) {
	service, repo, view := newBoard(t)

	updated, err := service.SetTaskStatus(agent, view.ID, models.StatusInProgress)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	entries := repo.historyFor(view.ID)
	assert.Len(t, entries, 2)
	assert.Equal(t, models.ActionStatusChanged, entries[1].ActionType)
	assert.Equal(t, "TODO", *entries[1].FromValue)
	assert.Equal(t, "IN_PROGRESS", *entries[1].ToValue)
}

func TestSetTaskStatusByNonAssigneeForbidden(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetTaskStatus(outsider, view.ID, models.StatusInProgress)

	var forbidden *domain_error.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestSetTaskStatusNoOpLeavesNoHistory(t *testing.T) {
	service, repo, view := newBoard(t)

	updated, err := service.SetTaskStatus(agent, view.ID, models.StatusTodo)

	assert.NoError(t, err)
	assert.Equal(t, models.StatusTodo, updated.Status)
	assert.Len(t, repo.historyFor(view.ID), 1)
}

func TestSetTaskStatusOnArchivedTaskConflicts(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetTaskArchived(manager, view.ID, true)
	assert.NoError(t, err)

	_, err = service.SetTaskStatus(manager, view.ID, models.StatusDone)

	var conflict *domain_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestArchiveAndUnarchiveTask(t *testing.T) {
	service, repo, view := newBoard(t)

	archived, err := service.SetTaskArchived(manager, view.ID, true)
	assert.NoError(t, err)
	assert.NotNil(t, archived.ArchivedAt)
	assert.False(t, archived.IsOverdue)

	restored, err := service.SetTaskArchived(manager, view.ID, false)
	assert.NoError(t, err)
	assert.Nil(t, restored.ArchivedAt)

	entries := repo.historyFor(view.ID)
	assert.Len(t, entries, 3)
	assert.Equal(t, models.ActionArchived, entries[1].ActionType)
	assert.Equal(t, models.ActionUnarchived, entries[2].ActionType)
}

func TestTaskHistoryIsManagerOnly(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.TaskHistory(agent, view.ID)
	var forbidden *domain_error.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	history, err := service.TaskHistory(teamLead, view.ID)
	assert.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, models.ActionCreate, history[0].ActionType)
	assert.Equal(t, manager.ID, history[0].Actor.ID)
}

func TestListEquipmentsSummaries(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetTaskStatus(agent, view.ID, models.StatusInProgress)
	assert.NoError(t, err)

	views, err := service.ListEquipments(false)
	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, 1, views[0].TaskSummary.Total)
	assert.Equal(t, 1, views[0].TaskSummary.InProgress)
	assert.Equal(t, 0, views[0].TaskSummary.Todo)
}

func TestAgentKanban(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetTaskStatus(agent, view.ID, models.StatusControl)
	assert.NoError(t, err)

	board, err := service.AgentKanban(agent.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Jean Morel", board.Agent.FullName)
	assert.Len(t, board.Columns, 4)
	assert.Empty(t, board.Columns[0].Tasks)
	assert.Len(t, board.Columns[2].Tasks, 1)
}

func TestAgentKanbanInactiveAgentConflicts(t *testing.T) {
	service, _, _ := newBoard(t)

	_, err := service.AgentKanban(8)

	var conflict *domain_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestEquipmentArchiveIsIdempotent(t *testing.T) {
	service, _, view := newBoard(t)

	first, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)
	assert.NotNil(t, first.ArchivedAt)

	second, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, first.ArchivedAt, second.ArchivedAt)
}

func TestSetTaskStatusUnderArchivedEquipmentConflicts(t *testing.T) {
	service, repo, view := newBoard(t)

	_, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	_, err = service.SetTaskStatus(manager, view.ID, models.StatusInProgress)

	var conflict *domain_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.StatusTodo, repo.tasks[view.ID].Status)
	assert.Len(t, repo.historyFor(view.ID), 1) // only the CREATE entry
}

func TestUpdateTaskUnderArchivedEquipmentConflicts(t *testing.T) {
	service, repo, view := newBoard(t)

	_, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	title := "Découpe reprise"
	_, err = service.UpdateTask(manager, view.ID, UpdateTaskRequest{Title: &title})

	var conflict *domain_error.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Découpe des montants", repo.tasks[view.ID].Title)
}

func TestAgentKanbanExcludesTasksUnderArchivedEquipment(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	board, err := service.AgentKanban(agent.ID)
	assert.NoError(t, err)

	total := 0
	for _, column := range board.Columns {
		total += len(column.Tasks)
	}
	assert.Equal(t, 0, total)
}

func TestListTasksHidesTasksUnderArchivedEquipment(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	active, err := service.ListTasks(false)
	assert.NoError(t, err)
	assert.Empty(t, active)

	archived, err := service.ListTasks(true)
	assert.NoError(t, err)
	assert.Len(t, archived, 1)
	assert.Equal(t, view.ID, archived[0].ID)
}

func TestListEquipmentTasksScopedToEquipment(t *testing.T) {
	service, _, view := newBoard(t)

	other, err := service.CreateEquipment(manager, CreateEquipmentRequest{
		Name:         "Garde-corps",
		DeliveryDate: "2026-07-01",
	})
	assert.NoError(t, err)
	_, err = service.CreateTask(manager, other.ID, CreateTaskRequest{Title: "Cintrage des lisses"})
	assert.NoError(t, err)

	tasks, err := service.ListEquipmentTaskViews(view.Equipment.ID, false)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, view.ID, tasks[0].ID)

	_, err = service.ListEquipmentTaskViews(99, false)
	var notFound *domain_error.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestListEquipmentTasksEmptyForArchivedParent(t *testing.T) {
	service, _, view := newBoard(t)

	_, err := service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	tasks, err := service.ListEquipmentTaskViews(view.Equipment.ID, false)
	assert.NoError(t, err)
	assert.Empty(t, tasks)

	tasks, err = service.ListEquipmentTaskViews(view.Equipment.ID, true)
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestListEquipmentsArchivedViewReturnsOnlyArchived(t *testing.T) {
	service, _, view := newBoard(t)

	other, err := service.CreateEquipment(manager, CreateEquipmentRequest{
		Name:         "Garde-corps",
		DeliveryDate: "2026-07-01",
	})
	assert.NoError(t, err)

	_, err = service.SetEquipmentArchived(manager, view.Equipment.ID, true)
	assert.NoError(t, err)

	archived, err := service.ListEquipments(true)
	assert.NoError(t, err)
	assert.Len(t, archived, 1)
	assert.Equal(t, view.Equipment.ID, archived[0].ID)

	active, err := service.ListEquipments(false)
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, other.ID, active[0].ID)
}
