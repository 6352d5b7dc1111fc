package work

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
)

type unitOfWork interface {
	WithinTransaction(fn func(tx *goqu.TxDatabase) error) error
}

// TaskService owns the work board rules: who may mutate what, how a
// task moves between statuses, and the audit trail every change leaves
// behind.
type TaskService struct {
	repo WorkRepository
	uow  unitOfWork
}

func NewTaskService(repo WorkRepository, uow unitOfWork) *TaskService {
	return &TaskService{repo: repo, uow: uow}
}

func (s *TaskService) CreateEquipment(principal models.Principal, request CreateEquipmentRequest) (*models.WorkEquipment, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	deliveryDate, err := parseDateOnly(request.DeliveryDate)
	if err != nil {
		return nil, err
	}
	if deliveryDate == nil {
		return nil, &domain_error.ValidationError{Message: "La date de livraison est obligatoire"}
	}

	equipment := &models.WorkEquipment{
		Name:         strings.TrimSpace(request.Name),
		DeliveryDate: *deliveryDate,
		CreatedByID:  &principal.ID,
	}

	return s.repo.InsertEquipment(equipment)
}

func (s *TaskService) UpdateEquipment(principal models.Principal, equipmentID int, request UpdateEquipmentRequest) (*models.WorkEquipment, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	equipment, err := s.repo.GetEquipment(equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, &domain_error.NotFoundError{Resource: "equipment"}
	}

	updates := goqu.Record{}
	if request.Name != nil {
		updates["name"] = strings.TrimSpace(*request.Name)
	}
	if request.DeliveryDate != nil {
		deliveryDate, err := parseDateOnly(*request.DeliveryDate)
		if err != nil {
			return nil, err
		}
		if deliveryDate == nil {
			return nil, &domain_error.ValidationError{Message: "La date de livraison est obligatoire"}
		}
		updates["delivery_date"] = *deliveryDate
	}
	if len(updates) == 0 {
		return nil, &domain_error.ConflictError{Message: "Aucune modification détectée"}
	}

	if err := s.repo.UpdateEquipment(equipmentID, updates); err != nil {
		return nil, err
	}

	return s.repo.GetEquipment(equipmentID)
}

func (s *TaskService) SetEquipmentArchived(principal models.Principal, equipmentID int, archived bool) (*models.WorkEquipment, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	equipment, err := s.repo.GetEquipment(equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, &domain_error.NotFoundError{Resource: "equipment"}
	}

	if archived == (equipment.ArchivedAt != nil) {
		return equipment, nil
	}

	updates := goqu.Record{"archived_at": nil}
	if archived {
		updates["archived_at"] = goqu.L("NOW()")
	}
	if err := s.repo.UpdateEquipment(equipmentID, updates); err != nil {
		return nil, err
	}

	return s.repo.GetEquipment(equipmentID)
}

// ListEquipments returns equipment views with per-status task counts.
// The active view puts overdue equipments first, then sorts by delivery
// date; the archived view keeps plain delivery-date order.
func (s *TaskService) ListEquipments(archived bool) ([]models.EquipmentView, error) {
	equipments, err := s.repo.ListEquipments(archived)
	if err != nil {
		return nil, err
	}

	equipmentIDs := make([]int, 0, len(equipments))
	for _, equipment := range equipments {
		equipmentIDs = append(equipmentIDs, equipment.ID)
	}

	tasksByEquipment, err := s.repo.ListEquipmentTasks(equipmentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.EquipmentView, 0, len(equipments))
	for _, equipment := range equipments {
		views = append(views, models.EquipmentView{
			WorkEquipment: equipment,
			IsOverdue:     IsEquipmentOverdue(&equipment),
			TaskSummary:   summarizeTasks(tasksByEquipment[equipment.ID]),
		})
	}

	if !archived {
		sort.SliceStable(views, func(i, j int) bool {
			if views[i].IsOverdue != views[j].IsOverdue {
				return views[i].IsOverdue
			}
			return views[i].DeliveryDate.Before(views[j].DeliveryDate)
		})
	}

	return views, nil
}

func (s *TaskService) GetEquipment(equipmentID int) (*models.EquipmentView, error) {
	equipment, err := s.repo.GetEquipment(equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, &domain_error.NotFoundError{Resource: "equipment"}
	}

	tasksByEquipment, err := s.repo.ListEquipmentTasks([]int{equipmentID})
	if err != nil {
		return nil, err
	}

	return &models.EquipmentView{
		WorkEquipment: *equipment,
		IsOverdue:     IsEquipmentOverdue(equipment),
		TaskSummary:   summarizeTasks(tasksByEquipment[equipmentID]),
	}, nil
}

func (s *TaskService) CreateTask(principal models.Principal, equipmentID int, request CreateTaskRequest) (*models.TaskView, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	equipment, err := s.repo.GetEquipment(equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, &domain_error.NotFoundError{Resource: "equipment"}
	}
	if equipment.ArchivedAt != nil {
		return nil, &domain_error.ConflictError{Message: "Impossible d'ajouter une tâche à un équipement archivé"}
	}

	status := models.StatusTodo
	if request.Status != nil {
		if !request.Status.IsValid() {
			return nil, &domain_error.ValidationError{Message: "Statut invalide: " + string(*request.Status)}
		}
		status = *request.Status
	}

	priority := models.PriorityMedium
	if request.Priority != nil {
		if !request.Priority.IsValid() {
			return nil, &domain_error.ValidationError{Message: "Priorité invalide: " + string(*request.Priority)}
		}
		priority = *request.Priority
	}

	due, err := parseOptionalDate(request.DueDate)
	if err != nil {
		return nil, err
	}

	assigneeIDs, err := s.ensureAssignees(request.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	task := &models.WorkTask{
		EquipmentID:   equipmentID,
		Title:         strings.TrimSpace(request.Title),
		Status:        status,
		DueDate:       due,
		EstimatedDays: request.EstimatedDays,
		Priority:      priority,
		Notes:         normalizedNotes(request.Notes),
		CreatedByID:   principal.ID,
		UpdatedByID:   principal.ID,
	}

	err = s.uow.WithinTransaction(func(tx *goqu.TxDatabase) error {
		if _, err := s.repo.InsertTask(tx, task, assigneeIDs); err != nil {
			return err
		}

		snapshot := createSnapshot(task, assigneeIDs)
		return s.repo.InsertHistory(tx, []models.TaskHistoryEntry{{
			TaskID:     task.ID,
			ActorID:    principal.ID,
			ActionType: models.ActionCreate,
			ToValue:    &snapshot,
		}})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetTaskView(task.ID)
}

func (s *TaskService) GetTask(taskID int) (*models.TaskView, error) {
	view, err := s.repo.GetTaskView(taskID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, &domain_error.NotFoundError{Resource: "task"}
	}

	return view, nil
}

// ListTasks serves the global task board. The active view hides tasks
// whose parent equipment is archived; the archived view collects tasks
// that are archived themselves or live under an archived equipment.
func (s *TaskService) ListTasks(archived bool) ([]models.TaskView, error) {
	return s.repo.ListTaskViews(archived)
}

// ListEquipmentTaskViews lists one equipment's tasks in creation order.
// An archived equipment exposes its tasks only when includeArchived is
// set; otherwise the list is empty.
func (s *TaskService) ListEquipmentTaskViews(equipmentID int, includeArchived bool) ([]models.TaskView, error) {
	equipment, err := s.repo.GetEquipment(equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, &domain_error.NotFoundError{Resource: "equipment"}
	}
	if equipment.ArchivedAt != nil && !includeArchived {
		return []models.TaskView{}, nil
	}

	return s.repo.ListTaskViewsByEquipment(equipmentID, includeArchived)
}

// UpdateTask applies a partial patch. Every changed field yields one
// history entry; a patch that changes nothing is rejected so the trail
// never records empty updates.
func (s *TaskService) UpdateTask(principal models.Principal, taskID int, request UpdateTaskRequest) (*models.TaskView, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &domain_error.NotFoundError{Resource: "task"}
	}
	if err := s.ensureTaskMutable(task); err != nil {
		return nil, err
	}

	if request.Status != nil && !request.Status.IsValid() {
		return nil, &domain_error.ValidationError{Message: "Statut invalide: " + string(*request.Status)}
	}
	if request.Priority != nil && !request.Priority.IsValid() {
		return nil, &domain_error.ValidationError{Message: "Priorité invalide: " + string(*request.Priority)}
	}

	patch := TaskPatch{
		Title:    request.Title,
		Status:   request.Status,
		Priority: request.Priority,
	}
	if request.DueDate != nil {
		due, err := parseOptionalDate(request.DueDate)
		if err != nil {
			return nil, err
		}
		patch.DueDate = due
		patch.DueDateSet = true
	}
	if request.EstimatedDays != nil {
		patch.EstimatedDays = request.EstimatedDays
		patch.EstimatedDaysSet = true
	}
	if request.Notes != nil {
		patch.Notes = request.Notes
		patch.NotesSet = true
	}

	var currentAssignees []int
	if request.AssigneeIDs != nil {
		validated, err := s.ensureAssignees(*request.AssigneeIDs)
		if err != nil {
			return nil, err
		}
		currentAssignees, err = s.repo.GetTaskAssigneeIDs(taskID)
		if err != nil {
			return nil, err
		}
		patch.AssigneeIDs = validated
		patch.AssigneesSet = true
	}

	changes := diffTask(task, currentAssignees, patch)
	if changes.isEmpty() {
		return nil, &domain_error.ConflictError{Message: "Aucune modification détectée"}
	}

	for i := range changes.entries {
		changes.entries[i].TaskID = taskID
		changes.entries[i].ActorID = principal.ID
	}

	err = s.uow.WithinTransaction(func(tx *goqu.TxDatabase) error {
		if len(changes.updates) > 0 {
			changes.updates["updated_by_id"] = principal.ID
			if err := s.repo.UpdateTask(tx, taskID, changes.updates); err != nil {
				return err
			}
		}
		if changes.assigneesChanged {
			if err := s.repo.ReplaceAssignees(tx, taskID, patch.AssigneeIDs); err != nil {
				return err
			}
		}
		return s.repo.InsertHistory(tx, changes.entries)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetTaskView(taskID)
}

// SetTaskStatus is the one task mutation assignees may perform
// themselves. Setting the current status again is a no-op and leaves
// no history.
func (s *TaskService) SetTaskStatus(principal models.Principal, taskID int, status models.TaskStatus) (*models.TaskView, error) {
	if !status.IsValid() {
		return nil, &domain_error.ValidationError{Message: "Statut invalide: " + string(status)}
	}

	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &domain_error.NotFoundError{Resource: "task"}
	}
	if err := s.ensureTaskMutable(task); err != nil {
		return nil, err
	}

	if !principal.IsWorkManager() {
		assigneeIDs, err := s.repo.GetTaskAssigneeIDs(taskID)
		if err != nil {
			return nil, err
		}
		if !containsInt(assigneeIDs, principal.ID) {
			return nil, &domain_error.ForbiddenError{Message: "Seuls les assignés peuvent changer le statut"}
		}
	}

	if status == task.Status {
		return s.repo.GetTaskView(taskID)
	}

	from := string(task.Status)
	to := string(status)
	err = s.uow.WithinTransaction(func(tx *goqu.TxDatabase) error {
		updates := goqu.Record{"status": status, "updated_by_id": principal.ID}
		if err := s.repo.UpdateTask(tx, taskID, updates); err != nil {
			return err
		}
		return s.repo.InsertHistory(tx, []models.TaskHistoryEntry{
			fieldEntryFor(taskID, principal.ID, models.ActionStatusChanged, "status", &from, &to),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetTaskView(taskID)
}

func (s *TaskService) SetTaskArchived(principal models.Principal, taskID int, archived bool) (*models.TaskView, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &domain_error.NotFoundError{Resource: "task"}
	}

	if archived == (task.ArchivedAt != nil) {
		return s.repo.GetTaskView(taskID)
	}

	action := models.ActionUnarchived
	updates := goqu.Record{"archived_at": nil, "updated_by_id": principal.ID}
	if archived {
		action = models.ActionArchived
		updates["archived_at"] = goqu.L("NOW()")
	}

	err = s.uow.WithinTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateTask(tx, taskID, updates); err != nil {
			return err
		}
		return s.repo.InsertHistory(tx, []models.TaskHistoryEntry{{
			TaskID:     taskID,
			ActorID:    principal.ID,
			ActionType: action,
		}})
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetTaskView(taskID)
}

// TaskHistory is manager-only: the audit trail exposes actor names and
// raw field transitions.
func (s *TaskService) TaskHistory(principal models.Principal, taskID int) ([]models.HistoryView, error) {
	if !principal.IsWorkManager() {
		return nil, &domain_error.ForbiddenError{Message: "Réservé aux responsables d'atelier"}
	}

	task, err := s.repo.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &domain_error.NotFoundError{Resource: "task"}
	}

	entries, err := s.repo.ListHistory(taskID)
	if err != nil {
		return nil, err
	}

	views := make([]models.HistoryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, models.HistoryView{
			ID:         entry.ID,
			ActionType: entry.ActionType,
			Field:      entry.Field,
			FromValue:  entry.FromValue,
			ToValue:    entry.ToValue,
			CreatedAt:  entry.CreatedAt,
			Actor:      models.ActorRef{ID: entry.ActorID, FullName: entry.ActorFullName},
		})
	}

	return views, nil
}

// AgentKanban groups an agent's open tasks into one column per status.
func (s *TaskService) AgentKanban(agentID int) (*KanbanBoard, error) {
	agent, err := s.repo.GetAgent(agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, &domain_error.NotFoundError{Resource: "agent"}
	}
	if !agent.Active {
		return nil, &domain_error.ConflictError{Message: "Cet agent est désactivé"}
	}

	tasks, err := s.repo.ListAgentTaskViews(agentID)
	if err != nil {
		return nil, err
	}

	return &KanbanBoard{
		Agent:   *agent,
		Columns: groupTasksByStatus(tasks),
	}, nil
}

func (s *TaskService) ListAgents() ([]models.Agent, error) {
	return s.repo.ListAgents()
}

// ensureTaskMutable rejects writes on an archived task and on a task
// whose parent equipment is archived.
func (s *TaskService) ensureTaskMutable(task *models.WorkTask) error {
	if task.ArchivedAt != nil {
		return &domain_error.ConflictError{Message: "Impossible de modifier une tâche archivée"}
	}

	equipment, err := s.repo.GetEquipment(task.EquipmentID)
	if err != nil {
		return err
	}
	if equipment != nil && equipment.ArchivedAt != nil {
		return &domain_error.ConflictError{Message: "Impossible de modifier une tâche d'un équipement archivé"}
	}

	return nil
}

// ensureAssignees deduplicates the requested ids and rejects any that
// do not resolve to an active user.
func (s *TaskService) ensureAssignees(assigneeIDs []int) ([]int, error) {
	unique := sortedUnique(assigneeIDs)
	if len(unique) == 0 {
		return []int{}, nil
	}

	activeIDs, err := s.repo.FindActiveUserIDs(unique)
	if err != nil {
		return nil, err
	}

	active := make(map[int]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	var invalid []int
	for _, id := range unique {
		if !active[id] {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return nil, &domain_error.InvalidAssigneesError{
			Message: fmt.Sprintf("Assignés invalides ou désactivés: %v", invalid),
		}
	}

	return unique, nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	return parseDateOnly(*value)
}

func fieldEntryFor(taskID, actorID int, action models.HistoryAction, field string, from, to *string) models.TaskHistoryEntry {
	entry := fieldEntry(action, field, from, to)
	entry.TaskID = taskID
	entry.ActorID = actorID
	return entry
}

// createSnapshot serializes the initial task state into the CREATE
// history entry.
func createSnapshot(task *models.WorkTask, assigneeIDs []int) string {
	snapshot := map[string]interface{}{
		"title":    task.Title,
		"status":   task.Status,
		"priority": task.Priority,
	}
	if day := dateOnly(task.DueDate); day != nil {
		snapshot["due_date"] = *day
	}
	if task.EstimatedDays != nil {
		snapshot["estimated_days"] = *task.EstimatedDays
	}
	if task.Notes != nil {
		snapshot["notes"] = *task.Notes
	}
	if len(assigneeIDs) > 0 {
		snapshot["assignees"] = assigneeIDs
	}

	raw, _ := json.Marshal(snapshot)
	return string(raw)
}

func containsInt(values []int, target int) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
