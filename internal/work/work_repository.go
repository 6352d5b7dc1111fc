package work

import (
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"stockatelier/internal/repository"
	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
	"stockatelier/pkg/roles"
)

type WorkRepository interface {
	GetEquipment(equipmentID int) (*models.WorkEquipment, error)
	InsertEquipment(equipment *models.WorkEquipment) (*models.WorkEquipment, error)
	UpdateEquipment(equipmentID int, updates goqu.Record) error
	ListEquipments(archived bool) ([]models.WorkEquipment, error)
	ListEquipmentTasks(equipmentIDs []int) (map[int][]models.WorkTask, error)

	GetTask(taskID int) (*models.WorkTask, error)
	GetTaskAssigneeIDs(taskID int) ([]int, error)
	GetTaskView(taskID int) (*models.TaskView, error)
	ListTaskViews(archived bool) ([]models.TaskView, error)
	ListTaskViewsByEquipment(equipmentID int, includeArchived bool) ([]models.TaskView, error)
	ListAgentTaskViews(agentID int) ([]models.TaskView, error)

	InsertTask(tx *goqu.TxDatabase, task *models.WorkTask, assigneeIDs []int) (*models.WorkTask, error)
	UpdateTask(tx *goqu.TxDatabase, taskID int, updates goqu.Record) error
	ReplaceAssignees(tx *goqu.TxDatabase, taskID int, assigneeIDs []int) error
	InsertHistory(tx *goqu.TxDatabase, entries []models.TaskHistoryEntry) error
	ListHistory(taskID int) ([]models.FlatHistoryEntry, error)

	FindActiveUserIDs(userIDs []int) ([]int, error)
	GetAgent(userID int) (*models.Agent, error)
	ListAgents() ([]models.Agent, error)
}

type PostgresWorkRepository struct {
	repository *repository.Repository
}

func NewWorkRepository(r *repository.Repository) *PostgresWorkRepository {
	return &PostgresWorkRepository{repository: r}
}

var equipmentColumns = []interface{}{
	"id", "name", "delivery_date", "archived_at", "created_by_id", "created_at", "updated_at",
}

var taskColumns = []interface{}{
	"id", "equipment_id", "title", "status", "due_date", "estimated_days",
	"priority", "notes", "archived_at", "created_by_id", "updated_by_id",
	"created_at", "updated_at",
}

func (r *PostgresWorkRepository) GetEquipment(equipmentID int) (*models.WorkEquipment, error) {
	var equipment models.WorkEquipment
	found, err := r.repository.GoquDBWrapper.
		Select(equipmentColumns...).
		From("work_equipments").
		Where(goqu.Ex{"id": equipmentID}).
		ScanStruct(&equipment)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch equipment: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &equipment, nil
}

func (r *PostgresWorkRepository) InsertEquipment(equipment *models.WorkEquipment) (*models.WorkEquipment, error) {
	query := r.repository.GoquDBWrapper.Insert("work_equipments").
		Rows(goqu.Record{
			"name":          equipment.Name,
			"delivery_date": equipment.DeliveryDate,
			"created_by_id": equipment.CreatedByID,
		}).
		Returning(equipmentColumns...)

	if _, err := query.Executor().ScanStruct(equipment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return nil, domain_error.WrapDBError("work_equipments", string(pqErr.Code))
		}
		return nil, fmt.Errorf("failed to insert equipment record: %w", err)
	}

	return equipment, nil
}

func (r *PostgresWorkRepository) UpdateEquipment(equipmentID int, updates goqu.Record) error {
	updates["updated_at"] = time.Now()
	result, err := r.repository.GoquDBWrapper.Update("work_equipments").
		Set(updates).
		Where(goqu.Ex{"id": equipmentID}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to update equipment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated equipment: %w", err)
	}
	if affected == 0 {
		return &domain_error.NotFoundError{Resource: "equipment"}
	}

	return nil
}

func (r *PostgresWorkRepository) ListEquipments(archived bool) ([]models.WorkEquipment, error) {
	query := r.repository.GoquDBWrapper.
		Select(equipmentColumns...).
		From("work_equipments").
		Order(goqu.I("delivery_date").Asc(), goqu.I("id").Asc())
	if archived {
		query = query.Where(goqu.C("archived_at").IsNotNull())
	} else {
		query = query.Where(goqu.C("archived_at").IsNull())
	}

	var equipments []models.WorkEquipment
	if err := query.ScanStructs(&equipments); err != nil {
		return nil, fmt.Errorf("unable to fetch equipments: %w", err)
	}

	return equipments, nil
}

func (r *PostgresWorkRepository) ListEquipmentTasks(equipmentIDs []int) (map[int][]models.WorkTask, error) {
	grouped := make(map[int][]models.WorkTask, len(equipmentIDs))
	if len(equipmentIDs) == 0 {
		return grouped, nil
	}

	var tasks []models.WorkTask
	err := r.repository.GoquDBWrapper.
		Select(taskColumns...).
		From("work_tasks").
		Where(
			goqu.C("equipment_id").In(equipmentIDs),
			goqu.C("archived_at").IsNull(),
		).
		ScanStructs(&tasks)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch equipment tasks: %w", err)
	}

	for _, task := range tasks {
		grouped[task.EquipmentID] = append(grouped[task.EquipmentID], task)
	}

	return grouped, nil
}

func (r *PostgresWorkRepository) GetTask(taskID int) (*models.WorkTask, error) {
	var task models.WorkTask
	found, err := r.repository.GoquDBWrapper.
		Select(taskColumns...).
		From("work_tasks").
		Where(goqu.Ex{"id": taskID}).
		ScanStruct(&task)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch task: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &task, nil
}

func (r *PostgresWorkRepository) GetTaskAssigneeIDs(taskID int) ([]int, error) {
	var assigneeIDs []int
	err := r.repository.GoquDBWrapper.
		Select("user_id").
		From("work_task_assignees").
		Where(goqu.Ex{"task_id": taskID}).
		Order(goqu.I("user_id").Asc()).
		ScanVals(&assigneeIDs)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch task assignees: %w", err)
	}

	return assigneeIDs, nil
}

func (r *PostgresWorkRepository) GetTaskView(taskID int) (*models.TaskView, error) {
	task, err := r.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	views, err := r.assembleTaskViews([]models.WorkTask{*task})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// ListTaskViews partitions the board: the active view holds tasks that
// are live under a live equipment, the archived view everything else.
func (r *PostgresWorkRepository) ListTaskViews(archived bool) ([]models.TaskView, error) {
	query := r.repository.GoquDBWrapper.
		Select(taskColumns...).
		From("work_tasks").
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())
	if archived {
		query = query.Where(goqu.Or(
			goqu.C("archived_at").IsNotNull(),
			goqu.C("equipment_id").In(r.archivedEquipmentIDs()),
		))
	} else {
		query = query.Where(
			goqu.C("archived_at").IsNull(),
			goqu.C("equipment_id").In(r.activeEquipmentIDs()),
		)
	}

	var tasks []models.WorkTask
	if err := query.ScanStructs(&tasks); err != nil {
		return nil, fmt.Errorf("unable to fetch tasks: %w", err)
	}

	return r.assembleTaskViews(tasks)
}

func (r *PostgresWorkRepository) ListTaskViewsByEquipment(equipmentID int, includeArchived bool) ([]models.TaskView, error) {
	query := r.repository.GoquDBWrapper.
		Select(taskColumns...).
		From("work_tasks").
		Where(goqu.Ex{"equipment_id": equipmentID}).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
	if !includeArchived {
		query = query.Where(goqu.C("archived_at").IsNull())
	}

	var tasks []models.WorkTask
	if err := query.ScanStructs(&tasks); err != nil {
		return nil, fmt.Errorf("unable to fetch equipment tasks: %w", err)
	}

	return r.assembleTaskViews(tasks)
}

func (r *PostgresWorkRepository) activeEquipmentIDs() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select("id").
		From("work_equipments").
		Where(goqu.C("archived_at").IsNull())
}

func (r *PostgresWorkRepository) archivedEquipmentIDs() *goqu.SelectDataset {
	return r.repository.GoquDBWrapper.
		Select("id").
		From("work_equipments").
		Where(goqu.C("archived_at").IsNotNull())
}

func (r *PostgresWorkRepository) ListAgentTaskViews(agentID int) ([]models.TaskView, error) {
	var taskIDs []int
	err := r.repository.GoquDBWrapper.
		Select("task_id").
		From("work_task_assignees").
		Where(goqu.Ex{"user_id": agentID}).
		ScanVals(&taskIDs)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch agent task ids: %w", err)
	}
	if len(taskIDs) == 0 {
		return []models.TaskView{}, nil
	}

	var tasks []models.WorkTask
	err = r.repository.GoquDBWrapper.
		Select(taskColumns...).
		From("work_tasks").
		Where(
			goqu.C("id").In(taskIDs),
			goqu.C("archived_at").IsNull(),
			goqu.C("equipment_id").In(r.activeEquipmentIDs()),
		).
		Order(goqu.I("due_date").Asc().NullsLast(), goqu.I("id").Asc()).
		ScanStructs(&tasks)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch agent tasks: %w", err)
	}

	return r.assembleTaskViews(tasks)
}

// assembleTaskViews hydrates tasks with their equipment and assignee
// agents in two batched queries rather than one per task.
func (r *PostgresWorkRepository) assembleTaskViews(tasks []models.WorkTask) ([]models.TaskView, error) {
	views := make([]models.TaskView, 0, len(tasks))
	if len(tasks) == 0 {
		return views, nil
	}

	equipmentIDs := make([]int, 0, len(tasks))
	taskIDs := make([]int, 0, len(tasks))
	for _, task := range tasks {
		equipmentIDs = append(equipmentIDs, task.EquipmentID)
		taskIDs = append(taskIDs, task.ID)
	}

	var equipmentRefs []models.EquipmentRef
	err := r.repository.GoquDBWrapper.
		Select("id", "name", "delivery_date", "archived_at").
		From("work_equipments").
		Where(goqu.C("id").In(equipmentIDs)).
		ScanStructs(&equipmentRefs)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch task equipments: %w", err)
	}

	equipmentByID := make(map[int]models.EquipmentRef, len(equipmentRefs))
	for _, ref := range equipmentRefs {
		equipmentByID[ref.ID] = ref
	}

	type assigneeRow struct {
		TaskID     int        `db:"task_id"`
		UserID     int        `db:"user_id"`
		FullName   string     `db:"full_name"`
		Role       roles.Role `db:"role"`
		Active     bool       `db:"active"`
		IsTeamLead bool       `db:"is_team_lead"`
	}
	var assigneeRows []assigneeRow
	err = r.repository.GoquDBWrapper.
		Select(
			goqu.I("wta.task_id"),
			goqu.I("u.id").As("user_id"),
			goqu.I("u.full_name"),
			goqu.I("u.role"),
			goqu.I("u.active"),
			goqu.I("u.is_team_lead"),
		).
		From(goqu.T("work_task_assignees").As("wta")).
		InnerJoin(
			goqu.T("users").As("u"),
			goqu.On(goqu.Ex{"u.id": goqu.I("wta.user_id")}),
		).
		Where(goqu.I("wta.task_id").In(taskIDs)).
		Order(goqu.I("u.full_name").Asc()).
		ScanStructs(&assigneeRows)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch task assignees: %w", err)
	}

	assigneesByTask := make(map[int][]models.Agent, len(tasks))
	for _, row := range assigneeRows {
		assigneesByTask[row.TaskID] = append(assigneesByTask[row.TaskID], models.Agent{
			ID:         row.UserID,
			FullName:   row.FullName,
			Role:       row.Role,
			Active:     row.Active,
			IsTeamLead: row.IsTeamLead,
		})
	}

	for _, task := range tasks {
		assignees := assigneesByTask[task.ID]
		if assignees == nil {
			assignees = []models.Agent{}
		}
		views = append(views, models.TaskView{
			WorkTask:  task,
			IsOverdue: IsTaskOverdue(&task),
			Equipment: equipmentByID[task.EquipmentID],
			Assignees: assignees,
		})
	}

	return views, nil
}

func (r *PostgresWorkRepository) InsertTask(tx *goqu.TxDatabase, task *models.WorkTask, assigneeIDs []int) (*models.WorkTask, error) {
	query := tx.Insert("work_tasks").
		Rows(goqu.Record{
			"equipment_id":   task.EquipmentID,
			"title":          task.Title,
			"status":         task.Status,
			"due_date":       task.DueDate,
			"estimated_days": task.EstimatedDays,
			"priority":       task.Priority,
			"notes":          task.Notes,
			"created_by_id":  task.CreatedByID,
			"updated_by_id":  task.UpdatedByID,
		}).
		Returning(taskColumns...)

	if _, err := query.Executor().ScanStruct(task); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return nil, domain_error.WrapDBError("work_tasks", string(pqErr.Code))
		}
		return nil, fmt.Errorf("failed to insert task record: %w", err)
	}

	if err := r.ReplaceAssignees(tx, task.ID, assigneeIDs); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *PostgresWorkRepository) UpdateTask(tx *goqu.TxDatabase, taskID int, updates goqu.Record) error {
	updates["updated_at"] = time.Now()
	result, err := tx.Update("work_tasks").
		Set(updates).
		Where(goqu.Ex{"id": taskID}).
		Executor().Exec()
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return domain_error.WrapDBError("work_tasks", string(pqErr.Code))
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated task: %w", err)
	}
	if affected == 0 {
		return &domain_error.NotFoundError{Resource: "task"}
	}

	return nil
}

func (r *PostgresWorkRepository) ReplaceAssignees(tx *goqu.TxDatabase, taskID int, assigneeIDs []int) error {
	if _, err := tx.Delete("work_task_assignees").
		Where(goqu.Ex{"task_id": taskID}).
		Executor().Exec(); err != nil {
		return fmt.Errorf("failed to clear task assignees: %w", err)
	}

	if len(assigneeIDs) == 0 {
		return nil
	}

	rows := make([]goqu.Record, 0, len(assigneeIDs))
	for _, userID := range assigneeIDs {
		rows = append(rows, goqu.Record{"task_id": taskID, "user_id": userID})
	}

	if _, err := tx.Insert("work_task_assignees").Rows(rows).Executor().Exec(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return domain_error.WrapDBError("work_task_assignees", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert task assignees: %w", err)
	}

	return nil
}

func (r *PostgresWorkRepository) InsertHistory(tx *goqu.TxDatabase, entries []models.TaskHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]goqu.Record, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, goqu.Record{
			"task_id":     entry.TaskID,
			"actor_id":    entry.ActorID,
			"action_type": entry.ActionType,
			"field":       entry.Field,
			"from_value":  entry.FromValue,
			"to_value":    entry.ToValue,
		})
	}

	if _, err := tx.Insert("work_task_history").Rows(rows).Executor().Exec(); err != nil {
		return fmt.Errorf("failed to insert task history: %w", err)
	}

	return nil
}

func (r *PostgresWorkRepository) ListHistory(taskID int) ([]models.FlatHistoryEntry, error) {
	var entries []models.FlatHistoryEntry
	err := r.repository.GoquDBWrapper.
		Select(
			goqu.I("h.id"),
			goqu.I("h.task_id"),
			goqu.I("h.actor_id"),
			goqu.I("h.action_type"),
			goqu.I("h.field"),
			goqu.I("h.from_value"),
			goqu.I("h.to_value"),
			goqu.I("h.created_at"),
			goqu.I("u.full_name").As("actor_full_name"),
		).
		From(goqu.T("work_task_history").As("h")).
		InnerJoin(
			goqu.T("users").As("u"),
			goqu.On(goqu.Ex{"u.id": goqu.I("h.actor_id")}),
		).
		Where(goqu.Ex{"h.task_id": taskID}).
		Order(goqu.I("h.created_at").Desc(), goqu.I("h.id").Desc()).
		ScanStructs(&entries)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch task history: %w", err)
	}

	return entries, nil
}

func (r *PostgresWorkRepository) FindActiveUserIDs(userIDs []int) ([]int, error) {
	if len(userIDs) == 0 {
		return []int{}, nil
	}

	var activeIDs []int
	err := r.repository.GoquDBWrapper.
		Select("id").
		From("users").
		Where(
			goqu.C("id").In(userIDs),
			goqu.C("active").IsTrue(),
		).
		ScanVals(&activeIDs)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch active users: %w", err)
	}

	return activeIDs, nil
}

func (r *PostgresWorkRepository) GetAgent(userID int) (*models.Agent, error) {
	var agent models.Agent
	found, err := r.repository.GoquDBWrapper.
		Select("id", "full_name", "role", "active", "is_team_lead").
		From("users").
		Where(goqu.Ex{"id": userID}).
		ScanStruct(&agent)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch agent: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &agent, nil
}

func (r *PostgresWorkRepository) ListAgents() ([]models.Agent, error) {
	var agents []models.Agent
	err := r.repository.GoquDBWrapper.
		Select("id", "full_name", "role", "active", "is_team_lead").
		From("users").
		Where(goqu.C("active").IsTrue()).
		Order(goqu.I("full_name").Asc()).
		ScanStructs(&agents)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch agents: %w", err)
	}

	return agents, nil
}
