package work

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockatelier/internal/repository"
	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/security"
)

type WorkHandler struct {
	Service *TaskService
}

func NewWorkHandler(r *repository.Repository) *WorkHandler {
	workRepo := NewWorkRepository(r)

	return &WorkHandler{
		Service: NewTaskService(workRepo, r),
	}
}

func (h *WorkHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/work/equipments", h.ListEquipments)
	router.POST("/work/equipments", h.CreateEquipment)
	router.GET("/work/equipments/:id", h.GetEquipment)
	router.PATCH("/work/equipments/:id", h.UpdateEquipment)
	router.POST("/work/equipments/:id/archive", h.ArchiveEquipment)
	router.GET("/work/equipments/:id/tasks", h.ListEquipmentTasks)
	router.POST("/work/equipments/:id/tasks", h.CreateTask)

	router.GET("/work/tasks", h.ListTasks)
	router.GET("/work/tasks/:id", h.GetTask)
	router.PATCH("/work/tasks/:id", h.UpdateTask)
	router.PUT("/work/tasks/:id/status", h.SetTaskStatus)
	router.POST("/work/tasks/:id/archive", h.ArchiveTask)
	router.GET("/work/tasks/:id/history", h.TaskHistory)

	router.GET("/work/agents", h.ListAgents)
	router.GET("/work/agents/:id/kanban", h.AgentKanban)
}

func (h *WorkHandler) ListEquipments(c *gin.Context) {
	archived := c.Query("archived") == "true"

	views, err := h.Service.ListEquipments(archived)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *WorkHandler) CreateEquipment(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	var req CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	equipment, err := h.Service.CreateEquipment(principal, req)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, equipment)
}

func (h *WorkHandler) GetEquipment(c *gin.Context) {
	equipmentID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.Service.GetEquipment(equipmentID)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *WorkHandler) UpdateEquipment(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	equipmentID, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	equipment, err := h.Service.UpdateEquipment(principal, equipmentID, req)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, equipment)
}

func (h *WorkHandler) ArchiveEquipment(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	equipmentID, ok := pathID(c)
	if !ok {
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	equipment, err := h.Service.SetEquipmentArchived(principal, equipmentID, req.IsArchived())
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, equipment)
}

func (h *WorkHandler) CreateTask(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	equipmentID, ok := pathID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	view, err := h.Service.CreateTask(principal, equipmentID, req)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *WorkHandler) ListTasks(c *gin.Context) {
	archived := c.Query("archived") == "true"

	views, err := h.Service.ListTasks(archived)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *WorkHandler) ListEquipmentTasks(c *gin.Context) {
	equipmentID, ok := pathID(c)
	if !ok {
		return
	}
	includeArchived := c.Query("include_archived") == "true"

	views, err := h.Service.ListEquipmentTaskViews(equipmentID, includeArchived)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *WorkHandler) GetTask(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.Service.GetTask(taskID)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *WorkHandler) UpdateTask(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	taskID, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	view, err := h.Service.UpdateTask(principal, taskID, req)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *WorkHandler) SetTaskStatus(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	taskID, ok := pathID(c)
	if !ok {
		return
	}

	var req TaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	view, err := h.Service.SetTaskStatus(principal, taskID, req.Status)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *WorkHandler) ArchiveTask(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	taskID, ok := pathID(c)
	if !ok {
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	view, err := h.Service.SetTaskArchived(principal, taskID, req.IsArchived())
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *WorkHandler) TaskHistory(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	taskID, ok := pathID(c)
	if !ok {
		return
	}

	history, err := h.Service.TaskHistory(principal, taskID)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *WorkHandler) ListAgents(c *gin.Context) {
	agents, err := h.Service.ListAgents()
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, agents)
}

func (h *WorkHandler) AgentKanban(c *gin.Context) {
	agentID, ok := pathID(c)
	if !ok {
		return
	}

	board, err := h.Service.AgentKanban(agentID)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, board)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}
