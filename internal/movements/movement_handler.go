package movements

import (
	"log"
	"net/http"
	"strconv"

	"stockatelier/internal/repository"
	"stockatelier/pkg/security"

	"github.com/gin-gonic/gin"

	domain_error "stockatelier/pkg/errors"
)

type MovementHandler struct {
	Ledger *LedgerService
}

func NewMovementHandler(r *repository.Repository) *MovementHandler {
	movementRepo := NewRepository(r)

	return &MovementHandler{
		Ledger: NewLedgerService(movementRepo, r),
	}
}

func (h *MovementHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/movements", h.ListMovements)
	router.POST("/movements", h.CreateMovement)
}

func (h *MovementHandler) ListMovements(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": err.Error()})
			return
		}
		limit = parsed
	}

	movements, err := h.Ledger.ListMovements(limit)
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to list movements"})
		return
	}

	c.JSON(http.StatusOK, movements)
}

func (h *MovementHandler) CreateMovement(c *gin.Context) {
	principal, ok := security.PrincipalFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Non autorisé"})
		return
	}

	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.Ledger.RecordMovement(principal, req)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}
