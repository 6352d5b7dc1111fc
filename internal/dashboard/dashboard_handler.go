package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockatelier/internal/materials"
	"stockatelier/internal/movements"
	"stockatelier/internal/repository"
	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
)

// StockStats buckets active materials by stock level. A material at
// zero is critical; at or under its alert threshold it is low.
type StockStats struct {
	Total    int `json:"total"`
	OK       int `json:"ok"`
	Low      int `json:"low"`
	Critical int `json:"critical"`
}

type Dashboard struct {
	Stats           StockStats            `json:"stats"`
	Alerts          []models.Material     `json:"alerts"`
	RecentMovements []models.MovementView `json:"recent_movements"`
}

type DashboardHandler struct {
	materials materials.MaterialRepository
	ledger    *movements.LedgerService
}

func NewDashboardHandler(r *repository.Repository) *DashboardHandler {
	return &DashboardHandler{
		materials: materials.NewRepository(r),
		ledger:    movements.NewLedgerService(movements.NewRepository(r), r),
	}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard", h.GetDashboard)
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	activeMaterials, err := h.materials.GetMaterials()
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	recentMovements, err := h.ledger.ListMovements(10)
	if err != nil {
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	dashboard := Dashboard{
		Alerts:          []models.Material{},
		RecentMovements: recentMovements,
	}
	for _, material := range activeMaterials {
		dashboard.Stats.Total++
		switch {
		case material.Quantity == 0:
			dashboard.Stats.Critical++
		case material.Quantity <= material.AlertThreshold:
			dashboard.Stats.Low++
		default:
			dashboard.Stats.OK++
		}

		if material.Quantity <= material.AlertThreshold {
			dashboard.Alerts = append(dashboard.Alerts, material)
		}
	}

	c.JSON(http.StatusOK, dashboard)
}
