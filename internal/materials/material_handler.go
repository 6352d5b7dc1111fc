package materials

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"stockatelier/internal/repository"

	"github.com/gin-gonic/gin"

	domain_error "stockatelier/pkg/errors"
)

type MaterialHandler struct {
	Repository MaterialRepository
	Catalog    *CatalogService
}

func NewMaterialHandler(r *repository.Repository) *MaterialHandler {
	materialRepo := NewRepository(r)

	return &MaterialHandler{
		Repository: materialRepo,
		Catalog:    NewCatalogService(materialRepo),
	}
}

func (h *MaterialHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/materials", h.ListMaterials)
	router.POST("/materials", h.CreateMaterial)
	router.PATCH("/materials/:id", h.UpdateMaterial)
}

func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	materials, err := h.Repository.GetMaterials()
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to list materials"})
		return
	}

	c.JSON(http.StatusOK, materials)
}

func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	material, err := h.Catalog.AdmitMaterial(req)
	if err != nil {
		var duplicate *domain_error.DuplicateMaterialError
		if errors.As(err, &duplicate) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":                  "Cette référence existe déjà",
				"existing_material_id":   duplicate.MaterialID,
				"existing_material_name": duplicate.MaterialName,
			})
			return
		}
		c.AbortWithStatusJSON(domain_error.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, material)
}

func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	materialID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid material ID", "details": err.Error()})
		return
	}

	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	material, err := h.Repository.GetMaterial(materialID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get material", "details": err.Error()})
		return
	}
	if material == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Matière introuvable"})
		return
	}

	if err := h.Repository.UpdateMaterial(materialID, req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update material", "details": err.Error()})
		return
	}

	updated, err := h.Repository.GetMaterial(materialID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get updated material", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}
