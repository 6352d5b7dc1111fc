package movements

import "stockatelier/pkg/models"

type CreateMovementRequest struct {
	MaterialID int                 `json:"material_id" binding:"required,gt=0"`
	Type       models.MovementType `json:"type" binding:"required"`
	Quantity   int                 `json:"quantity" binding:"required,gt=0"`
	Note       string              `json:"note" binding:"omitempty,max=500"`
}
