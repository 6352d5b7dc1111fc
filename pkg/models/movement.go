package models

import "time"

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

func (t MovementType) IsValid() bool {
	return t == MovementIn || t == MovementOut
}

type Movement struct {
	ID         int          `json:"id" db:"id"`
	MaterialID int          `json:"material_id" db:"material_id"`
	Type       MovementType `json:"type" db:"type"`
	Quantity   int          `json:"quantity" db:"quantity"`
	Note       *string      `json:"note,omitempty" db:"note"`
	UserID     int          `json:"user_id" db:"user_id"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// FlatMovement is the row shape of a movement joined with its material
// and actor, scanned straight from the ledger listing query.
type FlatMovement struct {
	ID           int          `db:"id"`
	MaterialID   int          `db:"material_id"`
	Type         MovementType `db:"type"`
	Quantity     int          `db:"quantity"`
	Note         *string      `db:"note"`
	UserID       int          `db:"user_id"`
	CreatedAt    time.Time    `db:"created_at"`
	MaterialName string       `db:"material_name"`
	MaterialUnit string       `db:"material_unit"`
	UserFullName string       `db:"user_full_name"`
}

type MovementView struct {
	ID           int          `json:"id"`
	MaterialID   int          `json:"material_id"`
	Type         MovementType `json:"type"`
	Quantity     int          `json:"quantity"`
	Note         *string      `json:"note,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	MaterialName string       `json:"material_name"`
	MaterialUnit string       `json:"material_unit"`
	UserID       int          `json:"user_id"`
	UserFullName string       `json:"user_full_name"`
}

func (fm *FlatMovement) TransformToMovementView() MovementView {
	return MovementView{
		ID:           fm.ID,
		MaterialID:   fm.MaterialID,
		Type:         fm.Type,
		Quantity:     fm.Quantity,
		Note:         fm.Note,
		CreatedAt:    fm.CreatedAt,
		MaterialName: fm.MaterialName,
		MaterialUnit: fm.MaterialUnit,
		UserID:       fm.UserID,
		UserFullName: fm.UserFullName,
	}
}
