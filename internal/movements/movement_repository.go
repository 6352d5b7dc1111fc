package movements

import (
	"fmt"

	"stockatelier/internal/repository"
	"stockatelier/pkg/models"

	"github.com/doug-martin/goqu/v9"

	domain_error "stockatelier/pkg/errors"
)

type MovementRepository interface {
	GetMaterial(id int) (*models.Material, error)
	InsertMovement(tx *goqu.TxDatabase, movement *models.Movement) (int, error)
	IncreaseQuantity(tx *goqu.TxDatabase, materialID, quantity int) (int, error)
	DecreaseQuantity(tx *goqu.TxDatabase, materialID, quantity int) (int, error)
	ListMovements(limit int) ([]models.MovementView, error)
}

type movementRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) MovementRepository {
	return &movementRepositoryImpl{repository: r}
}

func (r *movementRepositoryImpl) GetMaterial(id int) (*models.Material, error) {
	var material models.Material
	query := r.repository.GoquDBWrapper.Select(
		"id", "name", "category", "unit", "unit_type", "quantity", "alert_threshold", "active",
	).From("materials").Where(goqu.Ex{"id": id})

	found, err := query.Executor().ScanStruct(&material)
	if err != nil {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &material, nil
}

func (r *movementRepositoryImpl) InsertMovement(tx *goqu.TxDatabase, movement *models.Movement) (int, error) {
	query := tx.Insert("movements").
		Rows(goqu.Record{
			"material_id": movement.MaterialID,
			"type":        movement.Type,
			"quantity":    movement.Quantity,
			"note":        movement.Note,
			"user_id":     movement.UserID,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, fmt.Errorf("failed to insert movement record: %w", err)
	}

	return id, nil
}

func (r *movementRepositoryImpl) IncreaseQuantity(tx *goqu.TxDatabase, materialID, quantity int) (int, error) {
	query := tx.Update("materials").
		Set(goqu.Record{
			"quantity":   goqu.L("quantity + ?", quantity),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.Ex{"id": materialID}).
		Returning("quantity")

	var newQuantity int
	if _, err := query.Executor().ScanVal(&newQuantity); err != nil {
		return 0, fmt.Errorf("failed to increase quantity for material %d: %w", materialID, err)
	}

	return newQuantity, nil
}

// DecreaseQuantity is a conditional atomic decrement: the WHERE clause
// guards the non-negative-stock invariant so two concurrent OUT
// movements on the same material cannot both succeed past the on-hand
// quantity, whatever the isolation level.
func (r *movementRepositoryImpl) DecreaseQuantity(tx *goqu.TxDatabase, materialID, quantity int) (int, error) {
	query := tx.Update("materials").
		Set(goqu.Record{
			"quantity":   goqu.L("quantity - ?", quantity),
			"updated_at": goqu.L("now()"),
		}).
		Where(goqu.Ex{"id": materialID}).
		Where(goqu.C("quantity").Gte(quantity)).
		Returning("quantity")

	var newQuantity int
	found, err := query.Executor().ScanVal(&newQuantity)
	if err != nil {
		return 0, fmt.Errorf("failed to decrease quantity for material %d: %w", materialID, err)
	}
	if !found {
		return 0, &domain_error.InsufficientStockError{MaterialID: materialID, Requested: quantity}
	}

	return newQuantity, nil
}

func (r *movementRepositoryImpl) ListMovements(limit int) ([]models.MovementView, error) {
	var flatMovements []models.FlatMovement
	query := r.repository.GoquDBWrapper.Select(
		goqu.I("movements.id").As("id"),
		goqu.I("movements.material_id").As("material_id"),
		goqu.I("movements.type").As("type"),
		goqu.I("movements.quantity").As("quantity"),
		goqu.I("movements.note").As("note"),
		goqu.I("movements.user_id").As("user_id"),
		goqu.I("movements.created_at").As("created_at"),
		goqu.I("materials.name").As("material_name"),
		goqu.I("materials.unit").As("material_unit"),
		goqu.I("users.full_name").As("user_full_name"),
	).
		From("movements").
		Join(goqu.T("materials"), goqu.On(goqu.Ex{"materials.id": goqu.I("movements.material_id")})).
		Join(goqu.T("users"), goqu.On(goqu.Ex{"users.id": goqu.I("movements.user_id")})).
		Order(goqu.I("movements.created_at").Desc()).
		Limit(uint(limit))

	if err := query.Executor().ScanStructs(&flatMovements); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	views := make([]models.MovementView, 0, len(flatMovements))
	for i := range flatMovements {
		views = append(views, flatMovements[i].TransformToMovementView())
	}

	return views, nil
}
