package movements

import (
	"strings"

	"stockatelier/pkg/models"

	"github.com/doug-martin/goqu/v9"

	domain_error "stockatelier/pkg/errors"
)

type unitOfWork interface {
	WithinTransaction(fn func(tx *goqu.TxDatabase) error) error
}

// LedgerService is the only writer of material quantities. Every
// accepted movement appends a ledger record and adjusts the on-hand
// quantity in the same transaction.
type LedgerService struct {
	repo MovementRepository
	uow  unitOfWork
}

func NewLedgerService(repo MovementRepository, uow unitOfWork) *LedgerService {
	return &LedgerService{repo: repo, uow: uow}
}

type MovementResult struct {
	Movement models.Movement `json:"movement"`
	Material models.Material `json:"material"`
}

func (s *LedgerService) RecordMovement(principal models.Principal, req CreateMovementRequest) (*MovementResult, error) {
	if !req.Type.IsValid() {
		return nil, &domain_error.ValidationError{Message: "Type de mouvement invalide: " + string(req.Type)}
	}
	if req.Quantity <= 0 {
		return nil, &domain_error.ValidationError{Message: "La quantité doit être positive"}
	}

	material, err := s.repo.GetMaterial(req.MaterialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, &domain_error.NotFoundError{Resource: "Matière"}
	}

	if req.Type == models.MovementOut && req.Quantity > material.Quantity {
		return nil, &domain_error.InsufficientStockError{
			MaterialID: material.ID,
			Requested:  req.Quantity,
			Available:  material.Quantity,
		}
	}

	movement := models.Movement{
		MaterialID: req.MaterialID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Note:       optionalNote(req.Note),
		UserID:     principal.ID,
	}

	err = s.uow.WithinTransaction(func(tx *goqu.TxDatabase) error {
		var newQuantity int
		var err error

		if req.Type == models.MovementIn {
			newQuantity, err = s.repo.IncreaseQuantity(tx, req.MaterialID, req.Quantity)
		} else {
			newQuantity, err = s.repo.DecreaseQuantity(tx, req.MaterialID, req.Quantity)
		}
		if err != nil {
			return err
		}
		material.Quantity = newQuantity

		movementID, err := s.repo.InsertMovement(tx, &movement)
		if err != nil {
			return err
		}
		movement.ID = movementID

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &MovementResult{Movement: movement, Material: *material}, nil
}

func (s *LedgerService) ListMovements(limit int) ([]models.MovementView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListMovements(limit)
}

func optionalNote(note string) *string {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
