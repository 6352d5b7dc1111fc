package movements

import (
	"errors"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	domain_error "stockatelier/pkg/errors"
	"stockatelier/pkg/models"
)

// fakeUnitOfWork runs the closure without a database; repositories used
// in these tests ignore the tx handle.
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) WithinTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

// fakeLedgerRepository keeps one material in memory and applies the
// same conditional-decrement rule as the SQL implementation.
type fakeLedgerRepository struct {
	material  models.Material
	movements []models.Movement
	nextID    int
}

func newFakeLedgerRepository(quantity int) *fakeLedgerRepository {
	return &fakeLedgerRepository{
		material: models.Material{ID: 1, Name: "Tube rond acier Ø40 x 2 mm", Quantity: quantity, AlertThreshold: 5},
		nextID:   1,
	}
}

func (f *fakeLedgerRepository) GetMaterial(id int) (*models.Material, error) {
	if id != f.material.ID {
		return nil, nil
	}
	copied := f.material
	return &copied, nil
}

func (f *fakeLedgerRepository) InsertMovement(_ *goqu.TxDatabase, movement *models.Movement) (int, error) {
	id := f.nextID
	f.nextID++
	stored := *movement
	stored.ID = id
	f.movements = append(f.movements, stored)
	return id, nil
}

func (f *fakeLedgerRepository) IncreaseQuantity(_ *goqu.TxDatabase, materialID, quantity int) (int, error) {
	f.material.Quantity += quantity
	return f.material.Quantity, nil
}

func (f *fakeLedgerRepository) DecreaseQuantity(_ *goqu.TxDatabase, materialID, quantity int) (int, error) {
	if f.material.Quantity < quantity {
		return 0, &domain_error.InsufficientStockError{MaterialID: materialID, Requested: quantity}
	}
	f.material.Quantity -= quantity
	return f.material.Quantity, nil
}

func (f *fakeLedgerRepository) ListMovements(limit int) ([]models.MovementView, error) {
	return nil, nil
}

var worker = models.Principal{ID: 9, Role: "USER", Active: true}

func TestRecordMovementScenario(t *testing.T) {
	repo := newFakeLedgerRepository(10)
	service := NewLedgerService(repo, fakeUnitOfWork{})

	// OUT beyond on-hand stock is rejected and leaves quantity unchanged.
	_, err := service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 1, Type: models.MovementOut, Quantity: 12,
	})
	var insufficient *domain_error.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 10, repo.material.Quantity)
	assert.Empty(t, repo.movements)

	// Partial withdrawal succeeds.
	result, err := service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 1, Type: models.MovementOut, Quantity: 4, Note: "découpe châssis",
	})
	assert.NoError(t, err)
	assert.Equal(t, 6, result.Material.Quantity)
	assert.Equal(t, models.MovementOut, result.Movement.Type)
	assert.Equal(t, worker.ID, result.Movement.UserID)
	assert.Len(t, repo.movements, 1)

	// Restock.
	result, err = service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 1, Type: models.MovementIn, Quantity: 20,
	})
	assert.NoError(t, err)
	assert.Equal(t, 26, result.Material.Quantity)
	assert.Len(t, repo.movements, 2)
}

func TestRecordMovementLedgerArithmetic(t *testing.T) {
	repo := newFakeLedgerRepository(100)
	service := NewLedgerService(repo, fakeUnitOfWork{})

	moves := []struct {
		movementType models.MovementType
		quantity     int
	}{
		{models.MovementIn, 15},
		{models.MovementOut, 30},
		{models.MovementOut, 5},
		{models.MovementIn, 2},
		{models.MovementOut, 82},
	}

	expected := 100
	for _, m := range moves {
		_, err := service.RecordMovement(worker, CreateMovementRequest{
			MaterialID: 1, Type: m.movementType, Quantity: m.quantity,
		})
		assert.NoError(t, err)

		if m.movementType == models.MovementIn {
			expected += m.quantity
		} else {
			expected -= m.quantity
		}
	}

	// Replaying the signed movement quantities reproduces the stored
	// on-hand quantity.
	replayed := 100
	for _, m := range repo.movements {
		if m.Type == models.MovementIn {
			replayed += m.Quantity
		} else {
			replayed -= m.Quantity
		}
	}
	assert.Equal(t, expected, repo.material.Quantity)
	assert.Equal(t, replayed, repo.material.Quantity)
	assert.GreaterOrEqual(t, repo.material.Quantity, 0)
}

func TestRecordMovementValidation(t *testing.T) {
	repo := newFakeLedgerRepository(10)
	service := NewLedgerService(repo, fakeUnitOfWork{})

	var validationErr *domain_error.ValidationError

	_, err := service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 1, Type: "TRANSFER", Quantity: 1,
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 1, Type: models.MovementIn, Quantity: 0,
	})
	assert.ErrorAs(t, err, &validationErr)

	var notFound *domain_error.NotFoundError
	_, err = service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 99, Type: models.MovementIn, Quantity: 1,
	})
	assert.ErrorAs(t, err, &notFound)

	assert.Equal(t, 10, repo.material.Quantity)
	assert.Empty(t, repo.movements)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) GetMaterial(id int) (*models.Material, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Material), args.Error(1)
}

func (m *MockMovementRepository) InsertMovement(tx *goqu.TxDatabase, movement *models.Movement) (int, error) {
	args := m.Called(tx, movement)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepository) IncreaseQuantity(tx *goqu.TxDatabase, materialID, quantity int) (int, error) {
	args := m.Called(tx, materialID, quantity)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepository) DecreaseQuantity(tx *goqu.TxDatabase, materialID, quantity int) (int, error) {
	args := m.Called(tx, materialID, quantity)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepository) ListMovements(limit int) ([]models.MovementView, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MovementView), args.Error(1)
}

func TestRecordMovementAbortsWhenInsertFails(t *testing.T) {
	mockRepo := new(MockMovementRepository)
	service := NewLedgerService(mockRepo, fakeUnitOfWork{})

	mockRepo.On("GetMaterial", 1).Return(&models.Material{ID: 1, Quantity: 10}, nil).Once()
	mockRepo.On("IncreaseQuantity", (*goqu.TxDatabase)(nil), 1, 5).Return(15, nil).Once()
	mockRepo.On("InsertMovement", (*goqu.TxDatabase)(nil), mock.Anything).
		Return(0, errors.New("failed to insert movement record")).Once()

	_, err := service.RecordMovement(worker, CreateMovementRequest{
		MaterialID: 1, Type: models.MovementIn, Quantity: 5,
	})

	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}
