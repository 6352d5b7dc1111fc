package domain_error

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError covers malformed or out-of-range input. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BusinessRuleError signals a category/unit-type mismatch during
// material admission.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// DuplicateMaterialError carries the already-admitted material so the
// caller can route to a stock movement instead of creating a new SKU.
type DuplicateMaterialError struct {
	MaterialID   int
	MaterialName string
}

func (e *DuplicateMaterialError) Error() string {
	return fmt.Sprintf("cette référence existe déjà: %s (id %d)", e.MaterialName, e.MaterialID)
}

type InsufficientStockError struct {
	MaterialID int
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour la matière %d: demandé %d, disponible %d",
		e.MaterialID, e.Requested, e.Available)
}

type InvalidAssigneesError struct {
	Message string
}

func (e *InvalidAssigneesError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " introuvable"
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// ConflictError covers archived-entity mutation attempts, no-op
// updates, the last-active-admin guard and unique-key collisions.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

type UniqueViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23505")
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

type ForeignKeyViolationError struct {
	message string
	code    string // PostgreSQL error code (e.g., "23503")
}

func (e *ForeignKeyViolationError) Error() string {
	return fmt.Sprintf("%s (code: %s)", e.message, e.code)
}

func WrapDBError(message, code string) error {
	switch code {
	case "23505":
		return &UniqueViolationError{message: message, code: code}
	case "23503":
		return &ForeignKeyViolationError{message: "value is still referenced by other resources: " + message, code: code}
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}

// StatusCode maps a domain error to the HTTP status a handler should
// answer with. Unrecognized errors fall through to 500.
func StatusCode(err error) int {
	var (
		validation   *ValidationError
		businessRule *BusinessRuleError
		duplicate    *DuplicateMaterialError
		insufficient *InsufficientStockError
		assignees    *InvalidAssigneesError
		notFound     *NotFoundError
		unauthorized *UnauthorizedError
		forbidden    *ForbiddenError
		conflict     *ConflictError
		unique       *UniqueViolationError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &businessRule), errors.As(err, &assignees):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicate), errors.As(err, &insufficient),
		errors.As(err, &conflict), errors.As(err, &unique):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
