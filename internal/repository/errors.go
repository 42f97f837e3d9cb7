package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Common repository errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrConflict            = errors.New("concurrent update conflict")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrTransactionRequired = errors.New("operation must run inside a transaction")
	ErrStaleStatus         = errors.New("order status changed concurrently")
)

// Postgres SQLSTATEs for transactions that lost a race and may be retried.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// InsufficientStockError names the inventory entry that could not cover a request.
type InsufficientStockError struct {
	Key       string
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	item := e.Key
	if e.Name != "" {
		item = e.Name
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", item, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InsufficientMaterialError names the raw material a production run could not draw down.
type InsufficientMaterialError struct {
	MaterialID string
	Name       string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientMaterialError) Error() string {
	return fmt.Sprintf("insufficient %s: requested %s, available %s", e.Name, e.Requested, e.Available)
}

func (e *InsufficientMaterialError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// IsRetryable reports whether err is a transaction conflict worth retrying.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// translate maps driver errors onto the repository's sentinel errors.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrDuplicateKey)
	case IsRetryable(err):
		return fmt.Errorf("%s: %w: %w", what, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
