package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInvalidInput indicates missing or malformed request data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates the operation is illegal for the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrQuoteExpired indicates a quote conversion after its validity date.
	ErrQuoteExpired = errors.New("quote expired")
	// ErrOutOfStock indicates at least one product cannot cover the requested quantity.
	ErrOutOfStock = errors.New("out of stock")
	// ErrInvalidReturnQuantity indicates a return above what is still returnable.
	ErrInvalidReturnQuantity = errors.New("invalid return quantity")
	// ErrMissingCustomer indicates a credit operation on a sale without customer.
	ErrMissingCustomer = errors.New("missing customer")
	// ErrInsufficientCredit indicates a liquidation above the available balance.
	ErrInsufficientCredit = errors.New("insufficient credit")
	// ErrConflict indicates a duplicate unique key or a concurrent update.
	ErrConflict = errors.New("conflict")
)

// Invalidf wraps ErrInvalidInput with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidStatef wraps ErrInvalidState with a formatted message.
func InvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Postgres error codes translated by TranslatePgError.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// TranslatePgError maps storage level failures onto domain kinds.
func TranslatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: still referenced by %s", ErrInvalidState, pgErr.TableName)
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: concurrent update, retry the request", ErrConflict)
	}
	return err
}
