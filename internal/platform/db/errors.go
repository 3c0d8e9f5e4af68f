package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Postgres SQLSTATE codes the repositories react to.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// ClassifyError maps driver errors onto shared error kinds, keeping the cause in the chain.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", shared.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case CodeUniqueViolation, CodeForeignKeyViolation, CodeSerializationFailure, CodeDeadlockDetected:
		return fmt.Errorf("%w: %w", shared.ErrConflict, err)
	case CodeCheckViolation:
		return fmt.Errorf("%w: %w", &shared.ValidationError{
			Reason: shared.ReasonInvalidField,
			Fields: []shared.FieldError{{Field: pgErr.ColumnName, Message: "violates " + pgErr.ConstraintName}},
		}, err)
	}
	return err
}

// IsRetryable reports whether the transaction lost a race and may be retried as a whole.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case CodeSerializationFailure, CodeDeadlockDetected:
		return true
	case CodeUniqueViolation:
		return pgErr.ConstraintName == "quotes_number_unique"
	}
	return false
}
