package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Every error returned by the catalog operations matches
// exactly one of these with errors.Is.
var (
	ErrSchema     = errors.New("schema error")
	ErrIntegrity  = errors.New("integrity error")
	ErrValidation = errors.New("validation error")
	ErrTransient  = errors.New("transient error")
	ErrNotFound   = errors.New("not found")
)

// SchemaError reports an unknown table or column, or a table whose shape
// does not support the requested operation.
type SchemaError struct {
	Table  string
	Column string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("schema: table %q: %s", e.Table, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("schema: unknown column %q in table %q", e.Column, e.Table)
	default:
		return fmt.Sprintf("schema: unknown table %q", e.Table)
	}
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
func (e *SchemaError) Unwrap() error        { return e.Err }

// IntegrityError reports a write refused to keep references consistent.
// Relation names the blocking "table.column".
type IntegrityError struct {
	Table    string
	Key      int64
	Relation string

	// Owner is set when the row belongs to an aggregate and may only be
	// removed through it.
	Owner string

	// Code is the SQLSTATE when the refusal came from the database.
	Code string

	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	b.WriteString("integrity: ")
	if e.Table != "" {
		fmt.Fprintf(&b, "%s", e.Table)
		if e.Key != 0 {
			fmt.Fprintf(&b, " row %d", e.Key)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	if e.Relation != "" {
		fmt.Fprintf(&b, " (%s)", e.Relation)
	}
	return b.String()
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }
func (e *IntegrityError) Unwrap() error        { return e.Err }

// ValidationError reports a caller-supplied value that cannot be stored.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransientError wraps connection loss, timeouts and serialization
// conflicts. The operation was not applied and may be retried by the caller.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Is(target error) bool { return target == ErrTransient }
func (e *TransientError) Unwrap() error        { return e.Err }

// Conflict reports a serialization failure or deadlock.
func (e *TransientError) Conflict() bool {
	var pgErr *pgconn.PgError
	return errors.As(e.Err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

// Timeout reports a deadline or statement timeout.
func (e *TransientError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) || pgconn.Timeout(e.Err) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(e.Err, &pgErr) && pgErr.Code == "57014"
}

func notFound(table string, key int64) error {
	return fmt.Errorf("%s row %d: %w", table, key, ErrNotFound)
}

// isKind reports whether err already carries one of the catalog error kinds.
func isKind(err error) bool {
	return errors.Is(err, ErrSchema) ||
		errors.Is(err, ErrIntegrity) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrNotFound)
}

// classifyDBError maps a driver error onto the catalog error kinds. Errors
// that are already classified pass through unchanged.
func classifyDBError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	if isKind(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, table, ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return &TransientError{Op: op, Err: err}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &TransientError{Op: op, Err: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		if pgconn.SafeToRetry(err) {
			return &TransientError{Op: op, Err: err}
		}
		return fmt.Errorf("%s %s: %w", op, table, err)
	}

	if pgErr.TableName != "" {
		table = pgErr.TableName
	}

	switch {
	case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "57014",
		pgErr.Code == "57P01", pgErr.Code == "53300", strings.HasPrefix(pgErr.Code, "08"):
		return &TransientError{Op: op, Err: err}

	case pgErr.Code == "23503":
		return &IntegrityError{
			Table:    table,
			Relation: relationFromConstraint(pgErr),
			Code:     pgErr.Code,
			Reason:   "foreign key violation",
			Err:      err,
		}

	case pgErr.Code == "23505":
		return &IntegrityError{
			Table:    table,
			Relation: relationFromConstraint(pgErr),
			Code:     pgErr.Code,
			Reason:   "duplicate value",
			Err:      err,
		}

	case pgErr.Code == "23502":
		return &ValidationError{Field: pgErr.ColumnName, Message: "required field is empty"}

	case pgErr.Code == "23514", strings.HasPrefix(pgErr.Code, "22"):
		return &ValidationError{Field: pgErr.ColumnName, Message: pgErr.Message}

	case pgErr.Code == "42P01":
		return &SchemaError{Table: table, Err: err}

	case pgErr.Code == "42703":
		return &SchemaError{Table: table, Column: pgErr.ColumnName, Err: err}
	}

	return fmt.Errorf("%s %s: %w", op, table, err)
}

func relationFromConstraint(pgErr *pgconn.PgError) string {
	switch {
	case pgErr.TableName != "" && pgErr.ColumnName != "":
		return pgErr.TableName + "." + pgErr.ColumnName
	case pgErr.ConstraintName != "":
		return pgErr.ConstraintName
	default:
		return pgErr.TableName
	}
}
