package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantAction string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "unknown table",
			err:      &SchemaError{Table: "gadgets"},
			wantCode: "SCH001",
		},
		{
			name:     "unknown column",
			err:      &SchemaError{Table: "devices", Column: "colour"},
			wantCode: "SCH002",
		},
		{
			name:     "unsupported table shape",
			err:      &SchemaError{Table: "admin_audit_log", Reason: "table is maintained by the service"},
			wantCode: "SCH003",
		},
		{
			name:       "referenced row names the relation",
			err:        &IntegrityError{Table: "manufacturers", Key: 1, Relation: "devices.manufacturer_id"},
			wantCode:   "INT001",
			wantAction: "Remove or reassign rows in devices.manufacturer_id first",
		},
		{
			name:     "owned row",
			err:      &IntegrityError{Table: "cameras", Relation: "cameras.device_id", Owner: "devices"},
			wantCode: "INT002",
		},
		{
			name:     "unique violation",
			err:      &IntegrityError{Table: "users", Code: "23505"},
			wantCode: "INT003",
		},
		{
			name:     "foreign key violation",
			err:      &IntegrityError{Table: "devices", Code: "23503"},
			wantCode: "INT004",
		},
		{name: "invalid date", err: &ValidationError{Field: "release_date", Message: "invalid date (use YYYY-MM-DD)"}, wantCode: "VAL001"},
		{name: "invalid number", err: &ValidationError{Field: "price", Message: "invalid number"}, wantCode: "VAL002"},
		{name: "invalid integer", err: &ValidationError{Field: "ram_gb", Message: "invalid integer"}, wantCode: "VAL002"},
		{name: "required", err: &ValidationError{Field: "model", Message: "required field is empty"}, wantCode: "VAL003"},
		{name: "malformed key", err: &ValidationError{Field: "key", Value: "x", Message: "malformed key"}, wantCode: "VAL004"},
		{name: "out of range", err: &ValidationError{Field: "warranty_months", Message: "must be at most 120"}, wantCode: "VAL005"},
		{name: "not allowed", err: &ValidationError{Field: "mode", Message: "must be one of: strict, loose"}, wantCode: "VAL006"},
		{name: "nothing to update", err: &ValidationError{Message: "no fields to update"}, wantCode: "VAL007"},
		{name: "other validation", err: &ValidationError{Field: "row_data", Message: "invalid json"}, wantCode: "VAL000"},
		{
			name:     "serialization conflict",
			err:      &TransientError{Op: "insert", Err: &pgconn.PgError{Code: "40001"}},
			wantCode: "DB007",
		},
		{
			name:     "statement timeout",
			err:      &TransientError{Op: "search", Err: &pgconn.PgError{Code: "57014"}},
			wantCode: "DB006",
		},
		{
			name:     "deadline",
			err:      &TransientError{Op: "search", Err: context.DeadlineExceeded},
			wantCode: "DB006",
		},
		{
			name:     "connection lost",
			err:      &TransientError{Op: "ping", Err: errors.New("connection reset by peer")},
			wantCode: "DB004",
		},
		{
			name:     "not found",
			err:      notFound("devices", 99),
			wantCode: "NF001",
		},
		{
			name:     "wrapped kind still maps",
			err:      fmt.Errorf("handler: %w", &SchemaError{Table: "gadgets"}),
			wantCode: "SCH001",
		},
		{
			name:     "untyped duplicate falls back to pattern",
			err:      errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode: "INT003",
		},
		{
			name:     "untyped rate limit",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error gets default",
			err:      errors.New("something weird happened"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q (message %q)", got.Code, tt.wantCode, got.Message)
			}
			if tt.wantAction != "" && got.Action != tt.wantAction {
				t.Errorf("MapError() action = %q, want %q", got.Action, tt.wantAction)
			}
		})
	}
}

func TestClassifyDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"deadline", context.DeadlineExceeded, ErrTransient},
		{"cancelled", context.Canceled, ErrTransient},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ErrTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrTransient},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrTransient},
		{"connection exception", &pgconn.PgError{Code: "08006"}, ErrTransient},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "devices_manufacturer_id_fkey", TableName: "devices"}, ErrIntegrity},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrIntegrity},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "model"}, ErrValidation},
		{"check", &pgconn.PgError{Code: "23514"}, ErrValidation},
		{"bad data", &pgconn.PgError{Code: "22P02"}, ErrValidation},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, ErrSchema},
		{"undefined column", &pgconn.PgError{Code: "42703"}, ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyDBError("op", "devices", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyDBError(%v) = %v, want kind %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyDBError_PassesKindsThrough(t *testing.T) {
	orig := &IntegrityError{Table: "color", Key: 2, Relation: "devices.color_id"}
	if got := classifyDBError("delete", "color", orig); got != error(orig) {
		t.Errorf("classified error was rewrapped: %v", got)
	}
	if classifyDBError("op", "t", nil) != nil {
		t.Error("classifyDBError(nil) should be nil")
	}
}

func TestIntegrityError_NamesRelation(t *testing.T) {
	err := &IntegrityError{Table: "country", Key: 3, Relation: "manufacturers.country_id", Reason: "row is still referenced"}
	if !strings.Contains(err.Error(), "manufacturers.country_id") {
		t.Errorf("Error() = %q, want it to name the relation", err.Error())
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(&IntegrityError{Table: "color", Relation: "devices.color_id"})
	want := "This color record is still in use (Code: INT001). Remove or reassign rows in devices.color_id first"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"typed", &ValidationError{Message: "malformed key"}, true},
		{"pattern", errors.New("connection refused"), true},
		{"unknown", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Fatal("NewUserError(nil) should return nil")
	}

	orig := notFound("devices", 7)
	ue := NewUserError(orig)
	if ue.User.Code != "NF001" {
		t.Errorf("User.Code = %q, want NF001", ue.User.Code)
	}
	if !errors.Is(ue, ErrNotFound) {
		t.Error("UserError should unwrap to the technical error")
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want user message", ue.Error())
	}
}
