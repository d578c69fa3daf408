package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ToPgNumeric Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{name: "positive integer", input: "123", wantValid: true, wantValue: 123},
		{name: "zero", input: "0", wantValid: true, wantValue: 0},
		{name: "negative integer", input: "-456", wantValid: true, wantValue: -456},
		{name: "decimal number", input: "123.45", wantValid: true, wantValue: 123.45},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: 0.99},

		// Prices as typed into forms
		{name: "dollar sign", input: "$1,234.50", wantValid: true, wantValue: 1234.5},
		{name: "ruble suffix", input: "79 990 руб.", wantValid: true, wantValue: 79990},
		{name: "ruble sign", input: "54990₽", wantValid: true, wantValue: 54990},
		{name: "decimal comma", input: "199,99", wantValid: true, wantValue: 199.99},
		{name: "space grouped with decimal comma", input: "1 299,50", wantValid: true, wantValue: 1299.5},
		{name: "non-breaking space grouping", input: "12 000", wantValid: true, wantValue: 12000},
		{name: "accounting negative", input: "(50.25)", wantValid: true, wantValue: -50.25},
		{name: "scientific notation", input: "1.5e3", wantValid: true, wantValue: 1500},

		// Invalid
		{name: "empty string", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "two decimal commas", input: "1,2,3", wantValid: false},
		{name: "double decimal point", input: "1.2.3", wantValid: false},
		{name: "currency only", input: "$", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			f, err := got.Float64Value()
			if err != nil {
				t.Fatalf("Float64Value() error = %v", err)
			}
			if diff := f.Float64 - tt.wantValue; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("ToPgNumeric(%q) = %v, want %v", tt.input, f.Float64, tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgDate / ToPgTimestamptz Tests
// ----------------------------------------------------------------------------

func TestToPgDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantDate  string
	}{
		{name: "ISO", input: "2023-09-22", wantValid: true, wantDate: "2023-09-22"},
		{name: "ISO with slashes", input: "2023/09/22", wantValid: true, wantDate: "2023-09-22"},
		{name: "day first dotted", input: "22.09.2023", wantValid: true, wantDate: "2023-09-22"},
		{name: "day first dotted short", input: "2.9.2023", wantValid: true, wantDate: "2023-09-02"},
		{name: "written month", input: "Sep 22, 2023", wantValid: true, wantDate: "2023-09-22"},
		{name: "day month year", input: "22 Sep 2023", wantValid: true, wantDate: "2023-09-22"},
		{name: "RFC3339 keeps the date", input: "2023-09-22T23:30:00Z", wantValid: true, wantDate: "2023-09-22"},
		{name: "padded", input: "  2024-01-05 ", wantValid: true, wantDate: "2024-01-05"},
		{name: "empty", input: "", wantValid: false},
		{name: "impossible day", input: "2023-02-30", wantValid: false},
		{name: "garbage", input: "yesterday", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgDate(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgDate(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && got.Time.Format("2006-01-02") != tt.wantDate {
				t.Errorf("ToPgDate(%q) = %s, want %s", tt.input, got.Time.Format("2006-01-02"), tt.wantDate)
			}
		})
	}
}

func TestToPgTimestamptz(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      time.Time
	}{
		{"2024-03-01T10:15:00Z", true, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"2024-03-01T10:15:00+02:00", true, time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC)},
		{"2024-03-01 10:15:30", true, time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)},
		{"2024-03-01 10:15", true, time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)},
		{"2024-03-01", true, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"10:15", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToPgTimestamptz(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgTimestamptz(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && !got.Time.Equal(tt.want) {
				t.Errorf("ToPgTimestamptz(%q) = %v, want %v", tt.input, got.Time, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgBool / ToPgText / ToPgInt8 Tests
// ----------------------------------------------------------------------------

func TestToPgBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		wantBool  bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"t", true, true},
		{"yes", true, true},
		{"Y", true, true},
		{"1", true, true},
		{"on", true, true},
		{"false", true, false},
		{"f", true, false},
		{"No", true, false},
		{"0", true, false},
		{"off", true, false},
		{" yes ", true, true},
		{"", false, false},
		{"maybe", false, false},
		{"2", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToPgBool(tt.input)
			if got.Valid != tt.wantValid || got.Bool != tt.wantBool {
				t.Errorf("ToPgBool(%q) = {%v %v}, want {%v %v}", tt.input, got.Bool, got.Valid, tt.wantBool, tt.wantValid)
			}
		})
	}
}

func TestToPgText(t *testing.T) {
	tests := []struct {
		input string
		want  pgtype.Text
	}{
		{"hello", pgtype.Text{String: "hello", Valid: true}},
		{"  padded  ", pgtype.Text{String: "padded", Valid: true}},
		{"", pgtype.Text{}},
		{"   ", pgtype.Text{}},
		{"Москва", pgtype.Text{String: "Москва", Valid: true}},
	}

	for _, tt := range tests {
		if got := ToPgText(tt.input); got != tt.want {
			t.Errorf("ToPgText(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      int64
	}{
		{"42", true, 42},
		{" -7 ", true, -7},
		{"9223372036854775807", true, 9223372036854775807},
		{"9223372036854775808", false, 0},
		{"1,000", false, 0},
		{"1.5", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		got := ToPgInt8(tt.input)
		if got.Valid != tt.wantValid || got.Int64 != tt.want {
			t.Errorf("ToPgInt8(%q) = {%d %v}, want {%d %v}", tt.input, got.Int64, got.Valid, tt.want, tt.wantValid)
		}
	}
}

func TestToPgUUID_RoundTrip(t *testing.T) {
	const id = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

	u := ToPgUUID(id)
	if !u.Valid {
		t.Fatal("ToPgUUID returned invalid for a valid uuid")
	}
	if got := PgUUIDToString(u); got != id {
		t.Errorf("PgUUIDToString() = %q, want %q", got, id)
	}
	if ToPgUUID("not-a-uuid").Valid {
		t.Error("ToPgUUID accepted a malformed uuid")
	}
	if PgUUIDToString(pgtype.UUID{}) != "" {
		t.Error("PgUUIDToString(NULL) should be empty")
	}
}

// ----------------------------------------------------------------------------
// ParseKey Tests
// ----------------------------------------------------------------------------

func TestParseKey(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{" 15 ", 15, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"1; DROP TABLE devices", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKey(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseKey(%q) error = %v, want validation error", tt.input, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseKey(%q) = %d, %v; want %d", tt.input, got, err, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// coerceValue Tests
// ----------------------------------------------------------------------------

func TestCoerceValue(t *testing.T) {
	col := func(name, dataType string) ColumnInfo {
		return ColumnInfo{Name: name, DataType: dataType, Nullable: true}
	}

	tests := []struct {
		name    string
		col     ColumnInfo
		input   any
		check   func(t *testing.T, got any)
		wantErr bool
	}{
		{
			name:  "nil is NULL",
			col:   col("model", "text"),
			input: nil,
			check: func(t *testing.T, got any) {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
			},
		},
		{
			name:  "blank string is NULL for any type",
			col:   col("ram_gb", "integer"),
			input: "  ",
			check: func(t *testing.T, got any) {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
			},
		},
		{
			name:  "form integer",
			col:   col("ram_gb", "integer"),
			input: "8",
			check: func(t *testing.T, got any) {
				if got != int64(8) {
					t.Errorf("got %#v, want int64(8)", got)
				}
			},
		},
		{
			name:  "JSON number integer",
			col:   col("ram_gb", "integer"),
			input: float64(16),
			check: func(t *testing.T, got any) {
				if got != int64(16) {
					t.Errorf("got %#v, want int64(16)", got)
				}
			},
		},
		{
			name:  "json.Number integer",
			col:   col("storage_gb", "bigint"),
			input: json.Number("512"),
			check: func(t *testing.T, got any) {
				if got != int64(512) {
					t.Errorf("got %#v, want int64(512)", got)
				}
			},
		},
		{name: "fractional integer rejected", col: col("ram_gb", "integer"), input: 1.5, wantErr: true},
		{name: "smallint overflow rejected", col: col("cores", "smallint"), input: "40000", wantErr: true},
		{name: "integer text rejected", col: col("ram_gb", "integer"), input: "eight", wantErr: true},
		{
			name:  "numeric from price string",
			col:   col("current_price", "numeric"),
			input: "79 990,50",
			check: func(t *testing.T, got any) {
				n, ok := got.(pgtype.Numeric)
				if !ok || !n.Valid {
					t.Fatalf("got %#v, want valid pgtype.Numeric", got)
				}
				f, _ := n.Float64Value()
				if f.Float64 != 79990.5 {
					t.Errorf("got %v, want 79990.5", f.Float64)
				}
			},
		},
		{name: "numeric garbage rejected", col: col("current_price", "numeric"), input: "cheap", wantErr: true},
		{
			name:  "boolean from checkbox",
			col:   col("is_waterproof", "boolean"),
			input: "on",
			check: func(t *testing.T, got any) {
				if got != true {
					t.Errorf("got %#v, want true", got)
				}
			},
		},
		{
			name:  "native boolean",
			col:   col("is_waterproof", "boolean"),
			input: false,
			check: func(t *testing.T, got any) {
				if got != false {
					t.Errorf("got %#v, want false", got)
				}
			},
		},
		{name: "boolean garbage rejected", col: col("is_waterproof", "boolean"), input: "sometimes", wantErr: true},
		{
			name:  "date",
			col:   col("release_date", "date"),
			input: "22.09.2023",
			check: func(t *testing.T, got any) {
				d, ok := got.(pgtype.Date)
				if !ok || d.Time.Format("2006-01-02") != "2023-09-22" {
					t.Errorf("got %#v, want 2023-09-22", got)
				}
			},
		},
		{name: "bad date rejected", col: col("release_date", "date"), input: "soon", wantErr: true},
		{
			name:  "timestamp without time zone",
			col:   col("created_at", "timestamp without time zone"),
			input: "2024-01-02 03:04:05",
			check: func(t *testing.T, got any) {
				if _, ok := got.(pgtype.Timestamp); !ok {
					t.Errorf("got %T, want pgtype.Timestamp", got)
				}
			},
		},
		{name: "invalid json rejected", col: col("row_data", "jsonb"), input: "{", wantErr: true},
		{
			name:  "text trimmed",
			col:   col("model", "character varying"),
			input: "  Pixel 8  ",
			check: func(t *testing.T, got any) {
				if got != "Pixel 8" {
					t.Errorf("got %q, want %q", got, "Pixel 8")
				}
			},
		},
		{
			name:  "number into text column",
			col:   col("resolution", "text"),
			input: float64(1080),
			check: func(t *testing.T, got any) {
				if got != "1080" {
					t.Errorf("got %q, want %q", got, "1080")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceValue(tt.col, tt.input)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("coerceValue() error = %v, want *ValidationError", err)
				}
				if ve.Field != tt.col.Name {
					t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.col.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("coerceValue() unexpected error: %v", err)
			}
			tt.check(t, got)
		})
	}
}
