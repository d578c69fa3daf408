package core

// convert.go turns loosely typed caller values (form strings, JSON numbers,
// native Go values) into values pgx encodes for the introspected column type.
//
// The ToPg* helpers return Valid=false for empty or unparseable input;
// coerceValue turns that into a ValidationError so bad input never reaches
// the database as NULL by accident.

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ToPgText converts a string to pgtype.Text. Blank input is NULL.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate parses ISO dates plus a few common day-first and written layouts.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
		}
	}
	return pgtype.Date{Valid: false}
}

// ToPgTimestamptz parses RFC 3339 and "YYYY-MM-DD hh:mm[:ss]" values as UTC.
func ToPgTimestamptz(s string) pgtype.Timestamptz {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Timestamptz{Valid: false}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return pgtype.Timestamptz{Time: t, Valid: true}
		}
	}
	return pgtype.Timestamptz{Valid: false}
}

// ToPgNumeric converts a price-like string to pgtype.Numeric. Currency
// symbols, spaces and thousands separators are dropped; a comma is treated
// as the decimal separator when no dot is present.
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	for _, sym := range []string{"$", "€", "£", "₽", "руб.", "руб", " ", "\u00a0"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else if strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgBool accepts true/false, yes/no, t/f, y/n, on/off and 1/0.
func ToPgBool(s string) pgtype.Bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "true", "t", "yes", "y", "1", "on":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0", "off":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{Valid: false}
	}
}

// ToPgInt8 parses a whole number. Thousands separators are not accepted.
func ToPgInt8(s string) pgtype.Int8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int8{Valid: false}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

// ToPgUUID converts a string to pgtype.UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString returns the canonical form, or "" when u is NULL.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// ParseKey validates a caller-supplied primary key.
func ParseKey(raw string) (int64, error) {
	k := ToPgInt8(raw)
	if !k.Valid || k.Int64 <= 0 {
		return 0, &ValidationError{Field: "key", Value: raw, Message: "malformed key"}
	}
	return k.Int64, nil
}

// coerceValue converts v for storage in col. nil and blank strings become
// NULL; the database decides whether NULL is allowed.
func coerceValue(col ColumnInfo, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	invalid := func(msg string) error {
		return &ValidationError{Field: col.Name, Value: fmt.Sprint(v), Message: msg}
	}

	switch col.DataType {
	case "smallint", "integer", "bigint":
		i, ok := toInt64(v)
		if !ok {
			return nil, invalid("invalid integer")
		}
		lo, hi := intRange(col.DataType)
		if i < lo || i > hi {
			return nil, invalid(fmt.Sprintf("must be between %d and %d", lo, hi))
		}
		return i, nil

	case "numeric", "real", "double precision":
		n := ToPgNumeric(stringOf(v))
		if !n.Valid {
			return nil, invalid("invalid number")
		}
		return n, nil

	case "boolean":
		if b, ok := v.(bool); ok {
			return b, nil
		}
		b := ToPgBool(stringOf(v))
		if !b.Valid {
			return nil, invalid("must be yes/no, true/false, or 1/0")
		}
		return b.Bool, nil

	case "date":
		if t, ok := v.(time.Time); ok {
			return pgtype.Date{Time: t, Valid: true}, nil
		}
		d := ToPgDate(stringOf(v))
		if !d.Valid {
			return nil, invalid("invalid date (use YYYY-MM-DD)")
		}
		return d, nil

	case "timestamp with time zone", "timestamp without time zone":
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
		ts := ToPgTimestamptz(stringOf(v))
		if !ts.Valid {
			return nil, invalid("invalid date or time")
		}
		if col.DataType == "timestamp without time zone" {
			return pgtype.Timestamp{Time: ts.Time, Valid: true}, nil
		}
		return ts, nil

	case "uuid":
		u := ToPgUUID(strings.TrimSpace(stringOf(v)))
		if !u.Valid {
			return nil, invalid("invalid uuid")
		}
		return u, nil

	case "json", "jsonb":
		if s, ok := v.(string); ok {
			if !json.Valid([]byte(s)) {
				return nil, invalid("invalid json")
			}
			return json.RawMessage(s), nil
		}
		return v, nil
	}

	return strings.TrimSpace(stringOf(v)), nil
}

func intRange(dataType string) (int64, int64) {
	switch dataType {
	case "smallint":
		return math.MinInt16, math.MaxInt16
	case "integer":
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	case bool:
		return 0, false
	default:
		i := ToPgInt8(stringOf(v))
		return i.Int64, i.Valid
	}
}

func stringOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
