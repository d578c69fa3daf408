package core

// # Error Codes Reference
//
// Every error shown to an administrator carries a code that support can
// look up here.
//
// Schema (SCH):
//
//	SCH001 - Unknown table
//	SCH002 - Unknown column
//	SCH003 - Table shape does not support the operation (no primary key, internal table)
//
// Integrity (INT):
//
//	INT001 - Row is still referenced by another table; Action names the relation
//	INT002 - Row belongs to a device and is removed with it
//	INT003 - Duplicate value
//	INT004 - Referenced row does not exist
//
// Validation (VAL):
//
//	VAL001 - Invalid date
//	VAL002 - Invalid number
//	VAL003 - Required field is empty
//	VAL004 - Malformed key
//	VAL005 - Value out of range
//	VAL006 - Value not in allowed list
//	VAL007 - Nothing to update
//	VAL000 - Other invalid value
//
// Database (DB):
//
//	DB004 - Connection refused or lost
//	DB006 - Timeout
//	DB007 - Conflicting concurrent change
//
// Other:
//
//	NF001   - Record not found
//	RATE001 - Too many requests
//	ERR000  - Unexpected error; check logs for the technical error
//
// Typed catalog errors are mapped first. Untyped errors fall back to
// case-insensitive substring patterns, first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is the fallback table for errors without a catalog kind.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Use a different value or edit the existing record",
			Code:    "INT003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Create the referenced record first",
			Code:    "INT004",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a message an administrator can act on.
//
//	msg := MapError(err)
//	// msg.Code == "INT001"
//	// msg.Action == "Remove or reassign rows in devices.manufacturer_id first"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	if msg, ok := mapKind(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapKind(err error) (UserMessage, bool) {
	var (
		schemaErr    *SchemaError
		integrityErr *IntegrityError
		validErr     *ValidationError
		transientErr *TransientError
	)

	switch {
	case errors.As(err, &integrityErr):
		return integrityMessage(integrityErr), true

	case errors.As(err, &schemaErr):
		switch {
		case schemaErr.Reason != "":
			return UserMessage{
				Message: fmt.Sprintf("Table %q cannot be edited this way", schemaErr.Table),
				Action:  "Use the dedicated device screens for this table",
				Code:    "SCH003",
			}, true
		case schemaErr.Column != "":
			return UserMessage{
				Message: fmt.Sprintf("Column %q does not exist in %q", schemaErr.Column, schemaErr.Table),
				Action:  "Reload the form; the table definition may have changed",
				Code:    "SCH002",
			}, true
		default:
			return UserMessage{
				Message: fmt.Sprintf("Table %q does not exist", schemaErr.Table),
				Action:  "Verify the table name is correct",
				Code:    "SCH001",
			}, true
		}

	case errors.As(err, &validErr):
		return validationMessage(validErr), true

	case errors.As(err, &transientErr):
		switch {
		case transientErr.Conflict():
			return UserMessage{
				Message: "Another change was saved at the same time",
				Action:  "Reload and try again",
				Code:    "DB007",
			}, true
		case transientErr.Timeout():
			return UserMessage{
				Message: "Operation timed out",
				Action:  "Please try again",
				Code:    "DB006",
			}, true
		default:
			return UserMessage{
				Message: "Database is unavailable",
				Action:  "Please try again in a few moments",
				Code:    "DB004",
			}, true
		}

	case errors.Is(err, ErrNotFound):
		return UserMessage{
			Message: "Record not found",
			Action:  "It may have been deleted; reload the page",
			Code:    "NF001",
		}, true
	}

	return UserMessage{}, false
}

func integrityMessage(e *IntegrityError) UserMessage {
	switch {
	case e.Owner != "":
		return UserMessage{
			Message: fmt.Sprintf("Rows in %q belong to a device", e.Table),
			Action:  fmt.Sprintf("Edit or delete the owning row in %s instead", e.Owner),
			Code:    "INT002",
		}
	case e.Code == "23505":
		return UserMessage{
			Message: "A record with this value already exists",
			Action:  "Use a different value or edit the existing record",
			Code:    "INT003",
		}
	case e.Code == "23503":
		return UserMessage{
			Message: "Referenced record does not exist or is still in use",
			Action:  "Check the referenced records and try again",
			Code:    "INT004",
		}
	default:
		return UserMessage{
			Message: fmt.Sprintf("This %s record is still in use", e.Table),
			Action:  fmt.Sprintf("Remove or reassign rows in %s first", e.Relation),
			Code:    "INT001",
		}
	}
}

func validationMessage(e *ValidationError) UserMessage {
	field := e.Field
	if field == "" {
		field = "value"
	}
	msg := strings.ToLower(e.Message)

	switch {
	case strings.Contains(msg, "date"):
		return UserMessage{Message: fmt.Sprintf("Invalid date for %s", field), Action: "Use YYYY-MM-DD", Code: "VAL001"}
	case strings.Contains(msg, "number"), strings.Contains(msg, "integer"):
		return UserMessage{Message: fmt.Sprintf("Invalid number for %s", field), Action: "Use digits with an optional decimal point", Code: "VAL002"}
	case strings.Contains(msg, "required"):
		return UserMessage{Message: fmt.Sprintf("%s is required", field), Action: "Fill in the field and save again", Code: "VAL003"}
	case strings.Contains(msg, "key"):
		return UserMessage{Message: fmt.Sprintf("Invalid identifier %q", e.Value), Action: "Identifiers are positive whole numbers", Code: "VAL004"}
	case strings.Contains(msg, "must be between"), strings.Contains(msg, "at least"), strings.Contains(msg, "at most"):
		return UserMessage{Message: fmt.Sprintf("%s is out of range", field), Action: e.Message, Code: "VAL005"}
	case strings.Contains(msg, "one of"):
		return UserMessage{Message: fmt.Sprintf("%s is not an allowed value", field), Action: e.Message, Code: "VAL006"}
	case strings.Contains(msg, "no fields"):
		return UserMessage{Message: "Nothing to update", Action: "Change at least one field", Code: "VAL007"}
	default:
		return UserMessage{Message: fmt.Sprintf("Invalid value for %s", field), Action: e.Message, Code: "VAL000"}
	}
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error for logs with a message for display.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and keeps the original for logging. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
