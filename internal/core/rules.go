package core

// rules.go holds per-table column rules registered at init time by the
// tables package. The Editor applies them on top of the type checks it
// derives from introspection: required fields, numeric ranges, text length
// and enumerations.

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldType is the value class a rule expects.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldNumeric
	FieldBool
	FieldDate
	FieldEnum
	FieldRef
)

// ColumnRule constrains one column of a registered table.
type ColumnRule struct {
	Column     string
	Type       FieldType
	Required   bool
	Min        *float64
	Max        *float64
	MaxLen     int
	EnumValues []string
}

// TableRules describes a catalog table for forms and validation.
type TableRules struct {
	Table string
	Group string
	Label string
	Rules []ColumnRule
}

// Rule returns the rule for column.
func (tr TableRules) Rule(column string) (ColumnRule, bool) {
	for _, r := range tr.Rules {
		if r.Column == column {
			return r, true
		}
	}
	return ColumnRule{}, false
}

var (
	rules   = make(map[string]TableRules)
	rulesMu sync.RWMutex
)

// Register adds rules for a table. Panics on duplicate registration.
func Register(tr TableRules) {
	rulesMu.Lock()
	defer rulesMu.Unlock()

	if _, exists := rules[tr.Table]; exists {
		panic(fmt.Sprintf("table rules already registered: %s", tr.Table))
	}
	rules[tr.Table] = tr
}

// RulesFor returns the rules registered for table.
func RulesFor(table string) (TableRules, bool) {
	rulesMu.RLock()
	defer rulesMu.RUnlock()

	tr, ok := rules[table]
	return tr, ok
}

// AllRules returns every registration, sorted by group then table.
func AllRules() []TableRules {
	rulesMu.RLock()
	defer rulesMu.RUnlock()

	result := make([]TableRules, 0, len(rules))
	for _, tr := range rules {
		result = append(result, tr)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Table < result[j].Table
	})
	return result
}

// Groups returns the distinct group names, sorted.
func Groups() []string {
	rulesMu.RLock()
	defer rulesMu.RUnlock()

	seen := make(map[string]bool)
	for _, tr := range rules {
		seen[tr.Group] = true
	}
	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// ClearRules removes all registrations. Tests only.
func ClearRules() {
	rulesMu.Lock()
	defer rulesMu.Unlock()
	rules = make(map[string]TableRules)
}

// Ptr returns a pointer to v, for ColumnRule bounds.
func Ptr(v float64) *float64 { return &v }

// validateFields checks fs against the registered rules for table. On
// insert, required columns missing from fs are reported too.
func validateFields(table string, fs FieldSet, insert bool) error {
	tr, ok := RulesFor(table)
	if !ok {
		return nil
	}

	for _, f := range fs {
		rule, ok := tr.Rule(f.Column)
		if !ok {
			continue
		}
		if err := ValidateValue(f.Value, rule); err != nil {
			return err
		}
	}

	if insert {
		for _, rule := range tr.Rules {
			if !rule.Required {
				continue
			}
			if _, present := fs.Get(rule.Column); !present {
				return &ValidationError{Field: rule.Column, Message: "required field is empty"}
			}
		}
	}
	return nil
}

// ValidateValue checks a single raw value against rule.
func ValidateValue(v any, rule ColumnRule) error {
	raw := ""
	if v != nil {
		raw = strings.TrimSpace(stringOf(v))
	}

	if raw == "" {
		if rule.Required {
			return &ValidationError{Field: rule.Column, Message: "required field is empty"}
		}
		return nil
	}

	fail := func(msg string) error {
		return &ValidationError{Field: rule.Column, Value: raw, Message: msg}
	}

	switch rule.Type {
	case FieldInt:
		if !ToPgInt8(raw).Valid {
			return fail("invalid integer")
		}
	case FieldRef:
		if _, err := ParseKey(raw); err != nil {
			return fail("malformed key")
		}
	case FieldNumeric:
		if !ToPgNumeric(raw).Valid {
			return fail("invalid number")
		}
	case FieldDate:
		if !ToPgDate(raw).Valid {
			return fail("invalid date (use YYYY-MM-DD)")
		}
	case FieldBool:
		if _, ok := v.(bool); !ok && !ToPgBool(raw).Valid {
			return fail("must be yes/no, true/false, or 1/0")
		}
	case FieldEnum:
		for _, ev := range rule.EnumValues {
			if strings.EqualFold(ev, raw) {
				return nil
			}
		}
		return fail("must be one of: " + strings.Join(rule.EnumValues, ", "))
	}

	if rule.MaxLen > 0 && len([]rune(raw)) > rule.MaxLen {
		return fail(fmt.Sprintf("must be at most %d characters", rule.MaxLen))
	}

	if rule.Min != nil || rule.Max != nil {
		n := ToPgNumeric(raw)
		if !n.Valid {
			return fail("invalid number")
		}
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return fail("invalid number")
		}
		if rule.Min != nil && f.Float64 < *rule.Min {
			return fail(fmt.Sprintf("must be at least %v", *rule.Min))
		}
		if rule.Max != nil && f.Float64 > *rule.Max {
			return fail(fmt.Sprintf("must be at most %v", *rule.Max))
		}
	}
	return nil
}
