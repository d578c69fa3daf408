package core

// cascade.go manages the device aggregate: a device row plus its
// specification, display, camera and battery records (at most one each) and
// any number of retailer offers.

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/jackc/pgx/v5"
)

// Part names a one-per-device attribute table.
type Part string

const (
	PartSpecification Part = "specifications"
	PartDisplay       Part = "displays"
	PartCamera        Part = "cameras"
	PartBattery       Part = "batteries"
)

// Parts lists the attribute tables in cascade order.
var Parts = []Part{PartSpecification, PartDisplay, PartCamera, PartBattery}

// ParsePart accepts a table name or its singular form.
func ParsePart(s string) (Part, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "specifications", "specification", "specs":
		return PartSpecification, nil
	case "displays", "display":
		return PartDisplay, nil
	case "cameras", "camera":
		return PartCamera, nil
	case "batteries", "battery":
		return PartBattery, nil
	}
	return "", &SchemaError{Table: s, Reason: "not a device attribute table"}
}

func isPart(table string) bool {
	for _, p := range Parts {
		if string(p) == table {
			return true
		}
	}
	return false
}

// cascadeOrder is the delete order for DeleteDevice: owned rows first, the
// device row last.
var cascadeOrder = [...]string{
	string(PartSpecification),
	string(PartDisplay),
	string(PartCamera),
	string(PartBattery),
	"device_retailers",
}

// CascadeResult counts the rows removed per table.
type CascadeResult struct {
	DeviceID int64            `json:"deviceId"`
	Deleted  map[string]int64 `json:"deleted"`
}

// Total returns the number of rows removed, device row included.
func (r CascadeResult) Total() int64 {
	var n int64
	for _, c := range r.Deleted {
		n += c
	}
	return n
}

// UpsertResult reports the key of an attribute or offer row and whether it
// was created.
type UpsertResult struct {
	Key     int64 `json:"key"`
	Created bool  `json:"created"`
}

// DeleteDevice removes a device and every row it owns in one transaction.
// Either all rows are gone afterwards or none are.
func (s *Service) DeleteDevice(ctx context.Context, deviceID int64) (CascadeResult, error) {
	if deviceID <= 0 {
		return CascadeResult{}, &ValidationError{Field: "device_id", Value: strconv.FormatInt(deviceID, 10), Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	result := CascadeResult{DeviceID: deviceID, Deleted: make(map[string]int64, len(cascadeOrder)+1)}
	var model string

	err := s.withTx(ctx, "delete device", "devices", func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			"SELECT model FROM devices WHERE device_id = $1 FOR UPDATE", deviceID).Scan(&model)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("devices", deviceID)
		}
		if err != nil {
			return err
		}

		for _, table := range cascadeOrder {
			tag, err := tx.Exec(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE device_id = $1", quoteIdentifier(table)), deviceID)
			if err != nil {
				return fmt.Errorf("cascade %s: %w", table, err)
			}
			result.Deleted[table] = tag.RowsAffected()
		}

		tag, err := tx.Exec(ctx, "DELETE FROM devices WHERE device_id = $1", deviceID)
		if err != nil {
			return err
		}
		result.Deleted["devices"] = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}

	logging.WithFields(ctx, "device_id", deviceID).Info("device deleted",
		"model", model,
		"rows", result.Total(),
	)
	s.record(ctx, AuditLogParams{
		Action:       ActionDeviceDelete,
		Table:        "devices",
		RowKey:       deviceID,
		RowData:      map[string]any{"model": model, "deleted": result.Deleted},
		RowsAffected: int(result.Total()),
	})
	return result, nil
}

// UpsertDependent edits the device's record in part: a sparse update when
// the record exists, an insert with a fresh key when it does not. A device
// never ends up with two records in the same part.
func (s *Service) UpsertDependent(ctx context.Context, part Part, deviceID int64, fs FieldSet) (UpsertResult, error) {
	if !isPart(string(part)) {
		return UpsertResult{}, &SchemaError{Table: string(part), Reason: "not a device attribute table"}
	}
	if deviceID <= 0 {
		return UpsertResult{}, &ValidationError{Field: "device_id", Value: strconv.FormatInt(deviceID, 10), Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var res UpsertResult
	err := s.withTx(ctx, "upsert "+string(part), string(part), func(tx pgx.Tx) error {
		if err := lockDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		var err error
		res, err = s.upsertOwned(ctx, tx, string(part), Fields("device_id", deviceID), fs)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}

	action := ActionRowUpdate
	if res.Created {
		action = ActionRowInsert
	}
	logging.WithFields(ctx, "device_id", deviceID).Info("device record saved",
		"table", part, "key", res.Key, "created", res.Created)
	s.record(ctx, AuditLogParams{
		Action:  action,
		Table:   string(part),
		RowKey:  res.Key,
		RowData: fieldData(fs),
	})
	return res, nil
}

// lockDevice takes a share lock on the device row so it cannot be deleted
// while owned rows are written.
func lockDevice(ctx context.Context, q DBTX, deviceID int64) error {
	var one int
	err := q.QueryRow(ctx, "SELECT 1 FROM devices WHERE device_id = $1 FOR SHARE", deviceID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("devices", deviceID)
	}
	return err
}

// upsertOwned finds the row of table matching every pair in match and
// sparse-updates it with fs, or inserts match+fs under a new key.
func (s *Service) upsertOwned(ctx context.Context, tx pgx.Tx, table string, match, fs FieldSet) (UpsertResult, error) {
	desc, err := describeTable(ctx, tx, s.schema, table)
	if err != nil {
		return UpsertResult{}, err
	}
	pk, err := requireKey(desc)
	if err != nil {
		return UpsertResult{}, err
	}

	fs = fs.Without(pk)
	for _, m := range match {
		fs = fs.Without(m.Column)
	}
	if err := validateFields(table, fs, false); err != nil {
		return UpsertResult{}, err
	}
	values, err := prepareValues(desc, fs)
	if err != nil {
		return UpsertResult{}, err
	}

	conds := make([]string, len(match))
	args := make([]any, len(match))
	for i, m := range match {
		conds[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(m.Column), i+1)
		args[i] = m.Value
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT 1 FOR UPDATE",
		quoteIdentifier(pk), quoteIdentifier(table), strings.Join(conds, " AND "), quoteIdentifier(pk))

	var existing int64
	err = tx.QueryRow(ctx, query, args...).Scan(&existing)
	switch {
	case err == nil:
		if len(values) > 0 {
			if _, err := updateRow(ctx, tx, desc, existing, values); err != nil {
				return UpsertResult{}, err
			}
		}
		return UpsertResult{Key: existing}, nil

	case errors.Is(err, pgx.ErrNoRows):
		for _, m := range match {
			values = values.Set(m.Column, m.Value)
		}
		key, err := insertRow(ctx, tx, desc, values)
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{Key: key, Created: true}, nil

	default:
		return UpsertResult{}, err
	}
}

// ensureNoPart refuses a second attribute record for the same device.
func ensureNoPart(ctx context.Context, q DBTX, table string, deviceID int64) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE device_id = $1)", quoteIdentifier(table))
	if err := q.QueryRow(ctx, query, deviceID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return &IntegrityError{
			Table:    table,
			Relation: table + ".device_id",
			Code:     "23505",
			Reason:   fmt.Sprintf("device %d already has a record", deviceID),
		}
	}
	return nil
}
