package core

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/jackc/pgx/v5"
)

// DeviceDraft is a complete device as entered on the "add device" form.
// Attribute parts with no non-blank value are not created.
type DeviceDraft struct {
	Device        FieldSet
	Specification FieldSet
	Display       FieldSet
	Camera        FieldSet
	Battery       FieldSet
}

func (d DeviceDraft) part(p Part) FieldSet {
	switch p {
	case PartSpecification:
		return d.Specification
	case PartDisplay:
		return d.Display
	case PartCamera:
		return d.Camera
	case PartBattery:
		return d.Battery
	}
	return nil
}

// CreateResult holds the keys assigned by CreateDevice.
type CreateResult struct {
	DeviceID int64            `json:"deviceId"`
	Parts    map[string]int64 `json:"parts"`
}

// CreateDevice inserts a device and its attribute records in one
// transaction.
func (s *Service) CreateDevice(ctx context.Context, draft DeviceDraft) (CreateResult, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	result := CreateResult{Parts: make(map[string]int64)}

	err := s.withTx(ctx, "create device", "devices", func(tx pgx.Tx) error {
		desc, err := describeTable(ctx, tx, s.schema, "devices")
		if err != nil {
			return err
		}
		pk, err := requireKey(desc)
		if err != nil {
			return err
		}
		fs := draft.Device.Without(pk)
		if err := validateFields("devices", fs, true); err != nil {
			return err
		}
		values, err := prepareValues(desc, fs)
		if err != nil {
			return err
		}
		if result.DeviceID, err = insertRow(ctx, tx, desc, values); err != nil {
			return err
		}

		for _, p := range Parts {
			pfs := draft.part(p).Without("device_id")
			if !hasValues(pfs) {
				continue
			}
			pdesc, err := describeTable(ctx, tx, s.schema, string(p))
			if err != nil {
				return err
			}
			if ppk, err := requireKey(pdesc); err == nil {
				pfs = pfs.Without(ppk)
			}
			if err := validateFields(string(p), pfs, true); err != nil {
				return err
			}
			pvalues, err := prepareValues(pdesc, pfs)
			if err != nil {
				return err
			}
			key, err := insertRow(ctx, tx, pdesc, pvalues.Set("device_id", result.DeviceID))
			if err != nil {
				return err
			}
			result.Parts[string(p)] = key
		}
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}

	logging.WithFields(ctx, "device_id", result.DeviceID).Info("device created", "parts", len(result.Parts))
	s.record(ctx, AuditLogParams{
		Action:  ActionDeviceCreate,
		Table:   "devices",
		RowKey:  result.DeviceID,
		RowData: fieldData(draft.Device),
	})
	return result, nil
}

func hasValues(fs FieldSet) bool {
	for _, f := range fs {
		if f.Value == nil {
			continue
		}
		if s, ok := f.Value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return true
	}
	return false
}

// DeviceDetail is the full view of one device.
type DeviceDetail struct {
	Device          Row   `json:"device"`
	OperatingSystem Row   `json:"operatingSystem,omitempty"`
	Specification   Row   `json:"specification,omitempty"`
	Display         Row   `json:"display,omitempty"`
	Camera          Row   `json:"camera,omitempty"`
	Battery         Row   `json:"battery,omitempty"`
	Offers          []Row `json:"offers"`
}

const (
	detailDeviceSQL = `
		SELECT d.device_id, d.model, c.name AS category, m.name AS manufacturer,
		       d.release_date, d.current_price, d.is_waterproof, d.warranty_months,
		       d.weight_grams, col.name AS color
		FROM devices d
		LEFT JOIN categories c ON d.category_id = c.category_id
		LEFT JOIN manufacturers m ON d.manufacturer_id = m.manufacturer_id
		LEFT JOIN color col ON d.color_id = col.color_id
		WHERE d.device_id = $1`

	detailOSSQL = `
		SELECT osn.name, os.developer, os.latest_version, os.release_date
		FROM devices d
		JOIN operating_systems os ON d.os_id = os.os_id
		LEFT JOIN os_name osn ON os.os_name_id = osn.os_name_id
		WHERE d.device_id = $1`

	detailSpecSQL = `
		SELECT pm.name AS proc_model, s.processor_cores, s.ram_gb, s.storage_gb, st.name AS storage_type
		FROM specifications s
		LEFT JOIN proc_model pm ON s.proc_model_id = pm.proc_model_id
		LEFT JOIN storage_type st ON s.storage_type_id = st.storage_type_id
		WHERE s.device_id = $1
		ORDER BY s.spec_id
		LIMIT 1`

	detailDisplaySQL = `
		SELECT disp.diagonal_inches, disp.resolution, tm.name AS matrix_type,
		       disp.refresh_rate_hz, disp.brightness_nits
		FROM displays disp
		LEFT JOIN techn_matr tm ON disp.techn_matr_id = tm.techn_matr_id
		WHERE disp.device_id = $1
		ORDER BY disp.display_id
		LIMIT 1`

	detailCameraSQL = `
		SELECT megapixels_main, aperture_main, optical_zoom_x, video_resolution, has_ai_enhance
		FROM cameras
		WHERE device_id = $1
		ORDER BY camera_id
		LIMIT 1`

	detailBatterySQL = `
		SELECT capacity_mah, fast_charging_w, wireless_charging, estimated_life_hours
		FROM batteries
		WHERE device_id = $1
		ORDER BY battery_id
		LIMIT 1`

	detailOffersSQL = `
		SELECT r.retailer_id, r.name, r.website, dr.price, dr.in_stock, dr.last_updated
		FROM device_retailers dr
		JOIN retailers r ON dr.retailer_id = r.retailer_id
		WHERE dr.device_id = $1
		ORDER BY dr.price, r.name`
)

// DeviceDetail loads a device with all attribute records and offers.
func (s *Service) DeviceDetail(ctx context.Context, deviceID int64) (*DeviceDetail, error) {
	if deviceID <= 0 {
		return nil, &ValidationError{Field: "device_id", Value: strconv.FormatInt(deviceID, 10), Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	device, err := queryOptionalRow(ctx, s.db, detailDeviceSQL, deviceID)
	if err != nil {
		return nil, classifyDBError("device detail", "devices", err)
	}
	if device == nil {
		return nil, notFound("devices", deviceID)
	}

	detail := &DeviceDetail{Device: device}
	for _, part := range []struct {
		sql  string
		dest *Row
	}{
		{detailOSSQL, &detail.OperatingSystem},
		{detailSpecSQL, &detail.Specification},
		{detailDisplaySQL, &detail.Display},
		{detailCameraSQL, &detail.Camera},
		{detailBatterySQL, &detail.Battery},
	} {
		row, err := queryOptionalRow(ctx, s.db, part.sql, deviceID)
		if err != nil {
			return nil, classifyDBError("device detail", "devices", err)
		}
		*part.dest = row
	}

	rows, err := s.db.Query(ctx, detailOffersSQL, deviceID)
	if err != nil {
		return nil, classifyDBError("device detail", "device_retailers", err)
	}
	offers, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyDBError("device detail", "device_retailers", err)
	}
	detail.Offers = make([]Row, len(offers))
	for i, o := range offers {
		detail.Offers[i] = Row(o)
	}
	return detail, nil
}

func queryOptionalRow(ctx context.Context, q DBTX, sql string, args ...any) (Row, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Row(m), nil
}

// UpsertOffer saves the (device, retailer) offer. last_updated defaults to
// today when not supplied.
func (s *Service) UpsertOffer(ctx context.Context, deviceID, retailerID int64, fs FieldSet) (UpsertResult, error) {
	if deviceID <= 0 {
		return UpsertResult{}, &ValidationError{Field: "device_id", Value: strconv.FormatInt(deviceID, 10), Message: "malformed key"}
	}
	if retailerID <= 0 {
		return UpsertResult{}, &ValidationError{Field: "retailer_id", Value: strconv.FormatInt(retailerID, 10), Message: "malformed key"}
	}
	if _, ok := fs.Get("last_updated"); !ok {
		fs = fs.Set("last_updated", time.Now().UTC().Format("2006-01-02"))
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var res UpsertResult
	err := s.withTx(ctx, "upsert offer", "device_retailers", func(tx pgx.Tx) error {
		if err := lockDevice(ctx, tx, deviceID); err != nil {
			return err
		}
		var err error
		res, err = s.upsertOwned(ctx, tx, "device_retailers",
			Fields("device_id", deviceID, "retailer_id", retailerID), fs)
		return err
	})
	if err != nil {
		return UpsertResult{}, err
	}

	logging.WithFields(ctx, "device_id", deviceID).Info("offer saved",
		"retailer_id", retailerID, "key", res.Key, "created", res.Created)
	s.record(ctx, AuditLogParams{
		Action:  ActionOfferSave,
		Table:   "device_retailers",
		RowKey:  res.Key,
		RowData: fieldData(fs.Set("retailer_id", retailerID)),
	})
	return res, nil
}

// RemoveOffer deletes every offer of retailerID for deviceID.
func (s *Service) RemoveOffer(ctx context.Context, deviceID, retailerID int64) (int64, error) {
	if deviceID <= 0 || retailerID <= 0 {
		return 0, &ValidationError{Field: "key", Message: "malformed key"}
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx,
		"DELETE FROM device_retailers WHERE device_id = $1 AND retailer_id = $2", deviceID, retailerID)
	if err != nil {
		return 0, classifyDBError("remove offer", "device_retailers", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, notFound("device_retailers", deviceID)
	}

	logging.WithFields(ctx, "device_id", deviceID).Info("offer removed", "retailer_id", retailerID)
	s.record(ctx, AuditLogParams{
		Action:       ActionOfferRemove,
		Table:        "device_retailers",
		RowKey:       deviceID,
		RowData:      map[string]any{"retailer_id": retailerID},
		RowsAffected: int(tag.RowsAffected()),
	})
	return tag.RowsAffected(), nil
}
