package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// AuditAction represents the type of change being audited.
type AuditAction string

const (
	ActionRowInsert    AuditAction = "row_insert"
	ActionRowUpdate    AuditAction = "row_update"
	ActionRowDelete    AuditAction = "row_delete"
	ActionDeviceCreate AuditAction = "device_create"
	ActionDeviceDelete AuditAction = "device_delete"
	ActionOfferSave    AuditAction = "offer_save"
	ActionOfferRemove  AuditAction = "offer_remove"
	ActionAdminUpsert  AuditAction = "admin_upsert"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// auditTable is written by the service only; the generic editor hides it.
const auditTable = "admin_audit_log"

// AuditEntry is one row of the audit log.
type AuditEntry struct {
	ID           string         `json:"id"`
	Action       AuditAction    `json:"action"`
	Severity     AuditSeverity  `json:"severity"`
	Table        string         `json:"table"`
	RowKey       int64          `json:"rowKey,omitempty"`
	RowData      map[string]any `json:"rowData,omitempty"`
	RowsAffected int            `json:"rowsAffected,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	Table        string
	RowKey       int64
	RowData      map[string]any
	RowsAffected int
	Reason       string
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionDeviceDelete:
		return SeverityCritical
	case ActionRowDelete, ActionOfferRemove, ActionAdminUpsert:
		return SeverityHigh
	case ActionRowInsert, ActionDeviceCreate:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

const insertAuditSQL = `
	INSERT INTO admin_audit_log
		(id, action, severity, table_name, row_key, row_data, rows_affected, reason, ip_address, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at`

// LogAudit writes an audit entry. IP address and user agent are taken from
// ctx when the web layer put them there.
func (s *Service) LogAudit(ctx context.Context, params AuditLogParams) (*AuditEntry, error) {
	entry := &AuditEntry{
		ID:           uuid.NewString(),
		Action:       params.Action,
		Severity:     determineSeverity(params.Action),
		Table:        params.Table,
		RowKey:       params.RowKey,
		RowData:      params.RowData,
		RowsAffected: params.RowsAffected,
		Reason:       params.Reason,
		IPAddress:    GetIPAddressFromContext(ctx),
		UserAgent:    GetUserAgentFromContext(ctx),
	}

	var rowData []byte
	if params.RowData != nil {
		var err error
		if rowData, err = json.Marshal(params.RowData); err != nil {
			rowData = nil
		}
	}

	var created pgtype.Timestamptz
	err := s.db.QueryRow(ctx, insertAuditSQL,
		ToPgUUID(entry.ID),
		string(entry.Action),
		string(entry.Severity),
		entry.Table,
		toPgInt8(entry.RowKey),
		rowData,
		toPgInt4(entry.RowsAffected),
		ToPgText(entry.Reason),
		ToPgText(entry.IPAddress),
		ToPgText(entry.UserAgent),
	).Scan(&created)
	if err != nil {
		return nil, classifyDBError("audit", auditTable, err)
	}
	entry.CreatedAt = created.Time
	return entry, nil
}

// record is the best-effort audit hook used after a committed change.
// Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, params AuditLogParams) {
	if !s.audit {
		return
	}
	if _, err := s.LogAudit(context.WithoutCancel(ctx), params); err != nil {
		logging.FromContext(ctx).Warn("audit write failed",
			"action", params.Action,
			"table", params.Table,
			"error", err,
		)
	}
}

// AuditLogFilter contains filtering options for querying the audit log.
type AuditLogFilter struct {
	Table  string
	Action AuditAction
	Since  time.Time
	Limit  int
	Offset int
}

// DefaultAuditLimit caps GetAuditLog when no limit is given.
const DefaultAuditLimit = 100

// GetAuditLog returns audit entries, newest first.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]AuditEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultAuditLimit
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, action, severity, table_name, row_key, row_data, rows_affected,
		       reason, ip_address, user_agent, created_at
		FROM admin_audit_log
		WHERE ($1 = '' OR table_name = $1)
		  AND ($2 = '' OR action = $2)
		  AND created_at >= $3
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5`,
		filter.Table, string(filter.Action), filter.Since, filter.Limit, filter.Offset)
	if err != nil {
		return nil, classifyDBError("audit log", auditTable, err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, classifyDBError("audit log", auditTable, err)
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (AuditEntry, error) {
	var (
		e                     AuditEntry
		id                    pgtype.UUID
		action, severity      string
		rowKey                pgtype.Int8
		rowData               []byte
		rowsAffected          pgtype.Int4
		reason, ip, userAgent pgtype.Text
		created               pgtype.Timestamptz
	)
	if err := row.Scan(&id, &action, &severity, &e.Table, &rowKey, &rowData, &rowsAffected,
		&reason, &ip, &userAgent, &created); err != nil {
		return e, err
	}

	e.ID = PgUUIDToString(id)
	e.Action = AuditAction(action)
	e.Severity = AuditSeverity(severity)
	e.RowKey = rowKey.Int64
	e.RowsAffected = int(rowsAffected.Int32)
	e.Reason = reason.String
	e.IPAddress = ip.String
	e.UserAgent = userAgent.String
	e.CreatedAt = created.Time
	if rowData != nil {
		_ = json.Unmarshal(rowData, &e.RowData)
	}
	return e, nil
}

// PurgeAuditLog deletes entries older than daysToKeep days.
func (s *Service) PurgeAuditLog(ctx context.Context, daysToKeep int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM admin_audit_log WHERE created_at < now() - make_interval(days => $1)", daysToKeep)
	if err != nil {
		return 0, classifyDBError("purge audit log", auditTable, err)
	}
	return tag.RowsAffected(), nil
}

func toPgInt8(v int64) pgtype.Int8 {
	if v == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}

func toPgInt4(i int) pgtype.Int4 {
	if i == 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}
}
