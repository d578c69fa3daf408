package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/jackc/pgx/v5"
)

// Service is the catalog data manager. It keeps no domain state between
// calls; everything lives in the database.
type Service struct {
	db      DB
	schema  string
	timeout time.Duration
	audit   bool

	pageSize    int
	maxPageSize int
}

// Option configures a Service.
type Option func(*Service)

// WithSchema sets the schema introspected for tables. Connections must use
// the same schema as their search_path.
func WithSchema(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.schema = name
		}
	}
}

// WithStatementTimeout bounds every catalog operation.
func WithStatementTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithAudit toggles audit log writes.
func WithAudit(enabled bool) Option {
	return func(s *Service) { s.audit = enabled }
}

// WithPageSize sets the default and maximum page sizes for ListRows.
func WithPageSize(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.pageSize = def
		}
		if max >= s.pageSize {
			s.maxPageSize = max
		}
	}
}

// NewService creates a Service over db.
func NewService(db DB, opts ...Option) *Service {
	s := &Service{
		db:          db,
		schema:      "public",
		timeout:     10 * time.Second,
		audit:       true,
		pageSize:    50,
		maxPageSize: 500,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema returns the schema the service operates on.
func (s *Service) Schema() string { return s.schema }

// Ping checks that the database answers.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return classifyDBError("ping", "", err)
	}
	return nil
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// withTx runs fn in a serializable transaction. Any error or panic rolls
// the transaction back; driver errors are classified.
func (s *Service) withTx(ctx context.Context, op, table string, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return classifyDBError(op, table, err)
	}

	defer func() {
		p := recover()
		if err != nil || p != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				logging.FromContext(ctx).Warn("rollback failed", "op", op, "table", table, "error", rbErr)
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		return classifyDBError(op, table, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return classifyDBError(op, table, err)
	}
	return nil
}

// quoteIdentifier quotes a single SQL identifier.
func quoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
