package core

import (
	"context"
	"fmt"
)

// NextKey reports the key the next insert into table would receive. It is
// informational: Insert allocates again inside its own transaction.
func (s *Service) NextKey(ctx context.Context, table string) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	desc, err := describeTable(ctx, s.db, s.schema, table)
	if err != nil {
		return 0, classifyDBError("next key", table, err)
	}
	k, err := nextKey(ctx, s.db, desc)
	if err != nil {
		return 0, classifyDBError("next key", table, err)
	}
	return k, nil
}

// nextKey computes max(pk)+1. It must run on the transaction that performs
// the insert; the transaction is serializable, so two writers that read the
// same maximum cannot both commit.
func nextKey(ctx context.Context, q DBTX, desc TableDescriptor) (int64, error) {
	pk, err := requireKey(desc)
	if err != nil {
		return 0, err
	}

	col, _ := desc.Column(pk)
	switch col.DataType {
	case "smallint", "integer", "bigint":
	default:
		return 0, &SchemaError{Table: desc.Name, Reason: fmt.Sprintf("primary key %q is not an integer column", pk)}
	}

	var next int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) + 1 FROM %s", quoteIdentifier(pk), quoteIdentifier(desc.Name))
	if err := q.QueryRow(ctx, query).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}
