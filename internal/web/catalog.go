package web

import (
	"context"

	"github.com/JonMunkholm/catalog/internal/core"
)

// Catalog is the set of catalog operations the API exposes. *core.Service
// implements it.
type Catalog interface {
	Ping(ctx context.Context) error

	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) (core.TableDescriptor, error)
	NextKey(ctx context.Context, table string) (int64, error)
	ListRows(ctx context.Context, table string, page, pageSize int) (core.RowPage, error)
	GetRow(ctx context.Context, table string, key int64) (core.Row, error)
	Insert(ctx context.Context, table string, fs core.FieldSet) (int64, error)
	Update(ctx context.Context, table string, key int64, fs core.FieldSet) error
	Delete(ctx context.Context, table string, key int64) error
	IsReferenced(ctx context.Context, table string, key int64) (bool, string, error)

	CreateDevice(ctx context.Context, draft core.DeviceDraft) (core.CreateResult, error)
	DeviceDetail(ctx context.Context, deviceID int64) (*core.DeviceDetail, error)
	DeleteDevice(ctx context.Context, deviceID int64) (core.CascadeResult, error)
	UpsertDependent(ctx context.Context, part core.Part, deviceID int64, fs core.FieldSet) (core.UpsertResult, error)
	UpsertOffer(ctx context.Context, deviceID, retailerID int64, fs core.FieldSet) (core.UpsertResult, error)
	RemoveOffer(ctx context.Context, deviceID, retailerID int64) (int64, error)

	Search(ctx context.Context, req core.SearchRequest) ([]core.SearchResult, error)
	FacetOptions(ctx context.Context, target core.Dimension, filters map[core.Dimension]string) ([]core.Option, error)
	Options(ctx context.Context, d core.Dimension) ([]core.Option, error)
	FormOptions(ctx context.Context) (map[core.Dimension][]core.Option, error)
	StatsByDimension(ctx context.Context, dim core.Dimension) ([]core.DimensionStat, error)
	TableStatistics(ctx context.Context) ([]core.TableStat, error)
	RunReport(ctx context.Context, name string, limit int) (*core.Report, error)

	GetAuditLog(ctx context.Context, filter core.AuditLogFilter) ([]core.AuditEntry, error)
}

var _ Catalog = (*core.Service)(nil)
