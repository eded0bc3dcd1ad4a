package mapping

import (
	"context"

	"attendance/sync/internal/repository/postgres/mapping"
)

type Mapping interface {
	GetList(ctx context.Context) ([]mapping.GetListResponse, error)
	Deactivate(ctx context.Context, vendorEmpCode string) error
}
