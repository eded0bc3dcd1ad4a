package attendance

import (
	"context"

	"attendance/sync/internal/repository/postgres/attendance"
)

type Attendance interface {
	GetList(ctx context.Context, filter attendance.Filter) ([]attendance.GetListResponse, int, error)
	GetDetailById(ctx context.Context, id int) (attendance.GetDetailByIdResponse, error)
	UpdateColumns(ctx context.Context, request attendance.UpdateRequest, lateCutoff string) error
	Delete(ctx context.Context, id int) error
	ExportList(ctx context.Context, from, to string) ([]attendance.ExportRow, error)
}
