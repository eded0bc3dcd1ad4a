package synccontrol

import (
	"context"
	"time"

	syncsvc "attendance/sync/internal/service/sync"
)

type Syncer interface {
	TryRun(ctx context.Context, streamID string) (syncsvc.Report, bool, error)
	Backfill(ctx context.Context, start, end time.Time) (syncsvc.BackfillReport, bool, error)
}

type Status interface {
	GetReport(ctx context.Context, streamID string) (syncsvc.Report, error)
}
