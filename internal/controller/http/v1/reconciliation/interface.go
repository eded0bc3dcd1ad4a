package reconciliation

import (
	"context"

	"attendance/sync/internal/service/reconcile"
)

type Reconciler interface {
	Run(ctx context.Context, roster []reconcile.VendorEmployee) (reconcile.Report, []reconcile.ReviewItem, error)
	PendingReviews(ctx context.Context) ([]reconcile.ReviewItem, error)
	Decide(ctx context.Context, vendorEmpCode string, userID int, approve bool, score float64) error
}
