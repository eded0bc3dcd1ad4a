package reconciliation

import (
	"net/http"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/service/reconcile"

	"github.com/pkg/errors"
)

type Controller struct {
	reconciler Reconciler
}

func NewController(reconciler Reconciler) *Controller {
	return &Controller{reconciler: reconciler}
}

type runRequest struct {
	Roster []reconcile.VendorEmployee `json:"roster"`
}

// Run starts a bulk reconciliation. An empty roster reconciles the
// unmapped codes collected by the sync ticks.
func (uc Controller) Run(c *web.Context) error {
	var request runRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}

	report, reviews, err := uc.reconciler.Run(c.Ctx, request.Roster)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"report":  report,
			"reviews": reviews,
		},
		"status": true,
	}, http.StatusOK)
}

// Review lists the queued manual-review items.
func (uc Controller) Review(c *web.Context) error {
	items, err := uc.reconciler.PendingReviews(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": items,
			"count":   len(items),
		},
		"status": true,
	}, http.StatusOK)
}

type decideRequest struct {
	VendorEmpCode string  `json:"vendor_emp_code" form:"vendor_emp_code"`
	UserID        int     `json:"user_id" form:"user_id"`
	Approve       *bool   `json:"approve" form:"approve"`
	Score         float64 `json:"score" form:"score"`
}

// Decide settles one manual-review item.
func (uc Controller) Decide(c *web.Context) error {
	var request decideRequest
	if err := c.BindFunc(&request, "VendorEmpCode", "Approve"); err != nil {
		return c.RespondError(err)
	}

	if *request.Approve && request.UserID == 0 {
		return c.RespondError(web.NewRequestError(errors.New("user_id is required to approve a mapping"), http.StatusBadRequest))
	}

	if err := uc.reconciler.Decide(c.Ctx, request.VendorEmpCode, request.UserID, *request.Approve, request.Score); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}
