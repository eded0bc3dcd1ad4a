package synccontrol

import (
	"net/http"
	"time"

	"attendance/sync/foundation/web"

	"github.com/pkg/errors"
)

type Controller struct {
	syncer   Syncer
	status   Status
	streamID string
}

func NewController(syncer Syncer, status Status, streamID string) *Controller {
	return &Controller{syncer: syncer, status: status, streamID: streamID}
}

// Run triggers one sync tick immediately. If a tick is already in flight
// for the stream the request is acknowledged but skipped.
func (uc Controller) Run(c *web.Context) error {
	report, ran, err := uc.syncer.TryRun(c.Ctx, uc.streamID)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadGateway))
	}
	if !ran {
		return c.Respond(map[string]interface{}{
			"data":   "sync already in progress",
			"status": true,
		}, http.StatusAccepted)
	}

	return c.Respond(map[string]interface{}{
		"data":   report,
		"status": true,
	}, http.StatusOK)
}

type backfillRequest struct {
	StartDate string `json:"start_date" form:"start_date"`
	EndDate   string `json:"end_date" form:"end_date"`
}

// Backfill replays an explicit date range.
func (uc Controller) Backfill(c *web.Context) error {
	var request backfillRequest

	if err := c.BindFunc(&request, "StartDate", "EndDate"); err != nil {
		return c.RespondError(err)
	}

	start, err := time.ParseInLocation("2006-01-02", request.StartDate, time.Local)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "parsing start_date"), http.StatusBadRequest))
	}
	end, err := time.ParseInLocation("2006-01-02", request.EndDate, time.Local)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "parsing end_date"), http.StatusBadRequest))
	}

	report, ran, err := uc.syncer.Backfill(c.Ctx, start, end)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadGateway))
	}
	if !ran {
		return c.Respond(map[string]interface{}{
			"data":   "backfill already in progress",
			"status": true,
		}, http.StatusAccepted)
	}

	return c.Respond(map[string]interface{}{
		"data":   report,
		"status": true,
	}, http.StatusOK)
}

// Status reports the last completed tick for the stream.
func (uc Controller) Status(c *web.Context) error {
	report, err := uc.status.GetReport(c.Ctx, uc.streamID)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusNotFound))
	}

	return c.Respond(map[string]interface{}{
		"data":   report,
		"status": true,
	}, http.StatusOK)
}
