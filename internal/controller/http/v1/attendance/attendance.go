package attendance

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/repository/postgres/attendance"
	"attendance/sync/internal/service"

	"github.com/pkg/errors"
)

type Controller struct {
	attendance Attendance
	lateCutoff string
}

func NewController(attendance Attendance, lateCutoff string) *Controller {
	return &Controller{attendance: attendance, lateCutoff: lateCutoff}
}

func (uc Controller) GetList(c *web.Context) error {
	var filter attendance.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if search, ok := c.GetQueryFunc(reflect.String, "search").(*string); ok {
		filter.Search = search
	}
	if status, ok := c.GetQueryFunc(reflect.String, "status").(*string); ok {
		filter.Status = status
	}
	if source, ok := c.GetQueryFunc(reflect.String, "source").(*string); ok {
		filter.Source = source
	}
	if date, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		filter.Date = date
	}
	if userID, ok := c.GetQueryFunc(reflect.Int, "user_id").(*int); ok {
		filter.UserID = userID
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.attendance.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetDetailById(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	response, err := uc.attendance.GetDetailById(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// UpdateColumns applies a manual correction to one day record.
func (uc Controller) UpdateColumns(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var request attendance.UpdateRequest
	if err := c.BindFunc(&request); err != nil {
		return c.RespondError(err)
	}
	request.ID = id

	if err := uc.attendance.UpdateColumns(c.Ctx, request, uc.lateCutoff); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) Delete(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.attendance.Delete(c.Ctx, id); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

// Export writes the requested work-day range to an Excel file and serves
// it as an attachment.
func (uc Controller) Export(c *web.Context) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.RespondError(web.NewRequestError(errors.New("from and to query parameters are required"), http.StatusBadRequest))
	}

	rows, err := uc.attendance.ExportList(c.Ctx, from, to)
	if err != nil {
		return c.RespondError(err)
	}

	fileName := filepath.Join(os.TempDir(), fmt.Sprintf("attendance_%s_%s_%d.xlsx", from, to, time.Now().Unix()))
	if err = service.CreateAttendanceExcel(rows, fileName); err != nil {
		return c.RespondError(errors.Wrap(err, "creating attendance excel"))
	}
	defer os.Remove(fileName)

	c.Header("Content-Disposition", "attachment; filename=\"attendance.xlsx\"")
	c.File(fileName)

	return nil
}
