package mapping

import (
	"net/http"
	"reflect"

	"attendance/sync/foundation/web"
)

type Controller struct {
	mapping Mapping
}

func NewController(mapping Mapping) *Controller {
	return &Controller{mapping: mapping}
}

func (uc Controller) GetList(c *web.Context) error {
	list, err := uc.mapping.GetList(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   len(list),
		},
		"status": true,
	}, http.StatusOK)
}

// Deactivate retires the active mapping for one vendor employee code.
func (uc Controller) Deactivate(c *web.Context) error {
	code := c.GetParam(reflect.String, "code").(string)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	if err := uc.mapping.Deactivate(c.Ctx, code); err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}
