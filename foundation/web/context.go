package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Context carries the gin context together with the request scoped
// context.Context used by the repositories and services.
type Context struct {
	*gin.Context
	Ctx context.Context

	queryErrs []FieldError
	paramErrs []FieldError
}

func NewContext(c *gin.Context) *Context {
	return &Context{Context: c, Ctx: c.Request.Context()}
}

// GetQueryFunc reads an optional query parameter and converts it to the
// requested kind. It returns a typed nil pointer when the parameter is
// absent so callers can type assert unconditionally. Conversion problems
// are collected and surfaced by ValidQuery.
func (c *Context) GetQueryFunc(kind reflect.Kind, name string) interface{} {
	value, ok := c.GetQuery(name)

	switch kind {
	case reflect.Int:
		if !ok || value == "" {
			return (*int)(nil)
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			c.queryErrs = append(c.queryErrs, FieldError{Field: name, Error: "must be an integer"})
			return (*int)(nil)
		}
		return &v
	case reflect.Bool:
		if !ok || value == "" {
			return (*bool)(nil)
		}
		v, err := strconv.ParseBool(value)
		if err != nil {
			c.queryErrs = append(c.queryErrs, FieldError{Field: name, Error: "must be a boolean"})
			return (*bool)(nil)
		}
		return &v
	case reflect.String:
		if !ok || value == "" {
			return (*string)(nil)
		}
		return &value
	default:
		c.queryErrs = append(c.queryErrs, FieldError{Field: name, Error: fmt.Sprintf("unsupported kind %s", kind)})
		return nil
	}
}

// ValidQuery reports the query conversion errors collected so far.
func (c *Context) ValidQuery() error {
	if len(c.queryErrs) == 0 {
		return nil
	}
	return &Error{
		Err:    errors.New("invalid query parameters"),
		Status: http.StatusBadRequest,
		Fields: c.queryErrs,
	}
}

// GetParam reads a required path parameter converted to the requested kind.
func (c *Context) GetParam(kind reflect.Kind, name string) interface{} {
	value := c.Param(name)

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(value)
		if err != nil {
			c.paramErrs = append(c.paramErrs, FieldError{Field: name, Error: "must be an integer"})
			return 0
		}
		return v
	case reflect.String:
		if value == "" {
			c.paramErrs = append(c.paramErrs, FieldError{Field: name, Error: "is required"})
		}
		return value
	default:
		c.paramErrs = append(c.paramErrs, FieldError{Field: name, Error: fmt.Sprintf("unsupported kind %s", kind)})
		return nil
	}
}

// ValidParam reports the path parameter errors collected so far.
func (c *Context) ValidParam() error {
	if len(c.paramErrs) == 0 {
		return nil
	}
	return &Error{
		Err:    errors.New("invalid path parameters"),
		Status: http.StatusBadRequest,
		Fields: c.paramErrs,
	}
}

// BindFunc binds the request body into obj and checks that the listed
// fields are present. A pointer field must be non-nil, a string field must
// be non-empty.
func (c *Context) BindFunc(obj interface{}, requiredFields ...string) error {
	if err := c.ShouldBind(obj); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request body"), http.StatusBadRequest)
	}

	var fields []FieldError

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for _, name := range requiredFields {
		f := v.FieldByName(name)
		if !f.IsValid() {
			fields = append(fields, FieldError{Field: name, Error: "unknown field"})
			continue
		}
		switch f.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			if f.IsNil() {
				fields = append(fields, FieldError{Field: name, Error: "is required"})
			}
		case reflect.String:
			if strings.TrimSpace(f.String()) == "" {
				fields = append(fields, FieldError{Field: name, Error: "is required"})
			}
		default:
			if f.IsZero() {
				fields = append(fields, FieldError{Field: name, Error: "is required"})
			}
		}
	}

	if len(fields) > 0 {
		return &Error{
			Err:    errors.New("required fields are missing"),
			Status: http.StatusBadRequest,
			Fields: fields,
		}
	}

	return nil
}

// Respond sends a JSON response with the given status code.
func (c *Context) Respond(data interface{}, status int) error {
	c.JSON(status, data)
	return nil
}

// RespondError sends an error response. Errors wrapped with
// NewRequestError keep their status code, anything else is treated as an
// internal server error.
func (c *Context) RespondError(err error) error {
	if re := GetRequestError(err); re != nil {
		body := gin.H{
			"status": false,
			"error":  re.Error(),
		}
		if len(re.Fields) > 0 {
			body["fields"] = re.Fields
		}
		c.JSON(re.Status, body)
		return nil
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"status": false,
		"error":  err.Error(),
	})
	return err
}
