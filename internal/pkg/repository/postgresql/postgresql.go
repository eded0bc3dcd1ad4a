package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"attendance/sync/foundation/web"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Database wraps the bun connection so repositories can embed a single
// dependency.
type Database struct {
	*bun.DB
}

type Config struct {
	Username   string
	Password   string
	Host       string
	Port       string
	Name       string
	DisableTLS bool
	Debug      bool
}

func NewDatabase(cfg Config) *Database {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	if cfg.DisableTLS {
		dsn += "?sslmode=disable"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Database{DB: db}
}

// DeleteRow marks a row as deleted instead of removing it.
func (d Database) DeleteRow(ctx context.Context, table string, id int) error {
	q := d.NewUpdate().Table(table).Where("deleted_at IS NULL AND id = ?", id)
	q.Set("deleted_at = ?", time.Now())

	res, err := q.Exec(ctx)
	if err != nil {
		return web.NewRequestError(errors.Wrapf(err, "deleting from %s", table), http.StatusInternalServerError)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return web.NewRequestError(errors.Errorf("row not found in %s", table), http.StatusNotFound)
	}

	return nil
}

// ValidateStruct checks that the listed fields of the request struct are
// set. Pointer fields must be non-nil, strings non-empty.
func (d Database) ValidateStruct(s interface{}, requiredFields ...string) error {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return web.NewRequestError(errors.New("validate: not a struct"), http.StatusInternalServerError)
	}

	var fields []web.FieldError
	for _, name := range requiredFields {
		f := v.FieldByName(name)
		if !f.IsValid() {
			fields = append(fields, web.FieldError{Field: name, Error: "unknown field"})
			continue
		}
		switch f.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
			if f.IsNil() {
				fields = append(fields, web.FieldError{Field: name, Error: "is required"})
			}
		case reflect.String:
			if strings.TrimSpace(f.String()) == "" {
				fields = append(fields, web.FieldError{Field: name, Error: "is required"})
			}
		default:
			if f.IsZero() {
				fields = append(fields, web.FieldError{Field: name, Error: "is required"})
			}
		}
	}

	if len(fields) > 0 {
		return &web.Error{
			Err:    errors.New("required fields are missing"),
			Status: http.StatusBadRequest,
			Fields: fields,
		}
	}

	return nil
}
