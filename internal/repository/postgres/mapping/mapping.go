package mapping

import (
	"context"
	"database/sql"
	"net/http"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/entity"
	"attendance/sync/internal/pkg/repository/postgresql"
	"attendance/sync/internal/repository/postgres"

	"github.com/pkg/errors"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// GetActiveByCode is the O(1) fast path used on every punch.
func (r Repository) GetActiveByCode(ctx context.Context, vendorEmpCode string) (entity.EmployeeMapping, error) {
	var detail entity.EmployeeMapping

	err := r.NewSelect().Model(&detail).
		Where("vendor_emp_code = ? AND active", vendorEmpCode).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.EmployeeMapping{}, postgres.ErrNotFound
	}
	if err != nil {
		return entity.EmployeeMapping{}, web.NewRequestError(errors.Wrap(err, "selecting employee mapping"), http.StatusInternalServerError)
	}

	return detail, nil
}

// Create inserts an active mapping for a vendor code. The partial unique
// index on active codes makes re-running reconciliation a no-op, which
// keeps bulk runs idempotent under overlap with the live tick.
func (r Repository) Create(ctx context.Context, request CreateRequest) error {
	if err := r.ValidateStruct(&request, "VendorEmpCode", "UserID"); err != nil {
		return err
	}

	query := `
		INSERT INTO employee_mapping (vendor_emp_code, user_id, confidence, active, created_at)
		VALUES (?, ?, ?, true, now())
		ON CONFLICT (vendor_emp_code) WHERE active DO NOTHING
	`

	if _, err := r.ExecContext(ctx, query, request.VendorEmpCode, request.UserID, request.Confidence); err != nil {
		return web.NewRequestError(errors.Wrap(err, "creating employee mapping"), http.StatusInternalServerError)
	}

	return nil
}

// Deactivate retires the active mapping for a vendor code. History rows
// are kept.
func (r Repository) Deactivate(ctx context.Context, vendorEmpCode string) error {
	query := `
		UPDATE employee_mapping SET active = false
		WHERE vendor_emp_code = ? AND active
	`

	res, err := r.ExecContext(ctx, query, vendorEmpCode)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "deactivating employee mapping"), http.StatusInternalServerError)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return nil
}

func (r Repository) GetList(ctx context.Context) ([]GetListResponse, error) {
	query := `
		SELECT
			m.id,
			m.vendor_emp_code,
			m.user_id,
			u.full_name,
			m.confidence,
			m.active,
			m.created_at
		FROM employee_mapping m
		LEFT JOIN users u ON m.user_id = u.id
		WHERE m.active
		ORDER BY m.vendor_emp_code
	`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting employee mappings"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []GetListResponse
	for rows.Next() {
		var detail GetListResponse
		if err = rows.Scan(
			&detail.ID,
			&detail.VendorEmpCode,
			&detail.UserID,
			&detail.FullName,
			&detail.Confidence,
			&detail.Active,
			&detail.CreatedAt,
		); err != nil {
			return nil, web.NewRequestError(errors.Wrap(err, "scanning employee mapping"), http.StatusInternalServerError)
		}
		list = append(list, detail)
	}

	return list, nil
}
