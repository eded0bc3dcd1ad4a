package user

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/pkg/repository/postgresql"
	"attendance/sync/internal/repository/postgres"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// GetDirectory returns every active internal user. Reconciliation scores
// vendor employees against this list.
func (r Repository) GetDirectory(ctx context.Context) ([]DirectoryUser, error) {
	query := `
		SELECT
			u.id,
			COALESCE(u.full_name, ''),
			COALESCE(u.email, '')
		FROM users u
		WHERE u.deleted_at IS NULL
		ORDER BY u.full_name
	`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting user directory"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []DirectoryUser
	for rows.Next() {
		var detail DirectoryUser
		if err = rows.Scan(&detail.ID, &detail.FullName, &detail.Email); err != nil {
			return nil, web.NewRequestError(errors.Wrap(err, "scanning user directory"), http.StatusInternalServerError)
		}
		list = append(list, detail)
	}

	return list, nil
}

// Provision creates a new internal user for a vendor employee that could
// not be matched. Returns the new user id.
func (r Repository) Provision(ctx context.Context, request ProvisionRequest) (int, error) {
	if err := r.ValidateStruct(&request, "FullName"); err != nil {
		return 0, err
	}

	password := request.Password
	if password == "" {
		password = "changeme"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, web.NewRequestError(errors.Wrap(err, "hashing password"), http.StatusInternalServerError)
	}

	var id int
	query := `
		INSERT INTO users (full_name, email, password, created_at)
		VALUES (?, ?, ?, now())
		RETURNING id
	`
	if err = r.QueryRowContext(ctx, query, request.FullName, nullable(request.Email), string(hash)).Scan(&id); err != nil {
		return 0, web.NewRequestError(errors.Wrap(err, "provisioning user"), http.StatusInternalServerError)
	}

	return id, nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	whereQuery := `
		WHERE
			u.deleted_at IS NULL
	`

	if filter.Search != nil {
		search := strings.Replace(*filter.Search, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND u.full_name ilike '%s'`, "%"+search+"%")
	}
	orderQuery := "ORDER BY u.full_name"

	var limitQuery, offsetQuery string
	if filter.Page != nil && filter.Limit != nil {
		offset := (*filter.Page - 1) * (*filter.Limit)
		filter.Offset = &offset
	}
	if filter.Limit != nil {
		limitQuery = fmt.Sprintf(" LIMIT %d", *filter.Limit)
	}
	if filter.Offset != nil {
		offsetQuery = fmt.Sprintf(" OFFSET %d", *filter.Offset)
	}

	query := fmt.Sprintf(`
		SELECT
			u.id,
			u.full_name,
			u.email,
			u.phone
		FROM users u
		%s %s %s %s
	`, whereQuery, orderQuery, limitQuery, offsetQuery)

	rows, err := r.QueryContext(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting users"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []GetListResponse
	for rows.Next() {
		var detail GetListResponse
		if err = rows.Scan(&detail.ID, &detail.FullName, &detail.Email, &detail.Phone); err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning user list"), http.StatusInternalServerError)
		}
		list = append(list, detail)
	}

	countQuery := fmt.Sprintf(`
		SELECT
			count(u.id)
		FROM users u
		%s
	`, whereQuery)

	count := 0
	if err = r.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "counting users"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
