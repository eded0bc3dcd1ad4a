package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"attendance/sync/foundation/web"
	"attendance/sync/internal/entity"
	"attendance/sync/internal/pkg/repository/postgresql"
	"attendance/sync/internal/repository/postgres"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/pkg/errors"
)

type Repository struct {
	*postgresql.Database
}

func NewRepository(database *postgresql.Database) *Repository {
	return &Repository{Database: database}
}

// The values surviving a merge. The stored timestamp always wins; an
// incoming check-out equal to the effective check-in is discarded via
// NULLIF, so a duplicated-direction punch split across two batches can
// never complete the day against itself.
const (
	mergedCheckIn  = "COALESCE(attendance.check_in_at, EXCLUDED.check_in_at)"
	mergedCheckOut = "COALESCE(attendance.check_out_at, NULLIF(EXCLUDED.check_out_at, " + mergedCheckIn + "))"
)

var mergeQuery = fmt.Sprintf(`
		INSERT INTO attendance (
			user_id, work_day, check_in_at, check_out_at,
			total_work_minutes, status, is_late, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (user_id, work_day) DO UPDATE SET
			check_in_at  = %[1]s,
			check_out_at = %[2]s,
			total_work_minutes = CASE
				WHEN %[1]s IS NOT NULL
				 AND %[2]s IS NOT NULL
				THEN GREATEST(0,
					CAST(EXTRACT(EPOCH FROM (
						%[2]s
						- %[1]s)) / 60 AS int)
					- COALESCE(CAST(EXTRACT(EPOCH FROM (
						attendance.lunch_break_end - attendance.lunch_break_start)) / 60 AS int), 0))
				ELSE attendance.total_work_minutes
			END,
			status = CASE
				WHEN %[1]s IS NULL THEN ?
				WHEN %[2]s IS NULL THEN ?
				ELSE ?
			END,
			is_late = CASE
				WHEN %[1]s IS NOT NULL
				THEN %[1]s::time > ?::time
				ELSE false
			END,
			updated_at = now()
		WHERE attendance.check_in_at IS NULL OR attendance.check_out_at IS NULL
	`, mergedCheckIn, mergedCheckOut)

// Merge applies one aggregated day to the store as a single atomic
// upsert. A row that already has both timestamps is final: the update
// predicate makes a replay a no-op, so a stale batch can never regress a
// completed or manually corrected day. On incomplete rows only null
// fields are filled, then the derived columns are recomputed from the
// surviving values.
func (r Repository) Merge(ctx context.Context, request MergeRequest) error {
	_, err := r.ExecContext(ctx, mergeQuery,
		request.UserID,
		request.WorkDay,
		request.CheckInAt,
		request.CheckOutAt,
		request.TotalWorkMinutes,
		request.Status,
		request.IsLate,
		entity.SourceSync,
		entity.StatusAbsent,
		entity.StatusInProgress,
		entity.StatusCompleted,
		request.LateCutoff,
	)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "merging attendance day"), http.StatusInternalServerError)
	}

	return nil
}

func (r Repository) GetList(ctx context.Context, filter Filter) ([]GetListResponse, int, error) {
	whereQuery := `
		WHERE
			a.deleted_at IS NULL
	`

	if filter.Search != nil {
		search := strings.Replace(*filter.Search, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND u.full_name ilike '%s'`, "%"+search+"%")
	}
	if filter.UserID != nil {
		whereQuery += fmt.Sprintf(` AND a.user_id = %d`, *filter.UserID)
	}
	if filter.Status != nil {
		status := strings.Replace(*filter.Status, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND a.status = '%s'`, status)
	}
	if filter.Source != nil {
		source := strings.Replace(*filter.Source, "'", "''", -1)
		whereQuery += fmt.Sprintf(` AND a.source = '%s'`, source)
	}

	if filter.Date != nil {
		day, err := time.Parse("2006-01-02", *filter.Date)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "date parse"), http.StatusBadRequest)
		}
		whereQuery += fmt.Sprintf(` AND a.work_day = '%s'`, day.Format("2006-01-02"))
	} else {
		whereQuery += fmt.Sprintf(` AND a.work_day = '%s'`, time.Now().Format("2006-01-02"))
	}

	orderQuery := "ORDER BY a.work_day desc, u.full_name asc"

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
			a.id,
			a.user_id,
			u.full_name,
			a.work_day,
			a.check_in_at,
			a.check_out_at,
			a.total_work_minutes,
			a.status,
			a.is_late,
			a.source
		FROM attendance a
		LEFT JOIN users u ON a.user_id = u.id
		%s %s %s %s
	`, whereQuery, orderQuery, limitQuery, offsetQuery)

	rows, err := r.QueryContext(ctx, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "selecting attendance"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []GetListResponse

	for rows.Next() {
		var detail GetListResponse
		var workDayString string

		if err = rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.FullName,
			&workDayString,
			&detail.CheckInAt,
			&detail.CheckOutAt,
			&detail.TotalWorkMinutes,
			&detail.Status,
			&detail.IsLate,
			&detail.Source,
		); err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "scanning attendance list"), http.StatusInternalServerError)
		}

		workDay, err := date.ParseDate(workDayString)
		if err != nil {
			return nil, 0, web.NewRequestError(errors.Wrap(err, "converting work_day"), http.StatusInternalServerError)
		}
		detail.WorkDay = &workDay

		list = append(list, detail)
	}

	countQuery := fmt.Sprintf(`
		SELECT
			count(a.id)
		FROM attendance a
		LEFT JOIN users u ON a.user_id = u.id
		%s
	`, whereQuery)

	count := 0
	if err = r.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
		return nil, 0, web.NewRequestError(errors.Wrap(err, "counting attendance"), http.StatusInternalServerError)
	}

	return list, count, nil
}

func (r Repository) GetDetailById(ctx context.Context, id int) (GetDetailByIdResponse, error) {
	query := fmt.Sprintf(`
		SELECT
			a.id,
			a.user_id,
			u.full_name,
			u.email,
			a.work_day,
			a.check_in_at,
			a.check_out_at,
			a.total_work_minutes,
			a.status,
			a.is_late,
			a.lunch_break_start,
			a.lunch_break_end,
			a.source,
			a.last_modified_by
		FROM attendance a
		LEFT JOIN users u ON a.user_id = u.id
		WHERE a.deleted_at IS NULL AND a.id = %d
	`, id)

	var detail GetDetailByIdResponse
	var workDayString string

	err := r.QueryRowContext(ctx, query).Scan(
		&detail.ID,
		&detail.UserID,
		&detail.FullName,
		&detail.Email,
		&workDayString,
		&detail.CheckInAt,
		&detail.CheckOutAt,
		&detail.TotalWorkMinutes,
		&detail.Status,
		&detail.IsLate,
		&detail.LunchBreakStart,
		&detail.LunchBreakEnd,
		&detail.Source,
		&detail.LastModifiedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetDetailByIdResponse{}, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(err, "selecting attendance detail"), http.StatusInternalServerError)
	}

	workDay, err := date.ParseDate(workDayString)
	if err != nil {
		return GetDetailByIdResponse{}, web.NewRequestError(errors.Wrap(err, "converting work_day"), http.StatusInternalServerError)
	}
	detail.WorkDay = &workDay

	return detail, nil
}

// UpdateColumns applies a manual correction. Provided times replace the
// stored ones, derived columns are recomputed from the surviving values
// in the same statement, and the row is stamped as manually sourced so
// later sync replays leave it alone once complete.
func (r Repository) UpdateColumns(ctx context.Context, request UpdateRequest, lateCutoff string) error {
	if err := r.ValidateStruct(&request, "ID"); err != nil {
		return err
	}

	checkIn, err := r.dayTime(ctx, request.ID, request.CheckInTime)
	if err != nil {
		return err
	}
	checkOut, err := r.dayTime(ctx, request.ID, request.CheckOutTime)
	if err != nil {
		return err
	}
	lunchStart, err := r.dayTime(ctx, request.ID, request.LunchBreakStart)
	if err != nil {
		return err
	}
	lunchEnd, err := r.dayTime(ctx, request.ID, request.LunchBreakEnd)
	if err != nil {
		return err
	}

	query := `
		UPDATE attendance SET
			check_in_at  = COALESCE(?, check_in_at),
			check_out_at = COALESCE(?, check_out_at),
			lunch_break_start = COALESCE(?, lunch_break_start),
			lunch_break_end   = COALESCE(?, lunch_break_end),
			total_work_minutes = CASE
				WHEN COALESCE(?, check_in_at) IS NOT NULL AND COALESCE(?, check_out_at) IS NOT NULL
				THEN GREATEST(0,
					CAST(EXTRACT(EPOCH FROM (COALESCE(?, check_out_at) - COALESCE(?, check_in_at))) / 60 AS int)
					- COALESCE(CAST(EXTRACT(EPOCH FROM (
						COALESCE(?, lunch_break_end) - COALESCE(?, lunch_break_start))) / 60 AS int), 0))
				ELSE NULL
			END,
			status = CASE
				WHEN COALESCE(?, check_in_at) IS NULL THEN ?
				WHEN COALESCE(?, check_out_at) IS NULL THEN ?
				ELSE ?
			END,
			is_late = CASE
				WHEN COALESCE(?, check_in_at) IS NOT NULL
				THEN COALESCE(?, check_in_at)::time > ?::time
				ELSE false
			END,
			source = ?,
			last_modified_by = COALESCE(?, last_modified_by),
			updated_at = now()
		WHERE deleted_at IS NULL AND id = ?
	`

	res, err := r.ExecContext(ctx, query,
		checkIn, checkOut, lunchStart, lunchEnd,
		checkIn, checkOut,
		checkOut, checkIn,
		lunchEnd, lunchStart,
		checkIn, entity.StatusAbsent,
		checkOut, entity.StatusInProgress,
		entity.StatusCompleted,
		checkIn,
		checkIn, lateCutoff,
		entity.SourceManual,
		request.ModifiedBy,
		request.ID,
	)
	if err != nil {
		return web.NewRequestError(errors.Wrap(err, "updating attendance"), http.StatusInternalServerError)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}

	return nil
}

// dayTime combines a "15:04" correction value with the record's work day.
func (r Repository) dayTime(ctx context.Context, id int, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}

	clock, err := time.Parse("15:04", *value)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrapf(err, "parsing time %q", *value), http.StatusBadRequest)
	}

	var workDayString string
	err = r.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT work_day FROM attendance WHERE deleted_at IS NULL AND id = %d`, id),
	).Scan(&workDayString)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, web.NewRequestError(postgres.ErrNotFound, http.StatusNotFound)
	}
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting work_day"), http.StatusInternalServerError)
	}

	day, err := time.ParseInLocation("2006-01-02", workDayString[:10], time.Local)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "parsing work_day"), http.StatusInternalServerError)
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
	return &t, nil
}

func (r Repository) Delete(ctx context.Context, id int) error {
	return r.DeleteRow(ctx, "attendance", id)
}

// ExportList returns the rows for the Excel export over a work-day range.
func (r Repository) ExportList(ctx context.Context, from, to string) ([]ExportRow, error) {
	fromDay, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "from date parse"), http.StatusBadRequest)
	}
	toDay, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "to date parse"), http.StatusBadRequest)
	}

	query := `
		SELECT
			COALESCE(u.full_name, ''),
			a.work_day,
			a.check_in_at,
			a.check_out_at,
			a.total_work_minutes,
			COALESCE(a.status, ''),
			COALESCE(a.is_late, false),
			COALESCE(a.source, '')
		FROM attendance a
		LEFT JOIN users u ON a.user_id = u.id
		WHERE a.deleted_at IS NULL AND a.work_day BETWEEN ? AND ?
		ORDER BY a.work_day, u.full_name
	`

	rows, err := r.QueryContext(ctx, query, fromDay.Format("2006-01-02"), toDay.Format("2006-01-02"))
	if err != nil {
		return nil, web.NewRequestError(errors.Wrap(err, "selecting attendance export"), http.StatusInternalServerError)
	}
	defer rows.Close()

	var list []ExportRow
	for rows.Next() {
		var row ExportRow
		if err = rows.Scan(
			&row.FullName,
			&row.WorkDay,
			&row.CheckInAt,
			&row.CheckOutAt,
			&row.TotalWorkMinutes,
			&row.Status,
			&row.IsLate,
			&row.Source,
		); err != nil {
			return nil, web.NewRequestError(errors.Wrap(err, "scanning attendance export"), http.StatusInternalServerError)
		}
		list = append(list, row)
	}

	return list, nil
}
