package attendance

import (
	"time"

	"github.com/Azure/go-autorest/autorest/date"
)

type Filter struct {
	Limit   *int
	Offset  *int
	Page    *int
	Search  *string
	Status  *string
	Date    *string
	UserID  *int
	Source  *string
}

// MergeRequest is one aggregated day handed to the idempotent writer.
// Derived fields are those computed for the incoming values alone; the
// store recomputes them against whatever survives the merge.
type MergeRequest struct {
	UserID           int
	WorkDay          string // 2006-01-02
	CheckInAt        *time.Time
	CheckOutAt       *time.Time
	TotalWorkMinutes *int
	Status           string
	IsLate           bool
	LateCutoff       string // "15:04" grace used for in-store recompute
}

type GetListResponse struct {
	ID               int        `json:"id"`
	UserID           *int       `json:"user_id"`
	FullName         *string    `json:"full_name"`
	WorkDay          *date.Date `json:"work_day"`
	CheckInAt        *time.Time `json:"check_in_at"`
	CheckOutAt       *time.Time `json:"check_out_at"`
	TotalWorkMinutes *int       `json:"total_work_minutes"`
	Status           *string    `json:"status"`
	IsLate           *bool      `json:"is_late"`
	Source           *string    `json:"source"`
}

type GetDetailByIdResponse struct {
	ID               int        `json:"id"`
	UserID           *int       `json:"user_id"`
	FullName         *string    `json:"full_name"`
	Email            *string    `json:"email"`
	WorkDay          *date.Date `json:"work_day"`
	CheckInAt        *time.Time `json:"check_in_at"`
	CheckOutAt       *time.Time `json:"check_out_at"`
	TotalWorkMinutes *int       `json:"total_work_minutes"`
	Status           *string    `json:"status"`
	IsLate           *bool      `json:"is_late"`
	LunchBreakStart  *time.Time `json:"lunch_break_start"`
	LunchBreakEnd    *time.Time `json:"lunch_break_end"`
	Source           *string    `json:"source"`
	LastModifiedBy   *string    `json:"last_modified_by"`
}

// UpdateRequest is a manual correction. Times are "15:04" on the record's
// work day. Only the provided fields change; derived fields are
// recomputed in-store.
type UpdateRequest struct {
	ID              int     `json:"id" form:"id"`
	CheckInTime     *string `json:"check_in_time" form:"check_in_time"`
	CheckOutTime    *string `json:"check_out_time" form:"check_out_time"`
	LunchBreakStart *string `json:"lunch_break_start" form:"lunch_break_start"`
	LunchBreakEnd   *string `json:"lunch_break_end" form:"lunch_break_end"`
	ModifiedBy      *string `json:"modified_by" form:"modified_by"`
}

type ExportRow struct {
	FullName         string
	WorkDay          string
	CheckInAt        *time.Time
	CheckOutAt       *time.Time
	TotalWorkMinutes *int
	Status           string
	IsLate           bool
	Source           string
}
