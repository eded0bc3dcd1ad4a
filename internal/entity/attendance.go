package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Attendance status values. The status is always derived from the
// presence of the check-in/check-out timestamps, never set independently.
const (
	StatusAbsent     = "absent"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Attendance record sources.
const (
	SourceSync   = "sync"
	SourceManual = "manual"
)

type Attendance struct {
	bun.BaseModel `bun:"table:attendance"`

	BasicEntity
	UserID           *int       `json:"user_id" bun:"user_id"`
	WorkDay          string     `json:"work_day" bun:"work_day"`
	CheckInAt        *time.Time `json:"check_in_at" bun:"check_in_at"`
	CheckOutAt       *time.Time `json:"check_out_at" bun:"check_out_at"`
	TotalWorkMinutes *int       `json:"total_work_minutes" bun:"total_work_minutes"`
	Status           *string    `json:"status" bun:"status"`
	IsLate           *bool      `json:"is_late" bun:"is_late"`
	LunchBreakStart  *time.Time `json:"lunch_break_start" bun:"lunch_break_start"`
	LunchBreakEnd    *time.Time `json:"lunch_break_end" bun:"lunch_break_end"`
	Source           *string    `json:"source" bun:"source"`
	LastModifiedBy   *string    `json:"last_modified_by" bun:"last_modified_by"`
}
