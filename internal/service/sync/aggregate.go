package sync

import (
	"sort"
	"time"

	"attendance/sync/internal/entity"
	"attendance/sync/internal/service/vendor"
)

// DayRecord is one (employee, calendar day) aggregate derived from a
// punch batch before persistence.
type DayRecord struct {
	VendorEmpCode string
	EmployeeName  string
	WorkDay       string // 2006-01-02
	CheckInAt     *time.Time
	CheckOutAt    *time.Time
}

// GroupByDay groups punches by (vendor employee code, local calendar day)
// and derives the check-in/check-out pair for each group.
//
// The earliest in-punch wins check-in. The latest out-punch wins
// check-out, but only when it differs from check-in: some devices report
// a single punch under both directions and that must not complete a day.
// Unknown-direction punches are excluded here and survive only in the raw
// audit payload.
func GroupByDay(events []vendor.PunchEvent) []DayRecord {
	type key struct {
		code string
		day  string
	}

	groups := make(map[key]*DayRecord)
	for _, ev := range events {
		if ev.Direction == vendor.DirectionUnknown {
			continue
		}

		k := key{code: ev.VendorEmpCode, day: ev.Timestamp.Format("2006-01-02")}
		rec, ok := groups[k]
		if !ok {
			rec = &DayRecord{
				VendorEmpCode: ev.VendorEmpCode,
				EmployeeName:  ev.EmployeeName,
				WorkDay:       k.day,
			}
			groups[k] = rec
		}
		if rec.EmployeeName == "" {
			rec.EmployeeName = ev.EmployeeName
		}

		ts := ev.Timestamp
		switch ev.Direction {
		case vendor.DirectionIn:
			if rec.CheckInAt == nil || ts.Before(*rec.CheckInAt) {
				t := ts
				rec.CheckInAt = &t
			}
		case vendor.DirectionOut:
			if rec.CheckOutAt == nil || ts.After(*rec.CheckOutAt) {
				t := ts
				rec.CheckOutAt = &t
			}
		}
	}

	list := make([]DayRecord, 0, len(groups))
	for _, rec := range groups {
		if rec.CheckInAt != nil && rec.CheckOutAt != nil && rec.CheckOutAt.Equal(*rec.CheckInAt) {
			rec.CheckOutAt = nil
		}
		list = append(list, *rec)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].VendorEmpCode != list[j].VendorEmpCode {
			return list[i].VendorEmpCode < list[j].VendorEmpCode
		}
		return list[i].WorkDay < list[j].WorkDay
	})

	return list
}

// DeriveStatus is the three-state status machine. It is a pure function
// of timestamp presence and is recomputed on every pass. Completed
// requires both timestamps: a check-out with no check-in (the in-punch
// lost, or consumed by a previous cursor window) stays absent until the
// in-punch arrives.
func DeriveStatus(checkIn, checkOut *time.Time) string {
	switch {
	case checkIn == nil:
		return entity.StatusAbsent
	case checkOut == nil:
		return entity.StatusInProgress
	default:
		return entity.StatusCompleted
	}
}

// WorkMinutes computes the worked minutes for a day, net of the lunch
// break when both lunch bounds are known. Returns nil until the day is
// complete.
func WorkMinutes(checkIn, checkOut, lunchStart, lunchEnd *time.Time) *int {
	if checkIn == nil || checkOut == nil {
		return nil
	}

	minutes := int(checkOut.Sub(*checkIn).Minutes())
	if lunchStart != nil && lunchEnd != nil {
		minutes -= int(lunchEnd.Sub(*lunchStart).Minutes())
	}
	if minutes < 0 {
		minutes = 0
	}

	return &minutes
}

// IsLate reports whether the check-in's local time of day is past the
// grace cutoff ("15:04" formatted, e.g. "10:45").
func IsLate(checkIn *time.Time, grace string) bool {
	if checkIn == nil {
		return false
	}

	cutoff, err := time.Parse("15:04", grace)
	if err != nil {
		return false
	}

	in := checkIn.Hour()*60 + checkIn.Minute()
	return in > cutoff.Hour()*60+cutoff.Minute()
}
