package service

import (
	"fmt"
	"time"

	"attendance/sync/internal/repository/postgres/attendance"

	"github.com/xuri/excelize/v2"
)

var attendanceHeaders = []string{
	"Employee", "Work Day", "Check In", "Check Out", "Work Minutes", "Status", "Late", "Source",
}

// CreateAttendanceExcel renders aggregated day records into an .xlsx file
// and returns the file path.
func CreateAttendanceExcel(rows []attendance.ExportRow, fileName string) error {
	f := excelize.NewFile()
	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range attendanceHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, header)
	}

	rowNum := 2
	for _, entry := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), entry.FullName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), formatDay(entry.WorkDay))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), formatClock(entry.CheckInAt))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowNum), formatClock(entry.CheckOutAt))
		if entry.TotalWorkMinutes != nil {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", rowNum), *entry.TotalWorkMinutes)
		}
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowNum), entry.Status)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", rowNum), entry.IsLate)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", rowNum), entry.Source)
		rowNum++
	}

	if err := f.SaveAs(fileName); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

func formatDay(day string) string {
	if len(day) >= 10 {
		return day[:10]
	}
	return day
}
