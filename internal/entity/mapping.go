package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// EmployeeMapping ties a vendor employee code to an internal user. At most
// one active mapping may exist per vendor code.
type EmployeeMapping struct {
	bun.BaseModel `bun:"table:employee_mapping"`

	ID            int       `json:"id" bun:"id,pk,autoincrement"`
	VendorEmpCode string    `json:"vendor_emp_code" bun:"vendor_emp_code"`
	UserID        int       `json:"user_id" bun:"user_id"`
	Confidence    float64   `json:"confidence" bun:"confidence"`
	Active        bool      `json:"active" bun:"active"`
	CreatedAt     time.Time `json:"created_at" bun:"created_at"`
}
