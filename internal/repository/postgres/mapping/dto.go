package mapping

import "time"

type CreateRequest struct {
	VendorEmpCode string  `json:"vendor_emp_code" form:"vendor_emp_code"`
	UserID        int     `json:"user_id" form:"user_id"`
	Confidence    float64 `json:"confidence" form:"confidence"`
}

type GetListResponse struct {
	ID            int       `json:"id"`
	VendorEmpCode string    `json:"vendor_emp_code"`
	UserID        int       `json:"user_id"`
	FullName      *string   `json:"full_name"`
	Confidence    float64   `json:"confidence"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}
