package user

type Filter struct {
	Limit  *int
	Offset *int
	Page   *int
	Search *string
}

// DirectoryUser is the read-only directory entry used as a fuzzy-match
// candidate during reconciliation.
type DirectoryUser struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type ProvisionRequest struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"-"`
}

type GetListResponse struct {
	ID       int     `json:"id"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}
