package entity

import (
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	BasicEntity
	FullName *string `json:"full_name" bun:"full_name"`
	Email    *string `json:"email"     bun:"email"`
	Phone    *string `json:"phone"     bun:"phone"`
	Password *string `json:"password"  bun:"password"`
	Status   *bool   `json:"status"    bun:"status"`
}
