package postgres

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("record not found")
)
