package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means the directory has no user with the requested id.
	ErrNotFound = errors.New("user not found")

	// ErrNoDataSource means a cache was built without a backing directory.
	ErrNoDataSource = errors.New("data source is empty")

	ErrEmptyName = errors.New("name is required")
)

type User struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
