package domain

import (
	"errors"
	"fmt"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

var ErrUnknownOp = errors.New("unknown event op")

// UserEvent is the message carried on the users topic.
type UserEvent struct {
	Op   string `json:"op"`
	ID   uint32 `json:"id"`
	Name string `json:"name,omitempty"`
}

func (e UserEvent) Validate() error {
	switch e.Op {
	case OpUpsert:
		return e.User().Validate()
	case OpDelete:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, e.Op)
	}
}

func (e UserEvent) User() User { return User{ID: e.ID, Name: e.Name} }
