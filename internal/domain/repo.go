package domain

import (
	"context"
)

// UserDirectory is the source of truth for user names.
type UserDirectory interface {
	NameByID(ctx context.Context, id uint32) (string, error)
}

// UserRepository is a directory that can also be written to.
type UserRepository interface {
	UserDirectory
	Upsert(ctx context.Context, user User) error
	Delete(ctx context.Context, id uint32) error
}

// RecentLister lists ids worth preloading into a cache, most recent first.
type RecentLister interface {
	RecentUserIDs(ctx context.Context, limit int) ([]uint32, error)
}
