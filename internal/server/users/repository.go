package users

import (
	"context"
)

type Repository interface {
	// Upsert inserts the user or, when a row with the same username already
	// exists, refreshes its attributes. The stored row is returned either way.
	Upsert(ctx context.Context, user *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
