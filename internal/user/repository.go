package user

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLoginTaken   = errors.New("login already registered")
)

type Repository interface {
	// CreateUser stores u and returns it with its assigned id.
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	// ListMasters returns every non-client user with the number of services they offer.
	ListMasters(ctx context.Context) ([]Master, error)
}
