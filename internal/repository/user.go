package repository

import (
	"context"
	"errors"

	"student-connect/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update violates a unique index.
	ErrDuplicate = errors.New("duplicate")
)

// ProfilePatch carries the profile fields a user may change. Nil means "leave
// untouched"; a non-nil empty string is written as empty.
type ProfilePatch struct {
	FullName *string
	Bio      *string
	Username *string
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) error
	UpdateAvatarURL(ctx context.Context, id int64, url string) error
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}
