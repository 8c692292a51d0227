package accounts

import (
	"context"
	"time"
)

// UpdateParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateParams struct {
	Email         *string
	FirstName     *string
	LastName      *string
	FullName      *string
	PreferredName *string
}

// Repository defines the user-related database operations.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailTaken(ctx context.Context, email string, excludeUserID string) (bool, error)
	Update(ctx context.Context, id string, params UpdateParams) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
