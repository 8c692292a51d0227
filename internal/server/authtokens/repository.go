// Package authtokens stores the opaque API tokens issued on login.
// Tokens do not expire; they live until logout deletes them.
package authtokens

import (
	"context"
	"time"
)

// Token is an opaque credential tied to a single user. Each user has at
// most one active token; repeated logins return the existing key.
type Token struct {
	Key       string
	UserID    string
	CreatedAt time.Time
}

type Repository interface {
	GetOrCreate(ctx context.Context, userID string) (*Token, error)
	GetByKey(ctx context.Context, key string) (*Token, error)
	Delete(ctx context.Context, key string) error
}
