package db

import (
	"context"
	"database/sql"

	"github.com/avolkovs/runbase/internal/server/accounts"
	"github.com/avolkovs/runbase/internal/server/authtokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() accounts.Repository
	AuthTokens() authtokens.Repository
}
