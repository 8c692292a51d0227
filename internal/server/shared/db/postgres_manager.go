package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/avolkovs/runbase/internal/server/accounts"
	"github.com/avolkovs/runbase/internal/server/authtokens"
	"github.com/avolkovs/runbase/internal/server/migrations"
)

type PostgresRepositoryManager struct {
	db         *sql.DB
	users      accounts.Repository
	authTokens authtokens.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Users() accounts.Repository {
	return m.users
}

func (m *PostgresRepositoryManager) AuthTokens() authtokens.Repository {
	return m.authTokens
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:         db,
		users:      accounts.NewPostgresRepository(db),
		authTokens: authtokens.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
