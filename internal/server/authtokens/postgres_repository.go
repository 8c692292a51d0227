package authtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/runbase/internal/common"
	"github.com/avolkovs/runbase/internal/dbx"
)

// keySize is the number of random bytes per token; encoded as hex this
// yields the 40-character keys the API contract expects.
const keySize = 20

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*Token, error) {

	key, err := common.MakeRandHexString(keySize)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	// The no-op DO UPDATE makes the insert return the existing row when the
	// user already holds a token.
	query :=
		`INSERT INTO auth_tokens (key, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET key = auth_tokens.key
		 RETURNING key, user_id, created_at
		 `

	token := &Token{}
	err = r.db.QueryRowContext(ctx, query, key, userID).
		Scan(&token.Key, &token.UserID, &token.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

func (r *PostgresRepository) GetByKey(ctx context.Context, key string) (*Token, error) {
	query := `SELECT key, user_id, created_at FROM auth_tokens WHERE key = $1`

	token := &Token{}
	err := r.db.QueryRowContext(ctx, query, key).
		Scan(&token.Key, &token.UserID, &token.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM auth_tokens WHERE key = $1`

	res, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
