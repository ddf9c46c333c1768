package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// FreezeRepo stores the freeze token balance per user.
type FreezeRepo struct {
	db *sqlx.DB
}

func NewFreezeRepo(db *sqlx.DB) *FreezeRepo { return &FreezeRepo{db: db} }

func (r *FreezeRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS freeze_inventory (
  user_id VARCHAR(64) PRIMARY KEY,
  tokens INTEGER NOT NULL DEFAULT 0 CHECK (tokens >= 0)
)`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *FreezeRepo) Load(ctx context.Context, userID string) (int, error) {
	var tokens int
	err := r.db.GetContext(ctx, &tokens, r.db.Rebind(`SELECT tokens FROM freeze_inventory WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return tokens, err
}

func (r *FreezeRepo) Save(ctx context.Context, userID string, count int) error {
	if count < 0 {
		count = 0
	}
	q := r.db.Rebind(`INSERT INTO freeze_inventory (user_id, tokens) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET tokens = excluded.tokens`)
	_, err := r.db.ExecContext(ctx, q, userID, count)
	return err
}
