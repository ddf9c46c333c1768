package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/entity"
)

var ErrNotFound = errors.New("subscriber not found")

type SubscriberRepo struct {
	db *sqlx.DB
}

func NewSubscriberRepo(db *sqlx.DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

// EnsureTable creates the subscribers table if it does not already exist.
// Metadata is JSON kept as TEXT so the same DDL runs on SQLite.
func (r *SubscriberRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
	CREATE TABLE IF NOT EXISTS subscribers (
		user_id varchar(64) PRIMARY KEY,
		email varchar(128) NOT NULL DEFAULT '',
		tier varchar(16) NOT NULL DEFAULT 'free',
		metadata TEXT NOT NULL DEFAULT '{}'
	);
	`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}

	const idx = `
	CREATE INDEX IF NOT EXISTS idx_subscribers_email ON subscribers (email);
	`
	if _, err := r.db.ExecContext(ctx, idx); err != nil {
		return err
	}
	return nil
}

type subscriberRow struct {
	UserID   string `db:"user_id"`
	Email    string `db:"email"`
	Tier     string `db:"tier"`
	Metadata string `db:"metadata"`
}

// Get returns ErrNotFound when the user has no subscription row.
func (r *SubscriberRepo) Get(ctx context.Context, userID string) (entity.Subscriber, error) {
	q := r.db.Rebind(`SELECT user_id, email, tier, metadata FROM subscribers WHERE user_id = ?`)
	var row subscriberRow
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Subscriber{}, ErrNotFound
		}
		return entity.Subscriber{}, err
	}
	s := entity.Subscriber{UserID: row.UserID, Email: row.Email, Tier: row.Tier}
	if row.Metadata != "" {
		s.Metadata = []byte(row.Metadata)
	}
	return s, nil
}

func (r *SubscriberRepo) Upsert(ctx context.Context, s entity.Subscriber) error {
	meta := string(s.Metadata)
	if meta == "" {
		meta = "{}"
	}
	q := r.db.Rebind(`INSERT INTO subscribers (user_id, email, tier, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
		  email = excluded.email,
		  tier = excluded.tier,
		  metadata = excluded.metadata`)
	_, err := r.db.ExecContext(ctx, q, s.UserID, s.Email, s.Tier, meta)
	return err
}
