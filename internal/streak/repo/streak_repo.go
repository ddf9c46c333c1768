package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
)

// StreakRepo stores one streak row per user. Queries use ? placeholders and
// go through Rebind, so it runs on Postgres and SQLite alike.
type StreakRepo struct {
	db *sqlx.DB
}

func NewStreakRepo(db *sqlx.DB) *StreakRepo { return &StreakRepo{db: db} }

// EnsureTable creates the streaks table if not exists (idempotent).
func (r *StreakRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS streaks (
  user_id VARCHAR(64) PRIMARY KEY,
  current_streak INTEGER NOT NULL DEFAULT 0,
  total_days INTEGER NOT NULL DEFAULT 0,
  last_completion_ms BIGINT
)`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

type streakRow struct {
	UserID           string        `db:"user_id"`
	CurrentStreak    int           `db:"current_streak"`
	TotalDays        int           `db:"total_days"`
	LastCompletionMs sql.NullInt64 `db:"last_completion_ms"`
}

// Load returns the stored state or the zero state when the user has no row.
func (r *StreakRepo) Load(ctx context.Context, userID string) (entity.StreakState, error) {
	q := r.db.Rebind(`SELECT user_id, current_streak, total_days, last_completion_ms
		FROM streaks WHERE user_id = ?`)
	var row streakRow
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.StreakState{}, nil
		}
		return entity.StreakState{}, err
	}
	return entity.StreakState{
		CurrentStreak:  row.CurrentStreak,
		TotalDays:      row.TotalDays,
		LastCompletion: database.TimeOf(row.LastCompletionMs),
	}, nil
}

// Save upserts the user's row.
func (r *StreakRepo) Save(ctx context.Context, userID string, st entity.StreakState) error {
	q := r.db.Rebind(`INSERT INTO streaks (user_id, current_streak, total_days, last_completion_ms)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
		  current_streak = excluded.current_streak,
		  total_days = excluded.total_days,
		  last_completion_ms = excluded.last_completion_ms`)
	_, err := r.db.ExecContext(ctx, q, userID, st.CurrentStreak, st.TotalDays,
		database.MillisOf(st.LastCompletion))
	return err
}
