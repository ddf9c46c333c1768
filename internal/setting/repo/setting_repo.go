package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/setting/entity"
)

// Repo is the SQL repository for settings.
type Repo struct {
	db *sqlx.DB
}

// NewRepo constructs a new Repo with an existing *sqlx.DB connection.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// EnsureTable ensures the settings table and its index exist.
// Fields:
// - id varchar(32) PRIMARY KEY
// - category varchar(32) (indexed)
// - metadata json text
func (r *Repo) EnsureTable(ctx context.Context) error {
	createTable := `CREATE TABLE IF NOT EXISTS settings (
		id varchar(32) PRIMARY KEY,
		category varchar(32) NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}'
	)`
	if _, err := r.db.ExecContext(ctx, createTable); err != nil {
		return err
	}
	createIndex := `CREATE INDEX IF NOT EXISTS idx_settings_category ON settings (category)`
	_, err := r.db.ExecContext(ctx, createIndex)
	return err
}

type settingRow struct {
	ID       string `db:"id"`
	Category string `db:"category"`
	Metadata string `db:"metadata"`
}

// List returns the settings in category ordered by id. An empty category
// lists everything.
func (r *Repo) List(ctx context.Context, category string) ([]*entity.Setting, error) {
	q := `SELECT id, category, metadata FROM settings`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY id`
	var rows []settingRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]*entity.Setting, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.NewSetting(row.ID, row.Category, []byte(row.Metadata)))
	}
	return out, nil
}

// Create inserts or replaces a setting by id.
func (r *Repo) Create(ctx context.Context, s *entity.Setting) error {
	q := r.db.Rebind(`INSERT INTO settings (id, category, metadata) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET category = excluded.category, metadata = excluded.metadata`)
	_, err := r.db.ExecContext(ctx, q, s.ID, s.Category, string(s.Metadata))
	return err
}
