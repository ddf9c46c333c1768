package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/entity"
)

// ScanRepo appends and lists scan results. Label lists are stored as JSON
// text and instants as Unix milliseconds.
type ScanRepo struct {
	db *sqlx.DB
}

func NewScanRepo(db *sqlx.DB) *ScanRepo { return &ScanRepo{db: db} }

// EnsureTable creates the face_scans table and its lookup index.
func (r *ScanRepo) EnsureTable(ctx context.Context) error {
	const tbl = `
CREATE TABLE IF NOT EXISTS face_scans (
  id VARCHAR(32) PRIMARY KEY,
  user_id VARCHAR(64) NOT NULL,
  rating DOUBLE PRECISION NOT NULL,
  strengths TEXT NOT NULL DEFAULT '[]',
  weaknesses TEXT NOT NULL DEFAULT '[]',
  captured_at_ms BIGINT NOT NULL,
  processing_seconds DOUBLE PRECISION NOT NULL DEFAULT 0
)`
	if _, err := r.db.ExecContext(ctx, tbl); err != nil {
		return err
	}
	const idx = `CREATE INDEX IF NOT EXISTS idx_face_scans_user_captured ON face_scans (user_id, captured_at_ms)`
	_, err := r.db.ExecContext(ctx, idx)
	return err
}

type scanRow struct {
	ID                string  `db:"id"`
	UserID            string  `db:"user_id"`
	Rating            float64 `db:"rating"`
	Strengths         string  `db:"strengths"`
	Weaknesses        string  `db:"weaknesses"`
	CapturedAtMs      int64   `db:"captured_at_ms"`
	ProcessingSeconds float64 `db:"processing_seconds"`
}

func (r *ScanRepo) Append(ctx context.Context, userID string, res entity.FaceScanResult) error {
	strengths, err := json.Marshal(res.Strengths)
	if err != nil {
		return err
	}
	weaknesses, err := json.Marshal(res.Weaknesses)
	if err != nil {
		return err
	}
	q := r.db.Rebind(`INSERT INTO face_scans (id, user_id, rating, strengths, weaknesses, captured_at_ms, processing_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, q, res.ID, userID, res.Rating, string(strengths), string(weaknesses),
		res.CapturedAt.UnixMilli(), res.ProcessingDurationSeconds)
	return err
}

// List returns the user's scans, most recent first.
func (r *ScanRepo) List(ctx context.Context, userID string) ([]entity.FaceScanResult, error) {
	q := r.db.Rebind(`SELECT id, user_id, rating, strengths, weaknesses, captured_at_ms, processing_seconds
		FROM face_scans WHERE user_id = ? ORDER BY captured_at_ms DESC, id DESC`)
	var rows []scanRow
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	out := make([]entity.FaceScanResult, 0, len(rows))
	for _, row := range rows {
		res := entity.FaceScanResult{
			ID:                        row.ID,
			Rating:                    row.Rating,
			CapturedAt:                time.UnixMilli(row.CapturedAtMs).UTC(),
			ProcessingDurationSeconds: row.ProcessingSeconds,
		}
		if err := json.Unmarshal([]byte(row.Strengths), &res.Strengths); err != nil {
			return nil, fmt.Errorf("scan %s strengths: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.Weaknesses), &res.Weaknesses); err != nil {
			return nil, fmt.Errorf("scan %s weaknesses: %w", row.ID, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// DeleteAll removes the user's whole history.
func (r *ScanRepo) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM face_scans WHERE user_id = ?`), userID)
	return err
}
