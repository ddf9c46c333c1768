package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore"
	scanrepo "github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/repo"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/setting"
	settingrepo "github.com/ovaphlow/pitchfork/service-streak-go/internal/setting/repo"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak"
	streakrepo "github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/repo"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber"
	subscriberrepo "github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/repo"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
)

var ErrNoDB = errors.New("sql engine needs a database handle")

// Stores is the full set of persistence backends for one engine.
type Stores struct {
	Streaks     streak.StreakStore
	Freezes     streak.FreezeStore
	Scans       facescore.ScanHistoryStore
	Subscribers subscriber.Repository
	Settings    setting.Repository
}

type tableOwner interface {
	EnsureTable(ctx context.Context) error
}

// New builds the stores for engine. SQL engines create their tables on the
// way; db is ignored for the memory engine.
func New(ctx context.Context, engine string, db *sqlx.DB) (*Stores, error) {
	switch engine {
	case database.EngineMemory:
		return &Stores{
			Streaks:     streakrepo.NewMemoryStreakRepo(),
			Freezes:     streakrepo.NewMemoryFreezeRepo(),
			Scans:       scanrepo.NewMemoryScanRepo(),
			Subscribers: subscriberrepo.NewMemorySubscriberRepo(),
			Settings:    settingrepo.NewMemoryRepo(),
		}, nil
	case database.EnginePostgres, database.EngineSQLite:
		if db == nil {
			return nil, ErrNoDB
		}
		streaks := streakrepo.NewStreakRepo(db)
		freezes := streakrepo.NewFreezeRepo(db)
		scans := scanrepo.NewScanRepo(db)
		subscribers := subscriberrepo.NewSubscriberRepo(db)
		settings := settingrepo.NewRepo(db)
		for _, t := range []tableOwner{streaks, freezes, scans, subscribers, settings} {
			if err := t.EnsureTable(ctx); err != nil {
				return nil, fmt.Errorf("ensure tables: %w", err)
			}
		}
		return &Stores{
			Streaks:     streaks,
			Freezes:     freezes,
			Scans:       scans,
			Subscribers: subscribers,
			Settings:    settings,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store engine: %q", engine)
	}
}
