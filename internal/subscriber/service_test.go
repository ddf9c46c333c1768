package subscriber_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/repo"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
)

func sqliteRepo(t *testing.T) *repo.SubscriberRepo {
	t.Helper()
	db, err := database.Open(database.Config{
		Engine: database.EngineSQLite,
		DSN:    filepath.Join(t.TempDir(), "subscribers.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r := repo.NewSubscriberRepo(db)
	if err := r.EnsureTable(context.Background()); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	return r
}

func TestIsPro(t *testing.T) {
	repos := map[string]subscriber.Repository{
		"memory": repo.NewMemorySubscriberRepo(),
		"sqlite": sqliteRepo(t),
	}
	for name, r := range repos {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := subscriber.NewService(r)

			pro, err := svc.IsPro(ctx, "nobody")
			if err != nil || pro {
				t.Fatalf("IsPro(unknown) = %v, %v; want false, nil", pro, err)
			}

			if err := r.Upsert(ctx, entity.Subscriber{UserID: "u1", Email: "a@b.c", Tier: entity.TierFree, Metadata: []byte(`{"source":"web"}`)}); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if pro, _ := svc.IsPro(ctx, "u1"); pro {
				t.Fatalf("free user reported as pro")
			}

			if err := svc.SetTier(ctx, "u1", entity.TierPro); err != nil {
				t.Fatalf("SetTier() error = %v", err)
			}
			if pro, _ := svc.IsPro(ctx, "u1"); !pro {
				t.Fatalf("expected pro after SetTier")
			}
			got, err := r.Get(ctx, "u1")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Email != "a@b.c" || string(got.Metadata) != `{"source":"web"}` {
				t.Fatalf("SetTier dropped fields: %+v", got)
			}
		})
	}
}

type brokenRepo struct{ subscriber.Repository }

var errDown = errors.New("down")

func (brokenRepo) Get(context.Context, string) (entity.Subscriber, error) {
	return entity.Subscriber{}, errDown
}

func TestIsProPropagatesStoreErrors(t *testing.T) {
	_, err := subscriber.NewService(brokenRepo{}).IsPro(context.Background(), "u1")
	if !errors.Is(err, errDown) {
		t.Fatalf("expected store error, got %v", err)
	}
}
