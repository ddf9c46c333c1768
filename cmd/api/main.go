package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/routine"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/setting"
	settingentity "github.com/ovaphlow/pitchfork/service-streak-go/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber"
	subscriberentity "github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/utilities"
)

var defaultReminders = []string{
	routine.DefaultReminder,
	"Four hours left on your streak. A quick routine keeps it alive.",
	"Don't break the chain: today's routine is still open.",
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	addr := pflag.String("addr", "0.0.0.0:8431", "listen address")
	store := pflag.String("store", "", "store engine: postgres, sqlite or memory (overrides DATABASE_ENGINE)")
	issueToken := pflag.String("issue-token", "", "print a bearer token for this user ID and exit")
	tokenTTL := pflag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by --issue-token")
	grantPro := pflag.String("grant-pro", "", "record the pro tier for this user ID and exit")
	pflag.Parse()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	clock := clockwork.NewRealClock()

	authSvc, err := auth.NewService(auth.ConfigFromEnv(), clock)
	if err != nil {
		sugar.Fatalf("auth: %v", err)
	}
	if *issueToken != "" {
		tok, err := authSvc.Issue(*issueToken, *tokenTTL)
		if err != nil {
			sugar.Fatalf("issue token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	sugar.Info("starting service-streak-go")

	// init db
	cfg := database.ConfigFromEnv()
	if *store != "" {
		cfg.Engine = *store
	}
	var db *sqlx.DB
	if cfg.Engine != database.EngineMemory {
		db, err = database.Open(cfg)
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := storage.New(ctx, cfg.Engine, db)
	if err != nil {
		sugar.Fatalf("storage: %v", err)
	}
	subscribers := subscriber.NewService(stores.Subscribers)
	if *grantPro != "" {
		if err := subscribers.SetTier(ctx, *grantPro, subscriberentity.TierPro); err != nil {
			sugar.Fatalf("grant pro: %v", err)
		}
		sugar.Infow("pro tier recorded", "user", *grantPro)
		return
	}

	loc, err := streak.LocationFromEnv()
	if err != nil {
		sugar.Fatalf("%v", err)
	}
	streaks := streak.NewEngine(stores.Streaks, stores.Freezes, clock,
		streak.WithLocation(loc), streak.WithLogger(sugar.Named("streak")))

	ids := utilities.IDGeneratorFromEnv()
	scorer, err := facescore.NewEngine(utilities.NewSeededRandom(scoreSeed(clock)), clock, facescore.WithIDs(ids.Generate))
	if err != nil {
		sugar.Fatalf("face score engine: %v", err)
	}

	settings := setting.NewService(stores.Settings, sugar.Named("setting"))
	if err := settings.EnsureDefaults(ctx, settingentity.CategoryReminder, defaultReminders); err != nil {
		sugar.Warnf("seed reminder copy: %v", err)
	}

	routineSvc := routine.NewService(routine.Deps{
		Streaks:      streaks,
		Scorer:       scorer,
		History:      stores.Scans,
		Entitlements: subscribers,
		Notifier:     routine.NewLogNotifier(sugar.Named("notifier")),
		Copy:         settings,
		Clock:        clock,
		Logger:       sugar.Named("routine"),
	}, routine.ConfigFromEnv())

	// mount http server
	handler := router.RegisterRoutes(sugar, router.Handlers{
		Routine:  routine.NewHandler(routineSvc, sugar),
		Settings: setting.NewHandler(settings, sugar),
		Auth:     authSvc,
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Infow("service is running; press Ctrl+C to stop", "addr", *addr, "store", cfg.Engine, "timezone", loc.String())

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if db != nil {
		if err := db.PingContext(doneCtx); err != nil {
			sugar.Warnf("db ping on shutdown failed: %v", err)
		}
	}

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// scoreSeed reads SCORE_SEED so scoring can be replayed; otherwise the
// current time seeds the jitter.
func scoreSeed(clock clockwork.Clock) uint64 {
	if v := os.Getenv("SCORE_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return uint64(clock.Now().UnixNano())
}
