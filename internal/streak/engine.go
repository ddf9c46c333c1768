package streak

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/utilities"
)

// Clock is satisfied by clockwork.Clock.
type Clock interface {
	Now() time.Time
}

// StreakStore persists streak state. Load returns the zero state for users
// that have never completed.
type StreakStore interface {
	Load(ctx context.Context, userID string) (entity.StreakState, error)
	Save(ctx context.Context, userID string, st entity.StreakState) error
}

// FreezeStore persists the freeze token count. Load returns 0 for unknown users.
type FreezeStore interface {
	Load(ctx context.Context, userID string) (int, error)
	Save(ctx context.Context, userID string, count int) error
}

// Engine applies the streak rules against the stores. Every read-modify-write
// for a user runs under that user's lock.
type Engine struct {
	streaks StreakStore
	freezes FreezeStore
	clock   Clock
	loc     *time.Location
	logger  *zap.SugaredLogger
	locks   *utilities.KeyedMutex
}

type Option func(*Engine)

// WithLocation sets the zone that defines calendar days. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(streaks StreakStore, freezes FreezeStore, clock Clock, opts ...Option) *Engine {
	e := &Engine{
		streaks: streaks,
		freezes: freezes,
		clock:   clock,
		loc:     time.UTC,
		logger:  zap.NewNop().Sugar(),
		locks:   utilities.NewKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LocationFromEnv loads STREAK_TIMEZONE, defaulting to UTC.
func LocationFromEnv() (*time.Location, error) {
	name := os.Getenv("STREAK_TIMEZONE")
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("STREAK_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Location returns the zone used for calendar days.
func (e *Engine) Location() *time.Location { return e.loc }

// CompleteToday records today's routine. The bool is false when the user
// already completed today; the stored state is returned unchanged then.
func (e *Engine) CompleteToday(ctx context.Context, userID string) (entity.StreakState, bool, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	st, err := e.streaks.Load(ctx, userID)
	if err != nil {
		return entity.StreakState{}, false, database.Unavailable("load streak", err)
	}
	now := e.clock.Now()
	next, counted := Complete(st, now, e.loc)
	if !counted {
		e.logger.Debugw("completion already recorded today", "user", userID)
		return st, false, nil
	}
	if err := e.streaks.Save(ctx, userID, next); err != nil {
		return entity.StreakState{}, false, database.Unavailable("save streak", err)
	}
	if next.CurrentStreak == 1 && st.CurrentStreak > 0 {
		e.logger.Infow("streak lapsed and restarted", "user", userID, "previous", st.CurrentStreak)
	}
	e.logger.Debugw("completion recorded", "user", userID, "streak", next.CurrentStreak, "total_days", next.TotalDays)
	return next, true, nil
}

// ApplyFreeze spends one token to re-anchor the expiry window at now and
// returns the state it wrote. When no token is available or there is no
// streak to protect it returns the stored state and false, nil.
func (e *Engine) ApplyFreeze(ctx context.Context, userID string) (entity.StreakState, bool, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	st, err := e.streaks.Load(ctx, userID)
	if err != nil {
		return entity.StreakState{}, false, database.Unavailable("load streak", err)
	}
	tokens, err := e.freezes.Load(ctx, userID)
	if err != nil {
		return entity.StreakState{}, false, database.Unavailable("load freezes", err)
	}
	next, ok := Freeze(st, tokens, e.clock.Now())
	if !ok {
		e.logger.Debugw("freeze not applied", "user", userID, "tokens", tokens, "streak", st.CurrentStreak)
		return st, false, nil
	}
	if err := e.freezes.Save(ctx, userID, tokens-1); err != nil {
		return entity.StreakState{}, false, database.Unavailable("save freezes", err)
	}
	if err := e.streaks.Save(ctx, userID, next); err != nil {
		// give the token back; the streak was not rescued
		if rerr := e.freezes.Save(ctx, userID, tokens); rerr != nil {
			e.logger.Errorw("freeze refund failed", "user", userID, "err", rerr)
		}
		return entity.StreakState{}, false, database.Unavailable("save streak", err)
	}
	e.logger.Infow("freeze applied", "user", userID, "streak", next.CurrentStreak, "tokens_left", tokens-1)
	return next, true, nil
}

// Reset clears the current streak and its anchor. TotalDays is kept.
func (e *Engine) Reset(ctx context.Context, userID string) (entity.StreakState, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	st, err := e.streaks.Load(ctx, userID)
	if err != nil {
		return entity.StreakState{}, database.Unavailable("load streak", err)
	}
	st.CurrentStreak = 0
	st.LastCompletion = nil
	if err := e.streaks.Save(ctx, userID, st); err != nil {
		return entity.StreakState{}, database.Unavailable("save streak", err)
	}
	e.logger.Infow("streak reset", "user", userID)
	return st, nil
}

// AddFreezes credits n purchased tokens and returns the new balance.
func (e *Engine) AddFreezes(ctx context.Context, userID string, n int) (int, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	tokens, err := e.freezes.Load(ctx, userID)
	if err != nil {
		return 0, database.Unavailable("load freezes", err)
	}
	if n > 0 {
		tokens += n
		if err := e.freezes.Save(ctx, userID, tokens); err != nil {
			return 0, database.Unavailable("save freezes", err)
		}
	}
	return tokens, nil
}

// Status evaluates the stored state at the current instant without writing.
func (e *Engine) Status(ctx context.Context, userID string) (entity.Snapshot, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	st, err := e.streaks.Load(ctx, userID)
	if err != nil {
		return entity.Snapshot{}, database.Unavailable("load streak", err)
	}
	tokens, err := e.freezes.Load(ctx, userID)
	if err != nil {
		return entity.Snapshot{}, database.Unavailable("load freezes", err)
	}
	now := e.clock.Now()
	return entity.Snapshot{
		State:          st,
		Phase:          PhaseAt(st, now),
		CurrentStreak:  EffectiveStreak(st, now),
		HoursRemaining: HoursRemaining(st, now),
		AtRisk:         IsAtRisk(st, now),
		Freezes:        tokens,
	}, nil
}
