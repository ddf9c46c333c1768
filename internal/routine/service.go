package routine

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore"
	scanentity "github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/entity"
	settingentity "github.com/ovaphlow/pitchfork/service-streak-go/internal/setting/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak"
	streakentity "github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/utilities"
)

var ErrScanLimitReached = errors.New("daily free scan limit reached")

// DefaultReminder is used when no reminder copy is configured.
const DefaultReminder = "Your streak ends soon. Finish today's routine to keep it going."

// Entitlements reports the subscription tier.
type Entitlements interface {
	IsPro(ctx context.Context, userID string) (bool, error)
}

// Copy resolves configurable text.
type Copy interface {
	Variant(ctx context.Context, category, key, fallback string) string
}

type Clock interface {
	Now() time.Time
}

type Deps struct {
	Streaks      *streak.Engine
	Scorer       *facescore.Engine
	History      facescore.ScanHistoryStore
	Entitlements Entitlements
	Notifier     Notifier
	Copy         Copy
	Clock        Clock
	Logger       *zap.SugaredLogger
}

type Config struct {
	// FreeScansPerDay caps scans for free users per calendar day. Zero or
	// less disables the cap.
	FreeScansPerDay int
	// ReminderLead is how long before expiry the reminder fires.
	ReminderLead time.Duration
}

// ConfigFromEnv reads FREE_SCANS_PER_DAY and REMINDER_LEAD.
func ConfigFromEnv() Config {
	cfg := Config{FreeScansPerDay: 1, ReminderLead: streak.AtRiskHours * time.Hour}
	if v := os.Getenv("FREE_SCANS_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FreeScansPerDay = n
		}
	}
	if v := os.Getenv("REMINDER_LEAD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ReminderLead = d
		}
	}
	return cfg
}

// Service ties a user's daily routine together: scans go through scoring
// into history, completions drive the streak and the reminder schedule.
type Service struct {
	deps  Deps
	cfg   Config
	locks *utilities.KeyedMutex
}

func NewService(deps Deps, cfg Config) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	return &Service{deps: deps, cfg: cfg, locks: utilities.NewKeyedMutex()}
}

// RecordScan scores metrics and appends the result to the user's history.
func (s *Service) RecordScan(ctx context.Context, userID string, metrics scanentity.FaceMetrics) (scanentity.FaceScanResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.checkScanLimit(ctx, userID); err != nil {
		return scanentity.FaceScanResult{}, err
	}
	res := s.deps.Scorer.Score(metrics)
	if err := s.deps.History.Append(ctx, userID, res); err != nil {
		return scanentity.FaceScanResult{}, database.Unavailable("append scan", err)
	}
	s.deps.Logger.Debugw("scan recorded", "user", userID, "scan", res.ID, "rating", res.Rating)
	return res, nil
}

func (s *Service) checkScanLimit(ctx context.Context, userID string) error {
	if s.cfg.FreeScansPerDay <= 0 {
		return nil
	}
	if s.deps.Entitlements != nil {
		pro, err := s.deps.Entitlements.IsPro(ctx, userID)
		if err != nil {
			return database.Unavailable("load entitlement", err)
		}
		if pro {
			return nil
		}
	}
	history, err := s.deps.History.List(ctx, userID)
	if err != nil {
		return database.Unavailable("list scans", err)
	}
	loc := s.deps.Streaks.Location()
	y, m, d := s.deps.Clock.Now().In(loc).Date()
	today := 0
	// history is newest first, so stop at the first older day
	for _, h := range history {
		hy, hm, hd := h.CapturedAt.In(loc).Date()
		if hy != y || hm != m || hd != d {
			break
		}
		today++
	}
	if today >= s.cfg.FreeScansPerDay {
		s.deps.Logger.Infow("scan limit reached", "user", userID, "today", today)
		return ErrScanLimitReached
	}
	return nil
}

func (s *Service) ListScans(ctx context.Context, userID string) ([]scanentity.FaceScanResult, error) {
	list, err := s.deps.History.List(ctx, userID)
	if err != nil {
		return nil, database.Unavailable("list scans", err)
	}
	return list, nil
}

func (s *Service) ResetScans(ctx context.Context, userID string) error {
	if err := s.deps.History.DeleteAll(ctx, userID); err != nil {
		return database.Unavailable("delete scans", err)
	}
	s.deps.Logger.Infow("scan history cleared", "user", userID)
	return nil
}

func (s *Service) Status(ctx context.Context, userID string) (streakentity.Snapshot, error) {
	return s.deps.Streaks.Status(ctx, userID)
}

// CompleteRoutine records today's completion and moves the reminder to the
// moment the new streak turns at risk.
func (s *Service) CompleteRoutine(ctx context.Context, userID string) (streakentity.StreakState, bool, error) {
	st, counted, err := s.deps.Streaks.CompleteToday(ctx, userID)
	if err != nil {
		return st, false, err
	}
	if counted {
		s.reschedule(ctx, userID, st.LastCompletion)
	}
	return st, counted, nil
}

// UseFreeze spends a freeze token. The bool reports whether it applied.
func (s *Service) UseFreeze(ctx context.Context, userID string) (bool, error) {
	st, applied, err := s.deps.Streaks.ApplyFreeze(ctx, userID)
	if err != nil || !applied {
		return applied, err
	}
	s.reschedule(ctx, userID, st.LastCompletion)
	return true, nil
}

func (s *Service) AddFreezes(ctx context.Context, userID string, n int) (int, error) {
	return s.deps.Streaks.AddFreezes(ctx, userID, n)
}

// ResetStreak clears the streak only and drops the pending reminder.
func (s *Service) ResetStreak(ctx context.Context, userID string) (streakentity.StreakState, error) {
	st, err := s.deps.Streaks.Reset(ctx, userID)
	if err != nil {
		return st, err
	}
	s.cancel(ctx, userID)
	return st, nil
}

// Reset wipes the user's routine: streak, scan history and reminder.
func (s *Service) Reset(ctx context.Context, userID string) error {
	if _, err := s.deps.Streaks.Reset(ctx, userID); err != nil {
		return err
	}
	if err := s.ResetScans(ctx, userID); err != nil {
		return err
	}
	s.cancel(ctx, userID)
	return nil
}

func (s *Service) reschedule(ctx context.Context, userID string, anchor *time.Time) {
	if s.deps.Notifier == nil || anchor == nil {
		return
	}
	msg := DefaultReminder
	if s.deps.Copy != nil {
		msg = s.deps.Copy.Variant(ctx, settingentity.CategoryReminder, userID, DefaultReminder)
	}
	r := Reminder{
		UserID:  userID,
		At:      anchor.Add(streak.ExpiryWindow - s.cfg.ReminderLead),
		Message: msg,
	}
	if err := s.deps.Notifier.Schedule(ctx, r); err != nil {
		s.deps.Logger.Warnw("reminder schedule failed", "user", userID, "err", err)
	}
}

func (s *Service) cancel(ctx context.Context, userID string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Cancel(ctx, userID); err != nil {
		s.deps.Logger.Warnw("reminder cancel failed", "user", userID, "err", err)
	}
}
