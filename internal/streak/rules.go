package streak

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/entity"
)

const (
	// ExpiryWindow is how long a completion keeps the streak alive.
	ExpiryWindow = 24 * time.Hour
	// AtRiskHours is the remaining-hours threshold for the at-risk phase.
	AtRiskHours = 4
)

// Complete applies a daily completion at now. The second return value is
// false when the user already completed on now's calendar day in loc.
func Complete(st entity.StreakState, now time.Time, loc *time.Location) (entity.StreakState, bool) {
	if st.LastCompletion != nil && sameDay(*st.LastCompletion, now, loc) {
		return st, false
	}
	if expired(st, now) {
		st.CurrentStreak = 0
	}
	st.CurrentStreak++
	st.TotalDays++
	at := now
	st.LastCompletion = &at
	return st, true
}

// Freeze re-anchors the expiry clock at now without touching the counters.
// It needs a token and a streak with a completion on record; a lapsed
// streak can still be rescued however long the gap.
func Freeze(st entity.StreakState, tokens int, now time.Time) (entity.StreakState, bool) {
	if tokens <= 0 || st.CurrentStreak <= 0 || st.LastCompletion == nil {
		return st, false
	}
	at := now
	st.LastCompletion = &at
	return st, true
}

// HoursRemaining is max(0, 24 - hours since the last completion), truncated
// to whole hours and bounded to [0, 24].
func HoursRemaining(st entity.StreakState, now time.Time) int {
	left := remaining(st, now)
	if left <= 0 {
		return 0
	}
	if left > ExpiryWindow {
		left = ExpiryWindow
	}
	return int(left / time.Hour)
}

// IsAtRisk reports whether a live streak has AtRiskHours or fewer left.
// A window with nothing left is over, not at risk.
func IsAtRisk(st entity.StreakState, now time.Time) bool {
	if st.CurrentStreak <= 0 || remaining(st, now) <= 0 {
		return false
	}
	return HoursRemaining(st, now) <= AtRiskHours
}

// PhaseAt classifies st at now.
func PhaseAt(st entity.StreakState, now time.Time) entity.Phase {
	switch {
	case st.CurrentStreak <= 0 || st.LastCompletion == nil:
		return entity.PhaseInactive
	case expired(st, now):
		return entity.PhaseExpired
	case IsAtRisk(st, now):
		return entity.PhaseAtRisk
	default:
		return entity.PhaseActive
	}
}

// EffectiveStreak is CurrentStreak, or zero once the window has lapsed.
func EffectiveStreak(st entity.StreakState, now time.Time) int {
	if expired(st, now) {
		return 0
	}
	return st.CurrentStreak
}

// expired is true once more than ExpiryWindow has passed since the anchor.
func expired(st entity.StreakState, now time.Time) bool {
	return st.LastCompletion == nil || now.Sub(*st.LastCompletion) > ExpiryWindow
}

func remaining(st entity.StreakState, now time.Time) time.Duration {
	if st.LastCompletion == nil {
		return 0
	}
	return ExpiryWindow - now.Sub(*st.LastCompletion)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
