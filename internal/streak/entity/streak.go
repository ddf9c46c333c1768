package entity

import "time"

// StreakState is the persisted streak for one user.
//
// LastCompletion anchors both the expiry window and the once-per-calendar-day
// rule; a freeze moves it too.
type StreakState struct {
	CurrentStreak  int        `json:"current_streak"`
	TotalDays      int        `json:"total_days"`
	LastCompletion *time.Time `json:"last_completion,omitempty"`
}

// FreezeInventory counts unused freeze tokens.
type FreezeInventory struct {
	Count int `json:"count"`
}

// Phase is the day-cycle state of a streak at a given instant.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseActive   Phase = "active"
	PhaseAtRisk   Phase = "at_risk"
	PhaseExpired  Phase = "expired"
)

// Snapshot is the read model returned by status queries. CurrentStreak is the
// effective value: zero once the streak has expired, even before the stored
// state is rewritten.
type Snapshot struct {
	State          StreakState `json:"state"`
	Phase          Phase       `json:"phase"`
	CurrentStreak  int         `json:"current_streak"`
	HoursRemaining int         `json:"hours_remaining"`
	AtRisk         bool        `json:"at_risk"`
	Freezes        int         `json:"freezes"`
}
