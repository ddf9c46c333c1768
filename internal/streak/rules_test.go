package streak

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/entity"
)

func stateAt(current int, last time.Time) entity.StreakState {
	return entity.StreakState{CurrentStreak: current, TotalDays: current, LastCompletion: &last}
}

func TestRiskThresholdBoundary(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	four := last.Add(20 * time.Hour)
	if got := HoursRemaining(stateAt(3, last), four); got != 4 {
		t.Fatalf("expected 4 hours remaining, got %d", got)
	}
	if !IsAtRisk(stateAt(3, last), four) {
		t.Fatalf("expected at risk with 4 hours remaining")
	}

	five := last.Add(19 * time.Hour)
	if got := HoursRemaining(stateAt(3, last), five); got != 5 {
		t.Fatalf("expected 5 hours remaining, got %d", got)
	}
	if IsAtRisk(stateAt(3, last), five) {
		t.Fatalf("expected not at risk with 5 hours remaining")
	}

	// 4h30m remaining truncates to 4 and is at risk
	if !IsAtRisk(stateAt(3, last), last.Add(19*time.Hour+30*time.Minute)) {
		t.Fatalf("expected at risk with 4.5 hours remaining")
	}
}

func TestWindowEndIsNotAtRisk(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	end := last.Add(ExpiryWindow)
	st := stateAt(3, last)

	if got := HoursRemaining(st, end); got != 0 {
		t.Fatalf("expected 0 hours remaining at the window end, got %d", got)
	}
	if IsAtRisk(st, end) {
		t.Fatalf("a window with nothing left should not be at risk")
	}
	if got := PhaseAt(st, end); got == entity.PhaseAtRisk {
		t.Fatalf("PhaseAt() = %q at the window end", got)
	}
	if !IsAtRisk(st, end.Add(-time.Minute)) {
		t.Fatalf("expected at risk one minute before the window end")
	}
}

func TestHoursRemainingBounds(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		st   entity.StreakState
		now  time.Time
		want int
	}{
		{"never completed", entity.StreakState{}, last, 0},
		{"just completed", stateAt(1, last), last, 24},
		{"clock behind anchor", stateAt(1, last), last.Add(-3 * time.Hour), 24},
		{"half way", stateAt(1, last), last.Add(12*time.Hour + 20*time.Minute), 11},
		{"lapsed", stateAt(1, last), last.Add(30 * time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoursRemaining(tt.st, tt.now); got != tt.want {
				t.Fatalf("HoursRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPhaseAt(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		st   entity.StreakState
		now  time.Time
		want entity.Phase
	}{
		{"empty", entity.StreakState{}, last, entity.PhaseInactive},
		{"reset with history", entity.StreakState{TotalDays: 8}, last, entity.PhaseInactive},
		{"active", stateAt(2, last), last.Add(2 * time.Hour), entity.PhaseActive},
		{"at risk", stateAt(2, last), last.Add(23 * time.Hour), entity.PhaseAtRisk},
		{"expired", stateAt(2, last), last.Add(25 * time.Hour), entity.PhaseExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseAt(tt.st, tt.now); got != tt.want {
				t.Fatalf("PhaseAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveStreakCollapsesAfterExpiry(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := EffectiveStreak(stateAt(6, last), last.Add(24*time.Hour)); got != 6 {
		t.Fatalf("streak should still hold at exactly 24h, got %d", got)
	}
	if got := EffectiveStreak(stateAt(6, last), last.Add(24*time.Hour+time.Minute)); got != 0 {
		t.Fatalf("expected expired streak to read as 0, got %d", got)
	}
}

func TestCompleteIsPure(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	in := stateAt(2, last)
	out, ok := Complete(in, last.Add(20*time.Hour), time.UTC)
	if !ok || out.CurrentStreak != 3 {
		t.Fatalf("Complete() = %+v, %v", out, ok)
	}
	if in.CurrentStreak != 2 || !in.LastCompletion.Equal(last) {
		t.Fatalf("input state was modified: %+v", in)
	}
}

func TestLocationFromEnv(t *testing.T) {
	t.Setenv("STREAK_TIMEZONE", "")
	if loc, err := LocationFromEnv(); err != nil || loc != time.UTC {
		t.Fatalf("LocationFromEnv() = %v, %v", loc, err)
	}
	t.Setenv("STREAK_TIMEZONE", "Asia/Tokyo")
	if loc, err := LocationFromEnv(); err != nil || loc.String() != "Asia/Tokyo" {
		t.Fatalf("LocationFromEnv() = %v, %v", loc, err)
	}
	t.Setenv("STREAK_TIMEZONE", "Nowhere/Special")
	if _, err := LocationFromEnv(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
