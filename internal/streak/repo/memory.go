package repo

import (
	"context"
	"sync"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/streak/entity"
)

// MemoryStreakRepo keeps streaks in process memory.
type MemoryStreakRepo struct {
	mu   sync.Mutex
	rows map[string]entity.StreakState
}

func NewMemoryStreakRepo() *MemoryStreakRepo {
	return &MemoryStreakRepo{rows: make(map[string]entity.StreakState)}
}

func (r *MemoryStreakRepo) Load(_ context.Context, userID string) (entity.StreakState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyState(r.rows[userID]), nil
}

func (r *MemoryStreakRepo) Save(_ context.Context, userID string, st entity.StreakState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[userID] = copyState(st)
	return nil
}

// copyState detaches the time pointers so callers cannot mutate stored rows.
func copyState(st entity.StreakState) entity.StreakState {
	if st.LastCompletion != nil {
		t := *st.LastCompletion
		st.LastCompletion = &t
	}
	return st
}

// MemoryFreezeRepo keeps freeze balances in process memory.
type MemoryFreezeRepo struct {
	mu     sync.Mutex
	tokens map[string]int
}

func NewMemoryFreezeRepo() *MemoryFreezeRepo {
	return &MemoryFreezeRepo{tokens: make(map[string]int)}
}

func (r *MemoryFreezeRepo) Load(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[userID], nil
}

func (r *MemoryFreezeRepo) Save(_ context.Context, userID string, count int) error {
	if count < 0 {
		count = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[userID] = count
	return nil
}
