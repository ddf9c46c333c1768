package repo

import (
	"context"
	"sync"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/entity"
)

type MemorySubscriberRepo struct {
	mu   sync.Mutex
	rows map[string]entity.Subscriber
}

func NewMemorySubscriberRepo() *MemorySubscriberRepo {
	return &MemorySubscriberRepo{rows: make(map[string]entity.Subscriber)}
}

func (r *MemorySubscriberRepo) Get(_ context.Context, userID string) (entity.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[userID]
	if !ok {
		return entity.Subscriber{}, ErrNotFound
	}
	s.Metadata = append([]byte(nil), s.Metadata...)
	return s, nil
}

func (r *MemorySubscriberRepo) Upsert(_ context.Context, s entity.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.Metadata = append([]byte(nil), s.Metadata...)
	r.rows[s.UserID] = s
	return nil
}
