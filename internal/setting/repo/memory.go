package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/setting/entity"
)

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]entity.Setting
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]entity.Setting)}
}

func (r *MemoryRepo) List(_ context.Context, category string) ([]*entity.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Setting, 0, len(r.rows))
	for _, s := range r.rows {
		if category != "" && s.Category != category {
			continue
		}
		out = append(out, entity.NewSetting(s.ID, s.Category, append([]byte(nil), s.Metadata...)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) Create(_ context.Context, s *entity.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.Metadata = append([]byte(nil), s.Metadata...)
	r.rows[s.ID] = cp
	return nil
}
