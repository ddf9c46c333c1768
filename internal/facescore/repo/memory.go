package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/entity"
)

// MemoryScanRepo keeps scan history in process memory.
type MemoryScanRepo struct {
	mu    sync.Mutex
	scans map[string][]entity.FaceScanResult
}

func NewMemoryScanRepo() *MemoryScanRepo {
	return &MemoryScanRepo{scans: make(map[string][]entity.FaceScanResult)}
}

func (r *MemoryScanRepo) Append(_ context.Context, userID string, res entity.FaceScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans[userID] = append(r.scans[userID], cloneResult(res))
	return nil
}

func (r *MemoryScanRepo) List(_ context.Context, userID string) ([]entity.FaceScanResult, error) {
	r.mu.Lock()
	stored := r.scans[userID]
	out := make([]entity.FaceScanResult, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, cloneResult(stored[i]))
	}
	r.mu.Unlock()
	// appends usually arrive in order; the stable sort keeps newest-appended first on ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	return out, nil
}

func (r *MemoryScanRepo) DeleteAll(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scans, userID)
	return nil
}

func cloneResult(res entity.FaceScanResult) entity.FaceScanResult {
	res.Strengths = append([]string(nil), res.Strengths...)
	res.Weaknesses = append([]string(nil), res.Weaknesses...)
	return res
}
