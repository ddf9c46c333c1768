package setting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/setting/entity"
)

// Repository is implemented by repo.Repo and repo.MemoryRepo.
type Repository interface {
	List(ctx context.Context, category string) ([]*entity.Setting, error)
	Create(ctx context.Context, s *entity.Setting) error
}

var ErrInvalid = errors.New("invalid setting")

// Service encapsulates business logic for settings and depends on a repo.
type Service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

// NewService constructs a Service with the provided repository.
func NewService(r Repository, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, logger: logger}
}

// List returns settings by category (optional).
func (s *Service) List(ctx context.Context, category string) ([]*entity.Setting, error) {
	return s.repo.List(ctx, category)
}

// Create stores a setting. Metadata defaults to an empty object.
func (s *Service) Create(ctx context.Context, in *entity.Setting) (*entity.Setting, error) {
	if in.ID == "" {
		return nil, errors.Join(ErrInvalid, errors.New("id is required"))
	}
	if len(in.Metadata) == 0 {
		in.Metadata = json.RawMessage("{}")
	}
	if !json.Valid(in.Metadata) {
		return nil, errors.Join(ErrInvalid, errors.New("metadata must be json"))
	}
	if err := s.repo.Create(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Variant picks one text from category, stable per key so a user keeps
// seeing the same copy. Store failures and empty categories yield fallback.
func (s *Service) Variant(ctx context.Context, category, key, fallback string) string {
	list, err := s.repo.List(ctx, category)
	if err != nil {
		s.logger.Warnw("copy variants unavailable", "category", category, "err", err)
		return fallback
	}
	texts := make([]string, 0, len(list))
	for _, st := range list {
		if t := st.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return fallback
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return texts[h.Sum32()%uint32(len(texts))]
}

// EnsureDefaults seeds category with texts when it holds no settings yet.
func (s *Service) EnsureDefaults(ctx context.Context, category string, texts []string) error {
	list, err := s.repo.List(ctx, category)
	if err != nil {
		return err
	}
	if len(list) > 0 {
		return nil
	}
	for i, t := range texts {
		meta, err := json.Marshal(map[string]string{"text": t})
		if err != nil {
			return err
		}
		id := fmt.Sprintf("%s_%d", category, i+1)
		if _, err := s.Create(ctx, entity.NewSetting(id, category, meta)); err != nil {
			return err
		}
	}
	s.logger.Infow("seeded default settings", "category", category, "count", len(texts))
	return nil
}
