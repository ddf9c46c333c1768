package subscriber

import (
	"context"
	"errors"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/subscriber/repo"
)

type Repository interface {
	Get(ctx context.Context, userID string) (entity.Subscriber, error)
	Upsert(ctx context.Context, s entity.Subscriber) error
}

// Service answers entitlement questions. Receipt validation happens
// elsewhere; this only reads the tier it recorded.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// IsPro reports whether the user holds the pro tier. Unknown users are free.
func (s *Service) IsPro(ctx context.Context, userID string) (bool, error) {
	sub, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.IsPro(), nil
}

// SetTier records the user's tier, keeping email and metadata when present.
func (s *Service) SetTier(ctx context.Context, userID, tier string) error {
	sub, err := s.repo.Get(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	sub.UserID = userID
	sub.Tier = tier
	return s.repo.Upsert(ctx, sub)
}
