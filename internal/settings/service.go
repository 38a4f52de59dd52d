package settings

import (
	"context"
	"strings"
	"time"

	"github.com/engffsantos/easyStock360/internal/platform/cache"
	"github.com/engffsantos/easyStock360/internal/shared"
)

// RepositoryPort abstracts settings storage.
type RepositoryPort interface {
	Insert(ctx context.Context, s Settings) error
	Get(ctx context.Context, key string) (Settings, error)
	Update(ctx context.Context, s Settings) error
}

// Service manages keyed settings rows. cache may be nil.
type Service struct {
	repo  RepositoryPort
	cache *cache.JSONCache
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, c *cache.JSONCache) *Service {
	return &Service{repo: repo, cache: c, now: time.Now}
}

// Initialize creates the row for key. Initialising twice is a conflict.
func (s *Service) Initialize(ctx context.Context, key string, input Input) (Settings, error) {
	row, err := s.build(key, input)
	if err != nil {
		return Settings{}, err
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return Settings{}, err
	}
	_ = s.cache.Invalidate(ctx, cacheKey(row.Key))
	return row, nil
}

// Get returns the row for key, NotFound when it was never initialised.
func (s *Service) Get(ctx context.Context, key string) (Settings, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Settings{}, shared.Invalidf("settings: key required")
	}
	var out Settings
	err := s.cache.FetchJSON(ctx, cacheKey(key), &out, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, key)
	})
	return out, err
}

// Update replaces the editable fields of an initialised row.
func (s *Service) Update(ctx context.Context, key string, input Input) (Settings, error) {
	row, err := s.build(key, input)
	if err != nil {
		return Settings{}, err
	}
	if err := s.repo.Update(ctx, row); err != nil {
		return Settings{}, err
	}
	_ = s.cache.Invalidate(ctx, cacheKey(row.Key))
	return row, nil
}

func (s *Service) build(key string, input Input) (Settings, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Settings{}, shared.Invalidf("settings: key required")
	}
	if input.MonthlyRevenueGoal.IsNegative() {
		return Settings{}, shared.Invalidf("settings: monthly revenue goal must be >= 0")
	}
	return Settings{
		Key:                key,
		CompanyName:        strings.TrimSpace(input.CompanyName),
		CNPJ:               strings.TrimSpace(input.CNPJ),
		MonthlyRevenueGoal: input.MonthlyRevenueGoal.Round(2),
		UpdatedAt:          s.now().UTC(),
	}, nil
}
