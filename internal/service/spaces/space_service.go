package spaces

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/oakyard/oakyard/internal/repository"
)

type SpaceUseCase interface {
	List(ctx context.Context) ([]domain.Space, error)
	GetByID(ctx context.Context, id string) (*domain.Space, error)
	Create(ctx context.Context, input CreateSpaceInput) (*domain.Space, error)
	ListReviews(ctx context.Context, spaceID string) ([]domain.Review, error)
}

type Cache interface {
	GetSpaces(ctx context.Context) ([]domain.Space, error)
	SetSpaces(ctx context.Context, spaces []domain.Space) error
	InvalidateSpaces(ctx context.Context) error
}

type CreateSpaceInput struct {
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	HourlyRate  float64  `json:"hourly_rate"`
	Capacity    int      `json:"capacity"`
	Amenities   []string `json:"amenities"`
}

type Service struct {
	repo    repository.SpaceRepository
	reviews repository.ReviewRepository
	cache   Cache
}

func NewService(repo repository.SpaceRepository, reviews repository.ReviewRepository, cache Cache) *Service {
	return &Service{repo: repo, reviews: reviews, cache: cache}
}

func (s *Service) List(ctx context.Context) ([]domain.Space, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSpaces(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	spaces, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSpaces(ctx, spaces)
	}
	return spaces, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Space, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, input CreateSpaceInput) (*domain.Space, error) {
	if input.OwnerID == "" {
		return nil, errors.New("owner id is required")
	}
	if input.Title == "" {
		return nil, errors.New("title is required")
	}
	if input.HourlyRate <= 0 {
		return nil, errors.New("hourly rate must be positive")
	}
	if input.Capacity <= 0 {
		return nil, errors.New("capacity must be positive")
	}

	// rating fields are derived from reviews, never taken from input
	space := &domain.Space{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		HourlyRate:  input.HourlyRate,
		Capacity:    input.Capacity,
		Amenities:   dedupeAmenities(input.Amenities),
	}
	if err := s.repo.Create(ctx, space); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateSpaces(ctx)
	}
	return space, nil
}

// dedupeAmenities keeps amenities a set: first occurrence wins, order kept.
func dedupeAmenities(amenities []string) []string {
	if len(amenities) == 0 {
		return amenities
	}
	seen := make(map[string]struct{}, len(amenities))
	result := make([]string, 0, len(amenities))
	for _, a := range amenities {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		result = append(result, a)
	}
	return result
}

// ListReviews returns a space's reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, spaceID string) ([]domain.Review, error) {
	if _, err := s.repo.GetByID(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.reviews.ListBySpace(ctx, spaceID)
}

var _ SpaceUseCase = (*Service)(nil)
