package service

import (
	"context"
	"strings"

	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/repository"
)

var (
	ErrInvalidRestrictionCategory = apperr.Validation("INVALID_RESTRICTION_CATEGORY", "unknown restriction category")
	ErrRestrictionNameRequired    = apperr.Validation("RESTRICTION_NAME_REQUIRED", "restriction name is required")
)

// RestrictionService serves the dietary restriction catalog used by
// onboarding.
type RestrictionService interface {
	// List returns the catalog, optionally narrowed to one category.
	List(ctx context.Context, category string) ([]domain.Restriction, error)
	Upsert(ctx context.Context, restriction domain.Restriction) (*domain.Restriction, error)
}

type restrictionService struct {
	restrictionRepo repository.RestrictionRepository
}

func NewRestrictionService(restrictionRepo repository.RestrictionRepository) RestrictionService {
	return &restrictionService{restrictionRepo: restrictionRepo}
}

func (s *restrictionService) List(ctx context.Context, category string) ([]domain.Restriction, error) {
	c := domain.RestrictionCategory(strings.TrimSpace(category))
	if c != "" && !c.Valid() {
		return nil, ErrInvalidRestrictionCategory.With("category", category)
	}
	return s.restrictionRepo.List(ctx, c)
}

// Upsert stores a restriction keyed by name. A missing category becomes
// "other".
func (s *restrictionService) Upsert(ctx context.Context, r domain.Restriction) (*domain.Restriction, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, ErrRestrictionNameRequired
	}
	if r.Category == "" {
		r.Category = domain.RestrictionOther
	}
	if !r.Category.Valid() {
		return nil, ErrInvalidRestrictionCategory.With("category", string(r.Category))
	}
	if err := s.restrictionRepo.Upsert(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
