package repository

import (
	"context"

	"alcyxob/nutrition-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("already exists")
	ErrConflict  = RepositoryError("concurrent update, reload and retry")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// ListByIDs returns the users found among ids, in no particular order.
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
}

// ProfileRepository stores the onboarding profile, one per user.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
	ListByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.Profile, error)
}

// PlanRepository stores computed plans, one per user.
type PlanRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error)
	Upsert(ctx context.Context, plan *domain.Plan) error
	// List returns every plan ordered by user id.
	List(ctx context.Context) ([]domain.Plan, error)
}

// TemplateRepository stores the per-user day plan template.
type TemplateRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Template, error)
	// Save writes tpl if its Version still matches the stored one and bumps
	// the version. A stale version yields ErrConflict.
	Save(ctx context.Context, tpl *domain.Template) error
	ListByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]domain.Template, error)
}

// MealRepository stores user-composed meals.
type MealRepository interface {
	Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Meal, error)
	// UpdateIngredients replaces the ingredients and totals of a meal.
	UpdateIngredients(ctx context.Context, meal *domain.Meal) error
}

// IngredientRepository stores the shared ingredient catalog.
type IngredientRepository interface {
	ListGroups(ctx context.Context) ([]domain.CatalogGroup, error)
	UpsertGroup(ctx context.Context, group *domain.CatalogGroup) error
}

// RestrictionRepository stores the shared dietary restriction catalog.
type RestrictionRepository interface {
	// List returns the restrictions ordered by category and name. An empty
	// category lists all of them.
	List(ctx context.Context, category domain.RestrictionCategory) ([]domain.Restriction, error)
	// Upsert replaces the restriction with the same name.
	Upsert(ctx context.Context, restriction *domain.Restriction) error
}
