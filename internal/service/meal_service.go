package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMealNameRequired   = apperr.Validation("MEAL_NAME_REQUIRED", "meal name is required")
	ErrCategoryRequired   = apperr.Validation("CATEGORY_REQUIRED", "catalog group category is required")
	ErrNegativeIngredient = apperr.Validation("NEGATIVE_INGREDIENT", "ingredient values cannot be negative")
	ErrMealNotFound       = apperr.New(apperr.TypeNotFound, "MEAL_NOT_FOUND", "meal not found")
	ErrIngredientNotFound = apperr.New(apperr.TypeNotFound, "INGREDIENT_NOT_FOUND", "ingredient not found in catalog")
)

// MealService manages composed meals and the shared ingredient catalog.
type MealService interface {
	CreateMeal(ctx context.Context, userID primitive.ObjectID, name string, ingredients []domain.MealIngredient) (*domain.Meal, error)
	GetUserMeals(ctx context.Context, userID primitive.ObjectID) ([]domain.Meal, error)
	// GetMeal returns a meal owned by userID.
	GetMeal(ctx context.Context, userID, mealID primitive.ObjectID) (*domain.Meal, error)
	// ReplaceIngredients swaps the ingredient list of a meal owned by userID
	// and recomputes its totals.
	ReplaceIngredients(ctx context.Context, userID, mealID primitive.ObjectID, ingredients []domain.MealIngredient) (*domain.Meal, error)

	Catalog(ctx context.Context) ([]domain.CatalogGroup, error)
	Ingredients(ctx context.Context) ([]domain.IngredientItem, error)
	Ingredient(ctx context.Context, key string) (*domain.IngredientItem, error)
	UpsertCatalogGroup(ctx context.Context, group domain.CatalogGroup) (*domain.CatalogGroup, error)
}

type mealService struct {
	mealRepo       repository.MealRepository
	ingredientRepo repository.IngredientRepository
	now            func() time.Time
}

func NewMealService(mealRepo repository.MealRepository, ingredientRepo repository.IngredientRepository) MealService {
	return &mealService{
		mealRepo:       mealRepo,
		ingredientRepo: ingredientRepo,
		now:            time.Now,
	}
}

// CreateMeal stores a meal with totals summed from its ingredients.
func (s *mealService) CreateMeal(ctx context.Context, userID primitive.ObjectID, name string, ingredients []domain.MealIngredient) (*domain.Meal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMealNameRequired
	}
	if err := checkIngredients(ingredients); err != nil {
		return nil, err
	}
	meal := &domain.Meal{
		UserID:      userID,
		Name:        name,
		Ingredients: ingredients,
		CreatedAt:   s.now(),
	}
	if meal.Ingredients == nil {
		meal.Ingredients = []domain.MealIngredient{}
	}
	meal.ComputeTotals()

	id, err := s.mealRepo.Create(ctx, meal)
	if err != nil {
		return nil, err
	}
	meal.ID = id
	return meal, nil
}

func checkIngredients(ingredients []domain.MealIngredient) error {
	for _, ing := range ingredients {
		if ing.Kcal < 0 || ing.Carbs < 0 || ing.Protein < 0 || ing.Fat < 0 || ing.Quantity < 0 {
			return ErrNegativeIngredient.With("ingredient", ing.Name)
		}
	}
	return nil
}

func (s *mealService) GetUserMeals(ctx context.Context, userID primitive.ObjectID) ([]domain.Meal, error) {
	return s.mealRepo.GetByUserID(ctx, userID)
}

func (s *mealService) GetMeal(ctx context.Context, userID, mealID primitive.ObjectID) (*domain.Meal, error) {
	meal, err := s.mealRepo.GetByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	if meal.UserID != userID {
		return nil, ErrMealNotFound
	}
	return meal, nil
}

// ReplaceIngredients does not touch day plans that already hold the meal;
// their entries keep the totals they were added with.
func (s *mealService) ReplaceIngredients(ctx context.Context, userID, mealID primitive.ObjectID, ingredients []domain.MealIngredient) (*domain.Meal, error) {
	if err := checkIngredients(ingredients); err != nil {
		return nil, err
	}
	meal, err := s.GetMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	meal.Ingredients = ingredients
	if meal.Ingredients == nil {
		meal.Ingredients = []domain.MealIngredient{}
	}
	meal.ComputeTotals()
	if err := s.mealRepo.UpdateIngredients(ctx, meal); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	return meal, nil
}

func (s *mealService) Catalog(ctx context.Context) ([]domain.CatalogGroup, error) {
	return s.ingredientRepo.ListGroups(ctx)
}

// Ingredients flattens the catalog into day plan ingredients.
func (s *mealService) Ingredients(ctx context.Context) ([]domain.IngredientItem, error) {
	groups, err := s.ingredientRepo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var items []domain.IngredientItem
	for _, g := range groups {
		items = append(items, g.Flatten()...)
	}
	return items, nil
}

func (s *mealService) Ingredient(ctx context.Context, key string) (*domain.IngredientItem, error) {
	items, err := s.Ingredients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Key == key {
			return &items[i], nil
		}
	}
	return nil, ErrIngredientNotFound.With("key", key)
}

func (s *mealService) UpsertCatalogGroup(ctx context.Context, group domain.CatalogGroup) (*domain.CatalogGroup, error) {
	group.Category = strings.TrimSpace(group.Category)
	if group.Category == "" {
		return nil, ErrCategoryRequired
	}
	if group.Items == nil {
		group.Items = []domain.CatalogItem{}
	}
	if err := s.ingredientRepo.UpsertGroup(ctx, &group); err != nil {
		return nil, err
	}
	return &group, nil
}
