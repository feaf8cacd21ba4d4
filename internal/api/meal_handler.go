package api

import (
	"fmt"
	"net/http"
	"time"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/planner"
	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealHandler serves composed meals and the ingredient catalog.
type MealHandler struct {
	mealService service.MealService
}

func NewMealHandler(mealService service.MealService) *MealHandler {
	return &MealHandler{mealService: mealService}
}

// --- DTOs ---

type MealIngredientRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Unit     string  `json:"unit"`
	Kcal     float64 `json:"kcal" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Fat      float64 `json:"fat" binding:"gte=0"`
}

type CreateMealRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Ingredients []MealIngredientRequest `json:"ingredients" binding:"dive"`
}

type ReplaceIngredientsRequest struct {
	Ingredients []MealIngredientRequest `json:"ingredients" binding:"dive"`
}

// CatalogIngredient is a flattened catalog item tagged with its largest macro.
type CatalogIngredient struct {
	domain.IngredientItem
	DominantMacro domain.Macro `json:"dominantMacro,omitempty"`
}

type MealResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Ingredients []domain.MealIngredient `json:"ingredients"`
	Totals      domain.Totals           `json:"totals"`
	CreatedAt   time.Time               `json:"createdAt"`
}

func MapMealToResponse(m *domain.Meal) MealResponse {
	if m == nil {
		return MealResponse{}
	}
	return MealResponse{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Ingredients: m.Ingredients,
		Totals:      m.Totals,
		CreatedAt:   m.CreatedAt,
	}
}

func MapMealsToResponse(meals []domain.Meal) []MealResponse {
	responses := make([]MealResponse, len(meals))
	for i := range meals {
		responses[i] = MapMealToResponse(&meals[i])
	}
	return responses
}

func toMealIngredients(reqs []MealIngredientRequest) []domain.MealIngredient {
	ingredients := make([]domain.MealIngredient, len(reqs))
	for i, ing := range reqs {
		ingredients[i] = domain.MealIngredient(ing)
	}
	return ingredients
}

// --- Handlers ---

func (h *MealHandler) CreateMeal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	meal, err := h.mealService.CreateMeal(c.Request.Context(), userID, req.Name, toMealIngredients(req.Ingredients))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMealToResponse(meal))
}

func (h *MealHandler) GetMyMeals(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	meals, err := h.mealService.GetUserMeals(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMealsToResponse(meals))
}

func (h *MealHandler) GetMeal(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid meal ID format")
		return
	}
	meal, err := h.mealService.GetMeal(c.Request.Context(), userID, mealID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMealToResponse(meal))
}

// ReplaceIngredients swaps the ingredient list of a meal and returns the
// meal with its new totals.
func (h *MealHandler) ReplaceIngredients(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	mealID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid meal ID format")
		return
	}
	var req ReplaceIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	meal, err := h.mealService.ReplaceIngredients(c.Request.Context(), userID, mealID, toMealIngredients(req.Ingredients))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMealToResponse(meal))
}

// GetCatalog returns the catalog groups together with the flattened
// ingredients the day plan accepts.
func (h *MealHandler) GetCatalog(c *gin.Context) {
	groups, err := h.mealService.Catalog(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	items := []CatalogIngredient{}
	for _, g := range groups {
		for _, it := range g.Flatten() {
			ci := CatalogIngredient{IngredientItem: it}
			if m, ok := planner.DominantMacro(it); ok {
				ci.DominantMacro = m
			}
			items = append(items, ci)
		}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "ingredients": items})
}

// UpsertCatalogGroup replaces one catalog group. Admin only.
func (h *MealHandler) UpsertCatalogGroup(c *gin.Context) {
	var group domain.CatalogGroup
	if err := c.ShouldBindJSON(&group); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	saved, err := h.mealService.UpsertCatalogGroup(c.Request.Context(), group)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
