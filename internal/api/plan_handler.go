package api

import (
	"fmt"
	"net/http"
	"time"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/nutrition"
	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler serves the onboarding profile and the computed plan.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

// ProfileRequest is the onboarding form. Missing or zero values fall back to
// the calculator defaults.
type ProfileRequest struct {
	Age           float64            `json:"age" binding:"omitempty,gte=0"`
	Weight        float64            `json:"weight" binding:"omitempty,gte=0"`
	Height        float64            `json:"height" binding:"omitempty,gte=0"`
	Sex           domain.Sex         `json:"sex" binding:"omitempty,oneof=male female other"`
	ActivityLevel string             `json:"activityLevel"`
	TrainingDays  int                `json:"trainingDays" binding:"omitempty,gte=0,lte=7"`
	Goal          domain.Goal        `json:"goal" binding:"omitempty,oneof=muscle_gain fat_loss"`
	Preferences   domain.Preferences `json:"preferences"`
}

func (r ProfileRequest) toDomain() domain.Profile {
	return domain.Profile{
		Age:           r.Age,
		Weight:        r.Weight,
		Height:        r.Height,
		Sex:           r.Sex,
		ActivityLevel: r.ActivityLevel,
		TrainingDays:  r.TrainingDays,
		Goal:          r.Goal,
		Preferences:   r.Preferences,
	}
}

type GeneratePlanRequest struct {
	Profile      *ProfileRequest        `json:"profile"`
	MealPortions []nutrition.RawPortion `json:"mealPortions"`
}

type UpdatePlanRequest struct {
	Kcal         *int                   `json:"kcal" binding:"omitempty,gte=0"`
	Protein      *int                   `json:"protein" binding:"omitempty,gte=0"`
	Carbs        *int                   `json:"carbs" binding:"omitempty,gte=0"`
	Fat          *int                   `json:"fat" binding:"omitempty,gte=0"`
	MealPortions []nutrition.RawPortion `json:"mealPortions"`
}

type UpdatePortionRequest struct {
	Field string `json:"field" binding:"required"`
	Value *int   `json:"value" binding:"required"`
}

type PlanResponse struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	domain.PlanTargets
	MealPortions []domain.PortionBudget `json:"mealPortions"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

type ProfileResponse struct {
	Profile *domain.Profile `json:"profile"`
	Plan    *PlanResponse   `json:"plan,omitempty"`
}

func MapPlanToResponse(plan *domain.Plan) *PlanResponse {
	if plan == nil {
		return nil
	}
	return &PlanResponse{
		ID:           plan.ID.Hex(),
		UserID:       plan.UserID.Hex(),
		PlanTargets:  plan.PlanTargets,
		MealPortions: plan.MealPortions,
		UpdatedAt:    plan.UpdatedAt,
	}
}

// --- Handlers ---

func (h *PlanHandler) GetProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	profile, err := h.planService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Profile: profile})
}

// PutProfile upserts the profile and returns it with the recomputed plan.
func (h *PlanHandler) PutProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	profile, plan, err := h.planService.SaveProfile(c.Request.Context(), userID, req.toDomain())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Profile: profile, Plan: MapPlanToResponse(plan)})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req GeneratePlanRequest
	// An empty body regenerates from the stored profile.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
			return
		}
	}
	var profile *domain.Profile
	if req.Profile != nil {
		p := req.Profile.toDomain()
		profile = &p
	}
	plan, err := h.planService.Generate(c.Request.Context(), userID, profile, req.MealPortions)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	plan, err := h.planService.UpdatePlan(c.Request.Context(), userID, service.ManualPlan{
		Kcal:         req.Kcal,
		Protein:      req.Protein,
		Carbs:        req.Carbs,
		Fat:          req.Fat,
		MealPortions: req.MealPortions,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// UpdatePortion changes one field of one slot budget, clamped to the day target.
func (h *PlanHandler) UpdatePortion(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdatePortionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	slot := domain.Slot(c.Param("slot"))
	plan, err := h.planService.UpdatePortion(c.Request.Context(), userID, slot, req.Field, *req.Value)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *PlanHandler) PortionSummary(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	summary, err := h.planService.PortionSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
