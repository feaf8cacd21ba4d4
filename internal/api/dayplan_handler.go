package api

import (
	"fmt"
	"net/http"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

// DayPlanHandler serves the day plan template.
type DayPlanHandler struct {
	dayPlanService service.DayPlanService
}

func NewDayPlanHandler(dayPlanService service.DayPlanService) *DayPlanHandler {
	return &DayPlanHandler{dayPlanService: dayPlanService}
}

// --- DTOs ---

// AddEntryRequest names a meal by id or a catalog ingredient by key.
type AddEntryRequest struct {
	Type domain.EntryKind `json:"type" binding:"required,oneof=meal ingredient"`
	ID   string           `json:"id" binding:"required"`
}

type AddWithinMacroRequest struct {
	IngredientKey string `json:"ingredientKey" binding:"required"`
}

type UpdateEntryRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type MenuDaysRequest struct {
	Days int `json:"days" binding:"required"`
}

// --- Handlers ---

func (h *DayPlanHandler) GetDayPlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	view, err := h.dayPlanService.GetDayPlan(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddEntry places an item without checking the slot capacity.
func (h *DayPlanHandler) AddEntry(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.dayPlanService.AddEntry(c.Request.Context(), userID, domain.Slot(c.Param("slot")),
		service.EntryRef{Type: req.Type, ID: req.ID})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// AddWithinMacro is the macro-picker add; it fails once the macro is full.
func (h *DayPlanHandler) AddWithinMacro(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req AddWithinMacroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.dayPlanService.AddWithinMacro(c.Request.Context(), userID,
		domain.Slot(c.Param("slot")), c.Param("macro"), req.IngredientKey)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *DayPlanHandler) MacroOptions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	options, err := h.dayPlanService.MacroOptions(c.Request.Context(), userID,
		domain.Slot(c.Param("slot")), c.Param("macro"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

// UpdateEntry adds delta to the entry count. The entry id is the entry ref,
// "<type>:<id>".
func (h *DayPlanHandler) UpdateEntry(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.dayPlanService.UpdateEntryCount(c.Request.Context(), userID,
		domain.Slot(c.Param("slot")), c.Param("entryId"), req.Delta)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DayPlanHandler) RemoveEntry(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	view, err := h.dayPlanService.RemoveEntry(c.Request.Context(), userID,
		domain.Slot(c.Param("slot")), c.Param("entryId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DayPlanHandler) SetMenuDays(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req MenuDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.dayPlanService.SetMenuDays(c.Request.Context(), userID, req.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *DayPlanHandler) Lock(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	view, err := h.dayPlanService.Lock(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
