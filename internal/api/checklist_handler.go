package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// ChecklistHandler serves the weekly adherence checklist.
type ChecklistHandler struct {
	checklistService service.ChecklistService
}

func NewChecklistHandler(checklistService service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklistService: checklistService}
}

type StartDayRequest struct {
	// StartDay is a lower-case weekday, or empty to clear it.
	StartDay domain.Weekday `json:"startDay"`
}

// MarkDayRequest carries the weigh-in. Weight may be omitted when re-marking a
// day that is already done.
type MarkDayRequest struct {
	Weight float64 `json:"weight"`
}

func (h *ChecklistHandler) GetChecklist(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	view, err := h.checklistService.GetChecklist(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChecklistHandler) SetStartDay(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req StartDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.checklistService.SetStartDay(c.Request.Context(), userID, req.StartDay)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// MarkDay marks position :idx of the week (0 is the start day) as done.
func (h *ChecklistHandler) MarkDay(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	idx, err := cast.ToIntE(c.Param("idx"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Day index must be a number")
		return
	}
	var req MarkDayRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.checklistService.MarkDay(c.Request.Context(), userID, idx, req.Weight)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChecklistHandler) ResetWeek(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	rec, err := h.checklistService.ResetWeek(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ChecklistHandler) Comparisons(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	weeks, err := h.checklistService.Comparisons(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, weeks)
}
