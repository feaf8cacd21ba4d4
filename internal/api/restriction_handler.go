package api

import (
	"fmt"
	"net/http"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

// RestrictionHandler serves the dietary restriction catalog.
type RestrictionHandler struct {
	restrictionService service.RestrictionService
}

func NewRestrictionHandler(restrictionService service.RestrictionService) *RestrictionHandler {
	return &RestrictionHandler{restrictionService: restrictionService}
}

type RestrictionRequest struct {
	Name        string                     `json:"name" binding:"required"`
	Category    domain.RestrictionCategory `json:"category"`
	Description string                     `json:"description"`
}

// ListRestrictions godoc
// @Summary List dietary restrictions
// @Tags Restrictions
// @Produce json
// @Param category query string false "Only this category"
// @Router /restrictions [get]
func (h *RestrictionHandler) ListRestrictions(c *gin.Context) {
	restrictions, err := h.restrictionService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, restrictions)
}

// UpsertRestriction adds or replaces a catalog entry by name. Admin only.
func (h *RestrictionHandler) UpsertRestriction(c *gin.Context) {
	var req RestrictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	saved, err := h.restrictionService.Upsert(c.Request.Context(), domain.Restriction{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
