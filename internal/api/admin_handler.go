package api

import (
	"errors"
	"net/http"

	"alcyxob/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves cohort adherence reporting.
type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// windowQuery reads ?range=&dateFrom=&dateTo=.
func windowQuery(c *gin.Context) service.WindowQuery {
	return service.WindowQuery{
		Range:    c.Query("range"),
		DateFrom: c.Query("dateFrom"),
		DateTo:   c.Query("dateTo"),
	}
}

// Summary godoc
// @Summary Cohort adherence over a time window
// @Tags Admin
// @Produce json
// @Param range query int false "Lookback in days"
// @Param dateFrom query string false "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param dateTo query string false "Window end (RFC 3339 or YYYY-MM-DD)"
// @Router /admin/summary [get]
func (h *AdminHandler) Summary(c *gin.Context) {
	report, err := h.adminService.Summary(c.Request.Context(), windowQuery(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListUsers pages the cohort. Query: search, goal, planLocked, adherenceBand,
// page, limit and the window parameters.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, err := h.adminService.ListUsers(c.Request.Context(), service.UserQuery{
		WindowQuery: windowQuery(c),
		Search:      c.Query("search"),
		Goal:        c.Query("goal"),
		Locked:      c.Query("planLocked"),
		Band:        c.Query("adherenceBand"),
		Page:        c.Query("page"),
		Limit:       c.Query("limit"),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AdminHandler) UserDetail(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	detail, err := h.adminService.UserDetail(c.Request.Context(), userID, windowQuery(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ExportReport uploads the cohort report and returns a temporary download link.
func (h *AdminHandler) ExportReport(c *gin.Context) {
	export, err := h.adminService.ExportReport(c.Request.Context(), windowQuery(c))
	if err != nil {
		if errors.Is(err, service.ErrStorageUnavailable) {
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, export)
}
