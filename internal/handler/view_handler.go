package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
)

// ViewHandler serves the derived catalog views.
type ViewHandler struct {
	viewService *service.ViewService
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(viewService *service.ViewService) *ViewHandler {
	return &ViewHandler{viewService: viewService}
}

// PopularClasses godoc
// GET /api/v1/classes/popular
// Classes more than half full, fullest first.
func (h *ViewHandler) PopularClasses(c *gin.Context) {
	classes, err := h.viewService.PopularClasses(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// PopularInstructors godoc
// GET /api/v1/instructors/popular
// Top instructors by enrollments across their classes.
func (h *ViewHandler) PopularInstructors(c *gin.Context) {
	ranks, err := h.viewService.InstructorLeaderboard(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"instructors": ranks})
}

// AdminStats godoc
// GET /api/v1/admin/stats
func (h *ViewHandler) AdminStats(c *gin.Context) {
	stats, err := h.viewService.AdminStats(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
