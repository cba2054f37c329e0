package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simsmaster/sims-backend/internal/middleware"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
	"github.com/simsmaster/sims-backend/internal/validator"
)

// ApplicationHandler handles instructor applications.
type ApplicationHandler struct {
	appService *service.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(appService *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: appService}
}

// Apply godoc
// POST /api/v1/applications
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req model.ApplyInstructorRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	app, err := h.appService.Apply(c.Request.Context(), middleware.GetClaims(c).Email, req)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyApplied) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"application": app})
}

// GetApplication godoc
// GET /api/v1/applications/:email
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	email := emailParam(c)
	if !middleware.IsSelfOrAdmin(c, email) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	app, err := h.appService.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"application": app})
}

// ListApplications godoc
// GET /api/v1/applications
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	apps, err := h.appService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applications": apps})
}

// GrantRole godoc
// PUT /api/v1/applications/:email/role
// Sets the role of the applicant's account.
func (h *ApplicationHandler) GrantRole(c *gin.Context) {
	var req model.UpdateApplicantRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	if err := h.appService.GrantRole(c.Request.Context(), emailParam(c), req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "role updated"})
}

// DeleteApplication godoc
// DELETE /api/v1/applications/:email
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	if err := h.appService.Delete(c.Request.Context(), emailParam(c)); err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "application deleted"})
}
