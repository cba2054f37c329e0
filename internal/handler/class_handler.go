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

// ClassHandler handles catalog endpoints.
type ClassHandler struct {
	classService *service.ClassService
	userService  *service.UserService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService, userService *service.UserService) *ClassHandler {
	return &ClassHandler{classService: classService, userService: userService}
}

// CreateClass godoc
// POST /api/v1/classes
// Creates a class owned by the calling instructor. It starts pending review.
func (h *ClassHandler) CreateClass(c *gin.Context) {
	var req model.CreateClassRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	instructor, err := h.userService.GetByEmail(c.Request.Context(), middleware.GetClaims(c).Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	class, err := h.classService.Create(c.Request.Context(), instructor, req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"class": class})
}

// ListClasses godoc
// GET /api/v1/classes
// Lists every class regardless of review status.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	classes, err := h.classService.ListAll(c.Request.Context())
	h.writeClasses(c, classes, err)
}

// ListApprovedClasses godoc
// GET /api/v1/classes/approved
func (h *ClassHandler) ListApprovedClasses(c *gin.Context) {
	classes, err := h.classService.ListApproved(c.Request.Context())
	h.writeClasses(c, classes, err)
}

// ListInstructorClasses godoc
// GET /api/v1/classes/instructor/:email
// Instructors see their own classes; admins may look up anyone's.
func (h *ClassHandler) ListInstructorClasses(c *gin.Context) {
	email := emailParam(c)
	if !middleware.IsSelfOrAdmin(c, email) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	classes, err := h.classService.ListByInstructor(c.Request.Context(), email)
	h.writeClasses(c, classes, err)
}

// GetClass godoc
// GET /api/v1/classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	class, err := h.classService.GetByID(c.Request.Context(), id)
	h.writeClass(c, class, err)
}

// UpdateClass godoc
// PUT /api/v1/classes/:id
func (h *ClassHandler) UpdateClass(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateClassRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	asAdmin := middleware.GetRole(c).Is(model.RoleAdmin)
	class, err := h.classService.Update(c.Request.Context(), id, middleware.GetClaims(c).Email, asAdmin, req)
	h.writeClass(c, class, err)
}

// ChangeStatus godoc
// PATCH /api/v1/classes/:id/status
// Records an admin review decision with an optional reason.
func (h *ClassHandler) ChangeStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.ChangeStatusRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	class, err := h.classService.ChangeStatus(c.Request.Context(), id, req)
	h.writeClass(c, class, err)
}

func (h *ClassHandler) writeClass(c *gin.Context, class *model.Class, err error) {
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"class": class})
	case errors.Is(err, service.ErrClassMissing):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotClassOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func (h *ClassHandler) writeClasses(c *gin.Context, classes []model.Class, err error) {
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}
