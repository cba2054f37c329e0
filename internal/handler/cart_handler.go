package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simsmaster/sims-backend/internal/middleware"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
	"github.com/simsmaster/sims-backend/internal/validator"
)

// CartHandler handles the calling user's cart.
type CartHandler struct {
	cartService *service.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// AddToCart godoc
// POST /api/v1/cart
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req model.AddToCartRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}
	classID, _ := uuid.Parse(req.ClassID)

	item, err := h.cartService.Add(c.Request.Context(), middleware.GetClaims(c).Email, classID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassMissing):
			response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
		case errors.Is(err, service.ErrClassNotApproved):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrClassNotApproved)
		case errors.Is(err, service.ErrAlreadyInCart):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"item": item})
}

// CheckCartItem godoc
// GET /api/v1/cart/items/:classId
// Reports whether a class is already in the caller's cart.
func (h *CartHandler) CheckCartItem(c *gin.Context) {
	classID, ok := uuidParam(c, "classId")
	if !ok {
		return
	}

	inCart, err := h.cartService.Contains(c.Request.Context(), middleware.GetClaims(c).Email, classID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class_id": classID, "in_cart": inCart})
}

// ListCart godoc
// GET /api/v1/cart
func (h *CartHandler) ListCart(c *gin.Context) {
	classes, err := h.cartService.ListClasses(c.Request.Context(), middleware.GetClaims(c).Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// RemoveCartItem godoc
// DELETE /api/v1/cart/items/:classId
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	classID, ok := uuidParam(c, "classId")
	if !ok {
		return
	}

	if err := h.cartService.Remove(c.Request.Context(), middleware.GetClaims(c).Email, classID); err != nil {
		if errors.Is(err, service.ErrCartItemNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "cart item removed"})
}
