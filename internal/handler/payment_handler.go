package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/middleware"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
	"github.com/simsmaster/sims-backend/internal/validator"
)

// PaymentHandler handles purchase commits and the payer's history.
type PaymentHandler struct {
	enrollmentService *service.EnrollmentService
	historyService    *service.HistoryService
	log               zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(enrollmentService *service.EnrollmentService, historyService *service.HistoryService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		enrollmentService: enrollmentService,
		historyService:    historyService,
		log:               log.With().Str("component", "payment_handler").Logger(),
	}
}

// CommitPurchase godoc
// POST /api/v1/payments
// Records a completed payment: reserves one seat per class, enrolls the payer,
// clears the purchased cart items and stores the receipt. ?classId= limits the
// cart cleanup to a single class. Resubmitting a committed transaction_id
// returns the stored result with 200.
func (h *PaymentHandler) CommitPurchase(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.PurchaseRequest
	if errs := validator.Bind(c, &req); errs != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, errs)
		return
	}

	if req.UserEmail != "" && !strings.EqualFold(req.UserEmail, claims.Email) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}
	req.UserEmail = claims.Email
	req.ScopeClassID = c.Query("classId")

	result, err := h.enrollmentService.Commit(c.Request.Context(), req)
	if err != nil {
		h.writeCommitError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	response.Success(c, status, result)
}

func (h *PaymentHandler) writeCommitError(c *gin.Context, err error) {
	var invalid *service.PurchaseValidationError
	if errors.As(err, &invalid) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, invalid.Fields)
		return
	}

	var commitErr *service.CommitError
	if errors.As(err, &commitErr) {
		ids := make([]string, len(commitErr.ClassIDs))
		for i, id := range commitErr.ClassIDs {
			ids[i] = id.String()
		}
		switch {
		case errors.Is(err, service.ErrClassNotFound):
			response.FailWithClasses(c, http.StatusNotFound, response.ErrClassNotFound, ids)
			return
		case errors.Is(err, service.ErrClassFull):
			response.FailWithClasses(c, http.StatusConflict, response.ErrClassFull, ids)
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrCommitInProgress):
		response.Fail(c, http.StatusConflict, response.ErrCommitInProgress)
	case errors.Is(err, service.ErrIdempotencyConflict):
		response.Fail(c, http.StatusConflict, response.ErrIdempotencyConflict)
	default:
		h.log.Error().Err(err).Msg("Commit failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// PaymentHistory godoc
// GET /api/v1/payments/history/:email
// Returns the payer's receipts, newest first.
func (h *PaymentHandler) PaymentHistory(c *gin.Context) {
	email := emailParam(c)
	if !middleware.IsSelfOrAdmin(c, email) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	payments, err := h.historyService.PaymentHistory(c.Request.Context(), email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

// PaymentCount godoc
// GET /api/v1/payments/history/:email/count
func (h *PaymentHandler) PaymentCount(c *gin.Context) {
	email := emailParam(c)
	if !middleware.IsSelfOrAdmin(c, email) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	count, err := h.historyService.PaymentCount(c.Request.Context(), email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// EnrolledClasses godoc
// GET /api/v1/enrollments/:email/classes
// Returns every class the payer is enrolled in, in purchase order.
func (h *PaymentHandler) EnrolledClasses(c *gin.Context) {
	email := emailParam(c)
	if !middleware.IsSelfOrAdmin(c, email) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	classes, err := h.historyService.EnrolledClasses(c.Request.Context(), email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}
