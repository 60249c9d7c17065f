// internal/handlers/payment.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kowida/kowida-backend/internal/i18n"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// POST /payments/intent
// Creates a Stripe payment intent for the current base amount.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	intent, err := h.paymentService.CreateBaseAmountIntent(userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, "user")
		case errors.Is(err, services.ErrBaseAmountMissing):
			utils.ErrorResponse(c, http.StatusConflict, "BASE_AMOUNT_MISSING", i18n.T(lang, i18n.KeySettlementBaseMissing), nil)
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentIntentCreated),
		"payment": intent,
	})
}

// POST /payments/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.paymentService.ConfirmPayment(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotCompleted):
			utils.ErrorResponse(c, http.StatusBadRequest, "PAYMENT_NOT_COMPLETED", i18n.T(lang, i18n.KeyPaymentNotCompleted), nil)
		case errors.Is(err, services.ErrPaymentOwnership), errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, "payment")
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentConfirmed),
		"user":    user,
	})
}
