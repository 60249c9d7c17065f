// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kowida/kowida-backend/internal/i18n"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

type UserHandler struct {
	userService       *services.UserService
	dashboardService  *services.DashboardService
	settlementService *services.SettlementService
}

func NewUserHandler(
	userService *services.UserService,
	dashboardService *services.DashboardService,
	settlementService *services.SettlementService,
) *UserHandler {
	return &UserHandler{
		userService:       userService,
		dashboardService:  dashboardService,
		settlementService: settlementService,
	}
}

func (h *UserHandler) currentUserID(c *gin.Context) (uuid.UUID, bool) {
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

// GET /users/me/reference-summary
// What a settlement for the caller's code would pay out right now.
func (h *UserHandler) GetReferenceSummary(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		utils.NotFoundResponse(c, "user")
		return
	}

	code := c.Query("reference_code")
	if code == "" {
		if user.PromoCode == nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "reference_code"), nil)
			return
		}
		code = *user.PromoCode
	}

	summary, err := h.dashboardService.GetReferenceSummary(code)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"summary": summary,
	})
}

// GET /users/me/transactions
func (h *UserHandler) GetMyTransactions(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.settlementService.GetTransactions(&userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.SetPaginationHeaders(c, result)
	utils.PaginatedResponse(c, result)
}

// DELETE /users/me
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := h.currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	if err := h.userService.DeleteAccount(userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "user")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserDeleted),
	})
}
