// internal/handlers/admin.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kowida/kowida-backend/internal/i18n"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

type AdminHandler struct {
	dashboardService    *services.DashboardService
	userService         *services.UserService
	referenceService    *services.ReferenceService
	notificationService *services.NotificationService
}

func NewAdminHandler(
	dashboardService *services.DashboardService,
	userService *services.UserService,
	referenceService *services.ReferenceService,
	notificationService *services.NotificationService,
) *AdminHandler {
	return &AdminHandler{
		dashboardService:    dashboardService,
		userService:         userService,
		referenceService:    referenceService,
		notificationService: notificationService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.dashboardService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	filter := services.UserFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	if raw := c.Query("status"); raw != "" {
		status := models.UserStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid is_active", nil)
			return
		}
		filter.IsActive = &active
	}
	if raw := c.Query("promo_code"); raw != "" {
		filter.PromoCode = &raw
	}

	users, total, err := h.userService.GetUsers(filter)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, filter.PaginationParams)
	utils.SetPaginationHeaders(c, result)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	adminIDStr, _ := utils.GetUserIDFromContext(c)
	adminID, err := uuid.Parse(adminIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if err := h.userService.SetUserActive(userID, req.Active, adminID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "user")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	key := i18n.KeyUserActivated
	if !req.Active {
		key = i18n.KeyUserDeactivated
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, key),
	})
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	adminIDStr, _ := utils.GetUserIDFromContext(c)
	adminID, err := uuid.Parse(adminIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if err := h.userService.UpdateUserStatus(userID, req.Status, adminID); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, "user")
		case errors.Is(err, services.ErrInvalidStatus):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "status"), nil)
		case errors.Is(err, services.ErrAdminImmutable):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAdminAccessDenied))
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserStatusUpdated),
	})
}

// GET /admin/base-amount
func (h *AdminHandler) GetBaseAmount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	base, err := h.referenceService.GetBaseAmount()
	if err != nil {
		if errors.Is(err, services.ErrBaseAmountMissing) {
			utils.ErrorResponse(c, http.StatusNotFound, "BASE_AMOUNT_MISSING", i18n.T(lang, i18n.KeySettlementBaseMissing), nil)
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"base_amount": base,
	})
}

// PUT /admin/base-amount
func (h *AdminHandler) UpdateBaseAmount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req struct {
		Amount      decimal.Decimal `json:"amount" validate:"required"`
		Description string          `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "amount"), nil)
		return
	}

	base, err := h.referenceService.UpdateBaseAmount(req.Amount, req.Description)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":     i18n.T(lang, i18n.KeyAdminActionSuccess),
		"base_amount": base,
	})
}

// GET /admin/notifications
func (h *AdminHandler) GetNotifications(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.BadRequestResponse(c, "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	notifications, err := h.notificationService.GetNotifications(limit)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"notifications": notifications,
	})
}
