// internal/handlers/reference.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kowida/kowida-backend/internal/i18n"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

type ReferenceHandler struct {
	referenceService *services.ReferenceService
}

func NewReferenceHandler(referenceService *services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		referenceService: referenceService,
	}
}

// POST /admin/references
func (h *ReferenceHandler) CreateReference(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if req.DiscountAmount.IsNegative() || req.ReceivedAmount.IsNegative() {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "amount"), nil)
		return
	}

	reference, err := h.referenceService.CreateReference(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, "user")
		case errors.Is(err, services.ErrReferenceExists), errors.Is(err, services.ErrReferenceCodeTaken):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyReferenceExists))
		default:
			utils.InternalErrorResponse(c, err)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyReferenceCreated),
		"reference": reference,
	})
}

// GET /admin/references
func (h *ReferenceHandler) GetReferences(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	references, total, err := h.referenceService.GetReferences(params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(references, total, params)
	utils.SetPaginationHeaders(c, result)
	utils.PaginatedResponse(c, result)
}

// GET /references/:code
func (h *ReferenceHandler) GetReference(c *gin.Context) {
	reference, err := h.referenceService.GetReferenceByCode(c.Param("code"))
	if err != nil {
		if errors.Is(err, services.ErrReferenceNotFound) {
			utils.NotFoundResponse(c, "reference")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"reference": reference,
	})
}
