// internal/handlers/tools.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kowida/kowida-backend/internal/i18n"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

type ToolsHandler struct {
	ocrService         *services.OCRService
	translationService *services.TranslationService
}

func NewToolsHandler(ocrService *services.OCRService, translationService *services.TranslationService) *ToolsHandler {
	return &ToolsHandler{
		ocrService:         ocrService,
		translationService: translationService,
	}
}

// POST /tools/ocr
// Multipart form with a single "file" field.
func (h *ToolsHandler) ExtractText(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "file"), nil)
		return
	}
	defer file.Close()

	result, err := h.ocrService.ExtractText(c.Request.Context(), file, header.Filename)
	if err != nil {
		logrus.WithError(err).Error("OCR extraction failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "OCR_FAILED", i18n.T(lang, i18n.KeyToolsOCRFailed), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"result": result,
	})
}

// POST /tools/translate
func (h *ToolsHandler) Translate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.translationService.Translate(c.Request.Context(), &req)
	if err != nil {
		logrus.WithError(err).Error("Translation failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "TRANSLATION_FAILED", i18n.T(lang, i18n.KeyToolsTranslationFailed), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"result": result,
	})
}
