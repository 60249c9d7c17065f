// internal/handlers/settlement.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/i18n"
	"github.com/kowida/kowida-backend/internal/services"
	"github.com/kowida/kowida-backend/internal/utils"
)

type SettlementHandler struct {
	settlementService       *services.SettlementService
	sharedSettlementService *services.SharedSettlementService
	storageService          *services.StorageService
}

func NewSettlementHandler(
	settlementService *services.SettlementService,
	sharedSettlementService *services.SharedSettlementService,
	storageService *services.StorageService,
) *SettlementHandler {
	return &SettlementHandler{
		settlementService:       settlementService,
		sharedSettlementService: sharedSettlementService,
		storageService:          storageService,
	}
}

// settlementErrorResponse maps the settlement sentinels onto stable error
// codes so the admin app can branch without string matching.
func settlementErrorResponse(c *gin.Context, lang string, err error) {
	switch {
	case errors.Is(err, services.ErrReceiptRequired):
		utils.ErrorResponse(c, http.StatusBadRequest, "RECEIPT_REQUIRED", i18n.T(lang, i18n.KeySettlementReceiptMissing), nil)
	case errors.Is(err, services.ErrNoEligibleUsers):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "NO_ELIGIBLE_USERS", i18n.T(lang, i18n.KeySettlementNoEligible), nil)
	case errors.Is(err, services.ErrReferenceNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "REFERENCE_NOT_FOUND", i18n.T(lang, i18n.KeyReferenceNotFound), nil)
	case errors.Is(err, services.ErrReferrerNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "REFERRER_NOT_FOUND", i18n.T(lang, i18n.KeyUserNotFound), nil)
	case errors.Is(err, services.ErrBaseAmountMissing):
		utils.ErrorResponse(c, http.StatusConflict, "BASE_AMOUNT_MISSING", i18n.T(lang, i18n.KeySettlementBaseMissing), nil)
	default:
		utils.InternalErrorResponse(c, err)
	}
}

// discardReceipt removes a receipt whose settlement never happened.
// Best-effort; an orphaned object is only wasted storage.
func (h *SettlementHandler) discardReceipt(upload *services.UploadResult) {
	if err := h.storageService.DeleteFile(upload.Key); err != nil {
		logrus.WithError(err).WithField("key", upload.Key).Warn("Failed to remove orphaned receipt")
	}
}

// POST /admin/settlements
// Multipart form: reference_code, referrer_user_id, total_reference_amount,
// receipt (file). The receipt is uploaded before the settlement transaction
// opens so a storage failure never leaves half-paid users behind.
func (h *SettlementHandler) Settle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	referrerID, err := uuid.Parse(c.PostForm("referrer_user_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "referrer_user_id"), nil)
		return
	}

	totalAmount := decimal.Zero
	if raw := c.PostForm("total_reference_amount"); raw != "" {
		totalAmount, err = decimal.NewFromString(raw)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "total_reference_amount"), nil)
			return
		}
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		settlementErrorResponse(c, lang, services.ErrReceiptRequired)
		return
	}
	defer file.Close()

	upload, err := h.storageService.UploadReceipt(file, header)
	if err != nil {
		logrus.WithError(err).Error("Receipt upload failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", i18n.T(lang, i18n.KeyUploadFailed), nil)
		return
	}

	req := services.SettleRequest{
		ReferenceCode:        c.PostForm("reference_code"),
		ReferrerUserID:       referrerID,
		TotalReferenceAmount: totalAmount,
		ReceiptURL:           upload.URL,
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		h.discardReceipt(upload)
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.settlementService.Settle(&req)
	if err != nil {
		h.discardReceipt(upload)
		settlementErrorResponse(c, lang, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeySettlementCompleted),
		"settlement": result,
	})
}

// GET /admin/settlements/preview?reference_code=XXX
// Dry run: who would be paid, without touching anything.
func (h *SettlementHandler) PreviewSettle(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	code := c.Query("reference_code")
	if code == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "reference_code"), nil)
		return
	}

	users, err := h.settlementService.ResolveEligible(code)
	if err != nil {
		settlementErrorResponse(c, lang, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"reference_code": code,
		"eligible_count": len(users),
		"eligible_users": users,
	})
}

// POST /admin/settlements/shared
func (h *SettlementHandler) SettleShared(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userCount := 0
	if raw := c.PostForm("user_count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "user_count"), nil)
			return
		}
		userCount = parsed
	}

	amounts := map[string]decimal.Decimal{}
	for _, field := range []string{"full_amount", "kowida_fund", "randyll_fund"} {
		value := decimal.Zero
		if raw := c.PostForm(field); raw != "" {
			var err error
			value, err = decimal.NewFromString(raw)
			if err != nil {
				utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, field), nil)
				return
			}
		}
		amounts[field] = value
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		settlementErrorResponse(c, lang, services.ErrReceiptRequired)
		return
	}
	defer file.Close()

	upload, err := h.storageService.UploadReceipt(file, header)
	if err != nil {
		logrus.WithError(err).Error("Receipt upload failed")
		utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", i18n.T(lang, i18n.KeyUploadFailed), nil)
		return
	}

	req := services.SharedSettleRequest{
		UserCount:   userCount,
		FullAmount:  amounts["full_amount"],
		KowidaFund:  amounts["kowida_fund"],
		RandyllFund: amounts["randyll_fund"],
		ReceiptURL:  upload.URL,
		Remark:      c.PostForm("remark"),
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		h.discardReceipt(upload)
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.sharedSettlementService.SettleShared(&req)
	if err != nil {
		h.discardReceipt(upload)
		settlementErrorResponse(c, lang, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    i18n.T(lang, i18n.KeySharedSettlementDone),
		"settlement": result,
	})
}

// GET /admin/settlements
func (h *SettlementHandler) GetTransactions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var referrerID *uuid.UUID
	if raw := c.Query("referrer_user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid referrer_user_id", nil)
			return
		}
		referrerID = &id
	}

	transactions, total, err := h.settlementService.GetTransactions(referrerID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.SetPaginationHeaders(c, result)
	utils.PaginatedResponse(c, result)
}

// GET /admin/settlements/:id
func (h *SettlementHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.settlementService.GetTransaction(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "transaction")
			return
		}
		utils.InternalErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"transaction": transaction,
		"receipt_url": h.storageService.ReceiptDownloadURL(transaction.ReceiptURL),
	})
}

// GET /admin/settlements/shared/history
func (h *SettlementHandler) GetSharedTransactions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	transactions, total, err := h.sharedSettlementService.GetSharedTransactions(params)
	if err != nil {
		utils.InternalErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(transactions, total, params)
	utils.SetPaginationHeaders(c, result)
	utils.PaginatedResponse(c, result)
}
