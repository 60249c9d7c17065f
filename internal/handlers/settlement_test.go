// internal/handlers/settlement_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/services"
)

type SettlementHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	referrer *models.User
}

func (s *SettlementHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(s.T().Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Reference{},
		&models.Transaction{},
		&models.TransactionDetail{},
		&models.SharedTransaction{},
		&models.BaseAmount{},
		&models.AdminNotification{},
	))

	cfg := &config.Config{
		Settlement: config.SettlementConfig{PlatformRate: 0.25},
	}

	settlementService := services.NewSettlementService(db, cfg, nil)
	sharedService := services.NewSharedSettlementService(db, cfg)
	storageService, err := services.NewStorageService(cfg)
	s.Require().NoError(err)

	handler := NewSettlementHandler(settlementService, sharedService, storageService)

	s.router = gin.New()
	admin := s.router.Group("/admin/settlements")
	{
		admin.GET("", handler.GetTransactions)
		admin.GET("/preview", handler.PreviewSettle)
		admin.GET("/:id", handler.GetTransaction)
		admin.POST("", handler.Settle)
		admin.POST("/shared", handler.SettleShared)
	}

	s.seedScenario()
}

func (s *SettlementHandlerTestSuite) seedScenario() {
	s.Require().NoError(s.db.Create(&models.BaseAmount{
		Amount: decimal.NewFromInt(1000),
	}).Error)

	s.referrer = &models.User{
		Phone:        "0770000001",
		Name:         "Referrer",
		PasswordHash: "not-a-real-hash",
		Role:         models.UserRoleReferer,
		Status:       models.UserStatusRegister,
		IsActive:     true,
	}
	s.Require().NoError(s.db.Create(s.referrer).Error)

	s.Require().NoError(s.db.Create(&models.Reference{
		Code:           "PROMO1",
		Phone:          s.referrer.Phone,
		DiscountAmount: decimal.NewFromInt(500),
		ReceivedAmount: decimal.NewFromInt(1500),
	}).Error)

	promo := "PROMO1"
	for _, phone := range []string{"0770000002", "0770000003"} {
		user := &models.User{
			Phone:        phone,
			Name:         "User " + phone,
			PasswordHash: "not-a-real-hash",
			Role:         models.UserRoleUser,
			Status:       models.UserStatusRegister,
			PromoCode:    &promo,
			IsActive:     true,
		}
		s.Require().NoError(s.db.Create(user).Error)
	}
}

// settleForm builds the multipart settlement request, optionally with a
// receipt file attached.
func settleForm(t *testing.T, fields map[string]string, withReceipt bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if withReceipt {
		part, err := writer.CreateFormFile("receipt", "receipt.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func (s *SettlementHandlerTestSuite) postForm(path string, fields map[string]string, withReceipt bool) *httptest.ResponseRecorder {
	body, contentType := settleForm(s.T(), fields, withReceipt)
	req, _ := http.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *SettlementHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) string {
	var response struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Require().False(response.Success)
	s.Require().NotNil(response.Error)
	return response.Error.Code
}

func (s *SettlementHandlerTestSuite) TestSettleSucceeds() {
	w := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, true)

	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Settlement struct {
				TransactionID       string `json:"transaction_id"`
				TotalReferenceCount int    `json:"total_reference_count"`
				Status              bool   `json:"status"`
			} `json:"settlement"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.True(response.Success)
	s.Equal("TR001", response.Data.Settlement.TransactionID)
	s.Equal(2, response.Data.Settlement.TotalReferenceCount)
	s.True(response.Data.Settlement.Status)
}

func (s *SettlementHandlerTestSuite) TestSettleWithoutReceipt() {
	w := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, false)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("RECEIPT_REQUIRED", s.decodeError(w))
}

func (s *SettlementHandlerTestSuite) TestSettleUnknownReference() {
	w := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "NOPE99",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, true)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("REFERENCE_NOT_FOUND", s.decodeError(w))
}

func (s *SettlementHandlerTestSuite) TestSettleExhaustedCode() {
	first := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, true)
	s.Require().Equal(http.StatusCreated, first.Code)

	second := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, true)

	s.Equal(http.StatusUnprocessableEntity, second.Code)
	s.Equal("NO_ELIGIBLE_USERS", s.decodeError(second))
}

func (s *SettlementHandlerTestSuite) TestSettleInvalidReferrerID() {
	w := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       "not-a-uuid",
		"total_reference_amount": "3000",
	}, true)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *SettlementHandlerTestSuite) TestSettleInternalFailureHidesDetail() {
	// break the per-user write so the settlement fails mid-transaction
	s.Require().NoError(s.db.Migrator().DropTable(&models.TransactionDetail{}))

	w := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, true)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("INTERNAL_ERROR", s.decodeError(w))

	// database error text must not reach the client
	s.NotContains(w.Body.String(), "transaction_details")
	s.NotContains(w.Body.String(), "no such table")
}

func (s *SettlementHandlerTestSuite) TestPreview() {
	req, _ := http.NewRequest(http.MethodGet, "/admin/settlements/preview?reference_code=PROMO1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		Data struct {
			EligibleCount int `json:"eligible_count"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(2, response.Data.EligibleCount)
}

func (s *SettlementHandlerTestSuite) TestGetTransactionNotFound() {
	req, _ := http.NewRequest(http.MethodGet, "/admin/settlements/TR404", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", s.decodeError(w))

	// message comes from the transaction.not_found locale entry
	s.Contains(w.Body.String(), "transaction.not_found")
}

func (s *SettlementHandlerTestSuite) TestGetTransactionReturnsReceipt() {
	created := s.postForm("/admin/settlements", map[string]string{
		"reference_code":         "PROMO1",
		"referrer_user_id":       s.referrer.ID.String(),
		"total_reference_amount": "3000",
	}, true)
	s.Require().Equal(http.StatusCreated, created.Code)

	req, _ := http.NewRequest(http.MethodGet, "/admin/settlements/TR001", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Transaction struct {
				ID string `json:"id"`
			} `json:"transaction"`
			ReceiptURL string `json:"receipt_url"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal("TR001", response.Data.Transaction.ID)
	s.NotEmpty(response.Data.ReceiptURL)
}

func (s *SettlementHandlerTestSuite) TestSettleShared() {
	w := s.postForm("/admin/settlements/shared", map[string]string{
		"user_count":   "2",
		"full_amount":  "1000",
		"kowida_fund":  "600",
		"randyll_fund": "400",
		"remark":       "monthly payout",
	}, true)

	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Data struct {
			Settlement struct {
				UsersUpdated int64 `json:"users_updated"`
			} `json:"settlement"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.Equal(int64(2), response.Data.Settlement.UsersUpdated)
}

func TestSettlementHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementHandlerTestSuite))
}
