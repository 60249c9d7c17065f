// internal/services/shared_settlement_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/models"
)

type SharedSettlementServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *SharedSettlementService
}

func (s *SharedSettlementServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewSharedSettlementService(s.db, newTestConfig())
}

func (s *SharedSettlementServiceTestSuite) createUser(phone string, role models.UserRole, status models.UserStatus, promo *string) *models.User {
	user := &models.User{
		Phone:        phone,
		Name:         "User " + phone,
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Status:       status,
		PromoCode:    promo,
		IsActive:     true,
	}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

// Two registered users qualify; the excluded promo program, non-registered
// statuses, and non-user roles do not.
func (s *SharedSettlementServiceTestSuite) seedShareScenario() {
	s.createUser("0771000001", models.UserRoleUser, models.UserStatusRegister, nil)
	s.createUser("0771000002", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"))
	s.createUser("0771000003", models.UserRoleUser, models.UserStatusRegister, strPtr(models.ExcludedPromoCode))
	s.createUser("0771000004", models.UserRoleUser, models.UserStatusPending, nil)
	s.createUser("0771000005", models.UserRoleReferer, models.UserStatusRegister, nil)
}

func (s *SharedSettlementServiceTestSuite) shareRequest() *SharedSettleRequest {
	return &SharedSettleRequest{
		UserCount:   2,
		FullAmount:  decimal.NewFromInt(1000),
		KowidaFund:  decimal.NewFromInt(600),
		RandyllFund: decimal.NewFromInt(400),
		ReceiptURL:  "https://storage.example.com/receipts/shared.jpg",
		Remark:      "monthly payout",
	}
}

func (s *SharedSettlementServiceTestSuite) TestSettleSharedMarksEligibleUsers() {
	s.seedShareScenario()

	resp, err := s.svc.SettleShared(s.shareRequest())
	s.Require().NoError(err)
	s.Equal(int64(2), resp.UsersUpdated)
	s.NotEmpty(resp.TransactionID)

	var excluded models.User
	s.Require().NoError(s.db.Where("phone = ?", "0771000003").First(&excluded).Error)
	s.False(excluded.SharePaid, "excluded promo program must never be share paid")

	var pending models.User
	s.Require().NoError(s.db.Where("phone = ?", "0771000004").First(&pending).Error)
	s.False(pending.SharePaid)
}

func (s *SharedSettlementServiceTestSuite) TestSettleSharedStoresAmountsVerbatim() {
	s.seedShareScenario()

	req := s.shareRequest()
	// deliberately inconsistent totals; the caller's reconciliation wins
	req.FullAmount = decimal.NewFromInt(1000)
	req.KowidaFund = decimal.NewFromInt(999)
	req.RandyllFund = decimal.NewFromInt(1)

	resp, err := s.svc.SettleShared(req)
	s.Require().NoError(err)

	var stored models.SharedTransaction
	s.Require().NoError(s.db.First(&stored, "id = ?", resp.TransactionID).Error)
	s.True(stored.FullAmount.Equal(req.FullAmount))
	s.True(stored.KowidaFund.Equal(req.KowidaFund))
	s.True(stored.RandyllFund.Equal(req.RandyllFund))
	s.True(stored.Status)
	s.Equal("monthly payout", stored.Remark)
}

func (s *SharedSettlementServiceTestSuite) TestSecondSettleSharedUpdatesNoOne() {
	s.seedShareScenario()

	_, err := s.svc.SettleShared(s.shareRequest())
	s.Require().NoError(err)

	resp, err := s.svc.SettleShared(s.shareRequest())
	s.Require().NoError(err)
	s.Equal(int64(0), resp.UsersUpdated)
}

func (s *SharedSettlementServiceTestSuite) TestSettleSharedRequiresReceipt() {
	s.seedShareScenario()

	req := s.shareRequest()
	req.ReceiptURL = "   "

	_, err := s.svc.SettleShared(req)
	s.ErrorIs(err, ErrReceiptRequired)
}

func (s *SharedSettlementServiceTestSuite) TestSettleSharedRejectsNegativeAmounts() {
	s.seedShareScenario()

	req := s.shareRequest()
	req.RandyllFund = decimal.NewFromInt(-1)

	_, err := s.svc.SettleShared(req)
	s.Error(err)

	var count int64
	s.db.Model(&models.SharedTransaction{}).Count(&count)
	s.Equal(int64(0), count)
}

func TestSharedSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SharedSettlementServiceTestSuite))
}
