// internal/services/settlement_service_test.go
package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/models"
)

// newTestDB opens a per-test in-memory database. Shared cache keeps the
// database alive across the pooled connections GORM opens.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Reference{},
		&models.Transaction{},
		&models.TransactionDetail{},
		&models.SharedTransaction{},
		&models.BaseAmount{},
		&models.AdminNotification{},
	))

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Settlement: config.SettlementConfig{PlatformRate: 0.25},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	}
}

func strPtr(s string) *string { return &s }

type SettlementServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *SettlementService
}

func (s *SettlementServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewSettlementService(s.db, newTestConfig(), nil)

	s.Require().NoError(s.db.Create(&models.BaseAmount{
		Amount:      decimal.NewFromInt(1000),
		Description: "initial base amount",
	}).Error)
}

func (s *SettlementServiceTestSuite) createUser(phone string, role models.UserRole, status models.UserStatus, promo *string, active bool) *models.User {
	user := &models.User{
		Phone:        phone,
		Name:         "User " + phone,
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Status:       status,
		PromoCode:    promo,
		IsActive:     active,
	}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *SettlementServiceTestSuite) createReference(code, phone string) *models.Reference {
	ref := &models.Reference{
		Code:           code,
		Phone:          phone,
		DiscountAmount: decimal.NewFromInt(500),
		ReceivedAmount: decimal.NewFromInt(1500),
	}
	s.Require().NoError(s.db.Create(ref).Error)
	return ref
}

// seedReferralScenario builds a referrer with code PROMO1 and three
// eligible users, plus one inactive and one already-paid user that must be
// skipped.
func (s *SettlementServiceTestSuite) seedReferralScenario() (*models.User, *models.Reference) {
	referrer := s.createUser("0770000001", models.UserRoleReferer, models.UserStatusRegister, nil, true)
	ref := s.createReference("PROMO1", referrer.Phone)

	s.createUser("0770000002", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"), true)
	s.createUser("0770000003", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"), true)
	s.createUser("0770000004", models.UserRoleUser, models.UserStatusPending, strPtr("PROMO1"), true)

	// inactive, must not be paid
	s.createUser("0770000005", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"), false)

	// already settled previously
	paid := s.createUser("0770000006", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"), true)
	s.Require().NoError(s.db.Model(paid).Update("is_reference_paid", true).Error)

	return referrer, ref
}

func (s *SettlementServiceTestSuite) settleRequest(referrer *models.User) *SettleRequest {
	return &SettleRequest{
		ReferenceCode:        "PROMO1",
		ReferrerUserID:       referrer.ID,
		TotalReferenceAmount: decimal.NewFromInt(3000),
		ReceiptURL:           "https://storage.example.com/receipts/r1.jpg",
	}
}

func (s *SettlementServiceTestSuite) TestSettlePaysEveryEligibleUser() {
	referrer, ref := s.seedReferralScenario()

	resp, err := s.svc.Settle(s.settleRequest(referrer))
	s.Require().NoError(err)

	s.Equal("TR001", resp.TransactionID)
	s.Equal(3, resp.TotalReferenceCount)
	s.True(resp.Status)
	s.True(resp.DiscountAmount.Equal(ref.DiscountAmount))
	s.True(resp.ReceivedAmount.Equal(ref.ReceivedAmount))

	var details int64
	s.db.Model(&models.TransactionDetail{}).Where("transaction_id = ?", resp.TransactionID).Count(&details)
	s.Equal(int64(3), details)

	var unpaid int64
	s.db.Model(&models.User{}).
		Where("promo_code = ? AND is_active = ? AND is_reference_paid = ? AND role = ?", "PROMO1", true, false, models.UserRoleUser).
		Count(&unpaid)
	s.Equal(int64(0), unpaid)

	// the inactive user stays untouched
	var inactive models.User
	s.Require().NoError(s.db.Where("phone = ?", "0770000005").First(&inactive).Error)
	s.False(inactive.IsReferencePaid)
}

func (s *SettlementServiceTestSuite) TestSecondSettleFindsNoEligibleUsers() {
	referrer, _ := s.seedReferralScenario()

	_, err := s.svc.Settle(s.settleRequest(referrer))
	s.Require().NoError(err)

	_, err = s.svc.Settle(s.settleRequest(referrer))
	s.ErrorIs(err, ErrNoEligibleUsers)

	var count int64
	s.db.Model(&models.Transaction{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *SettlementServiceTestSuite) TestTransactionIDsAreSequential() {
	referrer, _ := s.seedReferralScenario()

	first, err := s.svc.Settle(s.settleRequest(referrer))
	s.Require().NoError(err)
	s.Equal("TR001", first.TransactionID)

	// a new signup makes the code settleable again
	s.createUser("0770000007", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"), true)

	second, err := s.svc.Settle(s.settleRequest(referrer))
	s.Require().NoError(err)
	s.Equal("TR002", second.TransactionID)
}

func (s *SettlementServiceTestSuite) TestSettleRequiresReceipt() {
	referrer, _ := s.seedReferralScenario()

	req := s.settleRequest(referrer)
	req.ReceiptURL = "   "

	_, err := s.svc.Settle(req)
	s.ErrorIs(err, ErrReceiptRequired)

	req.ReceiptURL = ""
	_, err = s.svc.Settle(req)
	s.Error(err)
}

func (s *SettlementServiceTestSuite) TestSettleUnknownReference() {
	referrer, _ := s.seedReferralScenario()

	req := s.settleRequest(referrer)
	req.ReferenceCode = "NOPE99"

	_, err := s.svc.Settle(req)
	s.ErrorIs(err, ErrReferenceNotFound)
}

func (s *SettlementServiceTestSuite) TestSettleUnknownReferrer() {
	s.seedReferralScenario()

	ghost := s.createUser("0779999999", models.UserRoleReferer, models.UserStatusRegister, nil, true)
	req := s.settleRequest(ghost)
	s.Require().NoError(s.db.Unscoped().Delete(ghost).Error)

	_, err := s.svc.Settle(req)
	s.ErrorIs(err, ErrReferrerNotFound)
}

func (s *SettlementServiceTestSuite) TestSettleWithoutBaseAmount() {
	referrer, _ := s.seedReferralScenario()

	s.Require().NoError(s.db.Unscoped().Where("1 = 1").Delete(&models.BaseAmount{}).Error)

	_, err := s.svc.Settle(s.settleRequest(referrer))
	s.ErrorIs(err, ErrBaseAmountMissing)
}

func (s *SettlementServiceTestSuite) TestSettleRejectsNegativeAmount() {
	referrer, _ := s.seedReferralScenario()

	req := s.settleRequest(referrer)
	req.TotalReferenceAmount = decimal.NewFromInt(-1)

	_, err := s.svc.Settle(req)
	s.Error(err)
}

func (s *SettlementServiceTestSuite) TestSettleRollsBackCompletely() {
	referrer, _ := s.seedReferralScenario()

	// force the per-user write to fail mid-settlement
	s.Require().NoError(s.db.Migrator().DropTable(&models.TransactionDetail{}))

	_, err := s.svc.Settle(s.settleRequest(referrer))
	s.Error(err)

	var transactions int64
	s.db.Model(&models.Transaction{}).Unscoped().Count(&transactions)
	s.Equal(int64(0), transactions)

	var paid int64
	s.db.Model(&models.User{}).Where("is_reference_paid = ?", true).Count(&paid)
	s.Equal(int64(1), paid, "only the pre-existing paid user remains paid")
}

func (s *SettlementServiceTestSuite) TestTransactionIDWidensPastThreeDigits() {
	referrer, ref := s.seedReferralScenario()

	s.Require().NoError(s.db.Create(&models.Transaction{
		ID:                   "TR999",
		TotalReferenceCount:  1,
		TotalReferenceAmount: decimal.NewFromInt(1000),
		UserID:               referrer.ID,
		ReferenceCode:        ref.Code,
		DiscountAmount:       ref.DiscountAmount,
		ReceivedAmount:       ref.ReceivedAmount,
		ReceiptURL:           "https://storage.example.com/receipts/old.jpg",
		Status:               true,
	}).Error)

	resp, err := s.svc.Settle(s.settleRequest(referrer))
	s.Require().NoError(err)
	s.Equal("TR1000", resp.TransactionID)

	// the longer id keeps winning the max-id scan
	s.createUser("0770000008", models.UserRoleUser, models.UserStatusRegister, strPtr("PROMO1"), true)
	next, err := s.svc.Settle(s.settleRequest(referrer))
	s.Require().NoError(err)
	s.Equal("TR1001", next.TransactionID)
}

func (s *SettlementServiceTestSuite) TestResolveEligibleOrdersByCreation() {
	s.seedReferralScenario()

	users, err := s.svc.ResolveEligible("PROMO1")
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal("0770000002", users[0].Phone)
	s.Equal("0770000003", users[1].Phone)
	s.Equal("0770000004", users[2].Phone)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
