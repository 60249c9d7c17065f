// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.svc = NewAuthService(s.db, newTestConfig())
	utils.SetJWTSecret("test-secret")
}

func (s *AuthServiceTestSuite) seedReference(code string) {
	owner := &models.User{
		Phone:        "0770000099",
		Name:         "Owner",
		PasswordHash: "not-a-real-hash",
		Role:         models.UserRoleReferer,
		Status:       models.UserStatusRegister,
		IsActive:     true,
	}
	s.Require().NoError(s.db.Create(owner).Error)
	s.Require().NoError(s.db.Create(&models.Reference{
		Code:           code,
		Phone:          owner.Phone,
		DiscountAmount: decimal.NewFromInt(500),
		ReceivedAmount: decimal.NewFromInt(1500),
	}).Error)
}

func (s *AuthServiceTestSuite) TestRegisterWithPromoCode() {
	s.seedReference("PROMO1")

	resp, err := s.svc.Register(&RegisterRequest{
		Phone:     "0771234567",
		Name:      "New User",
		Password:  "supersecret",
		PromoCode: "PROMO1",
	})
	s.Require().NoError(err)

	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)

	s.Equal(models.UserRoleUser, resp.User.Role)
	s.Equal(models.UserStatusPreRegister, resp.User.Status)
	s.Require().NotNil(resp.User.PromoCode)
	s.Equal("PROMO1", *resp.User.PromoCode)
	s.False(resp.User.IsReferencePaid)
}

func (s *AuthServiceTestSuite) TestRegisterWithoutPromoCode() {
	resp, err := s.svc.Register(&RegisterRequest{
		Phone:    "0771234567",
		Name:     "Direct User",
		Password: "supersecret",
	})
	s.Require().NoError(err)
	s.Nil(resp.User.PromoCode)
}

func (s *AuthServiceTestSuite) TestRegisterRejectsUnknownPromoCode() {
	_, err := s.svc.Register(&RegisterRequest{
		Phone:     "0771234567",
		Name:      "New User",
		Password:  "supersecret",
		PromoCode: "NOPE99",
	})
	s.ErrorIs(err, ErrReferenceNotFound)

	var count int64
	s.db.Model(&models.User{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *AuthServiceTestSuite) TestRegisterRejectsDuplicatePhone() {
	req := &RegisterRequest{
		Phone:    "0771234567",
		Name:     "New User",
		Password: "supersecret",
	}
	_, err := s.svc.Register(req)
	s.Require().NoError(err)

	_, err = s.svc.Register(req)
	s.ErrorIs(err, ErrUserExists)
}

func (s *AuthServiceTestSuite) TestRegisterRejectsInvalidPhone() {
	_, err := s.svc.Register(&RegisterRequest{
		Phone:    "12345",
		Name:     "New User",
		Password: "supersecret",
	})
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestLogin() {
	_, err := s.svc.Register(&RegisterRequest{
		Phone:    "0771234567",
		Name:     "New User",
		Password: "supersecret",
	})
	s.Require().NoError(err)

	resp, err := s.svc.Login(&LoginRequest{
		Phone:    "0771234567",
		Password: "supersecret",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.NotNil(resp.User.LastLoginAt)

	_, err = s.svc.Login(&LoginRequest{
		Phone:    "0771234567",
		Password: "wrongpassword",
	})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginDeclinedAccount() {
	resp, err := s.svc.Register(&RegisterRequest{
		Phone:    "0771234567",
		Name:     "New User",
		Password: "supersecret",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(resp.User).Update("status", models.UserStatusDeclined).Error)

	_, err = s.svc.Login(&LoginRequest{
		Phone:    "0771234567",
		Password: "supersecret",
	})
	s.ErrorIs(err, ErrAccountDeclined)
}

func (s *AuthServiceTestSuite) TestRefreshToken() {
	resp, err := s.svc.Register(&RegisterRequest{
		Phone:    "0771234567",
		Name:     "New User",
		Password: "supersecret",
	})
	s.Require().NoError(err)

	refreshed, err := s.svc.RefreshToken(resp.RefreshToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, refreshed.User.ID)

	_, err = s.svc.RefreshToken("not-a-token")
	s.ErrorIs(err, ErrInvalidRefreshToken)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
