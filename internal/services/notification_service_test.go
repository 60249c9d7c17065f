// internal/services/notification_service_test.go
package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/models"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	received chan pushMessage
	server   *httptest.Server
	svc      *NotificationService
}

func (s *NotificationServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.received = make(chan pushMessage, 10)

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg pushMessage
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&msg))
		s.received <- msg
		w.WriteHeader(http.StatusOK)
	}))

	cfg := newTestConfig()
	cfg.Push = config.PushConfig{
		ServerKey: "test-server-key",
		Endpoint:  s.server.URL,
	}
	s.svc = NewNotificationService(s.db, cfg)
}

func (s *NotificationServiceTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *NotificationServiceTestSuite) waitForPush() pushMessage {
	select {
	case msg := <-s.received:
		return msg
	case <-time.After(2 * time.Second):
		s.FailNow("no push message received")
		return pushMessage{}
	}
}

func (s *NotificationServiceTestSuite) TestSettlementNotificationRecordsAndPushes() {
	referrer := &models.User{
		Phone:        "0770000001",
		Name:         "Referrer",
		PasswordHash: "not-a-real-hash",
		Role:         models.UserRoleReferer,
		Status:       models.UserStatusRegister,
		IsActive:     true,
		DeviceTokens: pq.StringArray{"token-a"},
	}
	s.Require().NoError(s.db.Create(referrer).Error)

	s.svc.SendSettlementNotification(referrer.ID, "TR001", 3)

	var notifications []models.AdminNotification
	s.Require().NoError(s.db.Find(&notifications).Error)
	s.Require().Len(notifications, 1)
	s.Equal("settlement", notifications[0].Type)

	msg := s.waitForPush()
	s.Equal("token-a", msg.To)
	s.Equal("Settlement completed", msg.Notification["title"])
}

func (s *NotificationServiceTestSuite) TestActivationPushReachesEveryDevice() {
	user := &models.User{
		Phone:        "0770000002",
		Name:         "User",
		PasswordHash: "not-a-real-hash",
		Role:         models.UserRoleUser,
		Status:       models.UserStatusRegister,
		IsActive:     false,
		DeviceTokens: pq.StringArray{"token-a", "token-b"},
	}
	s.Require().NoError(s.db.Create(user).Error)

	s.svc.SendActivationNotification(user)

	first := s.waitForPush()
	second := s.waitForPush()
	s.ElementsMatch([]string{"token-a", "token-b"}, []string{first.To, second.To})
	s.Equal("Account activated", first.Notification["title"])
}

func (s *NotificationServiceTestSuite) TestActivatingUserSendsPush() {
	user := &models.User{
		Phone:        "0770000003",
		Name:         "User",
		PasswordHash: "not-a-real-hash",
		Role:         models.UserRoleUser,
		Status:       models.UserStatusRegister,
		IsActive:     false,
		DeviceTokens: pq.StringArray{"token-c"},
	}
	s.Require().NoError(s.db.Create(user).Error)

	admin := &models.User{
		Phone:        "0770000009",
		Name:         "Admin",
		PasswordHash: "not-a-real-hash",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusRegister,
		IsActive:     true,
	}
	s.Require().NoError(s.db.Create(admin).Error)

	userService := NewUserService(s.db, s.svc)
	s.Require().NoError(userService.SetUserActive(user.ID, true, admin.ID))

	msg := s.waitForPush()
	s.Equal("token-c", msg.To)

	var updated models.User
	s.Require().NoError(s.db.First(&updated, "id = ?", user.ID).Error)
	s.True(updated.IsActive)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
