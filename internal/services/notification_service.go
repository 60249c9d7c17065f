// internal/services/notification_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/models"
)

// NotificationService records admin notifications and delivers push
// messages to registered device tokens. Delivery is best-effort: a failed
// push never fails the operation that triggered it.
type NotificationService struct {
	db         *gorm.DB
	config     *config.Config
	httpClient *http.Client
}

type pushMessage struct {
	To           string                 `json:"to"`
	Notification map[string]string      `json:"notification"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendSettlementNotification tells a referrer their code has been paid
// out.
func (s *NotificationService) SendSettlementNotification(referrerID uuid.UUID, transactionID string, userCount int) {
	notification := &models.AdminNotification{
		Type:                "settlement",
		Title:               "Settlement completed",
		Message:             fmt.Sprintf("Transaction %s settled %d referred users", transactionID, userCount),
		Priority:            "medium",
		RelatedResourceType: "transaction",
	}

	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to create settlement notification")
	}

	var referrer models.User
	if err := s.db.First(&referrer, "id = ?", referrerID).Error; err != nil {
		logrus.WithError(err).Error("Failed to load referrer for notification")
		return
	}

	s.pushToUser(&referrer, "Settlement completed",
		fmt.Sprintf("Your referral payout %s is complete", transactionID),
		map[string]interface{}{"transaction_id": transactionID})
}

// SendActivationNotification tells a user their account went active.
func (s *NotificationService) SendActivationNotification(user *models.User) {
	s.pushToUser(user, "Account activated", "Your account has been activated", nil)
}

func (s *NotificationService) pushToUser(user *models.User, title, body string, data map[string]interface{}) {
	if s.config.Push.ServerKey == "" || len(user.DeviceTokens) == 0 {
		return
	}

	for _, token := range user.DeviceTokens {
		msg := pushMessage{
			To: token,
			Notification: map[string]string{
				"title": title,
				"body":  body,
			},
			Data: data,
		}

		payload, err := json.Marshal(msg)
		if err != nil {
			logrus.WithError(err).Error("Failed to marshal push message")
			continue
		}

		req, err := http.NewRequest(http.MethodPost, s.config.Push.Endpoint, bytes.NewReader(payload))
		if err != nil {
			logrus.WithError(err).Error("Failed to build push request")
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "key="+s.config.Push.ServerKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Push delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,
				"status":  resp.StatusCode,
			}).Warn("Push delivery rejected")
		}
	}
}

// GetNotifications lists admin notifications, newest first.
func (s *NotificationService) GetNotifications(limit int) ([]models.AdminNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var notifications []models.AdminNotification
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}
