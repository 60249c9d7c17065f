// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/database"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/utils"
)

// ErrUserNotFound is returned for lookups and mutations on a user that
// does not exist.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidStatus  = errors.New("invalid user status")
	ErrAdminImmutable = errors.New("cannot modify another admin")
)

type UserService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type UserFilter struct {
	utils.PaginationParams
	Role      *models.UserRole   `json:"role,omitempty"`
	Status    *models.UserStatus `json:"status,omitempty"`
	IsActive  *bool              `json:"is_active,omitempty"`
	PromoCode *string            `json:"promo_code,omitempty"`
}

func NewUserService(db *gorm.DB, notificationService *NotificationService) *UserService {
	return &UserService{
		db:                  db,
		notificationService: notificationService,
	}
}

func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetUsers(filter UserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	// Apply filters
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.PromoCode != nil {
		query = query.Where("promo_code = ?", *filter.PromoCode)
	}
	if filter.Search != "" {
		searchTerm := "%" + filter.Search + "%"
		query = query.Where("phone LIKE ? OR name LIKE ?", searchTerm, searchTerm)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "updated_at", "phone", "name", "status", "paid_amount"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	// Execute query
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// SetUserActive flips the activation flag admins control. Activation is
// what makes a referred user count toward their code's eligible set.
func (s *UserService) SetUserActive(userID uuid.UUID, active bool, adminID uuid.UUID) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.Role == models.UserRoleAdmin && user.ID != adminID {
		return ErrAdminImmutable
	}

	wasActive := user.IsActive
	if err := s.db.Model(&user).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if active && !wasActive && s.notificationService != nil {
		go s.notificationService.SendActivationNotification(&user)
	}

	return nil
}

func (s *UserService) UpdateUserStatus(userID uuid.UUID, status models.UserStatus, adminID uuid.UUID) error {
	switch status {
	case models.UserStatusPreRegister, models.UserStatusPending,
		models.UserStatusRegister, models.UserStatusDeclined:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.Role == models.UserRoleAdmin && user.ID != adminID {
		return ErrAdminImmutable
	}

	if err := s.db.Model(&user).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	return nil
}

// DeleteAccount removes a user and every dependent row in one transaction.
// Completed settlement Transactions are kept: they are the audit record of
// money already moved.
func (s *UserService) DeleteAccount(userID uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if err := tx.Where("user_id = ?", userID).
			Delete(&models.TransactionDetail{}).Error; err != nil {
			return fmt.Errorf("failed to delete transaction details: %w", err)
		}

		if err := tx.Where("phone = ?", user.Phone).
			Delete(&models.Reference{}).Error; err != nil {
			return fmt.Errorf("failed to delete references: %w", err)
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return nil
	})
}

// RegisterDeviceToken stores a push token for the notification service.
func (s *UserService) RegisterDeviceToken(userID uuid.UUID, token string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	for _, existing := range user.DeviceTokens {
		if existing == token {
			return nil
		}
	}

	user.DeviceTokens = append(user.DeviceTokens, token)
	if err := s.db.Model(&user).Update("device_tokens", user.DeviceTokens).Error; err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}

	return nil
}
