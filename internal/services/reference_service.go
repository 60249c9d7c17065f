// internal/services/reference_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/database"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/utils"
)

// Conflict sentinels for reference issuing.
var (
	ErrReferenceExists    = errors.New("a reference already exists for this phone")
	ErrReferenceCodeTaken = errors.New("reference code already in use")
)

type ReferenceService struct {
	db *gorm.DB
}

type CreateReferenceRequest struct {
	Phone          string          `json:"phone" validate:"required,phone"`
	Code           string          `json:"code,omitempty" validate:"omitempty,promo_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
}

func NewReferenceService(db *gorm.DB) *ReferenceService {
	return &ReferenceService{db: db}
}

// CreateReference issues a referral code for a phone number. The owner
// account is promoted to the referer role, and the commission amounts are
// frozen on the row; settlements copy them verbatim from here on.
func (s *ReferenceService) CreateReference(req *CreateReferenceRequest) (*models.Reference, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.DiscountAmount.IsNegative() || req.ReceivedAmount.IsNegative() {
		return nil, errors.New("commission amounts must not be negative")
	}

	var reference models.Reference

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Where("phone = ?", req.Phone).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		// At most one reference per phone
		var existing models.Reference
		if err := tx.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
			return ErrReferenceExists
		}

		code := req.Code
		if code == "" {
			var err error
			for attempt := 0; attempt < 10; attempt++ {
				code, err = utils.GeneratePromoCode(6)
				if err != nil {
					return fmt.Errorf("failed to generate code: %w", err)
				}
				var clash models.Reference
				if err := tx.Where("code = ?", code).First(&clash).Error; errors.Is(err, gorm.ErrRecordNotFound) {
					break
				}
				code = ""
			}
			if code == "" {
				return errors.New("failed to generate a unique code")
			}
		} else {
			var clash models.Reference
			if err := tx.Where("code = ?", code).First(&clash).Error; err == nil {
				return ErrReferenceCodeTaken
			}
		}

		reference = models.Reference{
			Code:           code,
			Phone:          req.Phone,
			DiscountAmount: req.DiscountAmount,
			ReceivedAmount: req.ReceivedAmount,
		}
		if err := tx.Create(&reference).Error; err != nil {
			return fmt.Errorf("failed to create reference: %w", err)
		}

		if owner.Role == models.UserRoleUser {
			if err := tx.Model(&owner).Update("role", models.UserRoleReferer).Error; err != nil {
				return fmt.Errorf("failed to promote owner: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &reference, nil
}

func (s *ReferenceService) GetReferenceByCode(code string) (*models.Reference, error) {
	var reference models.Reference
	if err := s.db.Preload("Owner").Where("code = ?", code).First(&reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &reference, nil
}

func (s *ReferenceService) GetReferenceByPhone(phone string) (*models.Reference, error) {
	var reference models.Reference
	if err := s.db.Where("phone = ?", phone).First(&reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &reference, nil
}

func (s *ReferenceService) GetReferences(params utils.PaginationParams) ([]models.Reference, int64, error) {
	query := s.db.Model(&models.Reference{})

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("code LIKE ? OR phone LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count references: %w", err)
	}

	allowedSortFields := []string{"created_at", "code", "phone"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var references []models.Reference
	if err := query.Find(&references).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch references: %w", err)
	}

	return references, total, nil
}

// GetBaseAmount returns the platform base price clients show at
// registration.
func (s *ReferenceService) GetBaseAmount() (*models.BaseAmount, error) {
	var base models.BaseAmount
	if err := s.db.Order("created_at DESC").First(&base).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBaseAmountMissing
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &base, nil
}

// UpdateBaseAmount writes a new platform base price row so earlier values
// stay in history.
func (s *ReferenceService) UpdateBaseAmount(amount decimal.Decimal, description string) (*models.BaseAmount, error) {
	if amount.IsNegative() {
		return nil, errors.New("base amount must not be negative")
	}

	base := models.BaseAmount{
		Amount:      amount,
		Description: description,
	}
	if err := s.db.Create(&base).Error; err != nil {
		return nil, fmt.Errorf("failed to create base amount: %w", err)
	}
	return &base, nil
}
