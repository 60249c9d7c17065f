// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/database"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/utils"
)

// Confirmation failure modes the handler maps to client-facing codes.
var (
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrPaymentOwnership    = errors.New("payment intent belongs to another user")
)

// PaymentService handles users paying the platform base amount in. A
// confirmed payment is what sets paid_amount and moves the account to the
// registered status; settlement later reads paid_amount but never writes
// it.
type PaymentService struct {
	db     *gorm.DB
	config *config.Config
}

type PaymentIntentResponse struct {
	ClientSecret string          `json:"client_secret"`
	PaymentID    string          `json:"payment_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

func NewPaymentService(db *gorm.DB, config *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &PaymentService{
		db:     db,
		config: config,
	}
}

// CreateBaseAmountIntent opens a payment for the current platform base
// amount on behalf of the caller.
func (s *PaymentService) CreateBaseAmountIntent(userID uuid.UUID) (*PaymentIntentResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var base models.BaseAmount
	if err := s.db.Order("created_at DESC").First(&base).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBaseAmountMissing
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Stripe wants the smallest currency unit
	amountInCents := base.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("phone", user.Phone)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Amount:       base.Amount,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment checks the intent with Stripe and, on success, records
// the paid amount on the user and moves them to registered.
func (s *PaymentService) ConfirmPayment(userID uuid.UUID, req *ConfirmPaymentRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, pi.Status)
	}

	if pi.Metadata["user_id"] != userID.String() {
		return nil, ErrPaymentOwnership
	}

	paidAmount := decimal.NewFromInt(pi.Amount).Div(decimal.NewFromInt(100))

	var user models.User
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		updates := map[string]interface{}{
			"paid_amount": user.PaidAmount.Add(paidAmount),
			"status":      models.UserStatusRegister,
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		user.PaidAmount = user.PaidAmount.Add(paidAmount)
		user.Status = models.UserStatusRegister
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}
