// internal/services/shared_settlement_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/database"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/utils"
)

type SharedSettlementService struct {
	db  *gorm.DB
	cfg *config.Config
}

type SharedSettleRequest struct {
	UserCount   int             `json:"user_count" validate:"gte=0"`
	FullAmount  decimal.Decimal `json:"full_amount"`
	KowidaFund  decimal.Decimal `json:"kowida_fund"`
	RandyllFund decimal.Decimal `json:"randyll_fund"`
	ReceiptURL  string          `json:"receipt_url" validate:"required"`
	Remark      string          `json:"remark,omitempty"`
}

type SharedSettleResponse struct {
	TransactionID string `json:"transaction_id"`
	UsersUpdated  int64  `json:"users_updated"`
}

func NewSharedSettlementService(db *gorm.DB, cfg *config.Config) *SharedSettlementService {
	return &SharedSettlementService{
		db:  db,
		cfg: cfg,
	}
}

// SettleShared records one platform-wide payout and marks every currently
// share-eligible user as paid, atomically. The numeric fields are stored
// verbatim as supplied by the caller: the totals come from an external
// reconciliation and are deliberately not cross-checked against the sum of
// paid_amount at write time.
func (s *SharedSettlementService) SettleShared(req *SharedSettleRequest) (*SharedSettleResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if strings.TrimSpace(req.ReceiptURL) == "" {
		return nil, ErrReceiptRequired
	}

	for name, amount := range map[string]decimal.Decimal{
		"full_amount":  req.FullAmount,
		"kowida_fund":  req.KowidaFund,
		"randyll_fund": req.RandyllFund,
	} {
		if amount.IsNegative() {
			return nil, fmt.Errorf("validation failed: %s must not be negative", name)
		}
	}

	var shared models.SharedTransaction
	var usersUpdated int64

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		shared = models.SharedTransaction{
			UserCount:   req.UserCount,
			FullAmount:  req.FullAmount,
			KowidaFund:  req.KowidaFund,
			RandyllFund: req.RandyllFund,
			ReceiptURL:  req.ReceiptURL,
			Status:      true,
			Remark:      req.Remark,
		}
		if err := tx.Create(&shared).Error; err != nil {
			return fmt.Errorf("failed to create shared transaction: %w", err)
		}

		// a single UPDATE takes its own row locks; no separate read needed
		res := tx.Model(&models.User{}).
			Scopes(ShareEligibleScope()).
			Where("share_paid = ?", false).
			Update("share_paid", true)
		if res.Error != nil {
			return fmt.Errorf("failed to mark users share paid: %w", res.Error)
		}
		usersUpdated = res.RowsAffected

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SharedSettleResponse{
		TransactionID: shared.ID.String(),
		UsersUpdated:  usersUpdated,
	}, nil
}

// GetSharedTransactions lists past platform-wide payout events.
func (s *SharedSettlementService) GetSharedTransactions(params utils.PaginationParams) ([]models.SharedTransaction, int64, error) {
	query := s.db.Model(&models.SharedTransaction{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shared transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "full_amount", "user_count"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.SharedTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch shared transactions: %w", err)
	}

	return transactions, total, nil
}
