// internal/services/settlement_service.go
package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kowida/kowida-backend/internal/commission"
	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/database"
	"github.com/kowida/kowida-backend/internal/models"
	"github.com/kowida/kowida-backend/internal/utils"
)

// Settlement failure modes, surfaced to handlers as structured error codes.
var (
	ErrReceiptRequired   = errors.New("receipt is required")
	ErrNoEligibleUsers   = errors.New("no eligible users for reference code")
	ErrReferenceNotFound = errors.New("reference code not found")
	ErrReferrerNotFound  = errors.New("referrer not found")
	ErrBaseAmountMissing = errors.New("base amount is not configured")
)

type SettlementService struct {
	db                  *gorm.DB
	cfg                 *config.Config
	notificationService *NotificationService
}

type SettleRequest struct {
	ReferenceCode        string          `json:"reference_code" validate:"required,promo_code"`
	ReferrerUserID       uuid.UUID       `json:"referrer_user_id" validate:"required"`
	TotalReferenceAmount decimal.Decimal `json:"total_reference_amount"`
	ReceiptURL           string          `json:"receipt_url" validate:"required"`
}

type SettleResponse struct {
	TransactionID        string          `json:"transaction_id"`
	TotalReferenceCount  int             `json:"total_reference_count"`
	TotalReferenceAmount decimal.Decimal `json:"total_reference_amount"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	ReceivedAmount       decimal.Decimal `json:"received_amount"`
	Status               bool            `json:"status"`
}

func NewSettlementService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService) *SettlementService {
	return &SettlementService{
		db:                  db,
		cfg:                 cfg,
		notificationService: notificationService,
	}
}

// EligibilityScope is the canonical filter for users awaiting a
// per-reference payout. The dashboard reuses it so reported counts can
// never drift from what a settlement would actually pay.
func EligibilityScope(code string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"promo_code = ? AND is_active = ? AND is_reference_paid = ? AND role = ?",
			code, true, false, models.UserRoleUser,
		)
	}
}

// ShareEligibleScope filters users included in a shared-fund settlement.
// The SL001 program is excluded from platform-wide payouts.
func ShareEligibleScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"status = ? AND role = ? AND (promo_code IS NULL OR promo_code <> ?)",
			models.UserStatusRegister, models.UserRoleUser, models.ExcludedPromoCode,
		)
	}
}

// lockForUpdate row-locks reads that inform a mutation. SQLite (used by the
// test suite) serializes writers itself and has no FOR UPDATE.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// resolveEligible re-reads the eligible set inside the settlement
// transaction. It must never be cached: a concurrent registration or
// settlement can change the set between request and commit.
func (s *SettlementService) resolveEligible(tx *gorm.DB, code string) ([]models.User, error) {
	var users []models.User
	err := lockForUpdate(tx).
		Scopes(EligibilityScope(code)).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve eligible users: %w", err)
	}
	return users, nil
}

// ResolveEligible returns the users a settlement for code would pay right
// now. Read-only; settlement re-resolves inside its own transaction.
func (s *SettlementService) ResolveEligible(code string) ([]models.User, error) {
	var users []models.User
	err := s.db.Scopes(EligibilityScope(code)).Order("created_at ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve eligible users: %w", err)
	}
	return users, nil
}

// nextTransactionID generates the next sequential settlement id ("TR001",
// "TR002", ...). The read-then-format sequence is serialized with an
// advisory lock held for the rest of the transaction, so two concurrent
// settlements cannot both observe the same last id. Ordering by length
// first keeps the max correct once ids widen past three digits
// ("TR1000" > "TR999").
func nextTransactionID(tx *gorm.DB) (string, error) {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext('transactions_id'))").Error; err != nil {
			return "", fmt.Errorf("failed to acquire id lock: %w", err)
		}
	}

	var lastID string
	err := tx.Model(&models.Transaction{}).
		Unscoped().
		Select("id").
		Order("LENGTH(id) DESC, id DESC").
		Limit(1).
		Scan(&lastID).Error
	if err != nil {
		return "", fmt.Errorf("failed to read last transaction id: %w", err)
	}

	seq := 0
	if lastID != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(lastID, "TR"))
		if err != nil {
			return "", fmt.Errorf("malformed transaction id %q: %w", lastID, err)
		}
		seq = n
	}

	// %03d pads to three digits and widens naturally past TR999
	return fmt.Sprintf("TR%03d", seq+1), nil
}

// Settle pays a referrer for every currently eligible user under a
// reference code as one atomic unit. The receipt must already be uploaded;
// no external call happens while the transaction holds locks. On any
// failure every write is rolled back, including flag updates.
func (s *SettlementService) Settle(req *SettleRequest) (*SettleResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if strings.TrimSpace(req.ReceiptURL) == "" {
		return nil, ErrReceiptRequired
	}

	if req.TotalReferenceAmount.IsNegative() {
		return nil, fmt.Errorf("validation failed: total_reference_amount must not be negative")
	}

	var created models.Transaction

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Preconditions
		var baseCount int64
		if err := tx.Model(&models.BaseAmount{}).Count(&baseCount).Error; err != nil {
			return fmt.Errorf("failed to check base amount: %w", err)
		}
		if baseCount == 0 {
			return ErrBaseAmountMissing
		}

		var reference models.Reference
		if err := tx.Where("code = ?", req.ReferenceCode).First(&reference).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferenceNotFound
			}
			return fmt.Errorf("failed to load reference: %w", err)
		}

		var referrer models.User
		if err := tx.First(&referrer, "id = ?", req.ReferrerUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferrerNotFound
			}
			return fmt.Errorf("failed to load referrer: %w", err)
		}

		id, err := nextTransactionID(tx)
		if err != nil {
			return err
		}

		// Re-resolve inside the transaction boundary; acting on a stale
		// set could double-pay a user settled concurrently.
		eligible, err := s.resolveEligible(tx, req.ReferenceCode)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoEligibleUsers
		}

		discount, received := commission.ReferrerSplit(&reference)

		created = models.Transaction{
			ID:                   id,
			TotalReferenceCount:  len(eligible),
			TotalReferenceAmount: req.TotalReferenceAmount,
			UserID:               referrer.ID,
			ReferenceCode:        req.ReferenceCode,
			DiscountAmount:       discount,
			ReceivedAmount:       received,
			ReceiptURL:           req.ReceiptURL,
			Status:               false,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		for _, user := range eligible {
			detail := models.TransactionDetail{
				UserID:        user.ID,
				TransactionID: created.ID,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return fmt.Errorf("failed to create transaction detail: %w", err)
			}

			res := tx.Model(&models.User{}).
				Where("id = ? AND is_reference_paid = ?", user.ID, false).
				Update("is_reference_paid", true)
			if res.Error != nil {
				return fmt.Errorf("failed to mark user as paid: %w", res.Error)
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("user %s was settled concurrently", user.ID)
			}
		}

		// Completion marker; everything above rolls back with it on failure
		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", created.ID).
			Update("status", true).Error; err != nil {
			return fmt.Errorf("failed to complete transaction: %w", err)
		}
		created.Status = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		go s.notificationService.SendSettlementNotification(created.UserID, created.ID, created.TotalReferenceCount)
	}

	return &SettleResponse{
		TransactionID:        created.ID,
		TotalReferenceCount:  created.TotalReferenceCount,
		TotalReferenceAmount: created.TotalReferenceAmount,
		DiscountAmount:       created.DiscountAmount,
		ReceivedAmount:       created.ReceivedAmount,
		Status:               created.Status,
	}, nil
}

// GetTransactions lists completed and pending settlements, optionally
// filtered to one referrer.
func (s *SettlementService) GetTransactions(referrerID *uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{})
	if referrerID != nil {
		query = query.Where("user_id = ?", *referrerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_reference_amount", "reference_code"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var transactions []models.Transaction
	if err := query.Preload("Details").Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

// GetTransaction returns one settlement with its per-user detail rows.
func (s *SettlementService) GetTransaction(id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Details").First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	return &transaction, nil
}
