// internal/services/dashboard_service.go
package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kowida/kowida-backend/internal/commission"
	"github.com/kowida/kowida-backend/internal/config"
	"github.com/kowida/kowida-backend/internal/models"
)

// DashboardService computes read-only rollups over the ledger. Every count
// and sum goes through the same scopes the settlement engines use, so the
// dashboard can never report a figure a settlement would disagree with.
type DashboardService struct {
	db  *gorm.DB
	cfg *config.Config
}

type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	ActiveUsers        int64 `json:"active_users"`
	RegisteredUsers    int64 `json:"registered_users"`
	PendingUsers       int64 `json:"pending_users"`
	PreRegisteredUsers int64 `json:"pre_registered_users"`
	DeclinedUsers      int64 `json:"declined_users"`
	ReferencedUsers    int64 `json:"referenced_users"`
	DirectUsers        int64 `json:"direct_users"`

	TotalPaidAmount decimal.Decimal `json:"total_paid_amount"`

	// Referenced income with the platform split applied
	ReferencedIncome        decimal.Decimal `json:"referenced_income"`
	ReferencedReferrerShare decimal.Decimal `json:"referenced_referrer_share"`
	ReferencedPlatformShare decimal.Decimal `json:"referenced_platform_share"`

	// Shared-fund settlement view
	ShareEligibleUsers  int64           `json:"share_eligible_users"`
	ShareEligibleAmount decimal.Decimal `json:"share_eligible_amount"`

	TotalTransactions       int64 `json:"total_transactions"`
	TotalSharedTransactions int64 `json:"total_shared_transactions"`
}

// ReferenceSummary is the per-code view a referer sees: what a settlement
// for their code would pay out right now.
type ReferenceSummary struct {
	ReferenceCode     string          `json:"reference_code"`
	EligibleUsers     int64           `json:"eligible_users"`
	PendingAmount     decimal.Decimal `json:"pending_amount"`
	ReferrerShare     decimal.Decimal `json:"referrer_share"`
	PlatformShare     decimal.Decimal `json:"platform_share"`
	SettledUsers      int64           `json:"settled_users"`
	CompletedPayouts  int64           `json:"completed_payouts"`
	LastTransactionID string          `json:"last_transaction_id,omitempty"`
}

func NewDashboardService(db *gorm.DB, cfg *config.Config) *DashboardService {
	return &DashboardService{
		db:  db,
		cfg: cfg,
	}
}

func (s *DashboardService) platformRate() decimal.Decimal {
	return decimal.NewFromFloat(s.cfg.Settlement.PlatformRate)
}

// sumPaidAmount returns COALESCE(SUM(paid_amount), 0) over the given user
// scope; sums always default to zero, never null.
func (s *DashboardService) sumPaidAmount(scopes ...func(*gorm.DB) *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := s.db.Model(&models.User{}).
		Scopes(scopes...).
		Select("COALESCE(SUM(paid_amount), 0)").
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum paid amounts: %w", err)
	}
	return sum, nil
}

func (s *DashboardService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	userQuery := func() *gorm.DB { return s.db.Model(&models.User{}) }

	userQuery().Count(&stats.TotalUsers)
	userQuery().Where("is_active = ?", true).Count(&stats.ActiveUsers)
	userQuery().Where("status = ?", models.UserStatusRegister).Count(&stats.RegisteredUsers)
	userQuery().Where("status = ?", models.UserStatusPending).Count(&stats.PendingUsers)
	userQuery().Where("status = ?", models.UserStatusPreRegister).Count(&stats.PreRegisteredUsers)
	userQuery().Where("status = ?", models.UserStatusDeclined).Count(&stats.DeclinedUsers)
	userQuery().Where("role = ? AND promo_code IS NOT NULL", models.UserRoleUser).Count(&stats.ReferencedUsers)
	userQuery().Where("role = ? AND promo_code IS NULL", models.UserRoleUser).Count(&stats.DirectUsers)

	total, err := s.sumPaidAmount()
	if err != nil {
		return nil, err
	}
	stats.TotalPaidAmount = commission.Round2(total)

	// Referenced income: paid_amount over users who came in under any promo
	// code, split with the same platform rate settlement reporting uses
	referenced, err := s.sumPaidAmount(func(db *gorm.DB) *gorm.DB {
		return db.Where("role = ? AND promo_code IS NOT NULL", models.UserRoleUser)
	})
	if err != nil {
		return nil, err
	}
	referrerShare, platformShare := commission.PlatformSplit(referenced, s.platformRate())
	stats.ReferencedIncome = commission.Round2(referenced)
	stats.ReferencedReferrerShare = commission.Round2(referrerShare)
	stats.ReferencedPlatformShare = commission.Round2(platformShare)

	// Shared-fund view, same scope SettleShared flips share_paid under
	s.db.Model(&models.User{}).Scopes(ShareEligibleScope()).
		Where("share_paid = ?", false).Count(&stats.ShareEligibleUsers)

	shareAmount, err := s.sumPaidAmount(ShareEligibleScope(), func(db *gorm.DB) *gorm.DB {
		return db.Where("share_paid = ?", false)
	})
	if err != nil {
		return nil, err
	}
	stats.ShareEligibleAmount = commission.Round2(shareAmount)

	s.db.Model(&models.Transaction{}).Count(&stats.TotalTransactions)
	s.db.Model(&models.SharedTransaction{}).Count(&stats.TotalSharedTransactions)

	return stats, nil
}

// GetReferenceSummary reports the pending payout for one reference code
// using the settlement engine's own eligibility scope.
func (s *DashboardService) GetReferenceSummary(code string) (*ReferenceSummary, error) {
	summary := &ReferenceSummary{ReferenceCode: code}

	s.db.Model(&models.User{}).Scopes(EligibilityScope(code)).Count(&summary.EligibleUsers)

	pending, err := s.sumPaidAmount(EligibilityScope(code))
	if err != nil {
		return nil, err
	}
	referrerShare, platformShare := commission.PlatformSplit(pending, s.platformRate())
	summary.PendingAmount = commission.Round2(pending)
	summary.ReferrerShare = commission.Round2(referrerShare)
	summary.PlatformShare = commission.Round2(platformShare)

	s.db.Model(&models.User{}).
		Where("promo_code = ? AND is_reference_paid = ? AND role = ?", code, true, models.UserRoleUser).
		Count(&summary.SettledUsers)

	s.db.Model(&models.Transaction{}).
		Where("reference_code = ? AND status = ?", code, true).
		Count(&summary.CompletedPayouts)

	var lastID string
	s.db.Model(&models.Transaction{}).
		Where("reference_code = ? AND status = ?", code, true).
		Select("id").
		Order("LENGTH(id) DESC, id DESC").
		Limit(1).
		Scan(&lastID)
	summary.LastTransactionID = lastID

	return summary, nil
}
