// internal/models/shared_transaction.go
package models

import (
	"github.com/shopspring/decimal"
)

// SharedTransaction records one platform-wide payout event splitting funds
// between the two fixed stakeholders. The amounts are caller-asserted from
// an external reconciliation and are stored verbatim, not recomputed from
// the ledger.
type SharedTransaction struct {
	BaseModel
	UserCount   int             `json:"user_count" gorm:"not null"`
	FullAmount  decimal.Decimal `json:"full_amount" gorm:"type:decimal(10,2);not null"`
	KowidaFund  decimal.Decimal `json:"kowida_fund" gorm:"type:decimal(10,2);not null"`
	RandyllFund decimal.Decimal `json:"randyll_fund" gorm:"type:decimal(10,2);not null"`
	ReceiptURL  string          `json:"receipt_url" gorm:"size:500;not null"`
	Status      bool            `json:"status" gorm:"default:false;index"`
	Remark      string          `json:"remark" gorm:"type:text"`
}
