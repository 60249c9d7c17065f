// internal/models/transaction.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction records one per-referral-code settlement event. The primary
// key is a sequential human-readable id ("TR001", "TR002", ...) generated
// under an advisory lock inside the settlement transaction.
type Transaction struct {
	ID                   string          `json:"id" gorm:"primaryKey;size:16"`
	TotalReferenceCount  int             `json:"total_reference_count" gorm:"not null"`
	TotalReferenceAmount decimal.Decimal `json:"total_reference_amount" gorm:"type:decimal(10,2);not null"`
	UserID               uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ReferenceCode        string          `json:"reference_code" gorm:"size:20;not null;index"`
	DiscountAmount       decimal.Decimal `json:"discount_amount" gorm:"type:decimal(10,2);not null"`
	ReceivedAmount       decimal.Decimal `json:"received_amount" gorm:"type:decimal(10,2);not null"`
	ReceiptURL           string          `json:"receipt_url" gorm:"size:500;not null"`
	Status               bool            `json:"status" gorm:"default:false;index"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Referrer *User               `json:"referrer,omitempty" gorm:"foreignKey:UserID"`
	Details  []TransactionDetail `json:"details,omitempty" gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

// TransactionDetail links one settled user to the Transaction that paid
// their referral fee.
type TransactionDetail struct {
	BaseModel
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TransactionID string    `json:"transaction_id" gorm:"size:16;not null;index"`

	// Relationships
	User        *User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Transaction *Transaction `json:"transaction,omitempty" gorm:"foreignKey:TransactionID"`
}
