// internal/models/reference.go
package models

import (
	"github.com/shopspring/decimal"
)

// Reference is a referral code owned by a referer. The commission amounts
// are fixed when the code is issued and copied onto every settlement that
// pays the code out.
type Reference struct {
	BaseModel
	Code           string          `json:"code" gorm:"uniqueIndex;size:20;not null"`
	Phone          string          `json:"phone" gorm:"uniqueIndex;size:20;not null"`
	DiscountAmount decimal.Decimal `json:"discount_amount" gorm:"type:decimal(10,2);not null"`
	ReceivedAmount decimal.Decimal `json:"received_amount" gorm:"type:decimal(10,2);not null"`

	// Relationships
	Owner *User `json:"owner,omitempty" gorm:"foreignKey:Phone;references:Phone"`
}
