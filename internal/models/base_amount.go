// internal/models/base_amount.go
package models

import (
	"github.com/shopspring/decimal"
)

// BaseAmount holds the platform base price shown to clients at
// registration. Settlement reads it as a precondition but never writes it.
type BaseAmount struct {
	BaseModel
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Description string          `json:"description" gorm:"size:255"`
}
