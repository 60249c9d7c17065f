// internal/models/user.go
package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Phone           string          `json:"phone" gorm:"uniqueIndex;size:20;not null"`
	Name            string          `json:"name" gorm:"size:100"`
	PasswordHash    string          `json:"-" gorm:"size:255;not null"`
	Role            UserRole        `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Status          UserStatus      `json:"status" gorm:"type:varchar(20);not null;default:'pre_register';index"`
	PromoCode       *string         `json:"promo_code" gorm:"size:20;index"`
	IsActive        bool            `json:"is_active" gorm:"default:false;index"`
	IsReferencePaid bool            `json:"is_reference_paid" gorm:"default:false;index"`
	SharePaid       bool            `json:"share_paid" gorm:"default:false;index"`
	PaidAmount      decimal.Decimal `json:"paid_amount" gorm:"type:decimal(10,2);default:0"`
	DeviceTokens    pq.StringArray  `json:"-" gorm:"type:text[]"`
	LastLoginAt     *time.Time      `json:"last_login_at"`

	// Relationships
	TransactionDetails []TransactionDetail `json:"transaction_details,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
