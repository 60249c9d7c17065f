// internal/commission/commission.go
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/kowida/kowida-backend/internal/models"
)

// DefaultPlatformRate is the fraction of referenced income retained by the
// platform. The effective rate is configuration, passed in per call so a
// settlement always records the rate it was computed with.
var DefaultPlatformRate = decimal.NewFromFloat(0.25)

var (
	kowidaShare  = decimal.NewFromFloat(0.60)
	randyllShare = decimal.NewFromFloat(0.40)
)

// ReferrerSplit copies the commission parameters fixed at reference
// creation. No computation happens here: the amounts are contractual, not
// derived from current totals.
func ReferrerSplit(ref *models.Reference) (discount, received decimal.Decimal) {
	return ref.DiscountAmount, ref.ReceivedAmount
}

// PlatformSplit divides an amount between the referrer and the platform.
// referrerShare = amount * (1 - rate). Intermediate values keep full
// precision; callers round only at presentation time.
func PlatformSplit(amount, rate decimal.Decimal) (referrerShare, platformShare decimal.Decimal) {
	platformShare = amount.Mul(rate)
	referrerShare = amount.Sub(platformShare)
	return referrerShare, platformShare
}

// FundSplit divides a shared-settlement amount between the two fixed
// stakeholders: 60% kowida, 40% randyll.
func FundSplit(amount decimal.Decimal) (kowidaFund, randyllFund decimal.Decimal) {
	kowidaFund = amount.Mul(kowidaShare)
	randyllFund = amount.Sub(kowidaFund)
	return kowidaFund, randyllFund
}

// Round2 rounds a decimal to 2 places for presentation.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
