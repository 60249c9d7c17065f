// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	phoneRegexp     = regexp.MustCompile(`^0[0-9]{9}$`)
	promoCodeRegexp = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("phone", validatePhone)
	validate.RegisterValidation("promo_code", validatePromoCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validatePhone accepts local 10-digit numbers with a leading zero,
// e.g. 0771234567.
func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegexp.MatchString(fl.Field().String())
}

// validatePromoCode accepts uppercase alphanumeric codes like "PROMO1" or
// "SL001".
func validatePromoCode(fl validator.FieldLevel) bool {
	return promoCodeRegexp.MatchString(fl.Field().String())
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "phone":
		return "Phone must be a 10-digit number starting with 0"
	case "promo_code":
		return "Promo code must be 4-12 uppercase letters or digits"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must not be negative"
	default:
		return e.Field() + " is invalid"
	}
}
