// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"omitempty,promo_code"`
}

func TestPhoneValidation(t *testing.T) {
	valid := []string{"0771234567", "0112345678"}
	for _, phone := range valid {
		err := ValidateStruct(&sampleRequest{Phone: phone})
		assert.NoError(t, err, "phone %s should be valid", phone)
	}

	invalid := []string{"", "771234567", "07712345678", "07712345a7", "+94771234567"}
	for _, phone := range invalid {
		err := ValidateStruct(&sampleRequest{Phone: phone})
		assert.Error(t, err, "phone %q should be invalid", phone)
	}
}

func TestPromoCodeValidation(t *testing.T) {
	valid := []string{"PROMO1", "SL001", "ABCD1234WXYZ"}
	for _, code := range valid {
		err := ValidateStruct(&sampleRequest{Phone: "0771234567", Code: code})
		assert.NoError(t, err, "code %s should be valid", code)
	}

	invalid := []string{"ab1", "promo1", "TOOLONGCODE13", "PRO MO"}
	for _, code := range invalid {
		err := ValidateStruct(&sampleRequest{Phone: "0771234567", Code: code})
		assert.Error(t, err, "code %q should be invalid", code)
	}
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&sampleRequest{Phone: ""})
	require.Error(t, err)

	fieldErrors := GetValidationErrors(err)
	require.Len(t, fieldErrors, 1)
	assert.Equal(t, "phone", fieldErrors[0].Field)
}

func TestGeneratePromoCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GeneratePromoCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.NoError(t, ValidateStruct(&sampleRequest{Phone: "0771234567", Code: code}))
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should not repeat constantly")
}
