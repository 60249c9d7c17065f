// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess       = "success"
	KeyError         = "error"
	KeyInternalError = "error.internal"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// User Management
	KeyUserNotFound      = "user.not_found"
	KeyUserActivated     = "user.activated"
	KeyUserDeactivated   = "user.deactivated"
	KeyUserStatusUpdated = "user.status_updated"
	KeyUserDeleted       = "user.deleted"

	// References
	KeyReferenceCreated  = "reference.created"
	KeyReferenceNotFound = "reference.not_found"
	KeyReferenceExists   = "reference.exists"

	// Settlement
	KeySettlementCompleted      = "settlement.completed"
	KeySettlementNoEligible     = "settlement.no_eligible_users"
	KeySettlementReceiptMissing = "settlement.receipt_required"
	KeySettlementBaseMissing    = "settlement.base_amount_missing"
	KeySharedSettlementDone     = "settlement.shared_completed"

	// Payments
	KeyPaymentIntentCreated = "payment.intent_created"
	KeyPaymentConfirmed     = "payment.confirmed"
	KeyPaymentNotFound      = "payment.not_found"
	KeyPaymentNotCompleted  = "payment.not_completed"

	// Admin
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminActionSuccess = "admin.action_success"

	// Uploads
	KeyUploadFailed  = "upload.failed"
	KeyUploadSuccess = "upload.success"

	// Tools
	KeyToolsOCRFailed         = "tools.ocr_failed"
	KeyToolsTranslationFailed = "tools.translation_failed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
