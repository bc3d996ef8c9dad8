package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Test loading ──────────────────────────────────────────────────
	ErrMissingTestID      ErrCode = "MISSING_TEST_ID"
	ErrTestNotFound       ErrCode = "TEST_NOT_FOUND"
	ErrStoreUnavailable   ErrCode = "STORE_UNAVAILABLE"
	ErrInvalidTestPayload ErrCode = "INVALID_TEST_PAYLOAD"

	// ─── Generation ────────────────────────────────────────────────────
	ErrGenerationFailed ErrCode = "GENERATION_FAILED"

	// ─── Sessions & results ────────────────────────────────────────────
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrResultNotFound  ErrCode = "RESULT_NOT_FOUND"

	// ─── Practice bank ─────────────────────────────────────────────────
	ErrBankUnavailable ErrCode = "QUESTION_BANK_UNAVAILABLE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Test loading ──────────────────────────────────────────────────
	case ErrMissingTestID:
		return "No test ID provided."
	case ErrTestNotFound:
		return "Test not found or has expired. Tests are only available for 5 minutes after creation."
	case ErrStoreUnavailable:
		return "Failed to load test data. Please try again."
	case ErrInvalidTestPayload:
		return "The stored test is malformed and cannot be started."

	// ─── Generation ────────────────────────────────────────────────────
	case ErrGenerationFailed:
		return "Failed to generate test."

	// ─── Sessions & results ────────────────────────────────────────────
	case ErrSessionNotFound:
		return "No active session with this ID."
	case ErrResultNotFound:
		return "No result is available for this session."

	// ─── Practice bank ─────────────────────────────────────────────────
	case ErrBankUnavailable:
		return "The practice question bank could not be loaded."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
