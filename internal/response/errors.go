package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrCredentialsRequired ErrCode = "CREDENTIALS_REQUIRED"
	ErrInvalidCredentials  ErrCode = "INVALID_CREDENTIALS"
	ErrNotStudentAccount   ErrCode = "NOT_STUDENT_ACCOUNT"
	ErrSessionInvalidated  ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired       ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid        ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation    ErrCode = "VALIDATION_ERROR"
	ErrInvalidFilter ErrCode = "INVALID_FILTER"
	ErrInvalidRole   ErrCode = "INVALID_ROLE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrStudentNotFound ErrCode = "STUDENT_NOT_FOUND"
	ErrUserNotFound    ErrCode = "USER_NOT_FOUND"
	ErrNoTrendData     ErrCode = "NO_TREND_DATA"
	ErrUsernameTaken   ErrCode = "USERNAME_TAKEN"

	// ─── Upload ────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrFileNotSelected ErrCode = "FILE_NOT_SELECTED"
	ErrMissingColumns  ErrCode = "MISSING_COLUMNS"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrInvalidFile     ErrCode = "INVALID_FILE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrCredentialsRequired:
		return "Username and password required"
	case ErrInvalidCredentials:
		return "Invalid credentials"
	case ErrNotStudentAccount:
		return "Invalid credentials or not a student account."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Invalid or expired token."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Request validation failed."
	case ErrInvalidFilter:
		return "Invalid risk filter. Use all, high, medium or low."
	case ErrInvalidRole:
		return "Invalid role. Only admin, mentor or student allowed."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrStudentNotFound:
		return "Student not found."
	case ErrUserNotFound:
		return "User not found."
	case ErrNoTrendData:
		return "No trend data available."
	case ErrUsernameTaken:
		return "Username already exists."

	// ─── Upload ────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "No file part"
	case ErrFileNotSelected:
		return "No file selected"
	case ErrMissingColumns:
		return "Missing required columns"
	case ErrUnsupportedFile:
		return "Unsupported file type. Upload a .csv or .xlsx file."
	case ErrFileTooLarge:
		return "File is too large."
	case ErrInvalidFile:
		return "Error processing file."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
