package httputil

// Machine-readable error codes returned next to human-readable messages.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"

	CodeUsernameRequired    = "USERNAME_REQUIRED"
	CodeEmailRequired       = "EMAIL_REQUIRED"
	CodePasswordRequired    = "PASSWORD_REQUIRED"
	CodeCredentialsRequired = "CREDENTIALS_REQUIRED"
	CodeInvalidEmailFormat  = "INVALID_EMAIL_FORMAT"
	CodeFieldTooLong        = "FIELD_TOO_LONG"
	CodePasswordTooShort    = "PASSWORD_TOO_SHORT"

	CodeUsernameTaken = "USERNAME_TAKEN"
	CodeEmailTaken    = "EMAIL_TAKEN"

	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeCurrentPasswordWrong    = "CURRENT_PASSWORD_WRONG"
	CodePasswordConfirmRequired = "PASSWORD_CONFIRMATION_REQUIRED"

	CodeUserNotFound = "USER_NOT_FOUND"

	CodeInvalidAuthHeader = "INVALID_AUTH_HEADER"
	CodeMissingAuth       = "MISSING_AUTH"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeInvalidToken      = "INVALID_TOKEN"

	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternalError   = "INTERNAL_ERROR"
)
