package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthUserNotFound       = "AUTH_USER_NOT_FOUND"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"

	// authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"

	// validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// catalog
	ProductNotFound = "PRODUCT_NOT_FOUND"

	// orders
	OrderNotFound              = "ORDER_NOT_FOUND"
	OrderInvalidTrackingStatus = "ORDER_INVALID_TRACKING_STATUS"
	OrderInvalidPaymentMethod  = "ORDER_INVALID_PAYMENT_METHOD"
	OrderCreateFailed          = "ORDER_CREATE_FAILED"
	OrderUpdateFailed          = "ORDER_UPDATE_FAILED"

	// uploads
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// rate limiting
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
