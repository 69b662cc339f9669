/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 3xxx: Authentication and Session Errors
const (
	// ErrTokenInvalid indicates the credential token failed signature or structural validation.
	ErrTokenInvalid = 3001

	// ErrTokenExpired indicates the credential token is past its expiry.
	ErrTokenExpired = 3002

	// ErrUnauthorized indicates the request lacks a valid identity for the HTTP surface.
	ErrUnauthorized = 3004

	// ErrAdminRequired indicates the identity is valid but lacks the admin role.
	ErrAdminRequired = 3005
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates the document store could not serve a read.
	ErrStoreUnavailable = 5001
)
