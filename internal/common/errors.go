package common

import "errors"

// Sentinel errors shared between services and handlers. Handlers map these
// onto HTTP status codes.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountInactive     = errors.New("account is not activated")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrWeakPassword        = errors.New("password must be at least 8 characters and contain a letter and a digit")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserBlacklisted     = errors.New("user is blacklisted")
	ErrActiveCheckinExists = errors.New("user already has an active check-in")
	ErrRoomOccupied        = errors.New("room is already occupied")
	ErrCertificateInvalid  = errors.New("certificate is not valid for check-in")
	ErrNotCheckedIn        = errors.New("user has no active check-in")
	ErrReviewClosed        = errors.New("review is already finalized")
	ErrResultNotFound      = errors.New("result not found")
	ErrUnsupportedDocType  = errors.New("unsupported document type")
	ErrInvalidOAuthState   = errors.New("invalid or expired oauth state")
)
