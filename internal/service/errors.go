package service

import "errors"

// Failure taxonomy of the order workflow. Handlers map these onto HTTP
// status codes with errors.Is; services wrap them with context via
// fmt.Errorf("...: %w", ...).
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid order state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVoucherExpired    = errors.New("voucher expired")
	ErrValidation        = errors.New("validation failed")
)
