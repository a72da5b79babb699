package dto

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidSymbol       = errors.New("invalid symbol")
	ErrInvalidShares       = errors.New("shares must be greater than zero")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicatePortfolio  = errors.New("portfolio name already exists")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrRateLimited         = errors.New("too many requests")
	ErrProviderUnavailable = errors.New("provider unavailable")
)
