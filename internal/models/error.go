package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled = errors.New("account is disabled")
	ErrSamePassword    = errors.New("new password must differ from the current one")
	ErrInvalidTier     = errors.New("invalid access tier")

	// Vaccination errors
	ErrDuplicateDose = errors.New("dose already registered for this employee, vaccine and date")
	ErrInvalidCPF    = errors.New("invalid CPF")
)
