package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// The message is shown to end users and must not enable account enumeration.
	ErrInvalidCredentials = errors.New("Invalid email or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")

	ErrNotFound = errors.New("record not found")

	ErrNameRequired        = errors.New("name is required")
	ErrProgramNameRequired = errors.New("programName is required")
	ErrCategoryIDRequired  = errors.New("categoryId is required")
)
