// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrSubjectRequired  = errors.New("subject id is required")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrListNameRequired = errors.New("name is required")
	ErrListNameTooLong  = errors.New("name must be at most 100 characters")
	ErrOwnerRequired    = errors.New("owner id is required")
)
