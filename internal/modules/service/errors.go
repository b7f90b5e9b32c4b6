package service

import "errors"

// Service layer errors for better error handling
var (
	// Ownership
	ErrForbidden = errors.New("resource belongs to another user")

	// Analysis
	ErrInvalidUpload = errors.New("invalid upload")
	ErrTestNotFound  = errors.New("drawing test not found")
	ErrQueueFull     = errors.New("analysis queue is full")
	ErrQueueClosed   = errors.New("analysis queue is closed")

	// Chat
	ErrSessionNotFound = errors.New("session not found")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrEmptyMessage    = errors.New("message content is empty")

	// Users
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user is not active")
)
