package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotAuthorized   = errors.New("user is not authorized")
	ErrBanned          = errors.New("user is banned")
	ErrCodeNotFound    = errors.New("access code not found")
	ErrCodeAlreadyUsed = errors.New("access code already used")
	ErrCodeExpired     = errors.New("access code expired")
	ErrAlreadyVoted    = errors.New("user already voted in this poll")
	ErrNotEligible     = errors.New("user did not receive this poll")
	ErrTooFewOptions   = errors.New("poll needs at least two options")
)
