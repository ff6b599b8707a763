package veto

import "errors"

var (
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid proposal transition")
)
