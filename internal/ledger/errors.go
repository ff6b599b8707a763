package ledger

import "errors"

var (
	ErrEntryNotFound    = errors.New("ledger entry not found")
	ErrDecisionNotFound = errors.New("decision not found")
	ErrDecisionExists   = errors.New("decision already exists")
	ErrValidation       = errors.New("invalid ledger input")
)
