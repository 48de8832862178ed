package datasource

import "errors"

// Sentinel errors for the datasource domain.
var (
	ErrBudgetExhausted = errors.New("budget exhausted")
	ErrInvalidBudget   = errors.New("budget must be at least 1")
	ErrNilSource       = errors.New("wrapped source is nil")
)
