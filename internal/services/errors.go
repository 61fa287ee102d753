package services

import "errors"

var (
	ErrEntryNotFound    = errors.New("entry not found")
	ErrBudgetAlreadySet = errors.New("budget already set")
	ErrInvalidBudget    = errors.New("invalid budget")
)
