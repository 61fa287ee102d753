package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownType     = errors.New("unknown entry type")
)

// MissingFieldError reports the first required field left empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// InvalidAmountError reports an amount that is not a positive decimal number.
type InvalidAmountError struct {
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidAmount, e.Value)
}

func (e *InvalidAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// UnknownReferenceError reports a type or category id absent from the catalog.
type UnknownReferenceError struct {
	Field string
	Value string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

func (e *UnknownReferenceError) Is(target error) bool {
	switch e.Field {
	case FieldCategory:
		return target == ErrUnknownCategory
	case FieldType:
		return target == ErrUnknownType
	}
	return false
}

// IsValidationError reports whether err was raised by the entry validator.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrUnknownType)
}

// UserMessage turns a validation error into a message fit for display.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "Todos los campos son obligatorios"
	case errors.Is(err, ErrInvalidAmount):
		return "La cantidad no es válida."
	case errors.Is(err, ErrUnknownCategory):
		return "La categoría seleccionada no existe"
	case errors.Is(err, ErrUnknownType):
		return "El tipo seleccionado no existe"
	default:
		return "Error inesperado"
	}
}
