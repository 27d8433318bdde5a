// Package businessflow contains the lead and quote conversion workflow
package businessflow

import (
	"errors"
	"fmt"
)

// Error kinds. Each specific error below wraps exactly one kind and is matched
// with errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrNumberingConflict    = errors.New("could not assign a unique quote number, please try again")
	ErrTrackingWriteFailure = errors.New("conversion tracking write failed")
)

// Business flow error constants
var (
	// Not found
	ErrLeadNotFound      = fmt.Errorf("lead %w", ErrNotFound)
	ErrQuoteNotFound     = fmt.Errorf("quote %w", ErrNotFound)
	ErrLineItemNotFound  = fmt.Errorf("line item %w", ErrNotFound)
	ErrServiceNotFound   = fmt.Errorf("service %w", ErrNotFound)
	ErrStaffUserNotFound = fmt.Errorf("staff user %w", ErrNotFound)

	// Lead validation
	ErrNameRequired        = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmailRequired       = fmt.Errorf("%w: email is required", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: email is invalid", ErrValidation)
	ErrInvalidLeadStatus   = fmt.Errorf("%w: invalid lead status", ErrValidation)
	ErrInvalidLeadSource   = fmt.Errorf("%w: invalid lead source", ErrValidation)
	ErrNegativeBudget      = fmt.Errorf("%w: budget cannot be negative", ErrValidation)
	ErrInvalidBudgetRange  = fmt.Errorf("%w: unknown budget range", ErrValidation)
	ErrInvalidProjectType  = fmt.Errorf("%w: unknown project type", ErrValidation)
	ErrInvalidBulkAction   = fmt.Errorf("%w: unknown bulk action", ErrValidation)
	ErrEmptySelection      = fmt.Errorf("%w: no leads selected", ErrValidation)
	ErrInvalidConversion   = fmt.Errorf("%w: invalid conversion action", ErrValidation)
	ErrConversionSourceReq = fmt.Errorf("%w: conversion source is required", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: dates must be YYYY-MM-DD", ErrValidation)

	// Pricing validation
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	ErrNegativeUnitPrice    = fmt.Errorf("%w: unit price cannot be negative", ErrValidation)
	ErrDiscountOutOfRange   = fmt.Errorf("%w: discount percentage must be between 0 and 100", ErrValidation)
	ErrTaxRateOutOfRange    = fmt.Errorf("%w: tax rate must be between 0 and 100", ErrValidation)
	ErrNegativeServicePrice = fmt.Errorf("%w: base price cannot be negative", ErrValidation)

	// Quote validation
	ErrClientNameRequired  = fmt.Errorf("%w: client name is required", ErrValidation)
	ErrClientEmailRequired = fmt.Errorf("%w: client email is required", ErrValidation)
	ErrInvalidValidUntil   = fmt.Errorf("%w: valid_until must be a YYYY-MM-DD date", ErrValidation)
	ErrValidUntilInPast    = fmt.Errorf("%w: valid_until cannot be in the past", ErrInvalidValidUntil)
	ErrInvalidQuoteStatus  = fmt.Errorf("%w: invalid quote status", ErrValidation)
	ErrQuoteEmpty          = fmt.Errorf("%w: a quote needs at least one line item before it is sent", ErrValidation)
	ErrInactiveService     = fmt.Errorf("%w: service is not active", ErrValidation)
	ErrInvalidServiceInput = fmt.Errorf("%w: invalid service", ErrValidation)
	ErrDuplicateSlug       = fmt.Errorf("%w: slug already exists", ErrValidation)

	// State machine conflicts, reported as 409 by the HTTP layer
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrValidation)
	ErrQuoteLocked       = fmt.Errorf("%w: line items are locked once a quote leaves draft", ErrValidation)

	// Staff authentication
	ErrStaffInactive     = errors.New("staff account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidCaptcha    = errors.New("invalid captcha")
	ErrCaptchaNotReady   = errors.New("captcha service not available")
	ErrMissingStaffID    = errors.New("staff id is required")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNumberingConflict(err error) bool {
	return errors.Is(err, ErrNumberingConflict)
}

func IsTrackingWriteFailure(err error) bool {
	return errors.Is(err, ErrTrackingWriteFailure)
}

// IsConflict reports state machine violations that leave the request well formed
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrQuoteLocked) || errors.Is(err, ErrDuplicateSlug)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}

func IsStaffInactive(err error) bool {
	return errors.Is(err, ErrStaffInactive)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

// ErrorCode extracts the code of the outermost BusinessError, if any
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
