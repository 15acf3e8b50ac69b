package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every specific error below wraps exactly one of these so
// callers can classify with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// Domain errors
var (
	ErrInvalidPeriod     = fmt.Errorf("%w: invalid period", ErrInvalidArgument)
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidArgument)
	ErrNegativeLimit     = fmt.Errorf("%w: limit amount must not be negative", ErrInvalidArgument)
	ErrInvalidCategory   = fmt.Errorf("%w: category does not exist or is not available", ErrInvalidArgument)
	ErrInvalidMonthRange = fmt.Errorf("%w: months must be between 1 and 24", ErrInvalidArgument)
	ErrSamePeriod        = fmt.Errorf("%w: source and destination periods are the same", ErrInvalidArgument)
	ErrEmptySourcePeriod = fmt.Errorf("%w: source period has no limits", ErrInvalidArgument)
	ErrEmptyBatch        = fmt.Errorf("%w: at least one limit is required", ErrInvalidArgument)

	ErrCategoryNotFound      = fmt.Errorf("%w: category not found", ErrNotFound)
	ErrCategoryAlreadyExists = fmt.Errorf("%w: a category with this name already exists", ErrConflict)
	ErrCategoryNotEditable   = fmt.Errorf("%w: predefined categories cannot be modified", ErrInvalidArgument)
	ErrNameRequired          = fmt.Errorf("%w: name is required", ErrInvalidArgument)
	ErrNameLength            = fmt.Errorf("%w: name has an invalid length", ErrInvalidArgument)
	ErrInvalidColor          = fmt.Errorf("%w: color must be a hex value like #1A2B3C", ErrInvalidArgument)
	ErrInvalidIcon           = fmt.Errorf("%w: icon exceeds maximum length", ErrInvalidArgument)
	ErrInvalidCategoryType   = fmt.Errorf("%w: unknown category type", ErrInvalidArgument)

	ErrExpenseNotFound     = fmt.Errorf("%w: expense not found", ErrNotFound)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description exceeds maximum length", ErrInvalidArgument)
	ErrInvalidDateRange    = fmt.Errorf("%w: date range start is after its end", ErrInvalidArgument)
	ErrIncomeNotFound      = fmt.Errorf("%w: income not found", ErrNotFound)
	ErrInvalidConcept      = fmt.Errorf("%w: concept must be between 2 and 100 characters", ErrInvalidArgument)
	ErrReceiptNotFound     = fmt.Errorf("%w: expense has no receipt", ErrNotFound)
	ErrReceiptTooLarge     = fmt.Errorf("%w: receipt exceeds 5MB", ErrInvalidArgument)
	ErrReceiptFormat       = fmt.Errorf("%w: receipt must be a JPEG, PNG or WebP image", ErrInvalidArgument)
	ErrReceiptsUnavailable = errors.New("receipt storage not configured")

	ErrCategoryLimitNotFound      = fmt.Errorf("%w: category limit not found", ErrNotFound)
	ErrCategoryLimitAlreadyExists = fmt.Errorf("%w: category limit already exists for this period", ErrConflict)
	ErrBudgetNotFound             = fmt.Errorf("%w: budget not found", ErrNotFound)
	ErrBudgetAlreadyExists        = fmt.Errorf("%w: budget already exists for this period", ErrConflict)
	ErrBudgetToUpdateMissing      = fmt.Errorf("%w: budget to update does not exist", ErrInvalidArgument)

	ErrUserNotFound           = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailAlreadyRegistered = fmt.Errorf("%w: email is already registered", ErrConflict)
	ErrInvalidEmail           = fmt.Errorf("%w: email is not valid", ErrInvalidArgument)
	ErrWeakPassword           = fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidArgument)
	ErrPasswordMismatch       = fmt.Errorf("%w: passwords do not match", ErrInvalidArgument)
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrInvalidRefreshToken    = fmt.Errorf("%w: refresh token is invalid or expired", ErrUnauthenticated)
)

// Validation constants
const (
	MinYear                = 2020
	MaxYear                = 2100
	MaxEvolutionMonths     = 24
	DefaultEvolutionMonths = 6
	MinNameLength          = 2
	MaxCategoryNameLength  = 50
	MaxUserNameLength      = 100
	MaxIconLength          = 50
	MaxDescriptionLength   = 500
	MaxConceptLength       = 100
	MinPasswordLength      = 8
)
