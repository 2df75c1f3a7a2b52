package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data errors degrade to empty results
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrDatasetMalformed   = errors.New("dataset has no comparable response fields")

	// Contract violations abort the current operation only
	ErrTemplateNotFound  = errors.New("scenario template not found")
	ErrInvalidTransition = errors.New("invalid session transition")

	// Recoverable generation errors
	ErrProviderFailed        = errors.New("scenario provider failed")
	ErrGenerationInProgress  = errors.New("scenario generation in progress")
	ErrSessionReset          = errors.New("session was reset during generation")
	ErrSessionNotFound       = errors.New("session not found")
	ErrReportNotFound        = errors.New("report not found")
	ErrInvalidChoice         = errors.New("choice must be A or B")
	ErrInsufficientResponses = errors.New("no responses recorded")
)

// Error constructors with context
func NewTemplateNotFoundError(id string) error {
	return fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
}

func NewInvalidTransitionError(state, action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, state)
}

func NewProviderError(provider string, err error) error {
	return fmt.Errorf("%w (%s): %v", ErrProviderFailed, provider, err)
}

func NewDatasetUnavailableError(source string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDatasetUnavailable, source)
	}
	return fmt.Errorf("%w: %s: %v", ErrDatasetUnavailable, source, err)
}

// IsContractError reports programming-contract violations (bad template, bad transition)
func IsContractError(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsDataError reports dataset quality problems
func IsDataError(err error) bool {
	return errors.Is(err, ErrDatasetUnavailable) ||
		errors.Is(err, ErrDatasetMalformed)
}

// IsRecoverable reports errors the respondent can simply retry
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrProviderFailed) ||
		errors.Is(err, ErrGenerationInProgress) ||
		errors.Is(err, ErrSessionReset)
}
