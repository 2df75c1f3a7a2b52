package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"moralsim/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, the code implied by a
// domain sentinel otherwise, and "UNKNOWN" as a last resort
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code := domainCode(err); code != "" {
		return code
	}
	return "UNKNOWN"
}

func domainCode(err error) string {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, core.ErrDatasetUnavailable):
		return CodeDatasetUnavailable
	case stderrors.Is(err, core.ErrDatasetMalformed):
		return CodeDatasetMalformed
	case stderrors.Is(err, core.ErrTemplateNotFound):
		return CodeTemplateNotFound
	case stderrors.Is(err, core.ErrInvalidTransition):
		return CodeInvalidTransition
	case stderrors.Is(err, core.ErrProviderFailed):
		return CodeProviderError
	case stderrors.Is(err, core.ErrGenerationInProgress):
		return CodeGenerationBusy
	case stderrors.Is(err, core.ErrSessionReset):
		return CodeSessionReset
	case stderrors.Is(err, core.ErrSessionNotFound), stderrors.Is(err, core.ErrReportNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrInvalidChoice):
		return CodeInvalidInput
	default:
		return ""
	}
}

// FromDomain wraps a domain error in an AppError carrying its code.
// Errors that already are AppErrors pass through unchanged.
func FromDomain(err error) error {
	if err == nil || IsAppError(err) {
		return err
	}
	if code := domainCode(err); code != "" {
		return &AppError{Code: code, Message: err.Error(), Cause: err}
	}
	return err
}

// HTTPStatus maps an error code to the status the API responds with
func HTTPStatus(code string) int {
	switch code {
	case CodeDatasetUnavailable, CodeDatasetMalformed:
		return http.StatusServiceUnavailable
	case CodeInvalidTransition, CodeGenerationBusy, CodeSessionReset:
		return http.StatusConflict
	case CodeProviderError, CodeExternalService:
		return http.StatusBadGateway
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"

	CodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	CodeDatasetMalformed   = "DATASET_MALFORMED"
	CodeTemplateNotFound   = "TEMPLATE_NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeProviderError      = "PROVIDER_ERROR"
	CodeGenerationBusy     = "GENERATION_IN_PROGRESS"
	CodeSessionReset       = "SESSION_RESET"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func DatasetUnavailable(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeDatasetUnavailable,
		Message: fmt.Sprintf("dataset %s unavailable", source),
		Cause:   cause,
	}
}

func TemplateNotFound(cause error) *AppError {
	return &AppError{
		Code:    CodeTemplateNotFound,
		Message: "unknown scenario template",
		Cause:   cause,
	}
}

func ProviderError(provider string, cause error) *AppError {
	return &AppError{
		Code:    CodeProviderError,
		Message: fmt.Sprintf("scenario provider %s failed", provider),
		Cause:   cause,
	}
}
