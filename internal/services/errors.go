package services

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION_FAILED"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeAuth       = "AUTH_FAILED"
	CodeUpstream   = "UPSTREAM_FAILED"
)

// AppError ошибка уровня бизнес-логики; Message показывается пользователю
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func ValidationError(message string) error {
	return &AppError{Code: CodeValidation, Message: message}
}

func ConflictError(message string, cause error) error {
	return &AppError{Code: CodeConflict, Message: message, Cause: cause}
}

func NotFoundError(message string, cause error) error {
	return &AppError{Code: CodeNotFound, Message: message, Cause: cause}
}

func AuthError(message string) error {
	return &AppError{Code: CodeAuth, Message: message}
}

func UpstreamError(message string, cause error) error {
	return &AppError{Code: CodeUpstream, Message: message, Cause: cause}
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsValidation(err error) bool { return hasCode(err, CodeValidation) }
func IsConflict(err error) bool   { return hasCode(err, CodeConflict) }
func IsNotFound(err error) bool   { return hasCode(err, CodeNotFound) }
func IsAuth(err error) bool       { return hasCode(err, CodeAuth) }
func IsUpstream(err error) bool   { return hasCode(err, CodeUpstream) }

// PublicMessage возвращает текст для пользователя без кода и причины
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
