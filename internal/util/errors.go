package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrTestNotFound           = errors.New("test not found")
	ErrQuestionNotFound       = errors.New("question not found")
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrQuestionNotInAttempt   = errors.New("question is not part of this attempt")
	ErrAttemptFinished        = errors.New("attempt already finished")
	ErrAttemptNotFinished     = errors.New("attempt not finished yet")
	ErrTimeExpired            = errors.New("time limit exceeded")
	ErrCertificateUnavailable = errors.New("certificate is available only for passed attempts")
)

// ValidationError 请求内容不合法，Reason 直接展示给调用方
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
