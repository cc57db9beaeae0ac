package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeInvalidName = "invalid_name"
	ErrCodeNameInUse   = "name_in_use"
	ErrCodeBadRequest  = "bad_request"
)

var (
	ErrInvalidName = errors.New("invalid name")
	ErrNameInUse   = errors.New("name in use")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
