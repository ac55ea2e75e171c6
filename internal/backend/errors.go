package backend

import (
	"errors"
	"fmt"
)

// Error codes returned by the backend client
const (
	CodeNotFound  = "not-found"
	CodeBadStatus = "bad-status"
	CodeDecode    = "decode"
	CodeTransport = "transport"
)

// Error wraps any failure talking to the backend with a coarse code the
// caller can branch on without parsing messages.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: code=%s, error=%v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// IsNotFound reports whether err is a backend "not found" response.
func IsNotFound(err error) bool {
	var berr *Error
	return errors.As(err, &berr) && berr.Code == CodeNotFound
}
