package services

import (
	"errors"

	"github.com/dmitrijs2005/officehub/internal/client/client"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrNothingToUpdate  = errors.New("no profile fields to update")

	ErrBusy             = errors.New("another request is in progress")
	ErrWrongStep        = errors.New("action not available at this step")
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidOTP       = errors.New("invalid OTP format")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// SessionError is returned by every failing session operation. Message is
// ready to show to the user.
type SessionError struct {
	Op      string
	Message string
	Err     error
}

func (e *SessionError) Error() string { return e.Message }

func (e *SessionError) Unwrap() error { return e.Err }

func sessionError(op, fallback string, err error) *SessionError {
	msg := client.MessageOf(err)
	if msg == "" {
		msg = fallback
	}
	return &SessionError{Op: op, Message: msg, Err: err}
}

// StepError is returned by a failing password-reset action. Message is the
// same text the wizard exposes through ResetState.Error.
type StepError struct {
	Step    ResetStep
	Message string
	Err     error
}

func (e *StepError) Error() string { return e.Message }

func (e *StepError) Unwrap() error { return e.Err }
