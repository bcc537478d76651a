package delivery

import (
	"errors"
	"fmt"
)

// Code classifies navigation failures.
type Code string

const (
	CodeInvalid      Code = "invalid"
	CodeUnauthorized Code = "unauthorized"
	CodeLinear       Code = "linear"
	CodeClosed       Code = "closed"
	CodeOver         Code = "over"
	CodeUploadFailed Code = "upload_failed"
	CodePassword     Code = "password"
)

// Sentinels for errors.Is; any *Error with the same code matches.
var (
	ErrInvalid      = &Error{Code: CodeInvalid}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
	ErrLinear       = &Error{Code: CodeLinear}
	ErrClosed       = &Error{Code: CodeClosed}
	ErrOver         = &Error{Code: CodeOver}
	ErrUploadFailed = &Error{Code: CodeUploadFailed}
	ErrPassword     = &Error{Code: CodePassword}
)

// Error is the typed failure returned by the engine. Recovery, when set, is
// where the caller should send the user instead.
type Error struct {
	Code         Code
	Op           string
	SubmissionID uint
	Recovery     *Position
	Err          error
}

func (e *Error) Error() string {
	msg := "delivery: " + string(e.Code)
	if e.Op != "" {
		msg += " (" + e.Op + ")"
	}
	if e.SubmissionID != 0 {
		msg += fmt.Sprintf(" submission %d", e.SubmissionID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError builds an Error; err may be nil.
func NewError(code Code, op string, submissionID uint, err error) *Error {
	return &Error{Code: code, Op: op, SubmissionID: submissionID, Err: err}
}

func invalidf(op, format string, args ...any) *Error {
	return NewError(CodeInvalid, op, 0, fmt.Errorf(format, args...))
}

func withSubmission(err error, submissionID uint) error {
	var de *Error
	if errors.As(err, &de) && de.SubmissionID == 0 {
		de.SubmissionID = submissionID
	}
	return err
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// RecoveryOf returns the recovery position carried by err, if any.
func RecoveryOf(err error) *Position {
	var de *Error
	if errors.As(err, &de) {
		return de.Recovery
	}
	return nil
}

func IsInvalid(err error) bool      { return errors.Is(err, ErrInvalid) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsLinear(err error) bool       { return errors.Is(err, ErrLinear) }
func IsClosed(err error) bool       { return errors.Is(err, ErrClosed) }
func IsPassword(err error) bool     { return errors.Is(err, ErrPassword) }
func IsOver(err error) bool         { return errors.Is(err, ErrOver) }
