package session

import (
	"errors"
	"fmt"
)

// Code is the stable identifier of an engine failure.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeInvalidInput        Code = "invalid_input"
	CodeAlreadyTerminal     Code = "already_terminal"
	CodeNoHiddenObjectives  Code = "no_hidden_objectives"
	CodeCollaboratorFailure Code = "collaborator_failure"
)

// Error is returned by every Engine operation that refuses to run. The
// session is unchanged whenever an Error is returned.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrInvalidInput       = &Error{Code: CodeInvalidInput}
	ErrAlreadyTerminal    = &Error{Code: CodeAlreadyTerminal}
	ErrNoHiddenObjectives = &Error{Code: CodeNoHiddenObjectives}
)

func errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
