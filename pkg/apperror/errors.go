package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the HTTP layer can derive a status code from it.
type Kind string

const (
	KindInternal         Kind = "internal"
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindProvider         Kind = "provider"
	KindStore            Kind = "store"
	KindDeadlineExceeded Kind = "deadline_exceeded"
)

// Error is the single error type crossing package boundaries in this service.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind and message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.Op == ""
}

var (
	ErrSessionNotFound     = &Error{Kind: KindNotFound, Message: "session not found"}
	ErrSessionNotCompleted = &Error{Kind: KindConflict, Message: "session is not completed"}
	ErrSessionCompleted    = &Error{Kind: KindConflict, Message: "session already completed"}
	ErrSessionBusy         = &Error{Kind: KindConflict, Message: "session has chunks awaiting persistence"}
	ErrLectureNotFound     = &Error{Kind: KindNotFound, Message: "no content found for this lecture"}
)

func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func Conflict(op, message string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

func Provider(op string, err error) *Error {
	return &Error{Kind: KindProvider, Op: op, Message: "provider request failed", Err: err}
}

func Store(op string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Message: "vector store request failed", Err: err}
}

func Deadline(op, message string) *Error {
	return &Error{Kind: KindDeadlineExceeded, Op: op, Message: message}
}

// Wrap attaches an operation name to a sentinel while keeping errors.Is working.
func Wrap(op string, sentinel *Error) *Error {
	return &Error{Kind: sentinel.Kind, Op: op, Message: sentinel.Message}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
