package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind классифицирует ошибку для вызывающей стороны
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindNotAuthorized     Kind = "not_authorized"
	KindInvalidState      Kind = "invalid_state"
	KindDuplicateRequest  Kind = "duplicate_request"
	KindDuplicateFeedback Kind = "duplicate_feedback"
	KindTimeConflict      Kind = "time_conflict"
	KindConflict          Kind = "conflict"
)

// Error типизированная ошибка доменной операции
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New создаёт ошибку заданного вида
func New(kind Kind, op, message string) error {
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
	}
}

// Wrap помечает существующую ошибку видом kind
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: err.Error(),
		Cause:   err,
	}
}

// Is проверяет, что err (или обёрнутая ошибка) имеет вид kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}

// KindOf возвращает вид ошибки или пустую строку для инфраструктурных ошибок
func KindOf(err error) Kind {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return ""
	}
	return appErr.Kind
}

func Validation(op, message string) error {
	return New(KindValidation, op, message)
}

func NotFound(op, message string) error {
	return New(KindNotFound, op, message)
}

func NotAuthorized(op, message string) error {
	return New(KindNotAuthorized, op, message)
}

func InvalidState(op, message string) error {
	return New(KindInvalidState, op, message)
}

func Conflict(op, message string) error {
	return New(KindConflict, op, message)
}
