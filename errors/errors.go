package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies where an error came from and how callers recover from it.
type Kind int

const (
	KindUnknown Kind = iota
	KindProvider
	KindStructural
	KindLengthMismatch
	KindMedia
	KindIO
	KindInvalidInput
	KindConfig
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindProvider:
		return "provider"
	case KindStructural:
		return "structural"
	case KindLengthMismatch:
		return "length_mismatch"
	case KindMedia:
		return "media"
	case KindIO:
		return "io"
	case KindInvalidInput:
		return "invalid_input"
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind   `json:"-"`
	Op      string `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to the HTTP status used by the API handlers.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindProvider, KindMedia:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func E(kind Kind, op string, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

func Provider(op string, err error, message string) *Error {
	return E(KindProvider, op, err, message)
}

func Structural(op string, err error, message string) *Error {
	return E(KindStructural, op, err, message)
}

func LengthMismatch(op string, message string) *Error {
	return E(KindLengthMismatch, op, nil, message)
}

func Media(op string, err error, message string) *Error {
	return E(KindMedia, op, err, message)
}

func IO(op string, err error, message string) *Error {
	return E(KindIO, op, err, message)
}

func InvalidInput(op string, err error, message string) *Error {
	return E(KindInvalidInput, op, err, message)
}

func Config(op string, err error, message string) *Error {
	return E(KindConfig, op, err, message)
}

func NotFound(op string, err error, message string) *Error {
	return E(KindNotFound, op, err, message)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
