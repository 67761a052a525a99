package trackerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies every failure a tracking backend can produce. Adapters
// convert transport-level faults into one of these before returning; nothing
// else crosses the adapter boundary.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindConfiguration Kind = "CONFIGURATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindAuth          Kind = "AUTH"
	KindRateLimit     Kind = "RATE_LIMIT"
	KindTimeout       Kind = "TIMEOUT"
	KindUpstream      Kind = "UPSTREAM"
	KindVocabulary    Kind = "UNRECOGNIZED_VOCABULARY"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps the original cause reachable through errors.Unwrap while
// presenting a classified error to the caller.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from any error in the chain; plain errors map to
// KindUpstream so callers can always switch on a kind.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUpstream
}

func IsKind(err error, kind Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}
