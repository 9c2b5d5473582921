package steveerr

import (
	"errors"
	"fmt"
)

// ErrNotApplicable is wrapped by a ParseError when a webhook event is not of
// a kind that is processed.
var ErrNotApplicable = errors.New("event type is not applicable")

// ErrIssueNotFound is returned when a referenced issue does not exist in the
// repository.
var ErrIssueNotFound = errors.New("issue not found")

type ParseErrorKind uint8

const (
	ParseErrorUndefined ParseErrorKind = iota
	ParseErrorMalformed
	ParseErrorNotApplicable
	ParseErrorMissingField
	ParseErrorTypeMismatch
	ParseErrorInvalidURL
)

var parseErrorKindString = [...]string{
	ParseErrorUndefined:     "undefined",
	ParseErrorMalformed:     "malformed payload",
	ParseErrorNotApplicable: "not applicable",
	ParseErrorMissingField:  "missing field",
	ParseErrorTypeMismatch:  "type mismatch",
	ParseErrorInvalidURL:    "invalid url",
}

func (k ParseErrorKind) String() string {
	if int(k) > len(parseErrorKindString)-1 {
		return fmt.Sprintf("unsupported ParseErrorKind value: %d", k)
	}

	return parseErrorKindString[k]
}

// ParseError is returned when a webhook payload can not be converted into an
// event.
type ParseError struct {
	Kind ParseErrorKind
	// Field is the JSON path of the field the error refers to, it is
	// empty if the error is not related to a single field.
	Field string
	// Err is the wrapped original error
	Err error
}

func NewParseError(kind ParseErrorKind, field string, err error) *ParseError {
	return &ParseError{
		Kind:  kind,
		Field: field,
		Err:   err,
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Error() string {
	var msg string
	if e.Field == "" {
		msg = e.Kind.String()
	} else {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}

	if e.Err == nil {
		return msg
	}

	return fmt.Sprintf("%s: %s", msg, e.Err)
}

// GatewayError is returned when an outbound call failed on every attempt.
type GatewayError struct {
	// Attempts is the number of times the call was executed.
	Attempts int
	// Err is the error of the last attempt.
	Err error
}

func NewGatewayError(attempts int, lastErr error) *GatewayError {
	return &GatewayError{
		Attempts: attempts,
		Err:      lastErr,
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("giving up after %d attempt(s): %s", e.Attempts, e.Err)
}

// PermanentError marks an error of an outbound call that can not succeed when
// it is repeated.
type PermanentError struct {
	// Err is the wrapped original error
	Err error
}

func NewPermanentError(originalErr error) *PermanentError {
	return &PermanentError{Err: originalErr}
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %s", e.Err)
}
