// Package errors defines the error kinds returned by the client.
// ClientError is fatal for a call; EntryParseFailure describes one skipped
// entry and travels next to the records that did parse.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// Call-level error types
const (
	ErrorTypeTransport               = "TRANSPORT_ERROR"
	ErrorTypeUnexpectedResponseShape = "UNEXPECTED_RESPONSE_SHAPE"
	ErrorTypeUnsupported             = "UNSUPPORTED"
	ErrorTypeNotFound                = "NOT_FOUND"
)

// Entry-level failure kinds
const (
	FailureBadSize       = "BAD_SIZE"
	FailureBadCount      = "BAD_COUNT"
	FailureMalformedHash = "MALFORMED_HASH"
)

// Field-level causes, usable with errors.Is.
var (
	ErrUnknownSizeUnit = stderrors.New("unknown size unit")
	ErrMalformedSize   = stderrors.New("malformed size")
	ErrNegativeCount   = stderrors.New("negative count")
	ErrNonNumericCount = stderrors.New("non-numeric count")
	ErrMalformedHash   = stderrors.New("malformed info-hash")
)

// ClientError is returned when a call cannot produce a result set at all.
type ClientError struct {
	Type       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// NewClientError creates a new ClientError
func NewClientError(errorType, message string, cause error) *ClientError {
	return &ClientError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewTransportError wraps a network or context failure
func NewTransportError(message string, cause error) *ClientError {
	return NewClientError(ErrorTypeTransport, message, cause)
}

// NewStatusError reports a non-2xx response
func NewStatusError(statusCode int, url string) *ClientError {
	err := NewClientError(ErrorTypeTransport, fmt.Sprintf("unexpected status %d from %s", statusCode, url), nil)
	err.StatusCode = statusCode
	return err
}

// NewUnexpectedShapeError reports a response that could not be split into entries
func NewUnexpectedShapeError(reason string) *ClientError {
	return NewClientError(ErrorTypeUnexpectedResponseShape, reason, nil)
}

// NewUnsupportedError reports an operation the configured dialect cannot serve
func NewUnsupportedError(operation, dialect string) *ClientError {
	return NewClientError(ErrorTypeUnsupported, fmt.Sprintf("%s is not available on %s sites", operation, dialect), nil)
}

// NewNotFoundError reports a torrent id the site does not know
func NewNotFoundError(id uint64) *ClientError {
	return NewClientError(ErrorTypeNotFound, fmt.Sprintf("torrent %d not found", id), nil)
}

// IsType reports whether err is a ClientError of the given type.
func IsType(err error, errorType string) bool {
	var ce *ClientError
	return stderrors.As(err, &ce) && ce.Type == errorType
}

// EntryParseFailure records why one entry was dropped.
type EntryParseFailure struct {
	Index   int    `json:"index"`
	EntryID string `json:"entry_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Kind    string `json:"kind"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Cause   error  `json:"-"`
}

func (f *EntryParseFailure) Error() string {
	msg := fmt.Sprintf("%s: entry %d", f.Kind, f.Index)
	if f.EntryID != "" {
		msg += fmt.Sprintf(" (id %s)", f.EntryID)
	}
	msg += fmt.Sprintf(": field %s=%q", f.Field, f.Value)
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

func (f *EntryParseFailure) Unwrap() error {
	return f.Cause
}

// Reason is the cause as text, for serialisation.
func (f *EntryParseFailure) Reason() string {
	if f.Cause == nil {
		return ""
	}
	return f.Cause.Error()
}

// failureJSON avoids recursing into the methods below.
type failureJSON EntryParseFailure

// MarshalJSON adds the cause as "reason".
func (f *EntryParseFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		*failureJSON
		Reason string `json:"reason,omitempty"`
	}{(*failureJSON)(f), f.Reason()})
}

// UnmarshalJSON restores the cause from "reason". Known causes come back as
// the package's sentinel errors, wrapped with any detail that followed them,
// so errors.Is keeps working.
func (f *EntryParseFailure) UnmarshalJSON(data []byte) error {
	aux := struct {
		*failureJSON
		Reason string `json:"reason"`
	}{failureJSON: (*failureJSON)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Cause = causeFromReason(aux.Reason)
	return nil
}

var sentinels = []error{ErrUnknownSizeUnit, ErrMalformedSize, ErrNegativeCount, ErrNonNumericCount, ErrMalformedHash}

func causeFromReason(reason string) error {
	if reason == "" {
		return nil
	}
	for _, err := range sentinels {
		msg := err.Error()
		if reason == msg {
			return err
		}
		if strings.HasPrefix(reason, msg+":") {
			return fmt.Errorf("%w%s", err, reason[len(msg):])
		}
	}
	return stderrors.New(reason)
}
