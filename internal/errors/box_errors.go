package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a provisioning failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidBoxName
	KindTargetNotEmpty
	KindBoxNotFound
	KindNetwork
	KindTool
	KindOther
	KindRateLimited
	KindManifestPartialFailure
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindInvalidBoxName:         "invalid box name",
	KindTargetNotEmpty:         "target not empty",
	KindBoxNotFound:            "box not found",
	KindNetwork:                "network error",
	KindTool:                   "tool error",
	KindOther:                  "other error",
	KindRateLimited:            "rate limited",
	KindManifestPartialFailure: "manifest partial failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// BoxError represents a classified failure of the box provisioning workflow
type BoxError struct {
	Kind    Kind   // Failure classification
	Op      string // Operation that failed
	Message string // Human readable message
	Payload string // Raw diagnostic payload (OtherError, RateLimited)
	Err     error  // Underlying error
}

func (e *BoxError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Payload != "" && e.Payload != msg {
		msg = fmt.Sprintf("%s: %s", msg, e.Payload)
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *BoxError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a BoxError of the same kind. This lets the
// package level sentinels match any error of their kind.
func (e *BoxError) Is(target error) bool {
	t, ok := target.(*BoxError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewBoxError creates a new BoxError
func NewBoxError(kind Kind, op, message string, err error) *BoxError {
	return &BoxError{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewOtherError creates an OtherError that carries the raw diagnostic payload
func NewOtherError(op, payload string, err error) *BoxError {
	return &BoxError{
		Kind:    KindOther,
		Op:      op,
		Message: "unexpected failure",
		Payload: payload,
		Err:     err,
	}
}

// NewRateLimitedError creates a RateLimited error carrying the remote message
func NewRateLimitedError(op, message string) *BoxError {
	return &BoxError{
		Kind:    KindRateLimited,
		Op:      op,
		Message: "rate limited",
		Payload: message,
	}
}

// Sentinels for errors.Is matching
var (
	ErrInvalidBoxName         = &BoxError{Kind: KindInvalidBoxName, Message: "invalid box name"}
	ErrTargetNotEmpty         = &BoxError{Kind: KindTargetNotEmpty, Message: "target directory is not empty"}
	ErrBoxNotFound            = &BoxError{Kind: KindBoxNotFound, Message: "box not found"}
	ErrNetwork                = &BoxError{Kind: KindNetwork, Message: "check your network."}
	ErrTool                   = &BoxError{Kind: KindTool, Message: "check your Git tool."}
	ErrOther                  = &BoxError{Kind: KindOther, Message: "unexpected failure"}
	ErrRateLimited            = &BoxError{Kind: KindRateLimited, Message: "rate limited"}
	ErrManifestPartialFailure = &BoxError{Kind: KindManifestPartialFailure, Message: "ignore manifest partially applied"}
)

// KindOf returns the kind of the first BoxError in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var be *BoxError
	if stderrors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// IsKind checks if err carries a BoxError of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PayloadOf returns the diagnostic payload of the first BoxError in err's chain
func PayloadOf(err error) string {
	var be *BoxError
	if stderrors.As(err, &be) {
		return be.Payload
	}
	return ""
}
