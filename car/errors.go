package car

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindInsufficientData: a bounded read over an in-memory buffer could not
	// obtain the requested number of bytes.
	KindInsufficientData Kind = "InsufficientData"
	// KindStreamRead: the underlying byte source reported a transport error.
	KindStreamRead Kind = "StreamRead"
	// KindStreamExhausted: the source ran dry while more bytes were expected.
	KindStreamExhausted Kind = "StreamExhausted"
	// KindMalformedFrame: a frame length cannot hold a content identifier.
	KindMalformedFrame Kind = "MalformedFrame"
	// KindInvalidVarint: no varint could be decoded where one was required.
	KindInvalidVarint Kind = "InvalidVarint"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g. CAR-STREAM-002, CAR-FRAME-001) naming
// the condition that failed. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// ErrEndOfFrames is returned by ReadFrame when no further frame length could
// be read. It is the normal termination signal of the frame loop and is never
// returned from Decode.
var ErrEndOfFrames = errors.New("car: end of frames")
