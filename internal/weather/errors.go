package weather

import (
	"errors"
	"fmt"
)

// ErrorKind tags a failure with how callers should react to it.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindTransient failures may succeed on retry (network, connectivity).
	KindTransient
	// KindStructural failures cannot be fixed by retrying (schema, bad SQL).
	KindStructural
	// KindDataQuality marks a payload that is missing required fields.
	KindDataQuality
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindStructural:
		return "structural"
	case KindDataQuality:
		return "data_quality"
	default:
		return "unknown"
	}
}

var (
	// ErrNoData is returned by a provider once every attempt for a city failed.
	ErrNoData = errors.New("no weather data")
	// ErrIncompletePayload marks a payload missing the city or measurements.
	ErrIncompletePayload = errors.New("incomplete weather payload")
	// ErrStoreUnavailable is returned when the durable store stayed unreachable
	// for the whole retry budget. An inserted count of 0 alongside it does not
	// mean there was nothing to insert.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrNoPayloads aborts a run in which no city could be fetched.
	ErrNoPayloads = errors.New("no weather data fetched for any city")
)

// Error is a failure tagged with its kind and the operation that produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError builds an *Error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err is tagged as retryable.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}
