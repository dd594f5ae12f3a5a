package weather

import (
	"errors"
	"fmt"
)

// Failure kinds of a poll. Every error returned by Service.FetchOutdoorTemperature
// matches exactly one of them with errors.Is.
var (
	ErrNotConnected        = errors.New("not connected")
	ErrTransport           = errors.New("transport error")
	ErrDecode              = errors.New("decode error")
	ErrMissingSensorsField = errors.New("missing sensors field")
	ErrInvalidSensorsType  = errors.New("sensors is not an array")
	ErrEmptySensorArray    = errors.New("sensors array is empty")
	ErrNoValidValues       = errors.New("no valid sensor values")
)

var kinds = []error{
	ErrNotConnected,
	ErrTransport,
	ErrDecode,
	ErrMissingSensorsField,
	ErrInvalidSensorsType,
	ErrEmptySensorArray,
	ErrNoValidValues,
}

// FetchError is a typed poll failure. StatusCode is set only for transport
// failures that got an HTTP status; Detail is diagnostic text.
type FetchError struct {
	Kind       error
	StatusCode int
	Detail     string
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("%v: status %d: %s", e.Kind, e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d", e.Kind, e.StatusCode)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	default:
		return e.Kind.Error()
	}
}

func (e *FetchError) Unwrap() error {
	return e.Kind
}

// NewTransportError reports a transport failure; status is 0 when no HTTP
// status was obtained.
func NewTransportError(status int, detail string) *FetchError {
	return &FetchError{Kind: ErrTransport, StatusCode: status, Detail: detail}
}

func fail(kind error, detail string) *FetchError {
	return &FetchError{Kind: kind, Detail: detail}
}

// KindName returns a short stable name for the failure kind of err,
// or "unknown" when err is not a poll failure.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrMissingSensorsField):
		return "missing_sensors"
	case errors.Is(err, ErrInvalidSensorsType):
		return "invalid_sensors_type"
	case errors.Is(err, ErrEmptySensorArray):
		return "empty_sensors"
	case errors.Is(err, ErrNoValidValues):
		return "no_valid_values"
	default:
		return "unknown"
	}
}

// asFetchError normalizes any error into the taxonomy; unknown errors from a
// transport are transport failures.
func asFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return &FetchError{Kind: k, Detail: err.Error()}
		}
	}
	return NewTransportError(0, err.Error())
}
