package weather

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when the provider answers with an empty array.
var ErrEmptyResult = errors.New("accuweather returned no reports")

// TransportError wraps failures to reach the provider or a non-2xx answer.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("accuweather request failed (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("accuweather request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps a body that does not match the current conditions schema.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("accuweather decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDecode reports whether err is a decode failure. An empty result counts as one.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) || errors.Is(err, ErrEmptyResult)
}
