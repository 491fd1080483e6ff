package domain

import (
	"errors"
	"fmt"
)

// FetchError reports a transport failure or a non-success HTTP status.
// Status is 0 when no response was received.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a payload that is not a decodable raster.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProcessingError reports any other failure while masking or classifying.
type ProcessingError struct {
	Site string
	Err  error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Site, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Error kinds used as metric labels.
const (
	KindFetch      = "fetch"
	KindDecode     = "decode"
	KindProcessing = "processing"
	KindOther      = "other"
)

// ErrorKind classifies err into one of the Kind* labels.
func ErrorKind(err error) string {
	var (
		fetchErr   *FetchError
		decodeErr  *DecodeError
		processErr *ProcessingError
	)
	switch {
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &processErr):
		return KindProcessing
	default:
		return KindOther
	}
}
