package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"fetch", &FetchError{URL: "u", Status: 404, Err: base}, KindFetch},
		{"wrapped fetch", fmt.Errorf("round: %w", &FetchError{URL: "u", Err: base}), KindFetch},
		{"decode", &DecodeError{URL: "u", Err: base}, KindDecode},
		{"processing", &ProcessingError{Site: "Ankara", Err: base}, KindProcessing},
		{"other", base, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorKind(tt.err))
			assert.ErrorIs(t, tt.err, base)
		})
	}
}

func TestFetchErrorMessage(t *testing.T) {
	err := &FetchError{URL: "http://x/ist.jpg", Status: 503, Err: errors.New("unexpected status")}
	assert.Equal(t, "fetch http://x/ist.jpg: status 503: unexpected status", err.Error())

	err = &FetchError{URL: "http://x/ist.jpg", Err: errors.New("timeout")}
	assert.Equal(t, "fetch http://x/ist.jpg: timeout", err.Error())
}
