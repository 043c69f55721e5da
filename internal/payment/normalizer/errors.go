package normalizer

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent means an identifying field is missing. The event is
	// acknowledged and logged; redelivery would not help.
	ErrMalformedEvent = errors.New("malformed payment event")

	// ErrProviderUnavailable means the authoritative lookup failed. The
	// provider is expected to redeliver.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEvent, fmt.Sprintf(format, args...))
}

// unavailable keeps the provider error in the chain so callers can inspect
// its category.
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}
