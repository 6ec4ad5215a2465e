// Package geocode resolves postal addresses to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/placeshare/places-server/internal/domain"
)

// Geocoder maps a human-readable address to a coordinate pair.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (domain.Location, error)
}

// Func adapts an ordinary function to the Geocoder interface.
type Func func(ctx context.Context, address string) (domain.Location, error)

// Resolve calls f(ctx, address).
func (f Func) Resolve(ctx context.Context, address string) (domain.Location, error) {
	return f(ctx, address)
}

// Sentinel errors for geocoding operations.
var (
	ErrEmptyAddress = errors.New("geocode: empty address")
	ErrNoResults    = errors.New("geocode: no results")
	ErrRateLimited  = errors.New("geocode: rate limited by provider")
	ErrDenied       = errors.New("geocode: request denied")
	ErrUpstream     = errors.New("geocode: upstream error")
)

// Error wraps an underlying error with the provider and address.
type Error struct {
	Provider string
	Address  string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("geocode %s [%q]: %v", e.Provider, e.Address, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(provider, address string, err error) error {
	return &Error{Provider: provider, Address: address, Err: err}
}
