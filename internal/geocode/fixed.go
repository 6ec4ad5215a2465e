package geocode

import (
	"context"
	"strings"

	"github.com/placeshare/places-server/internal/domain"
)

// Fixed resolves every non-empty address to the same location.
// Used in development when no provider key is configured.
type Fixed struct {
	Location domain.Location
}

// NewFixed returns a Fixed geocoder.
func NewFixed(loc domain.Location) *Fixed {
	return &Fixed{Location: loc}
}

// Resolve implements Geocoder.
func (f *Fixed) Resolve(ctx context.Context, address string) (domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return domain.Location{}, err
	}
	if strings.TrimSpace(address) == "" {
		return domain.Location{}, wrapError("fixed", address, ErrEmptyAddress)
	}
	return f.Location, nil
}
