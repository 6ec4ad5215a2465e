package providers

import (
	"github.com/samber/do/v2"

	"github.com/placeshare/places-server/internal/config"
	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/geocode"
	"github.com/placeshare/places-server/internal/logger"
)

// GeocoderHandle wraps the configured geocoder and its cache.
type GeocoderHandle struct {
	geocode.Geocoder
	cache *geocode.Cached
}

// Shutdown implements do.Shutdownable.
func (h *GeocoderHandle) Shutdown() error {
	if h.cache != nil {
		h.cache.Close()
	}
	return nil
}

// ProvideGeocoder builds the configured geocoding provider, cached when a
// cache size is set.
func ProvideGeocoder(i do.Injector) (*GeocoderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var geocoder geocode.Geocoder
	switch cfg.Geocoder.Provider {
	case config.GeocoderGoogle:
		geocoder = geocode.NewGoogleClient(geocode.GoogleConfig{
			APIKey:            cfg.Geocoder.APIKey,
			BaseURL:           cfg.Geocoder.BaseURL,
			RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
			Timeout:           cfg.Geocoder.Timeout,
		}, log.Logger)
	default:
		loc := domain.Location{Lat: cfg.Geocoder.FixedLat, Lng: cfg.Geocoder.FixedLng}
		log.Warn("Using fixed geocoder, every address resolves to the same point", "location", loc.String())
		geocoder = geocode.NewFixed(loc)
	}

	if cfg.Geocoder.CacheSize <= 0 {
		return &GeocoderHandle{Geocoder: geocoder}, nil
	}

	cached, err := geocode.NewCached(geocoder, cfg.Geocoder.CacheSize, cfg.Geocoder.CacheTTL)
	if err != nil {
		return nil, err
	}

	log.Info("Geocoder initialized",
		"provider", cfg.Geocoder.Provider,
		"cache_size", cfg.Geocoder.CacheSize,
		"cache_ttl", cfg.Geocoder.CacheTTL,
	)

	return &GeocoderHandle{Geocoder: cached, cache: cached}, nil
}
