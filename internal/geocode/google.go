package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/placeshare/places-server/internal/domain"
)

const (
	// DefaultGoogleBaseURL is the Google Geocoding API JSON endpoint.
	DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

	googleProvider = "google"
)

// GoogleConfig configures a GoogleClient.
type GoogleConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// GoogleClient resolves addresses with the Google Geocoding API.
type GoogleClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	apiKey      string
	baseURL     string
	logger      *slog.Logger
}

// NewGoogleClient creates a Google Geocoding API client.
func NewGoogleClient(cfg GoogleConfig, logger *slog.Logger) *GoogleClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGoogleBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &GoogleClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(limit, max(1, int(cfg.RequestsPerSecond))),
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		logger:      logger,
	}
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Resolve implements Geocoder. The first result wins.
func (c *GoogleClient) Resolve(ctx context.Context, address string) (domain.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Location{}, wrapError(googleProvider, address, ErrEmptyAddress)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("rate limit: %w", err))
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("%w: %w", ErrUpstream, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Location{}, wrapError(googleProvider, address, ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode))
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("%w: parse response: %w", ErrUpstream, err))
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.Location{}, wrapError(googleProvider, address, ErrNoResults)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return domain.Location{}, wrapError(googleProvider, address, ErrRateLimited)
	case "REQUEST_DENIED", "INVALID_REQUEST":
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("%w: %s", ErrDenied, body.ErrorMessage))
	default:
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("%w: status %s", ErrUpstream, body.Status))
	}

	if len(body.Results) == 0 {
		return domain.Location{}, wrapError(googleProvider, address, ErrNoResults)
	}

	first := body.Results[0]
	loc := domain.Location{Lat: first.Geometry.Location.Lat, Lng: first.Geometry.Location.Lng}
	if !loc.Valid() {
		return domain.Location{}, wrapError(googleProvider, address, fmt.Errorf("%w: invalid coordinates %s", ErrUpstream, loc))
	}

	c.logger.Debug("address geocoded",
		"address", address,
		"formatted_address", first.FormattedAddress,
		"location", loc.String(),
	)

	return loc, nil
}
