package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/placeshare/places-server/internal/config"
	"github.com/placeshare/places-server/internal/logger"
	"github.com/placeshare/places-server/internal/telemetry"
)

// TelemetryHandle wraps the tracer provider with shutdown capability.
type TelemetryHandle struct {
	*telemetry.Provider
}

// Shutdown implements do.Shutdownable. Pending spans are flushed.
func (h *TelemetryHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Provider.Shutdown(ctx)
}

// ProvideTelemetry registers the global tracer provider.
func ProvideTelemetry(i do.Injector) (*TelemetryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	provider, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: "places-server",
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	return &TelemetryHandle{Provider: provider}, nil
}
