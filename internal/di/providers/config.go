// Package providers contains dependency injection providers for the places server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/placeshare/places-server/internal/config"
	"github.com/placeshare/places-server/internal/logger"
)

// Args holds the command-line arguments passed to the server.
type Args []string

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	args, err := do.Invoke[Args](i)
	if err != nil {
		args = nil
	}
	return config.LoadConfig(args)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Places Server",
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"store", cfg.Store.Backend,
		"geocoder", cfg.Geocoder.Provider,
	)

	return log, nil
}
