package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/placeshare/places-server/internal/api"
	"github.com/placeshare/places-server/internal/auth"
	"github.com/placeshare/places-server/internal/config"
	"github.com/placeshare/places-server/internal/logger"
	"github.com/placeshare/places-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	tokens := do.MustInvoke[*auth.TokenService](i)

	// Tracing must be registered before the first request.
	_ = do.MustInvoke[*TelemetryHandle](i)

	services := &api.Services{
		Places: do.MustInvoke[*service.PlaceService](i),
		Users:  do.MustInvoke[*service.UserService](i),
		Search: do.MustInvoke[*service.SearchService](i),
	}

	opts := api.Options{
		Title:       "Places API",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if cfg.RateLimit.Enabled {
		opts.MutationsPerMinute = cfg.RateLimit.MutationsPerMinute
		opts.MutationBurst = cfg.RateLimit.Burst
	}

	handler := api.NewServer(storeHandle.Store, services, tokens, opts, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
