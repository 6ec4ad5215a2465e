package providers

import (
	"github.com/samber/do/v2"

	"github.com/placeshare/places-server/internal/config"
	"github.com/placeshare/places-server/internal/logger"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured database backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.StorePath()

	var (
		db  store.Store
		err error
	)
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		db, err = sqlite.Open(dbPath, log.Logger)
	default:
		db, err = store.New(dbPath, log.Logger)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Store.Backend, "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
