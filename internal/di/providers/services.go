package providers

import (
	"github.com/samber/do/v2"

	"github.com/placeshare/places-server/internal/logger"
	"github.com/placeshare/places-server/internal/service"
	"github.com/placeshare/places-server/internal/validation"
)

// ProvideValidator provides the shared input validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvidePlaceService provides the place service, indexing into search.
func ProvidePlaceService(i do.Injector) (*service.PlaceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	geocoderHandle := do.MustInvoke[*GeocoderHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewPlaceService(storeHandle.Store, geocoderHandle.Geocoder, validator, log.Logger)
	svc.SetIndexer(searchService)

	return svc, nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, validator, log.Logger), nil
}
