// Package main provides a tool to seed the database with sample users and
// places.
//
// Places are geocoded from a built-in address table, so no geocoding API key
// is needed. Access tokens for the seeded users are printed for use against
// a running server.
//
// Usage:
//
//	go run ./cmd/seed --data-path ~/.places
//	go run ./cmd/seed --data-path ~/.places --store sqlite
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/placeshare/places-server/internal/auth"
	"github.com/placeshare/places-server/internal/config"
	"github.com/placeshare/places-server/internal/domain"
	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/geocode"
	"github.com/placeshare/places-server/internal/logger"
	"github.com/placeshare/places-server/internal/search"
	"github.com/placeshare/places-server/internal/service"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/store/sqlite"
	"github.com/placeshare/places-server/internal/validation"
)

type seedPlace struct {
	title       string
	description string
	address     string
	loc         domain.Location
}

var seedUsers = []struct {
	name   string
	email  string
	places []seedPlace
}{
	{
		name:  "Max Schwarz",
		email: "max@example.com",
		places: []seedPlace{
			{
				title:       "Empire State Building",
				description: "One of the most famous sky scrapers in the world!",
				address:     "20 W 34th St, New York, NY 10001",
				loc:         domain.Location{Lat: 40.7484405, Lng: -73.9856644},
			},
			{
				title:       "Flatiron Building",
				description: "A triangular landmark at the meeting of Broadway and Fifth Avenue.",
				address:     "175 5th Ave, New York, NY 10010",
				loc:         domain.Location{Lat: 40.7410605, Lng: -73.9896986},
			},
		},
	},
	{
		name:  "Manuel Lorenz",
		email: "manuel@example.com",
		places: []seedPlace{
			{
				title:       "Brandenburg Gate",
				description: "Neoclassical monument at the western end of Unter den Linden.",
				address:     "Pariser Platz, 10117 Berlin, Germany",
				loc:         domain.Location{Lat: 52.5162746, Lng: 13.3777041},
			},
		},
	},
	{
		name:  "Ana Ruiz",
		email: "ana@example.com",
	},
}

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	fmt.Printf("Opening %s database at: %s\n", cfg.Store.Backend, cfg.StorePath())

	var st store.Store
	if cfg.Store.Backend == config.StoreSQLite {
		st, err = sqlite.Open(cfg.StorePath(), lg.Logger)
	} else {
		st, err = store.New(cfg.StorePath(), lg.Logger)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.SearchPath(), Logger: lg.Logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	keyHex := cfg.Auth.TokenKey
	if keyHex == "" {
		keyHex, err = auth.LoadOrGenerateKey(cfg.Data.BasePath)
		if err != nil {
			log.Fatalf("Failed to load token key: %v", err)
		}
	}
	tokens, err := auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	locations := make(map[string]domain.Location)
	for _, u := range seedUsers {
		for _, p := range u.places {
			locations[p.address] = p.loc
		}
	}
	geocoder := geocode.Func(func(_ context.Context, address string) (domain.Location, error) {
		loc, ok := locations[address]
		if !ok {
			return domain.Location{}, geocode.ErrNoResults
		}
		return loc, nil
	})

	v := validation.New()
	places := service.NewPlaceService(st, geocoder, v, lg.Logger)
	places.SetIndexer(service.NewSearchService(index, st, lg.Logger))
	users := service.NewUserService(st, v, lg.Logger)

	ctx := context.Background()

	for _, su := range seedUsers {
		user, err := users.CreateUser(ctx, service.CreateUserInput{Name: su.name, Email: su.email})
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			user, err = users.GetUserByEmail(ctx, su.email)
			if err != nil {
				log.Fatalf("Failed to load existing user %s: %v", su.email, err)
			}
			fmt.Printf("\nUser exists: %s (%s)\n", user.Name, user.ID)
		} else if err != nil {
			log.Fatalf("Failed to create user %s: %v", su.email, err)
		} else {
			fmt.Printf("\nCreated user: %s (%s)\n", user.Name, user.ID)

			for _, sp := range su.places {
				place, err := places.CreatePlace(ctx, service.CreatePlaceInput{
					Title:       sp.title,
					Description: sp.description,
					Address:     sp.address,
					CreatorID:   user.ID,
				})
				if err != nil {
					log.Printf("Failed to create place %q: %v", sp.title, err)
					continue
				}
				fmt.Printf("  Created place: %s (%s)\n", place.Title, place.ID)
			}
		}

		token, err := tokens.GenerateAccessToken(user)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", user.ID, err)
		}
		fmt.Printf("  Token: %s\n", token)
	}

	report, err := places.CheckConsistency(ctx)
	if err != nil {
		log.Fatalf("Consistency check failed: %v", err)
	}
	fmt.Printf("\nChecked %d places and %d users, %d violations\n",
		report.PlacesChecked, report.UsersChecked, len(report.Violations))

	fmt.Println("\nSeeding complete!")
}
