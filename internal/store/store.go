// Package store defines the persistence contract for places and users and
// provides the Badger-backed implementation.
//
// Every write that touches both places and users runs inside a single
// read-write transaction opened with Store.Update. Badger's serializable
// snapshot isolation rejects the later of two transactions that read and
// wrote the same keys, which is what keeps a user's place set in step with
// the places that name that user as creator.
package store

import (
	"context"
	"iter"

	"github.com/placeshare/places-server/internal/domain"
)

// Tx is the set of operations available inside a transaction. A Tx is only
// valid for the duration of the function it was passed to.
type Tx interface {
	GetPlace(ctx context.Context, id string) (*domain.Place, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	SavePlace(ctx context.Context, place *domain.Place) error
	SaveUser(ctx context.Context, user *domain.User) error
	DeletePlace(ctx context.Context, id string) error

	// Places and Users iterate the transaction's snapshot.
	Places(ctx context.Context) iter.Seq2[*domain.Place, error]
	Users(ctx context.Context) iter.Seq2[*domain.User, error]
}

// Store is a transactional place and user store.
type Store interface {
	// Update runs fn in a read-write transaction. The transaction commits
	// when fn returns nil and is discarded otherwise. A commit rejected
	// because of a concurrent write returns an error matching ErrConflict.
	Update(ctx context.Context, fn func(Tx) error) error

	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error

	// GetPlacesByIDs returns the places that exist among ids, in ids order.
	GetPlacesByIDs(ctx context.Context, ids []string) ([]*domain.Place, error)

	ListPlaces(ctx context.Context) iter.Seq2[*domain.Place, error]
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
