package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/normalize"
)

// BadgerStore is the Badger-backed Store.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
	closed atomic.Bool
}

var _ Store = (*BadgerStore)(nil)

// New opens (or creates) a Badger database at path.
func New(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // A committed place/user pair must survive a crash
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return &BadgerStore{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Update implements Store.
func (s *BadgerStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// View implements Store.
func (s *BadgerStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// GetPlacesByIDs implements Store. Missing ids are skipped.
func (s *BadgerStore) GetPlacesByIDs(ctx context.Context, ids []string) ([]*domain.Place, error) {
	places := make([]*domain.Place, 0, len(ids))

	err := s.View(ctx, func(tx Tx) error {
		for _, id := range ids {
			place, err := tx.GetPlace(ctx, id)
			if errors.Is(err, ErrPlaceNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			places = append(places, place)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return places, nil
}

// ListPlaces implements Store.
func (s *BadgerStore) ListPlaces(ctx context.Context) iter.Seq2[*domain.Place, error] {
	return func(yield func(*domain.Place, error) bool) {
		err := s.View(ctx, func(tx Tx) error {
			for place, err := range tx.Places(ctx) {
				if err != nil {
					return err
				}
				if !yield(place, nil) {
					return errStopIteration
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopIteration) {
			yield(nil, err)
		}
	}
}

// ListUsers implements Store.
func (s *BadgerStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User

	err := s.View(ctx, func(tx Tx) error {
		for user, err := range tx.Users(ctx) {
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// Ping implements Store.
func (s *BadgerStore) Ping(ctx context.Context) error {
	return s.View(ctx, func(Tx) error { return nil })
}

func (s *BadgerStore) ready(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// errStopIteration aborts a View when the consumer of an iterator stops early.
var errStopIteration = errors.New("iteration stopped")

// badgerTx adapts a badger transaction to Tx.
type badgerTx struct {
	txn *badger.Txn
}

func (t *badgerTx) GetPlace(ctx context.Context, id string) (*domain.Place, error) {
	var place domain.Place
	if err := t.get(ctx, placeKey(id), &place); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("get place: %w", err)
	}
	return &place, nil
}

func (t *badgerTx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := t.get(ctx, userKey(id), &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.PlaceIDs == nil {
		user.PlaceIDs = []string{}
	}
	return &user, nil
}

func (t *badgerTx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	userID, err := t.emailOwner(ctx, normalize.Email(email))
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrUserNotFound
	}
	return t.GetUser(ctx, userID)
}

func (t *badgerTx) SavePlace(ctx context.Context, place *domain.Place) error {
	if err := t.set(ctx, placeKey(place.ID), place); err != nil {
		return fmt.Errorf("save place: %w", err)
	}
	return nil
}

// SaveUser writes the user and keeps the unique email index current.
func (t *badgerTx) SaveUser(ctx context.Context, user *domain.User) error {
	email := normalize.Email(user.Email)

	previous, err := t.GetUser(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if email != "" {
		owner, err := t.emailOwner(ctx, email)
		if err != nil {
			return err
		}
		if owner != "" && owner != user.ID {
			return ErrEmailExists
		}
	}

	if previous != nil {
		oldEmail := normalize.Email(previous.Email)
		if oldEmail != "" && oldEmail != email {
			if err := t.txn.Delete(userEmailKey(oldEmail)); err != nil {
				return fmt.Errorf("delete old email index: %w", err)
			}
		}
	}

	if err := t.set(ctx, userKey(user.ID), user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	if email != "" {
		if err := t.txn.Set(userEmailKey(email), []byte(user.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
	}

	return nil
}

func (t *badgerTx) DeletePlace(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := placeKey(id)
	if _, err := t.txn.Get(key); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPlaceNotFound
		}
		return fmt.Errorf("get place: %w", err)
	}

	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}

func (t *badgerTx) Places(ctx context.Context) iter.Seq2[*domain.Place, error] {
	return scan[domain.Place](ctx, t.txn, placePrefix)
}

func (t *badgerTx) Users(ctx context.Context) iter.Seq2[*domain.User, error] {
	return scan[domain.User](ctx, t.txn, userPrefix)
}

// emailOwner returns the user ID indexed under email, or "" if none.
func (t *badgerTx) emailOwner(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	item, err := t.txn.Get(userEmailKey(email))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get email index: %w", err)
	}

	var userID string
	err = item.Value(func(val []byte) error {
		userID = string(val)
		return nil
	})
	return userID, err
}

func (t *badgerTx) get(ctx context.Context, key []byte, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	item, err := t.txn.Get(key)
	if err != nil {
		return err
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func (t *badgerTx) set(ctx context.Context, key []byte, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return t.txn.Set(key, data)
}

// scan iterates every value stored under prefix within txn.
func scan[T any](ctx context.Context, txn *badger.Txn, prefix string) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			var entity T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			})
			if err != nil {
				yield(nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err))
				return
			}

			if !yield(&entity, nil) {
				return
			}
		}
	}
}
