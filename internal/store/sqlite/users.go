package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/normalize"
	"github.com/placeshare/places-server/internal/store"
)

const userColumns = `id, name, email, created_at, updated_at`

// scanUser scans a single user row. PlaceIDs are loaded separately.
func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	u.PlaceIDs = []string{}
	return &u, nil
}

func (t *sqlTx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return t.loadUser(ctx, row)
}

func (t *sqlTx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	key := normalize.Email(email)
	if key == "" {
		return nil, store.ErrUserNotFound
	}
	row := t.tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email_key = ?`, key)
	return t.loadUser(ctx, row)
}

func (t *sqlTx) loadUser(ctx context.Context, row *sql.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if u.PlaceIDs, err = t.placeIDs(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// placeIDs returns the user's place set in insertion order.
func (t *sqlTx) placeIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT place_id FROM user_places WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user places: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveUser upserts the user row and replaces its place set.
func (t *sqlTx) SaveUser(ctx context.Context, u *domain.User) error {
	key := normalize.Email(u.Email)

	if key != "" {
		var owner string
		err := t.tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE email_key = ? AND id <> ?`, key, u.ID).Scan(&owner)
		if err == nil {
			return store.ErrEmailExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check email: %w", err)
		}
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, email_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			email_key = excluded.email_key,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Email, nullString(key),
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		return mapError(fmt.Errorf("save user: %w", err))
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM user_places WHERE user_id = ?`, u.ID); err != nil {
		return mapError(fmt.Errorf("clear user places: %w", err))
	}

	for i, placeID := range u.PlaceIDs {
		_, err := t.tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_places (user_id, place_id, position) VALUES (?, ?, ?)`,
			u.ID, placeID, i)
		if err != nil {
			return mapError(fmt.Errorf("save user place: %w", err))
		}
	}

	return nil
}

func (t *sqlTx) Users(ctx context.Context) iter.Seq2[*domain.User, error] {
	return func(yield func(*domain.User, error) bool) {
		rows, err := t.tx.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
		if err != nil {
			yield(nil, fmt.Errorf("list users: %w", err))
			return
		}

		var users []*domain.User
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				rows.Close()
				yield(nil, err)
				return
			}
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			yield(nil, err)
			return
		}
		rows.Close()

		for _, u := range users {
			if u.PlaceIDs, err = t.placeIDs(ctx, u.ID); err != nil {
				yield(nil, err)
				return
			}
			if !yield(u, nil) {
				return
			}
		}
	}
}
