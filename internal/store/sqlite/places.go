package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/store"
)

const placeColumns = `id, title, description, address, lat, lng, image, creator_id, created_at, updated_at`

// scanPlace scans a single place row.
func scanPlace(row interface{ Scan(...any) error }) (*domain.Place, error) {
	var (
		p         domain.Place
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Address,
		&p.Location.Lat, &p.Location.Lng, &p.Image, &p.CreatorID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}

func (t *sqlTx) GetPlace(ctx context.Context, id string) (*domain.Place, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = ?`, id)

	p, err := scanPlace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPlaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	return p, nil
}

// SavePlace inserts or replaces a place. The creator column is written on
// insert only.
func (t *sqlTx) SavePlace(ctx context.Context, p *domain.Place) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO places (`+placeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			address = excluded.address,
			lat = excluded.lat,
			lng = excluded.lng,
			image = excluded.image,
			updated_at = excluded.updated_at`,
		p.ID, p.Title, p.Description, p.Address,
		p.Location.Lat, p.Location.Lng, p.Image, p.CreatorID,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return mapError(fmt.Errorf("save place: %w", err))
	}
	return nil
}

func (t *sqlTx) DeletePlace(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	if err != nil {
		return mapError(fmt.Errorf("delete place: %w", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrPlaceNotFound
	}
	return nil
}

func (t *sqlTx) Places(ctx context.Context) iter.Seq2[*domain.Place, error] {
	return func(yield func(*domain.Place, error) bool) {
		rows, err := t.tx.QueryContext(ctx, `SELECT `+placeColumns+` FROM places ORDER BY created_at, id`)
		if err != nil {
			yield(nil, fmt.Errorf("list places: %w", err))
			return
		}

		// Drain before yielding so callers may issue queries on the same tx.
		var places []*domain.Place
		for rows.Next() {
			p, err := scanPlace(rows)
			if err != nil {
				rows.Close()
				yield(nil, err)
				return
			}
			places = append(places, p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			yield(nil, err)
			return
		}
		rows.Close()

		for _, p := range places {
			if !yield(p, nil) {
				return
			}
		}
	}
}
