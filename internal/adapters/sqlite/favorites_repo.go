package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type FavoritesRepository struct {
	db *sql.DB
}

func NewFavoritesRepository(db *sql.DB) *FavoritesRepository {
	return &FavoritesRepository{db: db}
}

var _ ports.FavoriteRepository = (*FavoritesRepository)(nil)

const favoriteColumns = `id, profile_id, kind, value_id, name, icon, created_at`

func (r *FavoritesRepository) Create(ctx context.Context, f domain.Favorite) (domain.Favorite, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites(`+favoriteColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.ProfileID, string(f.Kind), f.ValueID, f.Name, f.Icon, formatTime(f.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, "favorites") {
			return domain.Favorite{}, ports.ErrConflict
		}
		return domain.Favorite{}, err
	}
	return r.Find(ctx, f.ProfileID, f.Kind, f.ValueID)
}

func (r *FavoritesRepository) Find(ctx context.Context, profileID string, kind domain.Kind, valueID string) (domain.Favorite, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+favoriteColumns+` FROM favorites
		WHERE profile_id = ? AND kind = ? AND value_id = ?
	`, profileID, string(kind), valueID)

	f, err := scanFavorite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Favorite{}, ports.ErrNotFound
		}
		return domain.Favorite{}, err
	}
	return f, nil
}

func (r *FavoritesRepository) List(ctx context.Context, profileID string) ([]domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+favoriteColumns+` FROM favorites
		WHERE profile_id = ?
		ORDER BY created_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FavoritesRepository) Delete(ctx context.Context, profileID string, kind domain.Kind, valueID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE profile_id = ? AND kind = ? AND value_id = ?
	`, profileID, string(kind), valueID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(s scanner) (domain.Favorite, error) {
	var f domain.Favorite
	var kind, created string
	if err := s.Scan(&f.ID, &f.ProfileID, &kind, &f.ValueID, &f.Name, &f.Icon, &created); err != nil {
		return domain.Favorite{}, err
	}
	f.Kind = domain.Kind(kind)
	f.CreatedAt = parseTime(created)
	return f, nil
}
