package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type ProfilesRepository struct {
	db *sql.DB
}

func NewProfilesRepository(db *sql.DB) *ProfilesRepository {
	return &ProfilesRepository{db: db}
}

var _ ports.ProfileRepository = (*ProfilesRepository)(nil)

func (r *ProfilesRepository) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles(id, session_id, name, created_at) VALUES(?, ?, ?, ?)
	`, p.ID, p.SessionID, p.Name, formatTime(p.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, "profiles") {
			return domain.Profile{}, ports.ErrConflict
		}
		return domain.Profile{}, err
	}
	return r.Get(ctx, p.ID)
}

func (r *ProfilesRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, created_at FROM profiles WHERE id = ?
	`, id))
}

func (r *ProfilesRepository) FindByName(ctx context.Context, sessionID, name string) (domain.Profile, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, created_at FROM profiles WHERE session_id = ? AND name = ?
	`, sessionID, name))
}

func (r *ProfilesRepository) scanOne(row *sql.Row) (domain.Profile, error) {
	var p domain.Profile
	var created string
	if err := row.Scan(&p.ID, &p.SessionID, &p.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, ports.ErrNotFound
		}
		return domain.Profile{}, err
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}

func (r *ProfilesRepository) List(ctx context.Context, sessionID string) ([]domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, name, created_at FROM profiles
		WHERE session_id = ?
		ORDER BY created_at ASC, name ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Profile{}
	for rows.Next() {
		var p domain.Profile
		var created string
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProfilesRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
