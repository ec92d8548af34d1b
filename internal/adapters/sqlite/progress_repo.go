package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

var _ ports.ProgressRepository = (*ProgressRepository)(nil)

const progressColumns = `id, profile_id, kind, value_id, name, icon, elapsed, episode_id, container_extension, touched_at`

func (r *ProgressRepository) Find(ctx context.Context, profileID string, kind domain.Kind, valueID string) (domain.Progress, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+` FROM watching_progress
		WHERE profile_id = ? AND kind = ? AND value_id = ?
	`, profileID, string(kind), valueID))
}

func (r *ProgressRepository) get(ctx context.Context, id string) (domain.Progress, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+` FROM watching_progress WHERE id = ?
	`, id))
}

func (r *ProgressRepository) scanOne(row *sql.Row) (domain.Progress, error) {
	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Progress{}, ports.ErrNotFound
		}
		return domain.Progress{}, err
	}
	return p, nil
}

func (r *ProgressRepository) Insert(ctx context.Context, p domain.Progress) (domain.Progress, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watching_progress(`+progressColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.ProfileID, string(p.Kind), p.ValueID, p.Name, p.Icon,
		p.Elapsed, p.EpisodeID, p.ContainerExtension, formatTime(p.TouchedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "watching_progress") {
			return domain.Progress{}, ports.ErrConflict
		}
		return domain.Progress{}, err
	}
	return r.get(ctx, p.ID)
}

func (r *ProgressRepository) Update(ctx context.Context, id string, p domain.Progress) (domain.Progress, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE watching_progress
		SET elapsed = ?, episode_id = ?, container_extension = ?, name = ?, icon = ?, touched_at = ?
		WHERE id = ?
	`, p.Elapsed, p.EpisodeID, p.ContainerExtension, p.Name, p.Icon, formatTime(p.TouchedAt), id)
	if err != nil {
		return domain.Progress{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Progress{}, ports.ErrNotFound
	}
	return r.get(ctx, id)
}

func (r *ProgressRepository) DeleteOtherEpisodes(ctx context.Context, profileID, seriesID, episodeID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM watching_progress
		WHERE profile_id = ? AND kind = ? AND value_id = ? AND episode_id <> ?
	`, profileID, string(domain.KindSeries), seriesID, episodeID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ProgressRepository) List(ctx context.Context, profileID string) ([]domain.Progress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+progressColumns+` FROM watching_progress
		WHERE profile_id = ?
		ORDER BY touched_at DESC
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Progress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProgressRepository) Delete(ctx context.Context, profileID string, kind domain.Kind, valueID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM watching_progress WHERE profile_id = ? AND kind = ? AND value_id = ?
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

func (r *ProgressRepository) DeleteTouchedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM watching_progress WHERE touched_at < ?
	`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanProgress(s scanner) (domain.Progress, error) {
	var p domain.Progress
	var kind, touched string
	if err := s.Scan(&p.ID, &p.ProfileID, &kind, &p.ValueID, &p.Name, &p.Icon, &p.Elapsed, &p.EpisodeID, &p.ContainerExtension, &touched); err != nil {
		return domain.Progress{}, err
	}
	p.Kind = domain.Kind(kind)
	p.TouchedAt = parseTime(touched)
	return p, nil
}
