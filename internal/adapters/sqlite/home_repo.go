package sqlite

import (
	"context"
	"database/sql"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type HomeRepository struct {
	db *sql.DB
}

func NewHomeRepository(db *sql.DB) *HomeRepository {
	return &HomeRepository{db: db}
}

var _ ports.HomeRepository = (*HomeRepository)(nil)

// Replace supprime puis réinsère le snapshot d'une seule session, dans une transaction.
func (r *HomeRepository) Replace(ctx context.Context, sessionID string, entries []domain.HomeEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM home_entries WHERE session_id = ?`, sessionID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO home_entries(id, session_id, kind, position, value_id, name, icon)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, sessionID, string(e.Kind), e.Position, e.ValueID, e.Name, e.Icon); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *HomeRepository) List(ctx context.Context, sessionID string) ([]domain.HomeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, kind, position, value_id, name, icon
		FROM home_entries
		WHERE session_id = ?
		ORDER BY kind ASC, position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HomeEntry{}
	for rows.Next() {
		var e domain.HomeEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Position, &e.ValueID, &e.Name, &e.Icon); err != nil {
			return nil, err
		}
		e.Kind = domain.HomeKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
