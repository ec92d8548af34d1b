package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type SessionsRepository struct {
	db *sql.DB
}

func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

var _ ports.SessionRepository = (*SessionsRepository)(nil)

func (r *SessionsRepository) Create(ctx context.Context, session domain.Session, creds domain.Credentials, info domain.UserInfo) (domain.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions(id, token, created_at) VALUES(?, ?, ?)
	`, session.ID, session.Token, formatTime(session.CreatedAt)); err != nil {
		if isUniqueViolation(err, "sessions") {
			return domain.Session{}, ports.ErrConflict
		}
		return domain.Session{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credentials(session_id, server, username, password) VALUES(?, ?, ?, ?)
	`, session.ID, creds.Server, creds.Username, creds.Password); err != nil {
		if isUniqueViolation(err, "credentials") {
			return domain.Session{}, ports.ErrConflict
		}
		return domain.Session{}, err
	}

	if err := putUserInfo(ctx, tx, session.ID, info); err != nil {
		return domain.Session{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (r *SessionsRepository) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	var s domain.Session
	var created string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, token, created_at FROM sessions WHERE token = ?
	`, token).Scan(&s.ID, &s.Token, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, ports.ErrNotFound
		}
		return domain.Session{}, err
	}
	s.CreatedAt = parseTime(created)
	return s, nil
}

func (r *SessionsRepository) FindByCredentials(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	var s domain.Session
	var created string
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.token, s.created_at
		FROM sessions s
		JOIN credentials c ON c.session_id = s.id
		WHERE c.server = ? AND c.username = ? AND c.password = ?
	`, creds.Server, creds.Username, creds.Password).Scan(&s.ID, &s.Token, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, ports.ErrNotFound
		}
		return domain.Session{}, err
	}
	s.CreatedAt = parseTime(created)
	return s, nil
}

func (r *SessionsRepository) Credentials(ctx context.Context, sessionID string) (domain.Credentials, error) {
	var c domain.Credentials
	err := r.db.QueryRowContext(ctx, `
		SELECT server, username, password FROM credentials WHERE session_id = ?
	`, sessionID).Scan(&c.Server, &c.Username, &c.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credentials{}, ports.ErrNotFound
		}
		return domain.Credentials{}, err
	}
	return c, nil
}

func (r *SessionsRepository) PutUserInfo(ctx context.Context, sessionID string, info domain.UserInfo) error {
	return putUserInfo(ctx, r.db, sessionID, info)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putUserInfo(ctx context.Context, db execer, sessionID string, info domain.UserInfo) error {
	refreshed := info.RefreshedAt
	if refreshed.IsZero() {
		refreshed = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO user_info(session_id, auth, status, is_trial, exp_date, created_at, active_cons, max_connections, refreshed_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			auth = excluded.auth,
			status = excluded.status,
			is_trial = excluded.is_trial,
			exp_date = excluded.exp_date,
			created_at = excluded.created_at,
			active_cons = excluded.active_cons,
			max_connections = excluded.max_connections,
			refreshed_at = excluded.refreshed_at
	`,
		sessionID, nullInt(info.Auth), info.Status, nullInt(info.IsTrial), nullInt(info.ExpDate),
		nullInt(info.CreatedAt), nullInt(info.ActiveCons), nullInt(info.MaxConnections),
		formatTime(refreshed),
	)
	return err
}

func (r *SessionsRepository) Delete(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SessionsRepository) Accounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.token, s.created_at, c.server, c.username, c.password
		FROM sessions s
		JOIN credentials c ON c.session_id = s.id
		ORDER BY s.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Account{}
	for rows.Next() {
		var a domain.Account
		var created string
		if err := rows.Scan(&a.Session.ID, &a.Session.Token, &created, &a.Credentials.Server, &a.Credentials.Username, &a.Credentials.Password); err != nil {
			return nil, err
		}
		a.Session.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}
