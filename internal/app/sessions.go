package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type SessionService struct {
	logger   zerolog.Logger
	guard    *Guard
	sessions ports.SessionRepository
	catalog  ports.Catalog
	bus      ports.EventBus

	now func() time.Time
}

func NewSessionService(logger zerolog.Logger, guard *Guard, sessions ports.SessionRepository, catalog ports.Catalog, bus ports.EventBus) *SessionService {
	return &SessionService{
		logger:   logger,
		guard:    guard,
		sessions: sessions,
		catalog:  catalog,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type LoginRequest struct {
	Server   string `json:"server" validate:"required,url"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token   string `json:"token"`
	Created bool   `json:"created"`
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Login réutilise la session existante pour des identifiants identiques.
// Sinon l'amont doit confirmer le compte (auth > 0) avant toute écriture.
func (s *SessionService) Login(ctx context.Context, server, username, password string) (LoginResult, error) {
	norm, err := NormalizeServer(server)
	if err != nil {
		return LoginResult{}, err
	}
	creds := domain.Credentials{Server: norm, Username: strings.TrimSpace(username), Password: password}
	if creds.Username == "" || creds.Password == "" {
		return LoginResult{}, invalidRequest("missing username or password")
	}

	existing, err := s.sessions.FindByCredentials(ctx, creds)
	if err == nil {
		return LoginResult{Token: existing.Token}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return LoginResult{}, storeErr(err)
	}

	info, err := s.catalog.UserInfo(ctx, creds)
	if err != nil {
		return LoginResult{}, err
	}
	if !info.Authenticated() {
		return LoginResult{}, ErrAccountNotFound
	}

	now := s.now()
	info.RefreshedAt = now
	session := domain.Session{ID: xid.New().String(), Token: newToken(), CreatedAt: now}

	created, err := s.sessions.Create(ctx, session, creds, info)
	if errors.Is(err, ErrConflict) {
		// Login concurrent sur les mêmes identifiants: le gagnant garde sa session.
		winner, ferr := s.sessions.FindByCredentials(ctx, creds)
		if ferr != nil {
			return LoginResult{}, storeErr(ferr)
		}
		return LoginResult{Token: winner.Token}, nil
	}
	if err != nil {
		return LoginResult{}, storeErr(err)
	}

	s.logger.Info().Str("session_id", created.ID).Str("server", hostOnly(norm)).Msg("session created")
	publish(s.bus, TopicSessionCreated, EventPayload{SessionID: created.ID})
	return LoginResult{Token: created.Token, Created: true}, nil
}

func (s *SessionService) Logoff(ctx context.Context, token string) error {
	session, err := s.guard.ResolveSession(ctx, token)
	if err != nil {
		return err
	}
	return s.deleteSession(ctx, session.ID, "logoff")
}

func (s *SessionService) deleteSession(ctx context.Context, sessionID, reason string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return storeErr(err)
	}
	s.logger.Info().Str("session_id", sessionID).Str("reason", reason).Msg("session deleted")
	publish(s.bus, TopicSessionDeleted, EventPayload{SessionID: sessionID})
	return nil
}

// UserInfo rafraîchit le cache user_info depuis l'amont.
// Si l'amont ne reconnaît plus le compte, la session et tout ce qui en dépend
// sont supprimés. Les autres erreurs amont sont propagées telles quelles.
func (s *SessionService) UserInfo(ctx context.Context, token string) (UserInfoDTO, error) {
	session, creds, err := s.guard.account(ctx, token)
	if err != nil {
		return UserInfoDTO{}, err
	}

	info, err := s.catalog.UserInfo(ctx, creds)
	if err != nil {
		return UserInfoDTO{}, err
	}

	if !info.Authenticated() {
		if derr := s.deleteSession(ctx, session.ID, "account_not_found"); derr != nil {
			return UserInfoDTO{}, derr
		}
		return UserInfoDTO{}, ErrAccountNotFound
	}

	info.RefreshedAt = s.now()
	if err := s.sessions.PutUserInfo(ctx, session.ID, info); err != nil {
		return UserInfoDTO{}, storeErr(err)
	}
	return toUserInfoDTO(info), nil
}

// hostOnly évite de journaliser une query qui contiendrait des secrets.
func hostOnly(server string) string {
	if i := strings.Index(server, "://"); i >= 0 {
		rest := server[i+3:]
		if j := strings.IndexAny(rest, "/?"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return server
}
