package app

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

// DefaultAPIPath est ajouté aux URL serveur sans chemin.
const DefaultAPIPath = "/player_api.php"

// Guard est la seule frontière d'autorisation: token -> session -> identifiants,
// et appartenance d'un profil à la session.
type Guard struct {
	sessions ports.SessionRepository
	profiles ports.ProfileRepository
}

func NewGuard(sessions ports.SessionRepository, profiles ports.ProfileRepository) *Guard {
	return &Guard{sessions: sessions, profiles: profiles}
}

func (g *Guard) ResolveSession(ctx context.Context, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, ErrAuthInvalid
	}
	s, err := g.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Session{}, ErrAuthInvalid
		}
		return domain.Session{}, storeErr(err)
	}
	return s, nil
}

func (g *Guard) ResolveCredentials(ctx context.Context, session domain.Session) (domain.Credentials, error) {
	creds, err := g.sessions.Credentials(ctx, session.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Credentials{}, ErrAccountNotFound
		}
		return domain.Credentials{}, storeErr(err)
	}
	return creds, nil
}

// AssertOwnsProfile ne distingue pas "profil inconnu" de "profil d'une autre session".
func (g *Guard) AssertOwnsProfile(ctx context.Context, session domain.Session, profileID string) (domain.Profile, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return domain.Profile{}, ErrProfileNotOwned
	}
	p, err := g.profiles.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Profile{}, ErrProfileNotOwned
		}
		return domain.Profile{}, storeErr(err)
	}
	if p.SessionID != session.ID {
		return domain.Profile{}, ErrProfileNotOwned
	}
	return p, nil
}

func (g *Guard) account(ctx context.Context, token string) (domain.Session, domain.Credentials, error) {
	s, err := g.ResolveSession(ctx, token)
	if err != nil {
		return domain.Session{}, domain.Credentials{}, err
	}
	creds, err := g.ResolveCredentials(ctx, s)
	if err != nil {
		return domain.Session{}, domain.Credentials{}, err
	}
	return s, creds, nil
}

func (g *Guard) profile(ctx context.Context, token, profileID string) (domain.Session, domain.Profile, error) {
	s, err := g.ResolveSession(ctx, token)
	if err != nil {
		return domain.Session{}, domain.Profile{}, err
	}
	p, err := g.AssertOwnsProfile(ctx, s, profileID)
	if err != nil {
		return domain.Session{}, domain.Profile{}, err
	}
	return s, p, nil
}

// NormalizeServer accepte http/https uniquement et ajoute DefaultAPIPath
// quand l'URL n'a pas de chemin. La query éventuelle est conservée.
func NormalizeServer(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalidRequest("missing server")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", invalidRequest("invalid server url")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalidRequest("server url must be http or https")
	}
	if u.Host == "" {
		return "", invalidRequest("server url has no host")
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultAPIPath
		u.RawPath = ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
