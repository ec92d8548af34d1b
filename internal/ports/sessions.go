package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
)

type SessionRepository interface {
	// Create persiste session + identifiants + user info dans une seule transaction.
	// Renvoie ErrConflict si des identifiants identiques existent déjà.
	Create(ctx context.Context, session domain.Session, creds domain.Credentials, info domain.UserInfo) (domain.Session, error)
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	FindByCredentials(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	Credentials(ctx context.Context, sessionID string) (domain.Credentials, error)
	PutUserInfo(ctx context.Context, sessionID string, info domain.UserInfo) error
	// Delete supprime la session et tout ce qui en dépend (cascade).
	Delete(ctx context.Context, sessionID string) error
	Accounts(ctx context.Context) ([]domain.Account, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, p domain.Profile) (domain.Profile, error)
	Get(ctx context.Context, id string) (domain.Profile, error)
	FindByName(ctx context.Context, sessionID, name string) (domain.Profile, error)
	List(ctx context.Context, sessionID string) ([]domain.Profile, error)
	Delete(ctx context.Context, id string) error
}
