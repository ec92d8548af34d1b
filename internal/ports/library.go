package ports

import (
	"context"
	"time"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
)

type FavoriteRepository interface {
	// Create renvoie ErrConflict si (profil, type, id) existe déjà.
	Create(ctx context.Context, f domain.Favorite) (domain.Favorite, error)
	Find(ctx context.Context, profileID string, kind domain.Kind, valueID string) (domain.Favorite, error)
	List(ctx context.Context, profileID string) ([]domain.Favorite, error)
	Delete(ctx context.Context, profileID string, kind domain.Kind, valueID string) error
}

type ProgressRepository interface {
	Find(ctx context.Context, profileID string, kind domain.Kind, valueID string) (domain.Progress, error)
	// Insert renvoie ErrConflict si (profil, type, id) existe déjà.
	Insert(ctx context.Context, p domain.Progress) (domain.Progress, error)
	// Update réécrit position, épisode, métadonnées et touched_at d'une ligne existante.
	Update(ctx context.Context, id string, p domain.Progress) (domain.Progress, error)
	// DeleteOtherEpisodes retire la ligne d'une série qui pointe vers un autre épisode.
	DeleteOtherEpisodes(ctx context.Context, profileID, seriesID, episodeID string) (int64, error)
	List(ctx context.Context, profileID string) ([]domain.Progress, error)
	Delete(ctx context.Context, profileID string, kind domain.Kind, valueID string) error
	DeleteTouchedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type HomeRepository interface {
	// Replace remplace atomiquement le snapshot d'une session.
	Replace(ctx context.Context, sessionID string, entries []domain.HomeEntry) error
	List(ctx context.Context, sessionID string) ([]domain.HomeEntry, error)
}
