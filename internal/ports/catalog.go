package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
)

// Catalog est l'accès typé au catalogue amont. Aucun cache: chaque appel part chez l'amont.
// categoryID vide = pas de filtre.
type Catalog interface {
	UserInfo(ctx context.Context, creds domain.Credentials) (domain.UserInfo, error)
	ListLive(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error)
	ListMovies(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error)
	ListSeries(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error)
	MovieDetail(ctx context.Context, creds domain.Credentials, id string) (domain.MovieDetail, error)
	SeriesDetail(ctx context.Context, creds domain.Credentials, id string) (domain.SeriesDetail, error)
	ShortEPG(ctx context.Context, creds domain.Credentials, liveID string) ([]domain.EpgEntry, error)
	Categories(ctx context.Context, creds domain.Credentials, kind domain.Kind) ([]domain.Category, error)
	// StreamURL construit le lien de lecture direct, sans appel amont.
	StreamURL(creds domain.Credentials, kind domain.Kind, id, ext string) (string, error)
}
