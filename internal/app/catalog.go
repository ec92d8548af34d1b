package app

import (
	"context"
	"strings"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type CatalogService struct {
	guard   *Guard
	catalog ports.Catalog
}

func NewCatalogService(guard *Guard, catalog ports.Catalog) *CatalogService {
	return &CatalogService{guard: guard, catalog: catalog}
}

func listByKind(ctx context.Context, catalog ports.Catalog, creds domain.Credentials, kind domain.Kind, categoryID string) ([]domain.CatalogItem, error) {
	switch kind {
	case domain.KindLive:
		return catalog.ListLive(ctx, creds, categoryID)
	case domain.KindMovie:
		return catalog.ListMovies(ctx, creds, categoryID)
	case domain.KindSeries:
		return catalog.ListSeries(ctx, creds, categoryID)
	default:
		return nil, domain.ErrInvalidKind
	}
}

func (s *CatalogService) ListCatalog(ctx context.Context, token string, kind domain.Kind, categoryID string) ([]CatalogItemDTO, error) {
	_, creds, err := s.guard.account(ctx, token)
	if err != nil {
		return nil, err
	}
	items, err := listByKind(ctx, s.catalog, creds, kind, strings.TrimSpace(categoryID))
	if err != nil {
		return nil, err
	}
	out := make([]CatalogItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toCatalogItemDTO(it))
	}
	return out, nil
}

// ItemDetail: pour le live, le détail est la fenêtre EPG courte.
func (s *CatalogService) ItemDetail(ctx context.Context, token string, kind domain.Kind, id string) (DetailDTO, error) {
	_, creds, err := s.guard.account(ctx, token)
	if err != nil {
		return DetailDTO{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return DetailDTO{}, invalidRequest("missing id")
	}

	d := domain.Detail{Kind: kind}
	switch kind {
	case domain.KindLive:
		epg, err := s.catalog.ShortEPG(ctx, creds, id)
		if err != nil {
			return DetailDTO{}, err
		}
		d.Epg = epg
	case domain.KindMovie:
		m, err := s.catalog.MovieDetail(ctx, creds, id)
		if err != nil {
			return DetailDTO{}, err
		}
		d.Movie = &m
	case domain.KindSeries:
		sd, err := s.catalog.SeriesDetail(ctx, creds, id)
		if err != nil {
			return DetailDTO{}, err
		}
		d.Series = &sd
	default:
		return DetailDTO{}, domain.ErrInvalidKind
	}
	return toDetailDTO(d), nil
}

func (s *CatalogService) Categories(ctx context.Context, token string, kind domain.Kind) ([]CategoryDTO, error) {
	_, creds, err := s.guard.account(ctx, token)
	if err != nil {
		return nil, err
	}
	cats, err := s.catalog.Categories(ctx, creds, kind)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

// StreamURL ne contacte pas l'amont.
func (s *CatalogService) StreamURL(ctx context.Context, token string, kind domain.Kind, id, ext string) (string, error) {
	_, creds, err := s.guard.account(ctx, token)
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	ext = strings.TrimSpace(ext)
	if id == "" || ext == "" {
		return "", invalidRequest("missing id or extension")
	}
	return s.catalog.StreamURL(creds, kind, id, ext)
}

// resolveItem récupère nom/icône canoniques. Le live n'a pas de détail:
// l'id est cherché dans la liste complète.
func resolveItem(ctx context.Context, catalog ports.Catalog, creds domain.Credentials, kind domain.Kind, id string) (domain.CatalogItem, error) {
	switch kind {
	case domain.KindLive:
		items, err := catalog.ListLive(ctx, creds, "")
		if err != nil {
			return domain.CatalogItem{}, err
		}
		for _, it := range items {
			if it.ID == id {
				return it, nil
			}
		}
		return domain.CatalogItem{}, ErrNotFound
	case domain.KindMovie:
		m, err := catalog.MovieDetail(ctx, creds, id)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		item := domain.CatalogItem{ID: m.Data.ID, Name: m.Info.Name, Icon: m.Info.Icon, Rating: m.Info.Rating, ContainerExtension: m.Data.ContainerExtension}
		if item.ID == "" {
			item.ID = id
		}
		if item.Name == "" {
			item.Name = m.Data.Name
		}
		return item, nil
	case domain.KindSeries:
		sd, err := catalog.SeriesDetail(ctx, creds, id)
		if err != nil {
			return domain.CatalogItem{}, err
		}
		return domain.CatalogItem{ID: id, Name: sd.Info.Name, Icon: sd.Info.Icon, Rating: sd.Info.Rating}, nil
	default:
		return domain.CatalogItem{}, domain.ErrInvalidKind
	}
}
