package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type FavoriteService struct {
	guard     *Guard
	catalog   ports.Catalog
	favorites ports.FavoriteRepository
	bus       ports.EventBus
}

func NewFavoriteService(guard *Guard, catalog ports.Catalog, favorites ports.FavoriteRepository, bus ports.EventBus) *FavoriteService {
	return &FavoriteService{guard: guard, catalog: catalog, favorites: favorites, bus: bus}
}

// Add interroge toujours le catalogue, puis insère si absent.
// created=false quand le favori existait déjà.
func (s *FavoriteService) Add(ctx context.Context, token, profileID string, kind domain.Kind, id string) (FavoriteDTO, bool, error) {
	session, profile, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return FavoriteDTO{}, false, err
	}
	creds, err := s.guard.ResolveCredentials(ctx, session)
	if err != nil {
		return FavoriteDTO{}, false, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return FavoriteDTO{}, false, invalidRequest("missing id")
	}

	item, err := resolveItem(ctx, s.catalog, creds, kind, id)
	if err != nil {
		return FavoriteDTO{}, false, err
	}

	existing, err := s.favorites.Find(ctx, profile.ID, kind, item.ID)
	if err == nil {
		return toFavoriteDTO(existing), false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return FavoriteDTO{}, false, storeErr(err)
	}

	created, err := s.favorites.Create(ctx, domain.Favorite{
		ID:        xid.New().String(),
		ProfileID: profile.ID,
		Kind:      kind,
		ValueID:   item.ID,
		Name:      item.Name,
		Icon:      item.Icon,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, ErrConflict) {
		existing, ferr := s.favorites.Find(ctx, profile.ID, kind, item.ID)
		if ferr != nil {
			return FavoriteDTO{}, false, storeErr(ferr)
		}
		return toFavoriteDTO(existing), false, nil
	}
	if err != nil {
		return FavoriteDTO{}, false, storeErr(err)
	}

	publish(s.bus, TopicFavoriteAdded, EventPayload{SessionID: session.ID, ProfileID: profile.ID, Kind: string(kind), ValueID: created.ValueID})
	return toFavoriteDTO(created), true, nil
}

func (s *FavoriteService) Remove(ctx context.Context, token, profileID string, kind domain.Kind, id string) error {
	session, profile, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.favorites.Delete(ctx, profile.ID, kind, id); err != nil {
		return storeErr(err)
	}
	publish(s.bus, TopicFavoriteRemoved, EventPayload{SessionID: session.ID, ProfileID: profile.ID, Kind: string(kind), ValueID: id})
	return nil
}

func (s *FavoriteService) List(ctx context.Context, token, profileID string) (FavoritesDTO, error) {
	_, profile, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return FavoritesDTO{}, err
	}
	list, err := s.favorites.List(ctx, profile.ID)
	if err != nil {
		return FavoritesDTO{}, storeErr(err)
	}
	out := FavoritesDTO{Live: []FavoriteDTO{}, Movies: []FavoriteDTO{}, Series: []FavoriteDTO{}}
	for _, f := range list {
		switch f.Kind {
		case domain.KindLive:
			out.Live = append(out.Live, toFavoriteDTO(f))
		case domain.KindMovie:
			out.Movies = append(out.Movies, toFavoriteDTO(f))
		case domain.KindSeries:
			out.Series = append(out.Series, toFavoriteDTO(f))
		}
	}
	return out, nil
}
