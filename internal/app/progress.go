package app

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/metrics"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

type ProgressService struct {
	logger   zerolog.Logger
	guard    *Guard
	catalog  ports.Catalog
	progress ports.ProgressRepository
	bus      ports.EventBus

	now func() time.Time
}

func NewProgressService(logger zerolog.Logger, guard *Guard, catalog ports.Catalog, progress ports.ProgressRepository, bus ports.EventBus) *ProgressService {
	return &ProgressService{
		logger:   logger,
		guard:    guard,
		catalog:  catalog,
		progress: progress,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RecordProgressRequest struct {
	Time      float64 `json:"time" validate:"gte=0"`
	EpisodeID string  `json:"episodeId,omitempty"`
}

// Record enregistre la position de lecture, dans cet ordre:
// appartenance du profil, contenu canonique, purge de l'ancien épisode
// (séries), puis mise à jour ou insertion.
func (s *ProgressService) Record(ctx context.Context, token, profileID string, kind domain.Kind, id string, elapsed float64, episodeID string) (ProgressDTO, error) {
	if !kind.Watchable() {
		return ProgressDTO{}, domain.ErrInvalidKind
	}
	if elapsed < 0 || math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		return ProgressDTO{}, invalidRequest("invalid time")
	}
	session, profile, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return ProgressDTO{}, err
	}
	creds, err := s.guard.ResolveCredentials(ctx, session)
	if err != nil {
		return ProgressDTO{}, err
	}
	id = strings.TrimSpace(id)
	episodeID = strings.TrimSpace(episodeID)
	if id == "" {
		return ProgressDTO{}, invalidRequest("missing id")
	}

	row := domain.Progress{ProfileID: profile.ID, Kind: kind, Elapsed: elapsed}
	switch kind {
	case domain.KindMovie:
		item, err := resolveItem(ctx, s.catalog, creds, kind, id)
		if err != nil {
			return ProgressDTO{}, err
		}
		row.ValueID, row.Name, row.Icon, row.ContainerExtension = item.ID, item.Name, item.Icon, item.ContainerExtension
	case domain.KindSeries:
		if episodeID == "" {
			return ProgressDTO{}, ErrMissingEpisodeID
		}
		detail, err := s.catalog.SeriesDetail(ctx, creds, id)
		if err != nil {
			return ProgressDTO{}, err
		}
		item, ok := detail.EpisodeItem(id, episodeID)
		if !ok {
			return ProgressDTO{}, ErrUnknownEpisodeID
		}
		row.ValueID, row.Name, row.Icon = item.ID, item.Name, item.Icon
		row.EpisodeID, row.ContainerExtension = item.EpisodeID, item.ContainerExtension

		// Un seul épisode en cours par série: l'ancien est supprimé avant l'upsert.
		n, err := s.progress.DeleteOtherEpisodes(ctx, profile.ID, id, item.EpisodeID)
		if err != nil {
			return ProgressDTO{}, storeErr(err)
		}
		if n > 0 {
			s.logger.Debug().Str("profile_id", profile.ID).Str("series_id", id).Str("episode_id", item.EpisodeID).Msg("previous episode position retired")
		}
	}

	saved, err := s.upsert(ctx, row)
	if err != nil {
		return ProgressDTO{}, err
	}
	publish(s.bus, TopicProgressRecord, EventPayload{SessionID: session.ID, ProfileID: profile.ID, Kind: string(kind), ValueID: saved.ValueID})
	return toProgressDTO(saved), nil
}

// upsert écrit la ligne complète (épisode compris): la ligne restante reflète
// toujours le dernier enregistrement, même après une course perdue.
func (s *ProgressService) upsert(ctx context.Context, row domain.Progress) (domain.Progress, error) {
	row.TouchedAt = s.now()
	existing, err := s.progress.Find(ctx, row.ProfileID, row.Kind, row.ValueID)
	if err == nil {
		saved, err := s.progress.Update(ctx, existing.ID, row)
		return saved, storeErr(err)
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Progress{}, storeErr(err)
	}

	row.ID = xid.New().String()
	saved, err := s.progress.Insert(ctx, row)
	if errors.Is(err, ErrConflict) {
		// Course perdue sur l'index unique: on écrase la ligne gagnante.
		existing, ferr := s.progress.Find(ctx, row.ProfileID, row.Kind, row.ValueID)
		if ferr != nil {
			return domain.Progress{}, storeErr(ferr)
		}
		saved, err := s.progress.Update(ctx, existing.ID, row)
		return saved, storeErr(err)
	}
	return saved, storeErr(err)
}

func (s *ProgressService) List(ctx context.Context, token, profileID string) ([]ProgressDTO, error) {
	_, profile, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return nil, err
	}
	list, err := s.progress.List(ctx, profile.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]ProgressDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toProgressDTO(p))
	}
	return out, nil
}

func (s *ProgressService) Remove(ctx context.Context, token, profileID string, kind domain.Kind, id string) error {
	_, profile, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return err
	}
	return storeErr(s.progress.Delete(ctx, profile.ID, kind, strings.TrimSpace(id)))
}

// RetireStale supprime toutes les positions non touchées depuis olderThan.
// Maintenance globale: pas de contrôle d'appartenance.
func (s *ProgressService) RetireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, invalidRequest("retention must be positive")
	}
	n, err := s.progress.DeleteTouchedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, storeErr(err)
	}
	metrics.ProgressRetired.Add(float64(n))
	if n > 0 {
		s.logger.Info().Int64("retired", n).Dur("older_than", olderThan).Msg("stale progress retired")
	}
	return n, nil
}
