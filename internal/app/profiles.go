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

type ProfileService struct {
	guard    *Guard
	profiles ports.ProfileRepository
}

func NewProfileService(guard *Guard, profiles ports.ProfileRepository) *ProfileService {
	return &ProfileService{guard: guard, profiles: profiles}
}

type CreateProfileRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// Create est idempotent par (session, nom): created=false si le profil existait.
func (s *ProfileService) Create(ctx context.Context, token, name string) (ProfileDTO, bool, error) {
	session, err := s.guard.ResolveSession(ctx, token)
	if err != nil {
		return ProfileDTO{}, false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ProfileDTO{}, false, invalidRequest("missing profile name")
	}

	existing, err := s.profiles.FindByName(ctx, session.ID, name)
	if err == nil {
		return toProfileDTO(existing), false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ProfileDTO{}, false, storeErr(err)
	}

	created, err := s.profiles.Create(ctx, domain.Profile{
		ID:        xid.New().String(),
		SessionID: session.ID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, ErrConflict) {
		existing, ferr := s.profiles.FindByName(ctx, session.ID, name)
		if ferr != nil {
			return ProfileDTO{}, false, storeErr(ferr)
		}
		return toProfileDTO(existing), false, nil
	}
	if err != nil {
		return ProfileDTO{}, false, storeErr(err)
	}
	return toProfileDTO(created), true, nil
}

func (s *ProfileService) List(ctx context.Context, token string) ([]ProfileDTO, error) {
	session, err := s.guard.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	list, err := s.profiles.List(ctx, session.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]ProfileDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toProfileDTO(p))
	}
	return out, nil
}

func (s *ProfileService) Delete(ctx context.Context, token, profileID string) error {
	_, p, err := s.guard.profile(ctx, token, profileID)
	if err != nil {
		return err
	}
	return storeErr(s.profiles.Delete(ctx, p.ID))
}
