package app

import (
	"time"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
)

type CatalogItemDTO struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Icon               string   `json:"icon,omitempty"`
	CategoryID         string   `json:"categoryId,omitempty"`
	Added              *int64   `json:"added,omitempty"`
	Rating             *float64 `json:"rating,omitempty"`
	EpisodeID          string   `json:"episodeId,omitempty"`
	ContainerExtension string   `json:"containerExtension,omitempty"`
}

func toCatalogItemDTO(it domain.CatalogItem) CatalogItemDTO {
	return CatalogItemDTO{
		ID:                 it.ID,
		Name:               it.Name,
		Icon:               it.Icon,
		CategoryID:         it.CategoryID,
		Added:              it.Added,
		Rating:             it.Rating,
		EpisodeID:          it.EpisodeID,
		ContainerExtension: it.ContainerExtension,
	}
}

type ItemInfoDTO struct {
	Name           string   `json:"name"`
	Plot           string   `json:"plot,omitempty"`
	Cast           string   `json:"cast,omitempty"`
	Genre          string   `json:"genre,omitempty"`
	Duration       string   `json:"duration,omitempty"`
	Director       string   `json:"director,omitempty"`
	YoutubeTrailer string   `json:"youtubeTrailer,omitempty"`
	Icon           string   `json:"icon,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	LastModified   *int64   `json:"lastModified,omitempty"`
}

func toItemInfoDTO(i domain.ItemInfo) ItemInfoDTO {
	return ItemInfoDTO{
		Name:           i.Name,
		Plot:           i.Plot,
		Cast:           i.Cast,
		Genre:          i.Genre,
		Duration:       i.Duration,
		Director:       i.Director,
		YoutubeTrailer: i.YoutubeTrailer,
		Icon:           i.Icon,
		Rating:         i.Rating,
		LastModified:   i.LastModified,
	}
}

type EpgEntryDTO struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       int64  `json:"start"`
	Stop        int64  `json:"stop"`
}

type MovieDataDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name,omitempty"`
	Added              *int64 `json:"added,omitempty"`
	ContainerExtension string `json:"containerExtension,omitempty"`
}

type MovieDetailDTO struct {
	Info ItemInfoDTO  `json:"info"`
	Data MovieDataDTO `json:"data"`
}

type SeasonDTO struct {
	Number     string `json:"number"`
	Name       string `json:"name,omitempty"`
	PosterPath string `json:"posterPath,omitempty"`
}

type EpisodeDTO struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Season             string `json:"season"`
	Number             int64  `json:"number"`
	ContainerExtension string `json:"containerExtension,omitempty"`
	Image              string `json:"image,omitempty"`
}

type SeriesDetailDTO struct {
	Info     ItemInfoDTO             `json:"info"`
	Seasons  []SeasonDTO             `json:"seasons"`
	Episodes map[string][]EpisodeDTO `json:"episodes"`
}

// DetailDTO: un seul de Epg/Movie/Series est renseigné selon Kind.
type DetailDTO struct {
	Kind   domain.Kind      `json:"kind"`
	Epg    []EpgEntryDTO    `json:"epg,omitempty"`
	Movie  *MovieDetailDTO  `json:"movie,omitempty"`
	Series *SeriesDetailDTO `json:"series,omitempty"`
}

func toDetailDTO(d domain.Detail) DetailDTO {
	out := DetailDTO{Kind: d.Kind}
	switch {
	case d.Movie != nil:
		out.Movie = &MovieDetailDTO{
			Info: toItemInfoDTO(d.Movie.Info),
			Data: MovieDataDTO{
				ID:                 d.Movie.Data.ID,
				Name:               d.Movie.Data.Name,
				Added:              d.Movie.Data.Added,
				ContainerExtension: d.Movie.Data.ContainerExtension,
			},
		}
	case d.Series != nil:
		s := &SeriesDetailDTO{
			Info:     toItemInfoDTO(d.Series.Info),
			Seasons:  make([]SeasonDTO, 0, len(d.Series.Seasons)),
			Episodes: make(map[string][]EpisodeDTO, len(d.Series.Episodes)),
		}
		for _, season := range d.Series.Seasons {
			s.Seasons = append(s.Seasons, SeasonDTO{Number: season.Number, Name: season.Name, PosterPath: season.PosterPath})
		}
		for key, eps := range d.Series.Episodes {
			list := make([]EpisodeDTO, 0, len(eps))
			for _, ep := range eps {
				list = append(list, EpisodeDTO{
					ID:                 ep.ID,
					Title:              ep.Title,
					Season:             ep.Season,
					Number:             ep.Number,
					ContainerExtension: ep.ContainerExtension,
					Image:              ep.Image,
				})
			}
			s.Episodes[key] = list
		}
		out.Series = s
	default:
		out.Epg = make([]EpgEntryDTO, 0, len(d.Epg))
		for _, e := range d.Epg {
			out.Epg = append(out.Epg, EpgEntryDTO{Title: e.Title, Description: e.Description, Start: e.StartTimestamp, Stop: e.StopTimestamp})
		}
	}
	return out
}

type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserInfoDTO struct {
	Auth           *int64    `json:"auth,omitempty"`
	Status         string    `json:"status,omitempty"`
	IsTrial        *int64    `json:"isTrial,omitempty"`
	ExpDate        *int64    `json:"expDate,omitempty"`
	CreatedAt      *int64    `json:"createdAt,omitempty"`
	ActiveCons     *int64    `json:"activeCons,omitempty"`
	MaxConnections *int64    `json:"maxConnections,omitempty"`
	RefreshedAt    time.Time `json:"refreshedAt"`
}

func toUserInfoDTO(u domain.UserInfo) UserInfoDTO {
	return UserInfoDTO{
		Auth:           u.Auth,
		Status:         u.Status,
		IsTrial:        u.IsTrial,
		ExpDate:        u.ExpDate,
		CreatedAt:      u.CreatedAt,
		ActiveCons:     u.ActiveCons,
		MaxConnections: u.MaxConnections,
		RefreshedAt:    u.RefreshedAt,
	}
}

type ProfileDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func toProfileDTO(p domain.Profile) ProfileDTO {
	return ProfileDTO{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt}
}

type FavoriteDTO struct {
	ID        string      `json:"id"`
	Kind      domain.Kind `json:"kind"`
	ValueID   string      `json:"valueId"`
	Name      string      `json:"name"`
	Icon      string      `json:"icon,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toFavoriteDTO(f domain.Favorite) FavoriteDTO {
	return FavoriteDTO{ID: f.ID, Kind: f.Kind, ValueID: f.ValueID, Name: f.Name, Icon: f.Icon, CreatedAt: f.CreatedAt}
}

type FavoritesDTO struct {
	Live   []FavoriteDTO `json:"live"`
	Movies []FavoriteDTO `json:"movies"`
	Series []FavoriteDTO `json:"series"`
}

type ProgressDTO struct {
	ID                 string      `json:"id"`
	Kind               domain.Kind `json:"kind"`
	ValueID            string      `json:"valueId"`
	Name               string      `json:"name"`
	Icon               string      `json:"icon,omitempty"`
	Time               float64     `json:"time"`
	EpisodeID          string      `json:"episodeId,omitempty"`
	ContainerExtension string      `json:"containerExtension,omitempty"`
	TouchedAt          time.Time   `json:"touchedAt"`
}

func toProgressDTO(p domain.Progress) ProgressDTO {
	return ProgressDTO{
		ID:                 p.ID,
		Kind:               p.Kind,
		ValueID:            p.ValueID,
		Name:               p.Name,
		Icon:               p.Icon,
		Time:               p.Elapsed,
		EpisodeID:          p.EpisodeID,
		ContainerExtension: p.ContainerExtension,
		TouchedAt:          p.TouchedAt,
	}
}

type HomeEntryDTO struct {
	Kind    domain.HomeKind `json:"kind"`
	ValueID string          `json:"valueId"`
	Name    string          `json:"name"`
	Icon    string          `json:"icon,omitempty"`
}

type HomeDTO struct {
	Top    []HomeEntryDTO `json:"top"`
	Movies []HomeEntryDTO `json:"movies"`
	Series []HomeEntryDTO `json:"series"`
}
