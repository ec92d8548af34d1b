package domain

import "time"

type Favorite struct {
	ID        string
	ProfileID string
	Kind      Kind
	ValueID   string
	Name      string
	Icon      string
	CreatedAt time.Time
}

// Favorites est la vue partitionnée par type de contenu.
type Favorites struct {
	Live   []Favorite
	Movies []Favorite
	Series []Favorite
}

// Progress est la position de lecture d'un profil sur un film ou une série.
// Pour une série, EpisodeID désigne l'unique épisode en cours.
type Progress struct {
	ID                 string
	ProfileID          string
	Kind               Kind
	ValueID            string
	Name               string
	Icon               string
	Elapsed            float64
	EpisodeID          string
	ContainerExtension string
	TouchedAt          time.Time
}

type HomeKind string

const (
	HomeTopMovie  HomeKind = "top_movie"
	HomeTopSeries HomeKind = "top_series"
	HomeMovie     HomeKind = "movie"
	HomeSeries    HomeKind = "series"
)

type HomeEntry struct {
	ID        string
	SessionID string
	Kind      HomeKind
	Position  int
	ValueID   string
	Name      string
	Icon      string
}

type Home struct {
	Top    []HomeEntry
	Movies []HomeEntry
	Series []HomeEntry
}
