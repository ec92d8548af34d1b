package domain

// CatalogItem est la forme normalisée commune aux listes live/films/séries.
// Les identifiants sont toujours des chaînes, même si l'amont envoie des entiers.
type CatalogItem struct {
	ID                 string
	Name               string
	Icon               string
	CategoryID         string
	Added              *int64
	Rating             *float64
	EpisodeID          string
	ContainerExtension string
}

// ItemInfo regroupe les métadonnées descriptives d'un film ou d'une série.
type ItemInfo struct {
	Name           string
	Plot           string
	Cast           string
	Genre          string
	Duration       string
	Director       string
	YoutubeTrailer string
	Icon           string
	Rating         *float64
	LastModified   *int64
}

type MovieData struct {
	ID                 string
	Name               string
	Added              *int64
	ContainerExtension string
}

type MovieDetail struct {
	Info ItemInfo
	Data MovieData
}

type Season struct {
	Number     string
	Name       string
	PosterPath string
}

type Episode struct {
	ID                 string
	Title              string
	Season             string
	Number             int64
	ContainerExtension string
	Image              string
}

type SeriesDetail struct {
	Info    ItemInfo
	Seasons []Season
	// Episodes: numéro de saison -> épisodes.
	Episodes map[string][]Episode
}

// FindEpisode cherche un épisode sur toutes les saisons.
func (d SeriesDetail) FindEpisode(id string) (Episode, bool) {
	for _, eps := range d.Episodes {
		for _, ep := range eps {
			if ep.ID == id {
				return ep, true
			}
		}
	}
	return Episode{}, false
}

// EpisodeItem est l'élément canonique d'une série vue au niveau d'un épisode:
// nom et icône de la série, extension de l'épisode.
func (d SeriesDetail) EpisodeItem(seriesID, episodeID string) (CatalogItem, bool) {
	ep, ok := d.FindEpisode(episodeID)
	if !ok {
		return CatalogItem{}, false
	}
	return CatalogItem{
		ID:                 seriesID,
		Name:               d.Info.Name,
		Icon:               d.Info.Icon,
		Rating:             d.Info.Rating,
		EpisodeID:          ep.ID,
		ContainerExtension: ep.ContainerExtension,
	}, true
}

type EpgEntry struct {
	Title          string
	Description    string
	StartTimestamp int64
	StopTimestamp  int64
}

type Category struct {
	ID   string
	Name string
}

// Detail est le résultat de itemDetail: un seul des champs est renseigné selon Kind.
type Detail struct {
	Kind   Kind
	Epg    []EpgEntry
	Movie  *MovieDetail
	Series *SeriesDetail
}
