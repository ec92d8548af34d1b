package xtream

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
)

// Enregistrements amont. Chacun passe par Fields pour appliquer la même politique
// de décodage; les noms d'alias sont listés du plus récent au plus ancien.

type streamItem struct {
	domain.CatalogItem
}

func (s *streamItem) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	r := newReader(f)
	s.CatalogItem = domain.CatalogItem{
		ID:                 r.id("id", "stream_id", "series_id"),
		Name:               r.str("name", "title"),
		Icon:               r.str("icon", "stream_icon", "cover"),
		CategoryID:         r.id("category_id"),
		Added:              r.optInt("added", "last_modified"),
		Rating:             r.optFloat("rating"),
		ContainerExtension: r.str("container_extension"),
	}
	return r.err
}

func decodeInfo(f Fields) (domain.ItemInfo, error) {
	r := newReader(f)
	info := domain.ItemInfo{
		Name:           r.str("name", "title"),
		Plot:           r.str("plot", "description"),
		Cast:           r.str("cast", "actors"),
		Genre:          r.str("genre"),
		Duration:       r.str("duration"),
		Director:       r.str("director"),
		YoutubeTrailer: r.str("youtube_trailer"),
		Icon:           r.str("icon", "movie_image", "cover"),
		Rating:         r.optFloat("rating"),
		LastModified:   r.optInt("last_modified"),
	}
	return info, r.err
}

type movieDetailRecord struct {
	domain.MovieDetail
}

func (m *movieDetailRecord) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	r := newReader(f)
	infoFields := r.object("info")
	dataFields := r.object("movie_data", "data")
	if r.err != nil {
		return r.err
	}

	info, err := decodeInfo(infoFields)
	if err != nil {
		return err
	}
	rd := newReader(dataFields)
	m.MovieDetail = domain.MovieDetail{
		Info: info,
		Data: domain.MovieData{
			ID:                 rd.id("id", "stream_id"),
			Name:               rd.str("name"),
			Added:              rd.optInt("added"),
			ContainerExtension: rd.str("container_extension"),
		},
	}
	return rd.err
}

func decodeEpisode(f Fields, season string) (domain.Episode, error) {
	r := newReader(f)
	info := r.object("info")
	ri := newReader(info)
	ep := domain.Episode{
		ID:                 r.id("id", "stream_id"),
		Title:              r.str("title", "name"),
		Season:             r.id("season"),
		Number:             r.int("episode_num"),
		ContainerExtension: r.str("container_extension"),
		Image:              ri.str("movie_image", "image", "cover_big"),
	}
	if ep.Season == "" {
		ep.Season = season
	}
	r.keep(ri.err)
	return ep, r.err
}

type seriesDetailRecord struct {
	domain.SeriesDetail
}

func (s *seriesDetailRecord) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	r := newReader(f)
	infoFields := r.object("info")
	if r.err != nil {
		return r.err
	}
	info, err := decodeInfo(infoFields)
	if err != nil {
		return err
	}

	seasons, err := decodeSeasons(f)
	if err != nil {
		return err
	}
	episodes, err := decodeEpisodes(f)
	if err != nil {
		return err
	}

	s.SeriesDetail = domain.SeriesDetail{Info: info, Seasons: seasons, Episodes: episodes}
	return nil
}

func decodeSeasons(f Fields) ([]domain.Season, error) {
	raw, ok := f.Raw("seasons")
	if !ok {
		return nil, nil
	}
	items, err := rawList(raw)
	if err != nil {
		return nil, fieldError("seasons", err)
	}
	out := make([]domain.Season, 0, len(items))
	for _, item := range items {
		sf, err := ParseFields(item)
		if err != nil {
			return nil, fieldError("seasons", err)
		}
		r := newReader(sf)
		out = append(out, domain.Season{
			Number:     r.id("season_number"),
			Name:       r.str("name"),
			PosterPath: r.str("poster_path", "cover", "cover_big"),
		})
		if r.err != nil {
			return nil, r.err
		}
	}
	return out, nil
}

// decodeEpisodes accepte la forme objet {"1": [...]} et la forme liste [[...], [...]].
func decodeEpisodes(f Fields) (map[string][]domain.Episode, error) {
	out := map[string][]domain.Episode{}
	raw, ok := f.Raw("episodes")
	if !ok {
		return out, nil
	}

	groups := map[string]json.RawMessage{}
	switch raw[0] {
	case '{':
		if err := json.Unmarshal(raw, &groups); err != nil {
			return nil, fieldError("episodes", err)
		}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fieldError("episodes", err)
		}
		for i, g := range list {
			groups[strconv.Itoa(i+1)] = g
		}
	default:
		return nil, fieldError("episodes", errNotObject)
	}

	for season, g := range groups {
		items, err := rawList(g)
		if err != nil {
			return nil, fieldError("episodes", err)
		}
		eps := make([]domain.Episode, 0, len(items))
		for _, item := range items {
			ef, err := ParseFields(item)
			if err != nil {
				return nil, fieldError("episodes", err)
			}
			ep, err := decodeEpisode(ef, season)
			if err != nil {
				return nil, err
			}
			eps = append(eps, ep)
		}
		if len(eps) == 0 {
			continue
		}
		// En forme liste, la saison réelle est portée par les épisodes.
		key := season
		if raw[0] == '[' && eps[0].Season != "" {
			key = eps[0].Season
		}
		out[key] = append(out[key], eps...)
	}
	return out, nil
}

type epgRecord struct {
	Listings []domain.EpgEntry
}

func (e *epgRecord) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	raw, ok := f.Raw("epg_listings")
	if !ok {
		e.Listings = nil
		return nil
	}
	items, err := rawList(raw)
	if err != nil {
		return fieldError("epg_listings", err)
	}
	e.Listings = make([]domain.EpgEntry, 0, len(items))
	for _, item := range items {
		lf, err := ParseFields(item)
		if err != nil {
			return fieldError("epg_listings", err)
		}
		r := newReader(lf)
		e.Listings = append(e.Listings, domain.EpgEntry{
			Title:          r.str("title"),
			Description:    r.str("description"),
			StartTimestamp: r.int("start_timestamp"),
			StopTimestamp:  r.int("stop_timestamp"),
		})
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

type categoryRecord struct {
	domain.Category
}

func (c *categoryRecord) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	r := newReader(f)
	c.Category = domain.Category{
		ID:   r.id("category_id", "id"),
		Name: r.str("category_name", "name"),
	}
	return r.err
}

// loginRecord est la réponse de player_api.php sans action.
type loginRecord struct {
	UserInfo domain.UserInfo
}

func (l *loginRecord) UnmarshalJSON(data []byte) error {
	f, err := ParseFields(data)
	if err != nil {
		return err
	}
	r := newReader(f)
	ui := r.object("user_info")
	if r.err != nil {
		return r.err
	}
	ru := newReader(ui)
	l.UserInfo = domain.UserInfo{
		Auth:           ru.optInt("auth"),
		Status:         ru.str("status"),
		IsTrial:        ru.optInt("is_trial"),
		ExpDate:        ru.optInt("exp_date"),
		CreatedAt:      ru.optInt("created_at"),
		ActiveCons:     ru.optInt("active_cons"),
		MaxConnections: ru.optInt("max_connections"),
	}
	return ru.err
}

// list décode une liste d'enregistrements. Certains serveurs renvoient un objet
// indexé ("0": {...}) ou null à la place d'un tableau.
type list[T any, PT interface {
	*T
	json.Unmarshaler
}] []T

func (l *list[T, PT]) UnmarshalJSON(data []byte) error {
	items, err := rawList(data)
	if err != nil {
		return err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := PT(&v).UnmarshalJSON(item); err != nil {
			return err
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func rawList(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		// Seules les clés d'index ("0", "1", ...) font une liste; un objet
		// quelconque (réponse d'auth refusée par ex.) est une erreur.
		byKey := map[string]json.RawMessage{}
		if err := json.Unmarshal(data, &byKey); err != nil {
			return nil, err
		}
		type indexed struct {
			i   int
			raw json.RawMessage
		}
		entries := make([]indexed, 0, len(byKey))
		for k, v := range byKey {
			i, err := strconv.Atoi(k)
			if err != nil {
				return nil, errNotList
			}
			entries = append(entries, indexed{i: i, raw: v})
		}
		sort.Slice(entries, func(a, b int) bool { return entries[a].i < entries[b].i })
		items := make([]json.RawMessage, 0, len(entries))
		for _, e := range entries {
			items = append(items, e.raw)
		}
		return items, nil
	default:
		return nil, errNotList
	}
}
