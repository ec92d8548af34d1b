package xtream

import (
	"context"
	"fmt"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

// Actions player_api.
const (
	ActionLiveStreams      = "get_live_streams"
	ActionVodStreams       = "get_vod_streams"
	ActionSeries           = "get_series"
	ActionVodInfo          = "get_vod_info"
	ActionSeriesInfo       = "get_series_info"
	ActionShortEPG         = "get_short_epg"
	ActionLiveCategories   = "get_live_categories"
	ActionVodCategories    = "get_vod_categories"
	ActionSeriesCategories = "get_series_categories"
)

// Catalog implémente ports.Catalog au-dessus de Client.
type Catalog struct {
	client *Client
}

var _ ports.Catalog = (*Catalog)(nil)

func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client}
}

func (c *Catalog) UserInfo(ctx context.Context, creds domain.Credentials) (domain.UserInfo, error) {
	var out loginRecord
	if err := c.client.Get(ctx, creds, Params{}, &out); err != nil {
		return domain.UserInfo{}, err
	}
	return out.UserInfo, nil
}

func (c *Catalog) ListLive(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error) {
	return c.list(ctx, creds, ActionLiveStreams, categoryID)
}

func (c *Catalog) ListMovies(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error) {
	return c.list(ctx, creds, ActionVodStreams, categoryID)
}

func (c *Catalog) ListSeries(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error) {
	return c.list(ctx, creds, ActionSeries, categoryID)
}

func (c *Catalog) list(ctx context.Context, creds domain.Credentials, action, categoryID string) ([]domain.CatalogItem, error) {
	var out list[streamItem, *streamItem]
	p := Params{Action: action, ID: WithID(CategoryID, categoryID)}
	if err := c.client.Get(ctx, creds, p, &out); err != nil {
		return nil, err
	}
	items := make([]domain.CatalogItem, 0, len(out))
	for _, it := range out {
		items = append(items, it.CatalogItem)
	}
	return items, nil
}

// MovieDetail renvoie ErrNotFound quand l'amont répond par un objet vide.
func (c *Catalog) MovieDetail(ctx context.Context, creds domain.Credentials, id string) (domain.MovieDetail, error) {
	var out movieDetailRecord
	p := Params{Action: ActionVodInfo, ID: WithID(MovieID, id)}
	if err := c.client.Get(ctx, creds, p, &out); err != nil {
		return domain.MovieDetail{}, err
	}
	d := out.MovieDetail
	if d.Data.ID == "" && d.Data.Name == "" && d.Info.Name == "" {
		return domain.MovieDetail{}, fmt.Errorf("movie %s: %w", id, ports.ErrNotFound)
	}
	if d.Data.ID == "" {
		d.Data.ID = id
	}
	return d, nil
}

func (c *Catalog) SeriesDetail(ctx context.Context, creds domain.Credentials, id string) (domain.SeriesDetail, error) {
	var out seriesDetailRecord
	p := Params{Action: ActionSeriesInfo, ID: WithID(SeriesID, id)}
	if err := c.client.Get(ctx, creds, p, &out); err != nil {
		return domain.SeriesDetail{}, err
	}
	d := out.SeriesDetail
	if d.Info.Name == "" && len(d.Episodes) == 0 {
		return domain.SeriesDetail{}, fmt.Errorf("series %s: %w", id, ports.ErrNotFound)
	}
	return d, nil
}

func (c *Catalog) ShortEPG(ctx context.Context, creds domain.Credentials, liveID string) ([]domain.EpgEntry, error) {
	var out epgRecord
	p := Params{Action: ActionShortEPG, ID: WithID(LiveID, liveID)}
	if err := c.client.Get(ctx, creds, p, &out); err != nil {
		return nil, err
	}
	return out.Listings, nil
}

func (c *Catalog) Categories(ctx context.Context, creds domain.Credentials, kind domain.Kind) ([]domain.Category, error) {
	var action string
	switch kind {
	case domain.KindLive:
		action = ActionLiveCategories
	case domain.KindMovie:
		action = ActionVodCategories
	case domain.KindSeries:
		action = ActionSeriesCategories
	default:
		return nil, domain.ErrInvalidKind
	}

	var out list[categoryRecord, *categoryRecord]
	if err := c.client.Get(ctx, creds, Params{Action: action}, &out); err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(out))
	for _, cat := range out {
		cats = append(cats, cat.Category)
	}
	return cats, nil
}

func (c *Catalog) StreamURL(creds domain.Credentials, kind domain.Kind, id, ext string) (string, error) {
	return StreamURL(creds, kind, id, ext)
}
