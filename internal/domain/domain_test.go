package domain

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"live":    KindLive,
		" Movie ": KindMovie,
		"vod":     KindMovie,
		"series":  KindSeries,
		"serie":   KindSeries,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("radio"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("ParseKind(radio): want ErrInvalidKind, got %v", err)
	}
	if KindLive.Watchable() || !KindMovie.Watchable() || !KindSeries.Watchable() {
		t.Fatalf("only movies and series are watchable")
	}
}

func TestSeriesDetail_FindEpisodeAcrossSeasons(t *testing.T) {
	d := SeriesDetail{Episodes: map[string][]Episode{
		"1": {{ID: "101", Season: "1"}},
		"2": {{ID: "201", Season: "2", ContainerExtension: "mkv"}},
	}}
	ep, ok := d.FindEpisode("201")
	if !ok || ep.Season != "2" || ep.ContainerExtension != "mkv" {
		t.Fatalf("FindEpisode(201) = %+v, %v", ep, ok)
	}
	if _, ok := d.FindEpisode("999"); ok {
		t.Fatalf("FindEpisode(999) should miss")
	}
}

func TestSeriesDetail_EpisodeItemCarriesEpisode(t *testing.T) {
	d := SeriesDetail{
		Info:     ItemInfo{Name: "Show", Icon: "http://img/show.png"},
		Episodes: map[string][]Episode{"2": {{ID: "201", Season: "2", ContainerExtension: "mkv"}}},
	}
	item, ok := d.EpisodeItem("20", "201")
	if !ok {
		t.Fatalf("EpisodeItem(201) should resolve")
	}
	if item.ID != "20" || item.Name != "Show" || item.EpisodeID != "201" || item.ContainerExtension != "mkv" {
		t.Fatalf("EpisodeItem = %+v", item)
	}
	if _, ok := d.EpisodeItem("20", "999"); ok {
		t.Fatalf("EpisodeItem(999) should miss")
	}
}
