package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

func daysAgo(now time.Time, d int) *int64 {
	return i64(now.Add(-time.Duration(d) * 24 * time.Hour).Unix())
}

func TestRank_TopOrderingAndExclusions(t *testing.T) {
	now := time.Now()
	movies := []domain.CatalogItem{
		{ID: "M2", Rating: f64(8), Added: daysAgo(now, 2)},
		{ID: "M1", Rating: f64(9), Added: daysAgo(now, 5)},
		{ID: "M3", Added: daysAgo(now, 1)},                   // pas de note
		{ID: "M4", Rating: f64(10), Added: daysAgo(now, 40)}, // hors fenêtre
		{ID: "M5", Rating: f64(10)},                          // pas de date
	}
	series := []domain.CatalogItem{
		{ID: "S1", Rating: f64(9), Added: daysAgo(now, 1)},
	}

	entries := Rank(movies, series, now, 30*24*time.Hour, 10, 20)

	var top []string
	for _, e := range entries {
		if e.Kind == domain.HomeTopMovie || e.Kind == domain.HomeTopSeries {
			top = append(top, e.ValueID)
		}
	}
	// Note égale (9): départage par ajout le plus récent.
	want := []string{"S1", "M1", "M2"}
	if fmt.Sprint(top) != fmt.Sprint(want) {
		t.Fatalf("top = %v, want %v", top, want)
	}
	for _, e := range entries {
		if e.ValueID == "S1" && e.Kind == domain.HomeTopSeries && e.Position != 0 {
			t.Fatalf("S1 should be at top position 0, got %d", e.Position)
		}
	}
}

func TestRank_BoundsAndRecentOrder(t *testing.T) {
	now := time.Now()
	var movies []domain.CatalogItem
	for i := 0; i < 30; i++ {
		movies = append(movies, domain.CatalogItem{ID: fmt.Sprintf("m%02d", i), Rating: f64(float64(i % 10)), Added: daysAgo(now, i)})
	}
	movies = append(movies, domain.CatalogItem{ID: "undated"})

	entries := Rank(movies, nil, now, 30*24*time.Hour, 10, 20)

	counts := map[domain.HomeKind]int{}
	var recent []string
	for _, e := range entries {
		counts[e.Kind]++
		if e.Kind == domain.HomeMovie {
			recent = append(recent, e.ValueID)
		}
	}
	if counts[domain.HomeTopMovie] != 10 || counts[domain.HomeMovie] != 20 || counts[domain.HomeSeries] != 0 {
		t.Fatalf("unexpected sizes: %+v", counts)
	}
	if recent[0] != "m00" || recent[19] != "m19" {
		t.Fatalf("recent should be newest first: %v", recent)
	}

	// Moins de 20 films: ceux sans date passent en dernier.
	few := Rank([]domain.CatalogItem{{ID: "undated"}, {ID: "new", Added: daysAgo(now, 1)}}, nil, now, 30*24*time.Hour, 10, 20)
	if len(few) != 2 || few[0].ValueID != "new" || few[1].ValueID != "undated" {
		t.Fatalf("undated items must sort last: %+v", few)
	}
}

func TestHomeAggregator_RebuildAllSkipsFailingAccount(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()
	e.catalog.movies = []domain.CatalogItem{{ID: "1", Name: "A", Rating: f64(7), Added: daysAgo(now, 1)}}
	e.catalog.series = []domain.CatalogItem{{ID: "2", Name: "B", Added: daysAgo(now, 3)}}

	good := e.login(t, "good")
	bad := e.login(t, "bad")
	e.catalog.listErr["bad"] = fmt.Errorf("%w: boom", ports.ErrUpstreamUnreachable)

	report, err := e.agg.RebuildAll(ctx)
	if err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}
	if report.Accounts != 2 || report.Rebuilt != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	home, err := e.homes.Get(ctx, good)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(home.Top) != 1 || len(home.Movies) != 1 || len(home.Series) != 1 {
		t.Fatalf("unexpected home: %+v", home)
	}
	if home.Top[0].Kind != domain.HomeTopMovie || home.Top[0].Name != "A" {
		t.Fatalf("unexpected top entry: %+v", home.Top[0])
	}

	empty, err := e.homes.Get(ctx, bad)
	if err != nil || len(empty.Top)+len(empty.Movies)+len(empty.Series) != 0 {
		t.Fatalf("failing account should keep an empty home: %+v %v", empty, err)
	}
}

func TestHomeAggregator_ReplaceDropsPreviousSnapshot(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()
	tok := e.login(t, "u")

	e.catalog.movies = []domain.CatalogItem{{ID: "old", Added: daysAgo(now, 1)}}
	if _, err := e.agg.RebuildAll(ctx); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	e.catalog.movies = []domain.CatalogItem{{ID: "new", Added: daysAgo(now, 1)}}
	if _, err := e.agg.RebuildAll(ctx); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	home, _ := e.homes.Get(ctx, tok)
	if len(home.Movies) != 1 || home.Movies[0].ValueID != "new" {
		t.Fatalf("snapshot should be fully replaced: %+v", home.Movies)
	}
}

func TestHomeService_UnknownToken(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.homes.Get(context.Background(), "nope"); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("want ErrAuthInvalid, got %v", err)
	}
}

func TestHomeScheduler_ServeRunsPassAtStart(t *testing.T) {
	e := newTestEnv(t)
	seedCatalog(e.catalog)
	now := time.Now()
	e.catalog.movies = []domain.CatalogItem{{ID: "1", Added: daysAgo(now, 1)}}
	tok := e.login(t, "u")
	pid := e.profile(t, tok, "me")

	e.progress.now = func() time.Time { return now.Add(-30 * 24 * time.Hour) }
	if _, err := e.progress.Record(context.Background(), tok, pid, domain.KindMovie, "10", 1, ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e.progress.now = func() time.Time { return now }

	sch := NewHomeScheduler(zerolog.Nop(), e.agg, e.progress)
	sch.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sch.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		home, _ := e.homes.Get(context.Background(), tok)
		list, _ := e.progress.List(context.Background(), tok, pid)
		if len(home.Movies) == 1 && len(list) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("first pass did not run: home=%+v progress=%+v", home, list)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve should stop with context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Serve did not stop")
	}
}

func TestHomeBootstrapper_BuildsHomeOnSessionCreated(t *testing.T) {
	e := newTestEnv(t)
	now := time.Now()
	e.catalog.series = []domain.CatalogItem{{ID: "s", Added: daysAgo(now, 1)}}
	tok := e.login(t, "u")
	s, _ := e.guard.ResolveSession(context.Background(), tok)

	b := NewHomeBootstrapper(zerolog.Nop(), e.bus, e.agg)

	b.handleEvent(context.Background(), ports.Event{Topic: TopicFavoriteAdded, Payload: []byte(`{"sessionId":"` + s.ID + `"}`)})
	if e.catalog.count("series") != 0 {
		t.Fatalf("only session.created should trigger a build")
	}

	b.handleEvent(context.Background(), ports.Event{Topic: TopicSessionCreated, Payload: []byte(`{"sessionId":"` + s.ID + `"}`)})
	home, err := e.homes.Get(context.Background(), tok)
	if err != nil || len(home.Series) != 1 {
		t.Fatalf("home not built: %+v %v", home, err)
	}
}
