package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/metrics"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

const (
	DefaultHomeWindow = 30 * 24 * time.Hour
	DefaultTopSize    = 10
	DefaultRecentSize = 20
)

type HomeService struct {
	guard *Guard
	home  ports.HomeRepository
}

func NewHomeService(guard *Guard, home ports.HomeRepository) *HomeService {
	return &HomeService{guard: guard, home: home}
}

func (s *HomeService) Get(ctx context.Context, token string) (HomeDTO, error) {
	session, err := s.guard.ResolveSession(ctx, token)
	if err != nil {
		return HomeDTO{}, err
	}
	entries, err := s.home.List(ctx, session.ID)
	if err != nil {
		return HomeDTO{}, storeErr(err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	out := HomeDTO{Top: []HomeEntryDTO{}, Movies: []HomeEntryDTO{}, Series: []HomeEntryDTO{}}
	for _, e := range entries {
		dto := HomeEntryDTO{Kind: e.Kind, ValueID: e.ValueID, Name: e.Name, Icon: e.Icon}
		switch e.Kind {
		case domain.HomeTopMovie, domain.HomeTopSeries:
			out.Top = append(out.Top, dto)
		case domain.HomeMovie:
			out.Movies = append(out.Movies, dto)
		case domain.HomeSeries:
			out.Series = append(out.Series, dto)
		}
	}
	return out, nil
}

// Rank calcule le snapshot home à partir des catalogues complets.
//
// Top: note ET date d'ajout présentes, ajout dans la fenêtre; tri note
// décroissante puis ajout décroissant. Récents: tri par ajout décroissant,
// les éléments sans date en dernier. Position est relative à chaque groupe
// (top, films, séries).
func Rank(movies, series []domain.CatalogItem, now time.Time, window time.Duration, topSize, recentSize int) []domain.HomeEntry {
	cutoff := now.Add(-window).Unix()

	type candidate struct {
		item domain.CatalogItem
		kind domain.HomeKind
	}
	var pool []candidate
	for _, m := range movies {
		if m.Rating != nil && m.Added != nil && *m.Added > cutoff {
			pool = append(pool, candidate{item: m, kind: domain.HomeTopMovie})
		}
	}
	for _, s := range series {
		if s.Rating != nil && s.Added != nil && *s.Added > cutoff {
			pool = append(pool, candidate{item: s, kind: domain.HomeTopSeries})
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i].item, pool[j].item
		if *a.Rating != *b.Rating {
			return *a.Rating > *b.Rating
		}
		return *a.Added > *b.Added
	})
	if len(pool) > topSize {
		pool = pool[:topSize]
	}

	out := make([]domain.HomeEntry, 0, len(pool)+2*recentSize)
	for i, c := range pool {
		out = append(out, homeEntry(c.item, c.kind, i))
	}
	for i, m := range recent(movies, recentSize) {
		out = append(out, homeEntry(m, domain.HomeMovie, i))
	}
	for i, s := range recent(series, recentSize) {
		out = append(out, homeEntry(s, domain.HomeSeries, i))
	}
	return out
}

func recent(items []domain.CatalogItem, n int) []domain.CatalogItem {
	sorted := append([]domain.CatalogItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Added, sorted[j].Added
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func homeEntry(it domain.CatalogItem, kind domain.HomeKind, pos int) domain.HomeEntry {
	return domain.HomeEntry{Kind: kind, Position: pos, ValueID: it.ID, Name: it.Name, Icon: it.Icon}
}

// HomePassReport résume une passe complète sur tous les comptes.
type HomePassReport struct {
	Accounts int
	Rebuilt  int
	Failed   int
}

// HomeAggregator reconstruit les snapshots home, compte par compte.
type HomeAggregator struct {
	logger   zerolog.Logger
	sessions ports.SessionRepository
	catalog  ports.Catalog
	home     ports.HomeRepository
	bus      ports.EventBus

	Window     time.Duration
	TopSize    int
	RecentSize int
	// Pacer espace les comptes d'une passe (nil = pas de pacing).
	Pacer *rate.Limiter

	now func() time.Time
}

func NewHomeAggregator(logger zerolog.Logger, sessions ports.SessionRepository, catalog ports.Catalog, home ports.HomeRepository, bus ports.EventBus) *HomeAggregator {
	return &HomeAggregator{
		logger:     logger,
		sessions:   sessions,
		catalog:    catalog,
		home:       home,
		bus:        bus,
		Window:     DefaultHomeWindow,
		TopSize:    DefaultTopSize,
		RecentSize: DefaultRecentSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (a *HomeAggregator) RebuildSession(ctx context.Context, account domain.Account) error {
	movies, err := a.catalog.ListMovies(ctx, account.Credentials, "")
	if err != nil {
		return fmt.Errorf("list movies: %w", err)
	}
	series, err := a.catalog.ListSeries(ctx, account.Credentials, "")
	if err != nil {
		return fmt.Errorf("list series: %w", err)
	}

	entries := Rank(movies, series, a.now(), a.Window, a.TopSize, a.RecentSize)
	for i := range entries {
		entries[i].ID = xid.New().String()
		entries[i].SessionID = account.Session.ID
	}
	if err := a.home.Replace(ctx, account.Session.ID, entries); err != nil {
		return storeErr(err)
	}
	publish(a.bus, TopicHomeRebuilt, EventPayload{SessionID: account.Session.ID, Data: map[string]int{"entries": len(entries)}})
	return nil
}

// RebuildSessionByID sert au premier calcul juste après le login.
func (a *HomeAggregator) RebuildSessionByID(ctx context.Context, sessionID string) error {
	creds, err := a.sessions.Credentials(ctx, sessionID)
	if err != nil {
		return storeErr(err)
	}
	return a.rebuild(ctx, domain.Account{Session: domain.Session{ID: sessionID}, Credentials: creds})
}

func (a *HomeAggregator) rebuild(ctx context.Context, account domain.Account) error {
	if err := a.RebuildSession(ctx, account); err != nil {
		metrics.HomeRebuilds.WithLabelValues("failed").Inc()
		return err
	}
	metrics.HomeRebuilds.WithLabelValues("ok").Inc()
	return nil
}

// RebuildAll parcourt tous les comptes. L'échec d'un compte est journalisé
// et n'interrompt pas la passe; seule l'annulation du contexte l'arrête.
func (a *HomeAggregator) RebuildAll(ctx context.Context) (HomePassReport, error) {
	start := time.Now()
	defer func() { metrics.HomeRebuildPassDuration.Observe(time.Since(start).Seconds()) }()

	accounts, err := a.sessions.Accounts(ctx)
	if err != nil {
		return HomePassReport{}, storeErr(err)
	}

	report := HomePassReport{Accounts: len(accounts)}
	for _, acc := range accounts {
		if a.Pacer != nil {
			if err := a.Pacer.Wait(ctx); err != nil {
				return report, err
			}
		}
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if err := a.rebuild(ctx, acc); err != nil {
			report.Failed++
			a.logger.Warn().Err(err).Str("session_id", acc.Session.ID).Msg("home rebuild failed")
			continue
		}
		report.Rebuilt++
	}
	return report, nil
}
