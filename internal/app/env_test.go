package app

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/domain"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

func i64(v int64) *int64 { return &v }
func f64(v float64) *float64 { return &v }

// fakeCatalog simule l'amont en mémoire, indexé par nom d'utilisateur.
type fakeCatalog struct {
	mu sync.Mutex

	info    map[string]domain.UserInfo
	infoErr error
	listErr map[string]error

	live   []domain.CatalogItem
	movies []domain.CatalogItem
	series []domain.CatalogItem

	movieDetails  map[string]domain.MovieDetail
	seriesDetails map[string]domain.SeriesDetail

	calls map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		info:          map[string]domain.UserInfo{},
		listErr:       map[string]error{},
		movieDetails:  map[string]domain.MovieDetail{},
		seriesDetails: map[string]domain.SeriesDetail{},
		calls:         map[string]int{},
	}
}

func (f *fakeCatalog) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeCatalog) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) UserInfo(ctx context.Context, creds domain.Credentials) (domain.UserInfo, error) {
	f.hit("user_info")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return domain.UserInfo{}, f.infoErr
	}
	return f.info[creds.Username], nil
}

func (f *fakeCatalog) ListLive(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error) {
	f.hit("live")
	return f.live, nil
}

func (f *fakeCatalog) ListMovies(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error) {
	f.hit("movies")
	f.mu.Lock()
	err := f.listErr[creds.Username]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.movies, nil
}

func (f *fakeCatalog) ListSeries(ctx context.Context, creds domain.Credentials, categoryID string) ([]domain.CatalogItem, error) {
	f.hit("series")
	return f.series, nil
}

func (f *fakeCatalog) MovieDetail(ctx context.Context, creds domain.Credentials, id string) (domain.MovieDetail, error) {
	f.hit("movie_detail")
	d, ok := f.movieDetails[id]
	if !ok {
		return domain.MovieDetail{}, ports.ErrNotFound
	}
	return d, nil
}

func (f *fakeCatalog) SeriesDetail(ctx context.Context, creds domain.Credentials, id string) (domain.SeriesDetail, error) {
	f.hit("series_detail")
	d, ok := f.seriesDetails[id]
	if !ok {
		return domain.SeriesDetail{}, ports.ErrNotFound
	}
	return d, nil
}

func (f *fakeCatalog) ShortEPG(ctx context.Context, creds domain.Credentials, liveID string) ([]domain.EpgEntry, error) {
	f.hit("epg")
	return []domain.EpgEntry{{Title: "News", StartTimestamp: 1, StopTimestamp: 2}}, nil
}

func (f *fakeCatalog) Categories(ctx context.Context, creds domain.Credentials, kind domain.Kind) ([]domain.Category, error) {
	f.hit("categories")
	return []domain.Category{{ID: "1", Name: string(kind)}}, nil
}

func (f *fakeCatalog) StreamURL(creds domain.Credentials, kind domain.Kind, id, ext string) (string, error) {
	return "http://x.test/" + string(kind) + "/" + creds.Username + "/" + creds.Password + "/" + id + "." + ext, nil
}

type testEnv struct {
	db      *sqlite.DB
	catalog *fakeCatalog
	bus     *memorybus.Bus

	sessionsRepo  *sqlite.SessionsRepository
	profilesRepo  *sqlite.ProfilesRepository
	favoritesRepo *sqlite.FavoritesRepository
	progressRepo  *sqlite.ProgressRepository
	homeRepo      *sqlite.HomeRepository

	guard     *Guard
	sessions  *SessionService
	profiles  *ProfileService
	catalogs  *CatalogService
	favorites *FavoriteService
	progress  *ProgressService
	homes     *HomeService
	agg       *HomeAggregator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	e := &testEnv{
		db:            db,
		catalog:       newFakeCatalog(),
		bus:           memorybus.New(),
		sessionsRepo:  sqlite.NewSessionsRepository(db.SQL),
		profilesRepo:  sqlite.NewProfilesRepository(db.SQL),
		favoritesRepo: sqlite.NewFavoritesRepository(db.SQL),
		progressRepo:  sqlite.NewProgressRepository(db.SQL),
		homeRepo:      sqlite.NewHomeRepository(db.SQL),
	}
	log := zerolog.Nop()
	e.guard = NewGuard(e.sessionsRepo, e.profilesRepo)
	e.sessions = NewSessionService(log, e.guard, e.sessionsRepo, e.catalog, e.bus)
	e.profiles = NewProfileService(e.guard, e.profilesRepo)
	e.catalogs = NewCatalogService(e.guard, e.catalog)
	e.favorites = NewFavoriteService(e.guard, e.catalog, e.favoritesRepo, e.bus)
	e.progress = NewProgressService(log, e.guard, e.catalog, e.progressRepo, e.bus)
	e.homes = NewHomeService(e.guard, e.homeRepo)
	e.agg = NewHomeAggregator(log, e.sessionsRepo, e.catalog, e.homeRepo, e.bus)
	return e
}

// login crée un compte valide côté amont et renvoie son token.
func (e *testEnv) login(t *testing.T, user string) string {
	t.Helper()
	e.catalog.mu.Lock()
	e.catalog.info[user] = domain.UserInfo{Auth: i64(1), Status: "Active"}
	e.catalog.mu.Unlock()
	res, err := e.sessions.Login(context.Background(), "http://x.test/", user, "pw")
	if err != nil {
		t.Fatalf("Login(%s): %v", user, err)
	}
	return res.Token
}

func (e *testEnv) profile(t *testing.T, token, name string) string {
	t.Helper()
	p, _, err := e.profiles.Create(context.Background(), token, name)
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p.ID
}
