package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/xtream"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/httpjson"
)

// fakePanel répond aux actions player_api.php comme un panel Xtream.
// L'utilisateur "gone" n'est pas authentifié.
func fakePanel(t *testing.T) *httptest.Server {
	t.Helper()
	recent := strconv.FormatInt(time.Now().Add(-24*time.Hour).Unix(), 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player_api.php" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		var body string
		switch q.Get("action") {
		case "":
			auth := "1"
			if q.Get("username") == "gone" {
				auth = "0"
			}
			body = `{"user_info":{"auth":` + auth + `,"status":"Active","exp_date":"1999999999","max_connections":"2"}}`
		case xtream.ActionLiveStreams:
			body = `[{"stream_id":7,"name":"Chan","stream_icon":"http://img/7.png","category_id":"1"}]`
		case xtream.ActionVodStreams:
			body = `[{"stream_id":10,"name":"Movie","added":"` + recent + `","rating":"7.5","container_extension":"mkv","category_id":"2"}]`
		case xtream.ActionSeries:
			body = `[{"series_id":20,"name":"Show","cover":"http://img/20.png","last_modified":"` + recent + `","rating":"8"}]`
		case xtream.ActionVodInfo:
			if q.Get("vod_id") != "10" {
				body = `{"info":[],"movie_data":[]}`
				break
			}
			body = `{"info":{"name":"Movie","plot":"p"},"movie_data":{"stream_id":10,"name":"Movie","container_extension":"mkv"}}`
		case xtream.ActionSeriesInfo:
			body = `{"info":{"name":"Show","cover":"http://img/20.png"},"episodes":{"1":[` +
				`{"id":"101","title":"E1","season":1,"episode_num":1,"container_extension":"mp4"},` +
				`{"id":"102","title":"E2","season":1,"episode_num":2,"container_extension":"avi"}]}}`
		case xtream.ActionShortEPG:
			body = `{"epg_listings":[{"title":"News","start_timestamp":"1700000000","stop_timestamp":"1700003600"}]}`
		case xtream.ActionLiveCategories, xtream.ActionVodCategories, xtream.ActionSeriesCategories:
			body = `[{"category_id":"1","category_name":"General"}]`
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testAPI struct {
	t      *testing.T
	panel  *httptest.Server
	api    *httptest.Server
	home   *app.HomeAggregator
	bus    *memorybus.Bus
	client *http.Client
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	panel := fakePanel(t)
	bus := memorybus.New()
	t.Cleanup(bus.Close)

	catalog := xtream.NewCatalog(xtream.NewClient(panel.Client(), logger, xtream.DefaultOptions()))
	sessions := sqlite.NewSessionsRepository(db.SQL)
	profiles := sqlite.NewProfilesRepository(db.SQL)
	homeRepo := sqlite.NewHomeRepository(db.SQL)
	guard := app.NewGuard(sessions, profiles)

	svc := Services{
		Guard:     guard,
		Sessions:  app.NewSessionService(logger, guard, sessions, catalog, bus),
		Profiles:  app.NewProfileService(guard, profiles),
		Catalog:   app.NewCatalogService(guard, catalog),
		Favorites: app.NewFavoriteService(guard, catalog, sqlite.NewFavoritesRepository(db.SQL), bus),
		Progress:  app.NewProgressService(logger, guard, catalog, sqlite.NewProgressRepository(db.SQL), bus),
		Home:      app.NewHomeService(guard, homeRepo),
	}
	srv := NewServer(logger, svc, bus, Options{Ping: db.Ping})
	api := httptest.NewServer(srv.Router())
	t.Cleanup(api.Close)

	return &testAPI{
		t:      t,
		panel:  panel,
		api:    api,
		home:   app.NewHomeAggregator(logger, sessions, catalog, homeRepo, bus),
		bus:    bus,
		client: api.Client(),
	}
}

// do envoie une requête JSON et décode la réponse dans out (si non nil).
func (a *testAPI) do(method, path, token string, body any, out any) int {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.api.URL+path, rd)
	if err != nil {
		a.t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := a.client.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return res.StatusCode
}

func (a *testAPI) login(user string) string {
	a.t.Helper()
	var res app.LoginResult
	status := a.do(http.MethodPost, "/api/v1/login", "", map[string]string{
		"server": a.panel.URL + "/", "username": user, "password": "pw",
	}, &res)
	if status != http.StatusCreated && status != http.StatusOK {
		a.t.Fatalf("login %s: status %d", user, status)
	}
	if res.Token == "" {
		a.t.Fatalf("login %s: empty token", user)
	}
	return res.Token
}

func (a *testAPI) createProfile(token, name string) string {
	a.t.Helper()
	var p app.ProfileDTO
	if status := a.do(http.MethodPost, "/api/v1/profiles", token, map[string]string{"name": name}, &p); status != http.StatusCreated {
		a.t.Fatalf("create profile: status %d", status)
	}
	return p.ID
}

func TestAPI_LoginIsDeduplicated(t *testing.T) {
	a := newTestAPI(t)

	var first, second app.LoginResult
	body := map[string]string{"server": a.panel.URL, "username": "u", "password": "pw"}
	if status := a.do(http.MethodPost, "/api/v1/login", "", body, &first); status != http.StatusCreated {
		t.Fatalf("first login: status %d", status)
	}
	if status := a.do(http.MethodPost, "/api/v1/login", "", body, &second); status != http.StatusOK {
		t.Fatalf("second login: status %d", status)
	}
	if first.Token != second.Token {
		t.Fatalf("same credentials should share a session: %q vs %q", first.Token, second.Token)
	}

	var info app.UserInfoDTO
	if status := a.do(http.MethodGet, "/api/v1/info", first.Token, nil, &info); status != http.StatusOK {
		t.Fatalf("info: status %d", status)
	}
	if info.Auth == nil || *info.Auth != 1 || info.MaxConnections == nil || *info.MaxConnections != 2 {
		t.Fatalf("info: %+v", info)
	}
}

func TestAPI_LoginErrors(t *testing.T) {
	a := newTestAPI(t)

	var e httpjson.ErrorBody
	if status := a.do(http.MethodPost, "/api/v1/login", "", map[string]string{"username": "u"}, &e); status != http.StatusBadRequest || e.Error != "invalid_request" {
		t.Fatalf("missing fields: status %d body %+v", status, e)
	}
	e = httpjson.ErrorBody{}
	body := map[string]string{"server": a.panel.URL, "username": "gone", "password": "pw"}
	if status := a.do(http.MethodPost, "/api/v1/login", "", body, &e); status != http.StatusForbidden || e.Error != "account_not_found" {
		t.Fatalf("unauthenticated account: status %d body %+v", status, e)
	}
	e = httpjson.ErrorBody{}
	if status := a.do(http.MethodGet, "/api/v1/profiles", "bogus", nil, &e); status != http.StatusUnauthorized || e.Error != "auth_invalid" {
		t.Fatalf("unknown token: status %d body %+v", status, e)
	}
}

func TestAPI_CatalogRoutes(t *testing.T) {
	a := newTestAPI(t)
	token := a.login("u")

	var items []app.CatalogItemDTO
	if status := a.do(http.MethodGet, "/api/v1/catalog/movie?category_id=2", token, nil, &items); status != http.StatusOK {
		t.Fatalf("catalog: status %d", status)
	}
	if len(items) != 1 || items[0].ID != "10" || items[0].Rating == nil || *items[0].Rating != 7.5 {
		t.Fatalf("catalog: %+v", items)
	}

	var detail app.DetailDTO
	if status := a.do(http.MethodGet, "/api/v1/catalog/live/7", token, nil, &detail); status != http.StatusOK {
		t.Fatalf("live detail: status %d", status)
	}
	if detail.Kind != "live" || len(detail.Epg) != 1 || detail.Epg[0].Title != "News" {
		t.Fatalf("live detail: %+v", detail)
	}

	detail = app.DetailDTO{}
	if status := a.do(http.MethodGet, "/api/v1/catalog/series/20", token, nil, &detail); status != http.StatusOK {
		t.Fatalf("series detail: status %d", status)
	}
	if detail.Series == nil || len(detail.Series.Episodes["1"]) != 2 {
		t.Fatalf("series detail: %+v", detail)
	}

	var cats []app.CategoryDTO
	if status := a.do(http.MethodGet, "/api/v1/categories/series", token, nil, &cats); status != http.StatusOK || len(cats) != 1 {
		t.Fatalf("categories: status %d %+v", status, cats)
	}

	var link map[string]string
	if status := a.do(http.MethodGet, "/api/v1/link/movie/10/mkv", token, nil, &link); status != http.StatusOK {
		t.Fatalf("link: status %d", status)
	}
	if want := a.panel.URL + "/movie/u/pw/10.mkv"; link["url"] != want {
		t.Fatalf("link: got %q want %q", link["url"], want)
	}

	var e httpjson.ErrorBody
	if status := a.do(http.MethodGet, "/api/v1/catalog/radio", token, nil, &e); status != http.StatusBadRequest || e.Error != "invalid_kind" {
		t.Fatalf("bad kind: status %d body %+v", status, e)
	}
}

func TestAPI_ProfileFavoritesAndProgressFlow(t *testing.T) {
	a := newTestAPI(t)
	token := a.login("u")
	profileID := a.createProfile(token, "Alice")

	// Même nom: renvoie le profil existant.
	var again app.ProfileDTO
	if status := a.do(http.MethodPost, "/api/v1/profiles", token, map[string]string{"name": "Alice"}, &again); status != http.StatusOK || again.ID != profileID {
		t.Fatalf("idempotent profile: status %d %+v", status, again)
	}

	base := "/api/v1/profiles/" + profileID
	if status := a.do(http.MethodPut, base+"/favorites/live/7", token, nil, nil); status != http.StatusCreated {
		t.Fatalf("add favorite: status %d", status)
	}
	if status := a.do(http.MethodPut, base+"/favorites/live/7", token, nil, nil); status != http.StatusOK {
		t.Fatalf("add favorite twice: status %d", status)
	}
	var favs app.FavoritesDTO
	if status := a.do(http.MethodGet, base+"/favorites", token, nil, &favs); status != http.StatusOK {
		t.Fatalf("list favorites: status %d", status)
	}
	if len(favs.Live) != 1 || favs.Live[0].Name != "Chan" || len(favs.Movies) != 0 {
		t.Fatalf("favorites: %+v", favs)
	}

	var p app.ProgressDTO
	if status := a.do(http.MethodPut, base+"/progress/series/20", token, map[string]any{"time": 12.5, "episodeId": "101"}, &p); status != http.StatusOK {
		t.Fatalf("record progress: status %d", status)
	}
	if status := a.do(http.MethodPut, base+"/progress/series/20", token, map[string]any{"time": 3, "episodeId": "102"}, &p); status != http.StatusOK {
		t.Fatalf("record next episode: status %d", status)
	}
	var list []app.ProgressDTO
	a.do(http.MethodGet, base+"/progress", token, nil, &list)
	if len(list) != 1 || list[0].EpisodeID != "102" || list[0].Time != 3 || list[0].ContainerExtension != "avi" {
		t.Fatalf("progress after episode switch: %+v", list)
	}

	var e httpjson.ErrorBody
	if status := a.do(http.MethodPut, base+"/progress/series/20", token, map[string]any{"time": 1}, &e); status != http.StatusBadRequest || e.Error != "missing_episode_id" {
		t.Fatalf("missing episode: status %d %+v", status, e)
	}
	e = httpjson.ErrorBody{}
	if status := a.do(http.MethodPut, base+"/progress/live/7", token, map[string]any{"time": 1}, &e); status != http.StatusBadRequest || e.Error != "invalid_kind" {
		t.Fatalf("live progress: status %d %+v", status, e)
	}
	e = httpjson.ErrorBody{}
	if status := a.do(http.MethodPut, base+"/progress/movie/10", token, map[string]any{"time": -1}, &e); status != http.StatusBadRequest || e.Error != "invalid_request" {
		t.Fatalf("negative time: status %d %+v", status, e)
	}

	if status := a.do(http.MethodDelete, base+"/progress/series/20", token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("remove progress: status %d", status)
	}
	if status := a.do(http.MethodDelete, base+"/favorites/live/7", token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("remove favorite: status %d", status)
	}
	if status := a.do(http.MethodDelete, base+"/favorites/live/7", token, nil, nil); status != http.StatusNotFound {
		t.Fatalf("remove favorite twice: status %d", status)
	}
	if status := a.do(http.MethodDelete, base, token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("delete profile: status %d", status)
	}
}

func TestAPI_ProfileOwnershipIsEnforced(t *testing.T) {
	a := newTestAPI(t)
	owner := a.login("owner")
	other := a.login("other")
	profileID := a.createProfile(owner, "Kids")

	var e httpjson.ErrorBody
	if status := a.do(http.MethodPut, "/api/v1/profiles/"+profileID+"/favorites/movie/10", other, nil, &e); status != http.StatusForbidden || e.Error != "profile_not_owned" {
		t.Fatalf("foreign favorite: status %d %+v", status, e)
	}
	if status := a.do(http.MethodDelete, "/api/v1/profiles/"+profileID, other, nil, nil); status != http.StatusForbidden {
		t.Fatalf("foreign delete: status %d", status)
	}
	var list []app.ProfileDTO
	a.do(http.MethodGet, "/api/v1/profiles", other, nil, &list)
	if len(list) != 0 {
		t.Fatalf("other session should not see foreign profiles: %+v", list)
	}
}

func TestAPI_HomeAfterRebuild(t *testing.T) {
	a := newTestAPI(t)
	token := a.login("u")

	var home app.HomeDTO
	if status := a.do(http.MethodGet, "/api/v1/home", token, nil, &home); status != http.StatusOK {
		t.Fatalf("home before rebuild: status %d", status)
	}
	if len(home.Top)+len(home.Movies)+len(home.Series) != 0 {
		t.Fatalf("home should start empty: %+v", home)
	}

	report, err := a.home.RebuildAll(context.Background())
	if err != nil || report.Rebuilt != 1 {
		t.Fatalf("RebuildAll: %+v %v", report, err)
	}
	a.do(http.MethodGet, "/api/v1/home", token, nil, &home)
	if len(home.Top) != 2 || home.Top[0].ValueID != "20" || home.Top[1].ValueID != "10" {
		t.Fatalf("top: %+v", home.Top)
	}
	if len(home.Movies) != 1 || len(home.Series) != 1 {
		t.Fatalf("recent: %+v", home)
	}
}

func TestAPI_LogoffDropsSession(t *testing.T) {
	a := newTestAPI(t)
	token := a.login("u")
	if status := a.do(http.MethodPost, "/api/v1/logoff", token, nil, nil); status != http.StatusNoContent {
		t.Fatalf("logoff: status %d", status)
	}
	if status := a.do(http.MethodGet, "/api/v1/home", token, nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("token should be revoked, status %d", status)
	}
}

func TestAPI_EventsAreScopedToSession(t *testing.T) {
	a := newTestAPI(t)
	token := a.login("u")
	otherToken := a.login("other")
	profileID := a.createProfile(token, "A")
	otherProfile := a.createProfile(otherToken, "B")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, a.api.URL+"/api/v1/events?token="+token, nil)
	res, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events: status %d", res.StatusCode)
	}

	lines := bufio.NewScanner(res.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "event: ") {
				return strings.TrimPrefix(l, "event: ")
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}
	if got := next(); got != "hello" {
		t.Fatalf("first event = %q, want hello", got)
	}

	// L'événement de l'autre session ne doit pas arriver sur ce flux.
	a.do(http.MethodPut, "/api/v1/profiles/"+otherProfile+"/favorites/movie/10", otherToken, nil, nil)
	a.do(http.MethodPut, "/api/v1/profiles/"+profileID+"/favorites/live/7", token, nil, nil)

	if got := next(); got != app.TopicFavoriteAdded {
		t.Fatalf("event = %q, want %s", got, app.TopicFavoriteAdded)
	}
	var payload app.EventPayload
	lines.Scan()
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines.Text(), "data: ")), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ProfileID != profileID || payload.ValueID != "7" {
		t.Fatalf("payload: %+v", payload)
	}

	var e httpjson.ErrorBody
	if status := a.do(http.MethodGet, "/api/v1/events", "", nil, &e); status != http.StatusUnauthorized {
		t.Fatalf("events without token: status %d", status)
	}
}

func TestAPI_ShutdownEndsEventStreams(t *testing.T) {
	a := newTestAPI(t)
	token := a.login("u")
	a.api.Config.RegisterOnShutdown(a.bus.Close)

	req, _ := http.NewRequest(http.MethodGet, a.api.URL+"/api/v1/events?token="+token, nil)
	res, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer res.Body.Close()
	lines := bufio.NewScanner(res.Body)
	if !lines.Scan() || !strings.HasPrefix(lines.Text(), "event: hello") {
		t.Fatalf("expected hello, got %q", lines.Text())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.api.Config.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown should not wait on open streams: %v", err)
	}
	for lines.Scan() {
	}
	if err := lines.Err(); err != nil {
		t.Fatalf("stream should end cleanly: %v", err)
	}
}

func TestAPI_HealthVersionAndOpenAPI(t *testing.T) {
	a := newTestAPI(t)

	var health map[string]any
	if status := a.do(http.MethodGet, "/api/v1/health", "", nil, &health); status != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("health: status %d %+v", status, health)
	}
	var doc map[string]any
	if status := a.do(http.MethodGet, "/api/v1/openapi.json", "", nil, &doc); status != http.StatusOK {
		t.Fatalf("openapi: status %d", status)
	}
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range []string{"/api/v1/login", "/api/v1/home", "/api/v1/profiles/{profileID}/progress/{kind}/{id}"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("openapi: missing path %s", p)
		}
	}
	if status := a.do(http.MethodGet, "/api/v1/version", "", nil, nil); status != http.StatusOK {
		t.Fatalf("version: status %d", status)
	}
}
