package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

// Services regroupe les services applicatifs exposés par l'API.
// Un service nil désactive ses routes.
type Services struct {
	Guard     *app.Guard
	Sessions  *app.SessionService
	Profiles  *app.ProfileService
	Catalog   *app.CatalogService
	Favorites *app.FavoriteService
	Progress  *app.ProgressService
	Home      *app.HomeService
}

type Options struct {
	RequestTimeout    time.Duration
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// Ping est optionnel (health check de la base).
	Ping func(ctx context.Context) error
}

type Server struct {
	logger zerolog.Logger
	svc    Services
	bus    ports.EventBus
	opts   Options
}

func NewServer(logger zerolog.Logger, svc Services, bus ports.EventBus, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	return &Server{logger: logger, svc: svc, bus: bus, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))
	r.Use(countRequests)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"Request-Id"},
			MaxAge:         300,
		}))
	}
	if s.opts.RateLimitRequests > 0 && s.opts.RateLimitWindow > 0 {
		r.Use(httprate.LimitByIP(s.opts.RateLimitRequests, s.opts.RateLimitWindow))
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		// SSE: pas de timeout global sur ce flux.
		if s.svc.Guard != nil {
			r.Get("/events", s.handleEvents)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))

			if s.svc.Sessions != nil {
				NewSessionsHandler(s.svc.Sessions).Routes(r)
			}
			if s.svc.Catalog != nil {
				NewCatalogHandler(s.svc.Catalog).Routes(r)
			}
			if s.svc.Profiles != nil {
				NewProfilesHandler(s.svc.Profiles, s.svc.Favorites, s.svc.Progress).Routes(r)
			}
			if s.svc.Home != nil {
				NewHomeHandler(s.svc.Home).Routes(r)
			}
		})
	})

	return r
}
