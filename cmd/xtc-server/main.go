package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"
	"golang.org/x/time/rate"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/adapters/xtream"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/app"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/buildinfo"
	"github.com/Guilhem-Bonnet/xtream-companion/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Fichier YAML (défaut: $XTC_CONFIG ou xtc.yaml)")
	addr := flag.String("addr", "", "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", "", "Chemin SQLite (ex: xtc.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	// Les flags gagnent sur le fichier et l'environnement.
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := newLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", cfg.Database.Path).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	defer bus.Close()

	upstreamOpts := xtream.Options{
		Timeout:            cfg.Upstream.Timeout,
		UserAgent:          cfg.Upstream.UserAgent,
		InsecureSkipVerify: cfg.Upstream.InsecureSkipVerify,
		MaxPerHost:         cfg.Upstream.MaxPerHost,
		BreakerTripAfter:   uint32(cfg.Upstream.BreakerTripAfter),
		BreakerOpenTimeout: cfg.Upstream.BreakerOpenTimeout,
	}
	client := xtream.NewClient(xtream.NewHTTPClient(upstreamOpts), logger.With().Str("component", "xtream").Logger(), upstreamOpts)
	catalog := xtream.NewCatalog(client)

	sessionsRepo := sqlite.NewSessionsRepository(db.SQL)
	profilesRepo := sqlite.NewProfilesRepository(db.SQL)
	favoritesRepo := sqlite.NewFavoritesRepository(db.SQL)
	progressRepo := sqlite.NewProgressRepository(db.SQL)
	homeRepo := sqlite.NewHomeRepository(db.SQL)

	guard := app.NewGuard(sessionsRepo, profilesRepo)
	progressSvc := app.NewProgressService(logger.With().Str("component", "progress").Logger(), guard, catalog, progressRepo, bus)
	svc := httpapi.Services{
		Guard:     guard,
		Sessions:  app.NewSessionService(logger.With().Str("component", "sessions").Logger(), guard, sessionsRepo, catalog, bus),
		Profiles:  app.NewProfileService(guard, profilesRepo),
		Catalog:   app.NewCatalogService(guard, catalog),
		Favorites: app.NewFavoriteService(guard, catalog, favoritesRepo, bus),
		Progress:  progressSvc,
		Home:      app.NewHomeService(guard, homeRepo),
	}

	aggregator := app.NewHomeAggregator(logger.With().Str("component", "home").Logger(), sessionsRepo, catalog, homeRepo, bus)
	if cfg.Schedule.HomeWindow > 0 {
		aggregator.Window = cfg.Schedule.HomeWindow
	}
	if cfg.Schedule.AccountsPerSecond > 0 {
		aggregator.Pacer = rate.NewLimiter(rate.Limit(cfg.Schedule.AccountsPerSecond), 1)
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tâches de fond supervisées: redémarrées si elles paniquent ou sortent en erreur.
	supervisor := suture.New("xtc-server", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.Warn().Str("event", e.String()).Msg("supervisor event")
		},
		Timeout: cfg.Server.ShutdownTimeout,
	})
	supervisor.Add(app.NewHomeBootstrapper(logger.With().Str("component", "home-bootstrap").Logger(), bus, aggregator))
	if cfg.Schedule.Enabled {
		scheduler := app.NewHomeScheduler(logger.With().Str("component", "scheduler").Logger(), aggregator, progressSvc)
		scheduler.Interval = cfg.Schedule.HomeInterval
		scheduler.Retention = cfg.Schedule.ProgressRetention
		supervisor.Add(scheduler)
	}
	supervisorDone := supervisor.ServeBackground(shutdownCtx)

	srv := httpapi.NewServer(logger, svc, bus, httpapi.Options{
		RequestTimeout:    cfg.Server.RequestTimeout,
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		Ping:              db.Ping,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	// Shutdown attend les handlers: les flux SSE doivent se terminer d'abord.
	httpServer.RegisterOnShutdown(bus.Close)

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	if err := <-supervisorDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("supervisor stopped with error")
	}
	logger.Info().Msg("bye")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.With().Timestamp().Str("app", "xtc-server").Logger()
}
