// Command pvserver runs the point-value time-series store's HTTP API: it
// wires the configured backend, catalog, state groups, and session
// authenticator into a store.Store and serves the RPC surface over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/backend"
	"github.com/pvcore/pointstore/internal/backend/memstore"
	"github.com/pvcore/pointstore/internal/backend/pgstore"
	"github.com/pvcore/pointstore/internal/binding"
	"github.com/pvcore/pointstore/internal/config"
	"github.com/pvcore/pointstore/internal/cursor"
	"github.com/pvcore/pointstore/internal/httpapi"
	"github.com/pvcore/pointstore/internal/session"
	"github.com/pvcore/pointstore/internal/stategroup"
	"github.com/pvcore/pointstore/internal/store"
	"github.com/pvcore/pointstore/internal/updater"
)

func openBackend(ctx context.Context, cfg *config.Config) backend.Store {
	switch cfg.BackendClass {
	case "", "memstore":
		return memstore.New(cfg.BackendLimit)
	case "pgstore":
		if cfg.DatabaseURL == "" {
			log.Fatal().Msg("DATABASE_URL is required when BACKEND_CLASS=pgstore")
		}
		pool, err := pgstore.Open(ctx, cfg.DatabaseURL, cfg.SQLCreate)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open pgstore connection pool")
		}
		return pgstore.New(pool, cfg.BackendLimit)
	default:
		log.Fatal().Str("backend_class", cfg.BackendClass).Msg("unknown BACKEND_CLASS")
		return nil
	}
}

func loadResolver(cfg *config.Config) *stategroup.Resolver {
	if cfg.StateGroupsFile == "" {
		return stategroup.NewResolver(nil)
	}
	defs, err := config.LoadStateGroups(cfg.StateGroupsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StateGroupsFile).Msg("failed to load state groups")
	}
	groups := make([]*stategroup.Group, len(defs))
	for i, d := range defs {
		groups[i] = stategroup.NewGroup(d.Name, d.ToValueStates())
	}
	return stategroup.NewResolver(groups)
}

func loadCatalog(cfg *config.Config) *store.Catalog {
	if cfg.PointsFile == "" {
		return store.NewCatalog()
	}
	points, err := config.LoadPoints(cfg.PointsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PointsFile).Msg("failed to load point metadata")
	}
	cat, err := store.LoadCatalog(points)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build catalog from point metadata")
	}
	return cat
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "pvserver").Logger()

	cfg := config.Load()

	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backendStore := openBackend(ctx, cfg)
	bindings := binding.New()
	states := loadResolver(cfg)
	catalog := loadCatalog(cfg)

	st := store.New(backendStore, bindings, states, catalog, nil, nil, nil, nil, store.Config{
		Cursor: cursor.Config{
			ResponseLimit: cfg.ResponseLimit,
			BackendLimit:  cfg.BackendLimit,
		},
		Updater: updater.Config{
			DefaultNullRemoves: cfg.NullRemoves,
			DropDeleted:        cfg.DropDeleted,
		},
		SubscriptionQueueCapacity: cfg.SubscriptionQueueCapacity,
		ArchiveSweepInterval:      cfg.ArchiveSweepInterval,
	})

	auth := session.NewAuthenticator(session.JWTConfig{
		HS256Secret: cfg.JWTHS256Secret,
		Issuer:      cfg.JWTIssuer,
		JWKSURL:     cfg.JWTJWKSURL,
		Audience:    cfg.JWTAudience,
	})

	go func() {
		if err := st.RunArchiver(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("archiver stopped")
		}
	}()

	srv := &httpapi.Server{Store: st, Auth: auth, RateLimit: httpapi.DefaultRateLimit}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("backend", cfg.BackendClass).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store shutdown error")
	}

	log.Info().Msg("server stopped")
}
