package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/cache"
	"github.com/oggyb/model-agency/internal/config"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/filestore"
	"github.com/oggyb/model-agency/internal/logger"
	"github.com/oggyb/model-agency/internal/server"
	"github.com/oggyb/model-agency/internal/service/account"
	"github.com/oggyb/model-agency/internal/service/catalog"
	"github.com/oggyb/model-agency/internal/service/dashboard"
	"github.com/oggyb/model-agency/internal/service/moderation"
	"github.com/oggyb/model-agency/internal/service/settings"
	"github.com/oggyb/model-agency/internal/service/upload"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	files, err := filestore.NewLocal(cfg)
	if err != nil {
		log.Error("failed to init upload dir", "err", err)
		os.Exit(1)
	}

	appCtx := app.New(cfg, database, redisCache, files, log)

	if cfg.IsDevelopment() {
		if err := db.SeedTestData(database, db.DefaultSeedOptions()); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	gate := auth.NewGate(appCtx)
	engine := moderation.NewEngine(appCtx)
	catalogSvc := catalog.NewService(appCtx)

	registrars := []server.Registrar{
		account.NewRegistrar(appCtx, account.NewService(appCtx, gate)),
		catalog.NewRegistrar(appCtx, catalogSvc, engine),
		moderation.NewRegistrar(appCtx, engine),
		upload.NewRegistrar(appCtx, upload.NewPipeline(appCtx, engine)),
		dashboard.NewRegistrar(appCtx, dashboard.NewService(appCtx, engine)),
		settings.NewRegistrar(appCtx, settings.NewService(appCtx, engine)),
	}

	httpSrv := server.NewHTTPServer(appCtx, server.NewRouter(appCtx, gate, registrars...))
	grpcSrv := server.NewGRPCServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", httpSrv.Addr())
		return httpSrv.Start()
	})
	g.Go(func() error {
		log.Info("starting gRPC health server", "addr", grpcSrv.Addr())
		grpcSrv.SetServing(true)
		return grpcSrv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		grpcSrv.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
