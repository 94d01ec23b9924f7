package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/api/client"
	httptransport "github.com/clickfood/webapp/internal/api/http"
	"github.com/clickfood/webapp/internal/api/http/handlers"
	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/config"
	"github.com/clickfood/webapp/internal/events"
	"github.com/clickfood/webapp/internal/launch"
	"github.com/clickfood/webapp/internal/observability"
	"github.com/clickfood/webapp/internal/persistence"
	"github.com/clickfood/webapp/internal/service"
	"github.com/clickfood/webapp/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := persistence.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open token storage", zap.Error(err))
	}
	defer storage.Close()

	tabID := uuid.NewString()
	logger = logger.With(zap.String("tab_id", tabID))

	bus := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	store := auth.NewTokenStore(storage.Repo, bus, auth.StoreConfig{
		Key:   cfg.Storage.TokenKey,
		TabID: tabID,
		Feed:  storage.Feed,
	}, logger)
	navigator := httptransport.NewShellNavigator(bus, logger)
	session := auth.NewSession(ctx, store, bus, logger, auth.WithNavigator(navigator))
	defer session.Close()

	api := client.New(cfg.API, store, navigator, logger)
	profiles := service.NewProfileService(api, service.DefaultProfileStaleTime, logger)
	api.OnReset(session.Refetch)
	api.OnReset(profiles.Invalidate)

	bus.Subscribe(events.EventHardReset, func(ctx context.Context, e events.Event) error {
		payload, _ := e.Payload.(events.HardResetPayload)
		logger.Info("shell state reset", zap.String("target", payload.Target))
		session.Refetch(ctx)
		return nil
	})

	bootstrap := service.NewBootstrapService(cfg.Launch, service.BootstrapDependencies{
		Store:     store,
		Session:   session,
		Launch:    launch.NewEnvProvider(cfg.Launch),
		Exchanger: api,
		Metrics:   metrics,
	}, logger)
	go bootstrap.Run(ctx)

	syncWorker := worker.NewStorageSyncWorker(storage.Feed, bus, store.Key(), tabID, logger)
	go syncWorker.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, storage.Driver, storage.Repo, metrics),
		Session:     handlers.NewSessionHandler(bootstrap, navigator, logger),
		Pages:       handlers.NewPagesHandler(),
		Navigation:  handlers.NewNavigationHandler(),
		Profile:     handlers.NewProfileHandler(profiles),
		AuthSession: session,
		Guard:       auth.NewGuard(metrics),
		Navigator:   navigator,
	})

	go func() {
		logger.Info("shell listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", storage.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
