package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"LedgerSync/api"
	"LedgerSync/internal/appmanager"
	"LedgerSync/internal/config"
	"LedgerSync/internal/dashboard"
	"LedgerSync/internal/ledger"
	"LedgerSync/internal/logger"
	"LedgerSync/internal/notification"
	"LedgerSync/internal/remote"
	"LedgerSync/internal/store"
	"LedgerSync/internal/syncer"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("invalid configuration", zap.Error(err))
	}

	manager := appmanager.NewAppManager()

	servicesCfg, err := appmanager.LoadServiceSequence(cfg.ServicesFile)
	if err != nil {
		logger.L().Fatal("failed to load service sequence", zap.Error(err))
	}
	if err := manager.StartLogger(servicesCfg); err != nil {
		logger.L().Fatal("failed to start logger", zap.Error(err))
	}
	log := logger.L()

	names, err := ledger.LoadNames(cfg.AccountNamesFile)
	if err != nil {
		log.Fatal("failed to load account names", zap.Error(err))
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer st.Close()

	if !cfg.RemoteConfigured() {
		log.Warn("remote API URLs are not set; syncs will fail until configured")
	}
	client := remote.NewClient(remote.Config{
		TokenURL:    cfg.TokenURL,
		DataURL:     cfg.DataURL,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Timeout:     cfg.APITimeout,
		InsecureTLS: cfg.InsecureTLS,
	}, remote.WithLogger(log.Named("remote")))

	feed := notification.NewNotificationService(100)
	sync := syncer.New(client, st,
		syncer.WithFeed(feed),
		syncer.WithLogger(log.Named("sync")),
		syncer.WithSource(client.Source()),
	)

	manager.SetDeps(appmanager.Deps{
		Config:  cfg,
		Store:   st,
		Syncer:  sync,
		Builder: ledger.NewBuilder(names),
		Events:  dashboard.NewSSEServer(feed, log.Named("events")),
	})
	if err := manager.AutoRegisterServices(servicesCfg); err != nil {
		log.Fatal("failed to register services", zap.Error(err))
	}
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	log.Info("ledger sync service started",
		zap.String("port", cfg.Port),
		zap.String("driver", cfg.DBDriver),
		zap.String("schedule", cfg.SyncSchedule))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	var serveErr <-chan error
	if gw, ok := manager.GetServiceByName("gateway").(*api.GatewayService); ok {
		serveErr = gw.Err()
	}
	select {
	case <-sig:
	case err := <-serveErr:
		log.Error("gateway failed", zap.Error(err))
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
	defer cancel()
	if err := manager.StopAll(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", zap.Error(err))
	}
}
