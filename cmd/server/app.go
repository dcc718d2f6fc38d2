package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"moodcircle/internal/config"
	"moodcircle/internal/insights"
	mw "moodcircle/internal/middleware"
	"moodcircle/internal/server"
	"moodcircle/internal/services"
	"moodcircle/internal/store"
	"moodcircle/internal/store/boltstore"
	"moodcircle/internal/store/memstore"
	"moodcircle/internal/store/sqlstore"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.DatabaseURL)
	case config.DriverBolt:
		return boltstore.Open(cfg.BoltPath)
	default:
		return memstore.New(), nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
		return err
	}
	defer st.Close()
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
	}

	var enc *services.EncryptionService
	key, err := cfg.Key()
	if err != nil {
		return err
	}
	if key != nil {
		if enc, err = services.NewEncryptionService(key); err != nil {
			return err
		}
	} else {
		logger.Warn("ENCRYPTION_KEY not set; journal content is stored unencrypted")
	}

	gateway, err := insights.New(insights.Config{
		Provider:           cfg.AIProvider,
		Timeout:            cfg.AITimeout,
		OpenAIAPIKey:       cfg.OpenAIAPIKey,
		OpenAIModel:        cfg.OpenAIModel,
		OpenAIBaseURL:      cfg.OpenAIBaseURL,
		HuggingFaceAPIKey:  cfg.HuggingFaceAPIKey,
		HuggingFaceBaseURL: cfg.HuggingFaceBaseURL,
	}, logger)
	if err != nil {
		return err
	}

	users := services.NewUserService(st, logger)
	router := server.NewRouter(server.Deps{
		Store:          st,
		Users:          users,
		Journals:       services.NewJournalService(st, enc, logger),
		Circles:        services.NewCircleService(st, logger),
		Gateway:        gateway,
		Auth:           mw.NewAuthMiddleware([]byte(cfg.JWTSecret), users),
		Logger:         logger,
		SessionTTL:     cfg.SessionTTL,
		CookieSecure:   cfg.CookieSecure,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	logger.Info("configuration loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("store", cfg.StoreDriver),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Bool("encryption", enc != nil),
	)
	return server.New(":"+cfg.Port, router, logger).Run(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.StoreDriver != config.DriverPostgres && cfg.StoreDriver != config.DriverSQLite {
		logger.Info("store driver has no schema; nothing to migrate", zap.String("driver", cfg.StoreDriver))
		return nil
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("migrations applied", zap.String("driver", cfg.StoreDriver))
	return nil
}
