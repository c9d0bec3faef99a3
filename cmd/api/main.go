package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"huebook/api/internal/app"
	"huebook/api/internal/config"
	"huebook/api/internal/docstore"
	"huebook/api/internal/export"
	"huebook/api/internal/identity"
	"huebook/api/internal/search"
	"huebook/api/internal/session"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	var store docstore.Store
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := docstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()

		pg := docstore.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema setup failed", zap.Error(err))
		}
		store = pg
		logger.Info("using postgres document store")
	} else {
		store = docstore.NewMemory()
		logger.Warn("DATABASE_URL not set, using in-memory document store")
	}

	var sessions identity.SessionStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		defer redisStore.Close()
		sessions = redisStore
		logger.Info("device session persistence enabled")
	}

	provider := identity.NewLocal(store, sessions, cfg.DeviceID, logger)
	provider.Restore(ctx)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, logger)

	var share export.ShareTarget
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		target, err := export.NewMinioTarget(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.ShareLinkTTL)
		if err != nil {
			logger.Fatal("object store connection failed", zap.Error(err))
		}
		share = target
		logger.Info("export sharing enabled", zap.String("bucket", cfg.MinioBucket))
	}

	service := app.New(store, provider, searchService, share, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	authenticated, err := service.InitializeSession(initCtx)
	cancel()
	if err != nil {
		logger.Warn("session init timed out, continuing unauthenticated", zap.Error(err))
	} else {
		logger.Info("session initialized", zap.Bool("authenticated", authenticated))
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("huebook api listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
