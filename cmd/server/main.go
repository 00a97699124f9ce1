package main

import (
	"log/slog"
	"os"
	"strings"

	"anoa.com/civicreport/internal/bootstrap"
	"anoa.com/civicreport/internal/config"
	"anoa.com/civicreport/internal/server"
	"anoa.com/civicreport/pkg/database"
	"anoa.com/civicreport/pkg/password"
	"anoa.com/civicreport/pkg/storage"

	searchService "anoa.com/civicreport/internal/modules/search/service"

	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(database.Options{
		DatabaseURL: cfg.DatabaseURL,
		Host:        cfg.DBHost,
		User:        cfg.DBUser,
		Password:    cfg.DBPass,
		Name:        cfg.DBName,
		Port:        cfg.DBPort,
		SSLMode:     cfg.DBSSLMode,
		Debug:       !cfg.IsProduction(),
	})
	if err != nil {
		fatal("failed to connect database", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		fatal("migration failed", err)
	}
	if err := bootstrap.SeedAdminUser(db, cfg, password.NewBcryptHasher(cfg.BcryptCost)); err != nil {
		fatal("failed to seed admin user", err)
	}

	imageStorage, err := storage.NewCloudinaryStorage(storage.CloudinaryConfig{
		URL:          cfg.CloudinaryURL,
		CloudName:    cfg.CloudinaryCloudName,
		APIKey:       cfg.CloudinaryAPIKey,
		APISecret:    cfg.CloudinaryAPISecret,
		UploadPrefix: cfg.CloudinaryUploadPrefix,
	})
	if err != nil {
		fatal("failed to initialize cloudinary storage", err)
	}

	deps := server.Dependencies{
		DB:     db,
		Redis:  connectRedis(cfg.RedisURL),
		Images: imageStorage,
		Search: connectSearch(cfg.MeiliSearchHost, cfg.MeiliMasterKey),
	}

	srv, err := server.NewServer(cfg, deps)
	if err != nil {
		fatal("failed to build server", err)
	}

	if err := srv.Run(":" + cfg.Port); err != nil {
		fatal("server exited with error", err)
	}
}

func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

// connectRedis returns nil when Redis is not configured. Rate limiting and
// live notifications are then disabled.
func connectRedis(url string) *redis.Client {
	if url == "" {
		slog.Warn("REDIS_URL is not set, rate limiting and live notifications are disabled")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("invalid REDIS_URL, continuing without redis", "error", err)
		return nil
	}
	return redis.NewClient(opt)
}

// connectSearch returns nil when no Meilisearch host is configured and
// report search falls back to the database.
func connectSearch(host, masterKey string) searchService.MeiliSearchService {
	if host == "" {
		slog.Warn("MEILISEARCH_HOST is not set, search falls back to title matching")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	if masterKey == "" {
		slog.Warn("MEILI_MASTER_KEY is not set")
	}

	client := meilisearch.New(host, meilisearch.WithAPIKey(masterKey))
	return searchService.NewMeiliSearchService(client)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
