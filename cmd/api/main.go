package main

import (
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"kaleidoscope/internal/adapters"
	"kaleidoscope/internal/adapters/httpapi"
	"kaleidoscope/internal/adapters/imgbb"
	"kaleidoscope/internal/adapters/soundcloud"
	"kaleidoscope/internal/adapters/spotify"
	"kaleidoscope/internal/adapters/store"
	"kaleidoscope/internal/adapters/youtube"
	"kaleidoscope/internal/app"
	"kaleidoscope/internal/auth"
	"kaleidoscope/internal/config"
	"kaleidoscope/internal/logger"

	_ "kaleidoscope/docs"
)

// @title			Kaleidoscope API
// @version		0.1.0
// @description	Music aggregation backend: unified search, track details, and
// @description	stream resolution across the Spotify, SoundCloud, and YouTube catalogs,
// @description	with account and profile management.

// @license.name	MIT

// @host		localhost:8080
// @BasePath	/

// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Access token issued by /auth/login (e.g. "Bearer your_token_here")
func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Persistence
	db, err := store.OpenMySQL(cfg.MySQLDSN)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	rdb, err := store.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		zlog.Fatal("failed to open redis", zap.Error(err))
	}

	// Catalog adapters
	spotifyProvider := spotify.NewProvider(cfg.SpotifyClientID, cfg.SpotifyClientSecret, zlog)
	soundcloudProvider := soundcloud.NewProvider(cfg.SoundCloudClientID, zlog)
	youtubeProvider := youtube.NewProvider(cfg.YouTubeAPIKey, youtube.NewYTDLP(cfg.YTDLPPath), zlog)

	registry := adapters.NewCatalogRegistry()
	registry.Register(spotifyProvider)
	registry.Register(soundcloudProvider)
	registry.Register(youtubeProvider)

	// Application services
	resolver := app.NewResolver(soundcloudProvider, youtubeProvider, zlog)
	catalogService := app.NewCatalogService(registry, resolver, zlog)

	tokens := auth.NewManager(cfg.JWTSecret)
	users := store.NewUserStore(db)
	profiles := store.NewProfileStore(db)
	sessions := store.NewSessionStore(rdb)
	authService := app.NewAuthService(users, profiles, sessions, tokens, zlog)
	profileService := app.NewProfileService(profiles, imgbb.NewClient(cfg.ImgBBAPIKey, zlog), zlog)

	// HTTP server
	r := gin.Default()
	r.Use(httpapi.SecurityHeaders())
	r.Use(httpapi.RateLimit(cfg.RequestsPerMinute, zlog))

	h := httpapi.NewHandler(catalogService, authService, profileService, tokens)
	h.RegisterRoutes(r)

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	addr := ":" + cfg.Port
	zlog.Info("starting kaleidoscope API",
		zap.String("addr", addr),
		zap.Strings("catalogs", registry.Available()))

	if err := r.Run(addr); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}
