package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port     string
	LogLevel string

	// Upstream catalogs
	SpotifyClientID     string
	SpotifyClientSecret string
	SoundCloudClientID  string
	YouTubeAPIKey       string
	YTDLPPath           string

	// Persistence
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret string

	// Avatar image host
	ImgBBAPIKey string

	// Requests per minute per client IP on the public surface.
	RequestsPerMinute int
}

// Load reads configuration from .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SoundCloudClientID:  getEnv("SOUNDCLOUD_CLIENT_ID", ""),
		YouTubeAPIKey:       getEnv("YOUTUBE_API_KEY", ""),
		YTDLPPath:           getEnv("YTDLP_PATH", "yt-dlp"),

		MySQLDSN:      getEnv("MYSQL_DSN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", ""),

		ImgBBAPIKey: getEnv("IMGBB_API_KEY", ""),

		RequestsPerMinute: getEnvInt("REQUESTS_PER_MINUTE", 100),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
