package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the fully resolved configuration for one process. It is built
// once at startup and passed into each component's constructor; nothing in
// the pipeline reads environment variables after Load returns.
type Config struct {
	Spotify   SpotifyConfig
	Database  DatabaseConfig
	Pipeline  PipelineConfig
	Scheduler SchedulerConfig
}

// SpotifyConfig configures the Spotify API client.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	// APIURL and TokenURL default to the public Spotify endpoints and are
	// overridable so tests can point the client at a local server.
	APIURL   string
	TokenURL string

	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimitWait  time.Duration

	// RequestsPerSecond paces page and batch requests so a long extraction
	// does not trip the rate limiter preemptively.
	RequestsPerSecond float64
}

// DatabaseConfig configures the Postgres connection pool and loader.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	// BatchThreshold is the row count above which artist loads switch to
	// chunked multi-row inserts. ChunkSize is the rows per chunk.
	BatchThreshold int
	ChunkSize      int
}

// PipelineConfig holds run defaults for the orchestrator.
type PipelineConfig struct {
	DefaultLimit       int
	DefaultHoursBack   int
	PlaylistNameFilter string
}

// SchedulerConfig controls the cadence of scheduled runs in server mode.
type SchedulerConfig struct {
	FullInterval        time.Duration
	IncrementalInterval time.Duration
}

// ConnString builds a pgx connection string.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// Load reads configuration from the environment, loading a .env file first
// when one exists. Spotify credentials are required, everything else has a
// working default.
func Load() (*Config, error) {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load()

	cfg := &Config{
		Spotify: SpotifyConfig{
			ClientID:          os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret:      os.Getenv("SPOTIFY_CLIENT_SECRET"),
			RefreshToken:      os.Getenv("SPOTIFY_REFRESH_TOKEN"),
			APIURL:            getEnv("SPOTIFY_API_URL", "https://api.spotify.com/v1"),
			TokenURL:          getEnv("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
			MaxRetries:        getEnvInt("SPOTIFY_MAX_RETRIES", 3),
			RetryBaseDelay:    getEnvDuration("SPOTIFY_RETRY_BASE_DELAY", 2*time.Second),
			RateLimitWait:     getEnvDuration("SPOTIFY_RATE_LIMIT_WAIT", 60*time.Second),
			RequestsPerSecond: getEnvFloat("SPOTIFY_REQUESTS_PER_SECOND", 5),
		},
		Database: DatabaseConfig{
			Host:           getEnv("POSTGRES_HOST", "localhost"),
			Port:           getEnv("POSTGRES_PORT", "5432"),
			User:           getEnv("POSTGRES_USER", "postgres"),
			Password:       os.Getenv("POSTGRES_PASSWORD"),
			Name:           getEnv("POSTGRES_DB", "spotify_data"),
			BatchThreshold: getEnvInt("DB_BATCH_THRESHOLD", 1000),
			ChunkSize:      getEnvInt("DB_CHUNK_SIZE", 1000),
		},
		Pipeline: PipelineConfig{
			DefaultLimit:       getEnvInt("PIPELINE_TRACK_LIMIT", 50),
			DefaultHoursBack:   getEnvInt("PIPELINE_HOURS_BACK", 1),
			PlaylistNameFilter: os.Getenv("PIPELINE_PLAYLIST_FILTER"),
		},
		Scheduler: SchedulerConfig{
			FullInterval:        getEnvDuration("SCHEDULER_FULL_INTERVAL", 24*time.Hour),
			IncrementalInterval: getEnvDuration("SCHEDULER_INCREMENTAL_INTERVAL", time.Hour),
		},
	}

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" {
		return nil, fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
