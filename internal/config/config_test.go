package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SPOTIFY_CLIENT_ID")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.spotify.com/v1", cfg.Spotify.APIURL)
	require.Equal(t, 3, cfg.Spotify.MaxRetries)
	require.Equal(t, 60*time.Second, cfg.Spotify.RateLimitWait)
	require.Equal(t, "localhost", cfg.Database.Host)
	require.Equal(t, "spotify_data", cfg.Database.Name)
	require.Equal(t, 1000, cfg.Database.BatchThreshold)
	require.Equal(t, 50, cfg.Pipeline.DefaultLimit)
	require.Equal(t, 1, cfg.Pipeline.DefaultHoursBack)
	require.Equal(t, 24*time.Hour, cfg.Scheduler.FullInterval)
	require.Equal(t, time.Hour, cfg.Scheduler.IncrementalInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_MAX_RETRIES", "5")
	t.Setenv("SPOTIFY_RETRY_BASE_DELAY", "500ms")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("DB_BATCH_THRESHOLD", "250")
	t.Setenv("PIPELINE_PLAYLIST_FILTER", "running")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 5, cfg.Spotify.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Spotify.RetryBaseDelay)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, 250, cfg.Database.BatchThreshold)
	require.Equal(t, "running", cfg.Pipeline.PlaylistNameFilter)
}

func TestConnString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "etl",
		Password: "pw",
		Name:     "spotify_data",
	}
	require.Equal(t, "postgres://etl:pw@localhost:5432/spotify_data", cfg.ConnString())
}
