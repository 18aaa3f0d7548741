package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"spotifyetl.com/m/internal/config"
)

const (
	maxPageSize         = 50
	playlistTracksLimit = 100
	batchSize           = 50
)

// Client talks to the Spotify Web API. All requests go through a shared
// rate limiter and the retry policy, and carry the current bearer token.
// The token is the only mutable state; a refresh replaces it in place.
type Client struct {
	cfg   config.SpotifyConfig
	http  *http.Client
	retry RetryPolicy

	limiter *rate.Limiter

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewClient builds a client from explicit configuration. The first request
// triggers a token refresh since no access token is held yet.
func NewClient(cfg config.SpotifyConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		retry:        newRetryPolicy(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RateLimitWait),
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		refreshToken: cfg.RefreshToken,
	}
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) setToken(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	if refresh != "" {
		c.refreshToken = refresh
	}
}

// Refresh exchanges the held refresh token for a new access token. Spotify
// occasionally rotates the refresh token; when it does, the new one replaces
// the old in place.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	if refresh == "" {
		return fmt.Errorf("spotify: no refresh token held")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token endpoint returned an empty access token")
	}

	c.setToken(token.AccessToken, token.RefreshToken)
	logger.Info("Refreshed access token", zap.Int("expires_in", token.ExpiresIn))
	return nil
}

// get performs one GET with retry, token refresh, and rate-limit handling.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	return c.retry.Do(ctx, c.Refresh, func() error {
		return c.getOnce(ctx, rawURL, out)
	})
}

func (c *Client) getOnce(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Code: resp.StatusCode, URL: rawURL}
		if resp.StatusCode == http.StatusTooManyRequests {
			if header := resp.Header.Get("Retry-After"); header != "" {
				if seconds, err := strconv.Atoi(header); err == nil {
					se.RetryAfter = time.Duration(seconds) * time.Second
				}
			}
		}
		logger.Warn("Error response from Spotify server",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("url", rawURL))
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nil
}

// CurrentUser fetches the authenticated user's profile. Used as the
// authentication check before a run.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, c.cfg.APIURL+"/me", &user); err != nil {
		return nil, err
	}
	logger.Info("Authenticated with Spotify",
		zap.String("user", user.DisplayName),
		zap.String("country", user.Country),
		zap.String("product", user.Product))
	return &user, nil
}
