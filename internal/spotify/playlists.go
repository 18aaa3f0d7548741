package spotify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PlaylistTrackItem is a playlist track together with the playlist it came
// from, so downstream rows can carry playlist id/name/owner.
type PlaylistTrackItem struct {
	SavedTrackItem
	Playlist Playlist
}

// Playlists pages through the user's playlist listing. nameFilter, when
// non-empty, keeps only playlists whose name contains it (case-insensitive).
func (c *Client) Playlists(ctx context.Context, nameFilter string) ([]Playlist, error) {
	var playlists []Playlist

	for offset := 0; ; {
		u := fmt.Sprintf("%s/me/playlists?limit=%d&offset=%d", c.cfg.APIURL, maxPageSize, offset)
		var page PlaylistsResponse
		if err := c.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching playlists page at offset %d: %w", offset, err)
		}

		if len(page.Items) == 0 {
			break
		}

		for _, playlist := range page.Items {
			if nameFilter != "" &&
				!strings.Contains(strings.ToLower(playlist.Name), strings.ToLower(nameFilter)) {
				continue
			}
			playlists = append(playlists, playlist)
		}

		if len(page.Items) < maxPageSize {
			break
		}
		offset += len(page.Items)
	}

	logger.Info("Fetched playlists",
		zap.Int("count", len(playlists)),
		zap.String("filter", nameFilter))
	return playlists, nil
}

// playlistTracks pages through one playlist's tracks, up to limit.
func (c *Client) playlistTracks(ctx context.Context, playlistID string, limit int) ([]SavedTrackItem, error) {
	var items []SavedTrackItem

	for offset := 0; len(items) < limit; {
		pageSize := min(playlistTracksLimit, limit-len(items))

		u := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d&offset=%d",
			c.cfg.APIURL, playlistID, pageSize, offset)
		var page PlaylistTracksResponse
		if err := c.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching tracks for playlist %s at offset %d: %w",
				playlistID, offset, err)
		}

		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.Id == "" {
				continue
			}
			items = append(items, item)
		}

		if len(page.Items) < pageSize {
			break
		}
		offset += len(page.Items)
	}

	return items, nil
}

// PlaylistTracks scans the user's playlists (optionally filtered by name)
// and accumulates tracks until limit is reached across all of them. A track
// appearing in several playlists is kept once, first occurrence winning.
func (c *Client) PlaylistTracks(ctx context.Context, limit int, nameFilter string) ([]PlaylistTrackItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	playlists, err := c.Playlists(ctx, nameFilter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var items []PlaylistTrackItem

	for _, playlist := range playlists {
		if len(items) >= limit {
			break
		}

		tracks, err := c.playlistTracks(ctx, playlist.Id, limit-len(items))
		if err != nil {
			return nil, err
		}

		for _, track := range tracks {
			if _, dup := seen[track.Track.Id]; dup {
				continue
			}
			seen[track.Track.Id] = struct{}{}
			items = append(items, PlaylistTrackItem{SavedTrackItem: track, Playlist: playlist})
			if len(items) >= limit {
				break
			}
		}

		logger.Debug("Scanned playlist",
			zap.String("playlist", playlist.Name),
			zap.Int("accumulated", len(items)))
	}

	logger.Info("Fetched playlist tracks",
		zap.Int("count", len(items)),
		zap.Int("playlists_scanned", len(playlists)))
	return items, nil
}
