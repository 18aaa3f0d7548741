package spotify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SavedTracks pages through the user's liked tracks at increasing offsets
// until limit items are collected, a page comes back empty, or a page comes
// back short. Items with a null track payload are skipped.
func (c *Client) SavedTracks(ctx context.Context, limit int) ([]SavedTrackItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	var items []SavedTrackItem

	for offset := 0; len(items) < limit; {
		pageSize := min(maxPageSize, limit-len(items))

		u := fmt.Sprintf("%s/me/tracks?limit=%d&offset=%d", c.cfg.APIURL, pageSize, offset)
		var page SavedTracksResponse
		if err := c.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching saved tracks page at offset %d: %w", offset, err)
		}

		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.Id == "" {
				logger.Debug("Skipping saved item with missing track payload")
				continue
			}
			items = append(items, item)
		}

		if len(page.Items) < pageSize {
			break
		}
		offset += len(page.Items)
	}

	logger.Info("Fetched saved tracks", zap.Int("count", len(items)))
	return items, nil
}
