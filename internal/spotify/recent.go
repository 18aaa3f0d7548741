package spotify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// RecentlyPlayed pages through the recently-played feed until limit items
// are collected or the feed ends. The feed is cursor-paginated: each page
// reports a "before" cursor pointing further into the past; when the server
// omits it, the cursor is derived from the oldest item's play timestamp.
//
// after, when nonzero, narrows the window to plays after that instant
// (incremental runs). The bound holds on every page, not just the first:
// paging moves backwards in time, so once a page contains a play at or
// before the bound the remaining feed is out of the window and pagination
// stops. Items with a null track payload are skipped.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int, after time.Time) ([]PlayHistoryItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	var items []PlayHistoryItem
	before := ""

	for len(items) < limit {
		pageSize := min(maxPageSize, limit-len(items))

		u := fmt.Sprintf("%s/me/player/recently-played?limit=%d", c.cfg.APIURL, pageSize)
		switch {
		case before != "":
			u += "&before=" + before
		case !after.IsZero():
			u += "&after=" + strconv.FormatInt(after.UnixMilli(), 10)
		}

		var page RecentlyPlayedResponse
		if err := c.get(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching recently played page: %w", err)
		}

		if len(page.Items) == 0 {
			break
		}

		crossedWindow := false
		for _, item := range page.Items {
			if item.Track == nil || item.Track.Id == "" {
				logger.Debug("Skipping play item with missing track payload")
				continue
			}
			if !after.IsZero() {
				playedAt, err := time.Parse(time.RFC3339, item.PlayedAt)
				if err == nil && !playedAt.After(after) {
					crossedWindow = true
					continue
				}
			}
			items = append(items, item)
		}
		if crossedWindow {
			logger.Debug("Reached the lower bound of the extraction window")
			break
		}

		// A short page means the upstream history is exhausted.
		if len(page.Items) < pageSize {
			break
		}

		before = page.Cursors.Before
		if before == "" {
			// Derive the cursor from the oldest item on this page.
			oldest := page.Items[len(page.Items)-1]
			t, err := time.Parse(time.RFC3339, oldest.PlayedAt)
			if err != nil {
				logger.Warn("Cannot derive pagination cursor, stopping",
					zap.String("played_at", oldest.PlayedAt))
				break
			}
			before = strconv.FormatInt(t.UnixMilli(), 10)
		}
	}

	logger.Info("Fetched recently played tracks", zap.Int("count", len(items)))
	return items, nil
}
