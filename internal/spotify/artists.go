package spotify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ArtistSource supplies detailed artist records for a set of artist ids.
type ArtistSource interface {
	Artists(ctx context.Context, artistIDs []string) ([]*Artist, error)
}

// SyntheticArtistSource always generates artist records locally.
type SyntheticArtistSource struct{}

func (SyntheticArtistSource) Artists(_ context.Context, artistIDs []string) ([]*Artist, error) {
	return SyntheticArtistsFor(artistIDs), nil
}

// Artists fetches detailed artist records (genres, popularity, followers)
// in batches of at most 50 unique ids. A failed batch is skipped and the
// rest are still attempted; if no artist at all is retrieved, synthetic
// placeholder artists are generated for every requested id.
func (c *Client) Artists(ctx context.Context, artistIDs []string) ([]*Artist, error) {
	unique := dedupeIDs(artistIDs)
	if len(unique) == 0 {
		return nil, nil
	}

	var artists []*Artist

	for i, batch := range batches(unique, batchSize) {
		u := fmt.Sprintf("%s/artists?ids=%s", c.cfg.APIURL, strings.Join(batch, ","))

		var page ArtistsResponse
		if err := c.get(ctx, u, &page); err != nil {
			logger.Warn("Failed to fetch artist batch, skipping",
				zap.Int("batch", i+1),
				zap.Error(err))
			continue
		}

		for _, artist := range page.Artists {
			// The API returns null for ids it cannot resolve.
			if artist != nil && artist.Id != "" {
				artists = append(artists, artist)
			}
		}
	}

	if len(artists) == 0 {
		logger.Warn("No artist details retrieved, using synthetic artists",
			zap.Int("artists", len(unique)))
		return SyntheticArtistsFor(unique), nil
	}

	logger.Info("Fetched artist details",
		zap.Int("requested", len(unique)),
		zap.Int("retrieved", len(artists)))
	return artists, nil
}

// dedupeIDs removes duplicate and empty ids, preserving first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
