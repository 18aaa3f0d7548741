package spotify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FeatureSource supplies audio features for a set of track ids. The client
// is the real source; SyntheticFeatureSource is the deterministic fallback.
// Keeping them behind one interface lets tests force either branch.
type FeatureSource interface {
	AudioFeatures(ctx context.Context, trackIDs []string) ([]*AudioFeatures, error)
}

// SyntheticFeatureSource always generates features locally.
type SyntheticFeatureSource struct{}

func (SyntheticFeatureSource) AudioFeatures(_ context.Context, trackIDs []string) ([]*AudioFeatures, error) {
	return SyntheticAudioFeaturesFor(trackIDs), nil
}

// batches partitions ids into groups of at most size, preserving order.
func batches(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

// AudioFeatures fetches audio features in batches of at most 50 ids. A 403
// on any batch abandons real lookups entirely and returns synthetic features
// for every requested id, keeping the set consistent instead of mixing real
// and synthetic rows. A batch failing with any other error is skipped; if
// nothing at all comes back, the whole set falls back to synthetic too.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) ([]*AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	var features []*AudioFeatures

	for i, batch := range batches(trackIDs, batchSize) {
		u := fmt.Sprintf("%s/audio-features?ids=%s", c.cfg.APIURL, strings.Join(batch, ","))

		var page AudioFeaturesResponse
		err := c.get(ctx, u, &page)
		if IsForbidden(err) {
			logger.Warn("Audio features endpoint is forbidden, switching to synthetic features",
				zap.Int("tracks", len(trackIDs)))
			return SyntheticAudioFeaturesFor(trackIDs), nil
		}
		if err != nil {
			logger.Warn("Failed to fetch audio features batch, skipping",
				zap.Int("batch", i+1),
				zap.Error(err))
			continue
		}

		for _, f := range page.AudioFeatures {
			if f != nil {
				features = append(features, f)
			}
		}
	}

	if len(features) == 0 {
		logger.Warn("No audio features retrieved, using synthetic features",
			zap.Int("tracks", len(trackIDs)))
		return SyntheticAudioFeaturesFor(trackIDs), nil
	}

	logger.Info("Fetched audio features",
		zap.Int("requested", len(trackIDs)),
		zap.Int("retrieved", len(features)))
	return features, nil
}
